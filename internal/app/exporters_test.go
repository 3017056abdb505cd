package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/klabast/wb-services/advent-kalender/internal/calendar"
)

func TestWriteSubscriptionICS(t *testing.T) {
	table, err := calendar.DefaultTable()
	if err != nil {
		t.Fatalf("DefaultTable() error = %v", err)
	}

	var sb strings.Builder
	stamp := time.Date(2025, time.December, 1, 8, 30, 0, 0, time.UTC)
	if err := WriteSubscriptionICS(&sb, table, stamp); err != nil {
		t.Fatalf("WriteSubscriptionICS() error = %v", err)
	}
	ics := sb.String()

	tests := []struct {
		name     string
		contains string
	}{
		{"header", "BEGIN:VCALENDAR\r\nVERSION:2.0\r\n"},
		{"product id", "PRODID:" + ICSProductID},
		{"publish", "METHOD:PUBLISH"},
		{"calendar name", "X-WR-CALNAME:12 Days of CARSK"},
		{"refresh hint", "X-PUBLISHED-TTL:PT1H"},
		{"stamp", "DTSTAMP:20251201T083000Z"},
		{"first day", "DTSTART;VALUE=DATE:20251209\r\nDTEND;VALUE=DATE:20251210"},
		{"summary", "SUMMARY:Day 1: Small but mighty!"},
		{"escaped description", `DESCRIPTION:Unlocks today: Royal University Hospital\; Kingston General Hospital`},
		{"grand prize", "UID:day-13@advent-kalender\r\nDTSTAMP:20251201T083000Z\r\nDTSTART;VALUE=DATE:20251225"},
		{"footer", "END:VCALENDAR\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(ics, tt.contains) {
				t.Errorf("ICS missing %q", tt.contains)
			}
		})
	}

	if got := strings.Count(ics, "BEGIN:VEVENT"); got != 13 {
		t.Errorf("VEVENT count = %d, want 13", got)
	}
	if got := strings.Count(ics, "END:VEVENT"); got != 13 {
		t.Errorf("END:VEVENT count = %d, want 13", got)
	}
}

func TestICSEscaping(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a,b", `a\,b`},
		{"a;b", `a\;b`},
		{`back\slash`, `back\\slash`},
		{"two\nlines", `two\nlines`},
	}
	for _, tt := range tests {
		if got := icsEscaper.Replace(tt.in); got != tt.want {
			t.Errorf("escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type brokenWriter struct{ n int }

func (b *brokenWriter) Write(p []byte) (int, error) {
	b.n++
	return 0, errors.New("pipe closed")
}

func TestWriteSubscriptionICSStopsOnError(t *testing.T) {
	table, err := calendar.DefaultTable()
	if err != nil {
		t.Fatalf("DefaultTable() error = %v", err)
	}
	w := &brokenWriter{}
	if err := WriteSubscriptionICS(w, table, time.Now()); err == nil {
		t.Fatal("expected write error")
	}
	if w.n != 1 {
		t.Errorf("writes after first failure = %d, want 1", w.n)
	}
}
