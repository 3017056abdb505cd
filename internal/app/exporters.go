package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klabast/wb-services/advent-kalender/internal/calendar"
)

var icsEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)

// WriteSubscriptionICS writes an iCalendar subscription feed with one
// all-day event per activation date plus the grand prize. UIDs are stable so
// subscribed calendars update in place.
func WriteSubscriptionICS(w io.Writer, table *calendar.Table, stamp time.Time) error {
	ew := &errWriter{w: w}
	dtstamp := stamp.UTC().Format("20060102T150405Z")

	ew.line("BEGIN:VCALENDAR")
	ew.line("VERSION:2.0")
	ew.linef("PRODID:%s", ICSProductID)
	ew.line("METHOD:PUBLISH")
	ew.linef("X-WR-CALNAME:%s", icsEscaper.Replace(table.Name))
	ew.line("CALSCALE:GREGORIAN")
	ew.line("X-PUBLISHED-TTL:PT1H")

	for _, day := range table.Days {
		names := make([]string, len(day.Items))
		for i, it := range day.Items {
			names[i] = it.Name
		}
		summary := fmt.Sprintf("Day %d", day.Index)
		if day.Superlative != "" {
			summary += ": " + day.Superlative
		}
		writeEvent(ew, day.Index, day.Date, dtstamp, summary,
			fmt.Sprintf("Unlocks today: %s", strings.Join(names, "; ")))
	}

	g := table.GrandPrize
	writeEvent(ew, g.Index, g.Date, dtstamp, g.Title, g.Message)

	ew.line("END:VCALENDAR")
	return ew.err
}

func writeEvent(ew *errWriter, index int, date time.Time, dtstamp, summary, description string) {
	ew.line("BEGIN:VEVENT")
	ew.linef("UID:day-%d@%s", index, ICSUIDDomain)
	ew.linef("DTSTAMP:%s", dtstamp)
	ew.linef("DTSTART;VALUE=DATE:%s", date.Format("20060102"))
	ew.linef("DTEND;VALUE=DATE:%s", date.AddDate(0, 0, 1).Format("20060102"))
	ew.linef("SUMMARY:%s", icsEscaper.Replace(summary))
	if description != "" {
		ew.linef("DESCRIPTION:%s", icsEscaper.Replace(description))
	}
	ew.line("END:VEVENT")
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) line(s string) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprint(e.w, s, "\r\n")
}

func (e *errWriter) linef(format string, args ...any) {
	e.line(fmt.Sprintf(format, args...))
}
