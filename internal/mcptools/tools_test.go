package mcptools

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klabast/wb-services/advent-kalender/internal/app"
	"github.com/klabast/wb-services/advent-kalender/internal/calendar"
	"github.com/klabast/wb-services/advent-kalender/internal/projection"
	"github.com/klabast/wb-services/advent-kalender/internal/sequencer"
	"github.com/klabast/wb-services/advent-kalender/internal/store"
)

func newTestServer(t *testing.T, today time.Time) *Server {
	t.Helper()
	table, err := calendar.DefaultTable()
	require.NoError(t, err)
	clock := calendar.NewClock(func() time.Time { return today }, time.UTC)
	visitors, err := app.NewVisitors(8, table, clock, store.NewOpenedSets(store.NewMemory(), ""), nil)
	require.NoError(t, err)

	s, err := New(Deps{
		Table:    table,
		Clock:    clock,
		Visitors: visitors,
		Santa:    sequencer.New(app.Waypoints(table), projection.Default()),
	})
	require.NoError(t, err)
	return s
}

func call(t *testing.T, s *Server, tool string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	handler, ok := s.handlers()[tool]
	require.True(t, ok, "no handler for %s", tool)

	var req mcp.CallToolRequest
	req.Params.Name = tool
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "unexpected content %T", res.Content[0])
	return tc.Text
}

func decodeData[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError, text(t, res))
	var body struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &body))
	require.True(t, body.Success)
	return body.Data
}

func TestToolRegistry(t *testing.T) {
	assert.Equal(t, []string{"calendar_status", "day_details", "open_day", "reset_calendar", "santa_status"}, ToolNames())

	s := newTestServer(t, time.Now())
	for name, tool := range CreateTools() {
		assert.Equal(t, name, tool.Name)
		_, ok := s.handlers()[name]
		assert.True(t, ok, "missing handler for %s", name)
	}
}

func TestCalendarStatus(t *testing.T) {
	s := newTestServer(t, time.Date(2025, time.December, 10, 9, 0, 0, 0, time.UTC))

	cal := decodeData[app.CalendarResponse](t, call(t, s, "calendar_status", map[string]any{"visitorId": "alice"}))
	assert.Equal(t, "2025-12-10", cal.Today)
	require.Len(t, cal.Days, 12)
	assert.Equal(t, calendar.AvailableUnopened, cal.Days[1].State)
	assert.Equal(t, calendar.Locked, cal.Days[2].State)

	cal = decodeData[app.CalendarResponse](t, call(t, s, "calendar_status", map[string]any{"visitorId": "alice", "date": "2025-12-25"}))
	assert.Equal(t, calendar.AvailableUnopened, cal.GrandPrize.State)

	res := call(t, s, "calendar_status", map[string]any{})
	assert.True(t, res.IsError)
}

func TestOpenDay(t *testing.T) {
	s := newTestServer(t, time.Date(2025, time.December, 10, 9, 0, 0, 0, time.UTC))

	res := call(t, s, "open_day", map[string]any{"visitorId": "bob", "day": 3})
	assert.True(t, res.IsError, "day 3 is locked")

	res = call(t, s, "open_day", map[string]any{"visitorId": "bob", "day": 99})
	assert.True(t, res.IsError)

	data := decodeData[map[string]any](t, call(t, s, "open_day", map[string]any{"visitorId": "bob", "day": float64(2)}))
	assert.Equal(t, []any{float64(2)}, data["opened"])

	cal := decodeData[app.CalendarResponse](t, call(t, s, "calendar_status", map[string]any{"visitorId": "bob"}))
	assert.Equal(t, []int{2}, cal.Opened)
	assert.Equal(t, calendar.AvailableOpened, cal.Days[1].State)

	decodeData[map[string]any](t, call(t, s, "reset_calendar", map[string]any{"visitorId": "bob"}))
	cal = decodeData[app.CalendarResponse](t, call(t, s, "calendar_status", map[string]any{"visitorId": "bob"}))
	assert.Empty(t, cal.Opened)
}

func TestDayDetails(t *testing.T) {
	s := newTestServer(t, time.Date(2025, time.December, 1, 9, 0, 0, 0, time.UTC))

	res := call(t, s, "day_details", map[string]any{"day": 1})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "2025-12-09")

	day := decodeData[app.DayResponse](t, call(t, s, "day_details", map[string]any{"day": 1, "date": "2025-12-09"}))
	assert.Equal(t, "Small but mighty!", day.Superlative)
	assert.Len(t, day.Centers, 2)
	assert.Equal(t, calendar.AvailableUnopened, day.State)

	grand := decodeData[app.GrandPrizeResponse](t, call(t, s, "day_details", map[string]any{"day": 13, "date": "2025-12-25"}))
	assert.Len(t, grand.Winners, 4)
}

func TestSantaStatus(t *testing.T) {
	s := newTestServer(t, time.Now())
	snap := decodeData[map[string]any](t, call(t, s, "santa_status", nil))
	assert.Equal(t, false, snap["running"])

	s.deps.Santa = nil
	assert.True(t, call(t, s, "santa_status", nil).IsError)
}
