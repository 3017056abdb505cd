package mcptools

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/advent-kalender/internal/app"
	"github.com/klabast/wb-services/advent-kalender/internal/calendar"
)

// Response is the JSON body of every successful tool result.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// CreateTools returns every tool definition keyed by name.
func CreateTools() map[string]mcp.Tool {
	return map[string]mcp.Tool{
		"calendar_status": createCalendarStatusTool(),
		"open_day":        createOpenDayTool(),
		"day_details":     createDayDetailsTool(),
		"santa_status":    createSantaStatusTool(),
		"reset_calendar":  createResetCalendarTool(),
	}
}

func (s *Server) handlers() map[string]server.ToolHandlerFunc {
	return map[string]server.ToolHandlerFunc{
		"calendar_status": s.handleCalendarStatus,
		"open_day":        s.handleOpenDay,
		"day_details":     s.handleDayDetails,
		"santa_status":    s.handleSantaStatus,
		"reset_calendar":  s.handleResetCalendar,
	}
}

func visitorParam() mcp.ToolOption {
	return mcp.WithString("visitorId",
		mcp.Required(),
		mcp.Description("Visitor id whose opened days are read or changed"),
	)
}

func dateParam() mcp.ToolOption {
	return mcp.WithString("date",
		mcp.Description("Optional virtual date as YYYY-MM-DD. Invalid values fall back to today."),
	)
}

func dayParam() mcp.ToolOption {
	return mcp.WithNumber("day",
		mcp.Required(),
		mcp.Description("Day index, 1 to 12, or 13 for the grand prize"),
	)
}

func createCalendarStatusTool() mcp.Tool {
	return mcp.NewTool("calendar_status",
		mcp.WithDescription("Show which calendar days are locked, available or already opened for a visitor."),
		visitorParam(),
		dateParam(),
	)
}

func (s *Server) handleCalendarStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	visitor, err := request.RequireString("visitorId")
	if err != nil || visitor == "" {
		return mcp.NewToolResultError("Error: visitorId is required"), nil
	}
	at := s.date(request)
	c := s.deps.Visitors.Get(ctx, visitor)

	return jsonResult(Response{
		Success: true,
		Data: app.CalendarResponse{
			Today:      at.Format(calendar.DateLayout),
			Degraded:   c.Degraded(),
			Opened:     c.Opened().Sorted(),
			Days:       c.StatesAt(at),
			GrandPrize: c.GrandPrizeStateAt(at),
		},
	})
}

func createOpenDayTool() mcp.Tool {
	return mcp.NewTool("open_day",
		mcp.WithDescription("Open an available calendar day for a visitor and reveal its content. Locked days cannot be opened."),
		visitorParam(),
		dayParam(),
		dateParam(),
	)
}

func (s *Server) handleOpenDay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	visitor, err := request.RequireString("visitorId")
	if err != nil || visitor == "" {
		return mcp.NewToolResultError("Error: visitorId is required"), nil
	}
	n, err := request.RequireInt("day")
	if err != nil {
		return mcp.NewToolResultError("Error: day is required"), nil
	}
	at := s.date(request)
	c := s.deps.Visitors.Get(ctx, visitor)

	if _, ok := c.Lookup(n); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v: %d", calendar.ErrUnknownDay, n)), nil
	}
	opened, ok := c.OpenAt(ctx, n, at)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Error: day %d is locked until it is reached", n)), nil
	}

	content, err := s.content(n, calendar.AvailableOpened)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %s", err.Error())), nil
	}
	return jsonResult(Response{
		Success: true,
		Data: map[string]any{
			"opened":  opened.Sorted(),
			"content": content,
		},
		Message: fmt.Sprintf("Day %d opened.", n),
	})
}

func createDayDetailsTool() mcp.Tool {
	return mcp.NewTool("day_details",
		mcp.WithDescription("Show the centers, team members and recruitment of an unlocked day without opening it."),
		dayParam(),
		dateParam(),
	)
}

func (s *Server) handleDayDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := request.RequireInt("day")
	if err != nil {
		return mcp.NewToolResultError("Error: day is required"), nil
	}
	at := s.date(request)

	var day calendar.ScheduledDay
	switch d, ok := s.deps.Table.Day(n); {
	case ok:
		day = d
	case n == s.deps.Table.GrandPrize.Index:
		day = s.deps.Table.GrandPrize.Day()
	default:
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v: %d", calendar.ErrUnknownDay, n)), nil
	}

	state := calendar.ComputeState(day, at, nil)
	if state == calendar.Locked {
		return mcp.NewToolResultError(fmt.Sprintf("Error: day %d unlocks on %s", n, day.Date.Format(calendar.DateLayout))), nil
	}
	content, err := s.content(n, state)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %s", err.Error())), nil
	}
	return jsonResult(Response{Success: true, Data: content})
}

func createSantaStatusTool() mcp.Tool {
	return mcp.NewTool("santa_status",
		mcp.WithDescription("Show where Santa currently is on the map and which centers were visited."),
	)
}

func (s *Server) handleSantaStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Santa == nil {
		return mcp.NewToolResultError("Error: " + app.ErrSantaUnavailable), nil
	}
	snap := s.deps.Santa.Snapshot()
	msg := "Santa is resting."
	if snap.Running {
		msg = fmt.Sprintf("Santa is flying (%s), loop %d.", snap.Program, snap.Loop)
	}
	return jsonResult(Response{Success: true, Data: snap, Message: msg})
}

func createResetCalendarTool() mcp.Tool {
	return mcp.NewTool("reset_calendar",
		mcp.WithDescription("Forget every opened day of a visitor."),
		visitorParam(),
	)
}

func (s *Server) handleResetCalendar(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	visitor, err := request.RequireString("visitorId")
	if err != nil || visitor == "" {
		return mcp.NewToolResultError("Error: visitorId is required"), nil
	}
	c := s.deps.Visitors.Get(ctx, visitor)
	c.Reset(ctx)
	s.deps.Logger.Info("opened set reset", zap.String("visitor", visitor))
	return jsonResult(Response{Success: true, Data: map[string]any{"opened": []int{}}, Message: "Calendar reset."})
}

// content renders the payload of an unlocked regular or grand prize day.
func (s *Server) content(n int, state calendar.State) (any, error) {
	if n == s.deps.Table.GrandPrize.Index {
		return app.NewGrandPrizeResponse(s.deps.Table.GrandPrize, state), nil
	}
	day, ok := s.deps.Table.Day(n)
	if !ok {
		return nil, fmt.Errorf("%w: %d", calendar.ErrUnknownDay, n)
	}
	return app.NewDayResponse(s.deps.Table, day, state), nil
}

// date reads the optional date argument, falling back to the clock.
func (s *Server) date(request mcp.CallToolRequest) time.Time {
	raw := request.GetString("date", "")
	if raw == "" {
		return s.deps.Clock.Today()
	}
	d, err := calendar.ParseDateOverride(raw)
	if err != nil {
		s.deps.Logger.Debug("ignoring date argument", zap.String("date", raw), zap.Error(err))
		return s.deps.Clock.Today()
	}
	return d
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
