package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/klabast/wb-services/advent-kalender/internal/app"
	"github.com/klabast/wb-services/advent-kalender/internal/calendar"
)

// ListDays prints the schedule with each day's state at the given date.
func ListDays(out io.Writer, table *calendar.Table, at time.Time) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "DAY\tDATE\tSTATE\tSUPERLATIVE\tCENTERS\n")
	for _, day := range table.Days {
		names := make([]string, len(day.Items))
		for i, it := range day.Items {
			names[i] = it.Name
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			day.Index,
			day.Date.Format(calendar.DateLayout),
			calendar.ComputeState(day, at, nil),
			day.Superlative,
			strings.Join(names, ", "))
	}
	g := table.GrandPrize
	fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d winners\n",
		g.Index,
		g.Date.Format(calendar.DateLayout),
		calendar.ComputeState(g.Day(), at, nil),
		g.Title,
		len(g.Winners))
	return tw.Flush()
}

// ResetVisitor clears one visitor's stored opened set.
func ResetVisitor(ctx context.Context, out io.Writer, rt *app.Runtime, visitor string) error {
	if visitor == "" {
		return fmt.Errorf("visitor id is required")
	}
	c := rt.Visitors.Get(ctx, visitor)
	before := c.Opened().Sorted()
	c.Reset(ctx)
	if c.Degraded() {
		return fmt.Errorf("reset %s: %w", visitor, calendar.ErrPersistenceUnavailable)
	}
	fmt.Fprintf(out, "Reset %s (had %d opened days: %v)\n", visitor, len(before), before)
	return nil
}
