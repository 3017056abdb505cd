package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klabast/wb-services/advent-kalender/internal/calendar"
	"github.com/klabast/wb-services/advent-kalender/internal/store"
)

func newVisitors(t *testing.T, size int, sets *store.OpenedSets) *Visitors {
	t.Helper()
	table, err := calendar.DefaultTable()
	require.NoError(t, err)
	clock := calendar.NewClock(func() time.Time { return day(31) }, time.UTC)
	v, err := NewVisitors(size, table, clock, sets, nil)
	require.NoError(t, err)
	return v
}

func TestVisitorsCacheControllers(t *testing.T) {
	ctx := context.Background()
	v := newVisitors(t, 4, store.NewOpenedSets(store.NewMemory(), ""))

	created := 0
	v.OnCreate = func(string, *calendar.Controller) { created++ }

	a := v.Get(ctx, "a")
	assert.Same(t, a, v.Get(ctx, "a"))
	assert.NotSame(t, a, v.Get(ctx, "b"))
	assert.Equal(t, 2, created)
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, "carsk_opened_gifts:a", v.Key("a"))
}

func TestVisitorsEvictionReloadsFromStore(t *testing.T) {
	ctx := context.Background()
	v := newVisitors(t, 1, store.NewOpenedSets(store.NewMemory(), ""))

	_, ok := v.Get(ctx, "a").Open(ctx, 3)
	require.True(t, ok)

	v.Get(ctx, "b") // evicts a
	assert.Equal(t, 1, v.Len())

	assert.Equal(t, []int{3}, v.Get(ctx, "a").Opened().Sorted())
}

func TestVisitorsWithoutStore(t *testing.T) {
	ctx := context.Background()
	v := newVisitors(t, 2, nil)

	c := v.Get(ctx, "a")
	_, ok := c.Open(ctx, 1)
	require.True(t, ok)
	assert.False(t, c.Degraded())
	assert.Equal(t, "carsk_opened_gifts:a", v.Key("a"))

	v.Purge()
	assert.Zero(t, v.Len())
	assert.Empty(t, v.Get(ctx, "a").Opened())
}

func TestVisitorID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	id := visitorID(rec, req, "v")
	require.NotEmpty(t, id)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "v", cookies[0].Name)
	assert.Equal(t, id, cookies[0].Value)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "v", Value: id})
	assert.Equal(t, id, visitorID(rec, req, "v"))
	assert.Empty(t, rec.Result().Cookies())
}
