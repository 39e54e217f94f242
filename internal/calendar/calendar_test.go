package calendar

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chubank/internal/cache"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func holidayServer(t *testing.T, body string, status int, hits *atomic.Int64) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIsBusinessDay_WeekendsNeedNoFetch(t *testing.T) {
	// A failing endpoint proves the weekend answer never touches it.
	srv := holidayServer(t, "boom", http.StatusInternalServerError, nil)
	cal := NewHolidayAPI(srv.URL, cache.Noop{}, testLogger())

	saturday := time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)

	for _, d := range []time.Time{saturday, sunday} {
		ok, err := cal.IsBusinessDay(context.Background(), d)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestIsBusinessDay_HolidayAndWeekday(t *testing.T) {
	body := `[{"date":"2025-05-01","name":"Dia do Trabalhador"}]`
	srv := holidayServer(t, body, http.StatusOK, nil)
	cal := NewHolidayAPI(srv.URL, cache.Noop{}, testLogger())

	holiday := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC) // Thursday
	ok, err := cal.IsBusinessDay(context.Background(), holiday)
	require.NoError(t, err)
	assert.False(t, ok)

	weekday := time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC) // Friday
	ok, err = cal.IsBusinessDay(context.Background(), weekday)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsBusinessDay_SourceFailureIsAnError(t *testing.T) {
	srv := holidayServer(t, "unavailable", http.StatusBadGateway, nil)
	cal := NewHolidayAPI(srv.URL, cache.Noop{}, testLogger())

	monday := time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC)
	_, err := cal.IsBusinessDay(context.Background(), monday)
	require.Error(t, err, "an unreachable holiday source must never silently permit the day")
}

func TestIsBusinessDay_CachesPerYear(t *testing.T) {
	var hits atomic.Int64
	srv := holidayServer(t, `[]`, http.StatusOK, &hits)
	cal := NewHolidayAPI(srv.URL, cache.NewMemory(), testLogger())

	for day := 5; day <= 9; day++ {
		d := time.Date(2025, time.May, day, 0, 0, 0, 0, time.UTC)
		ok, err := cal.IsBusinessDay(context.Background(), d)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, int64(1), hits.Load(), "one fetch should serve the whole year")
}

func TestCacheTTLForYear(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	current := cacheTTLForYear(2025, now)
	assert.Greater(t, current, 24*time.Hour)
	assert.Less(t, current, 365*24*time.Hour)

	past := cacheTTLForYear(2020, now)
	assert.Equal(t, 365*24*time.Hour, past)
}
