// Package calendar answers whether transfers may post on a given date.
// A business day is a weekday that is not a recognized holiday.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"chubank/internal/cache"
)

// Calendar reports whether a date is a valid transfer day. When the holiday
// source cannot be reached the answer is unknown: implementations return an
// error and never silently permit the day.
type Calendar interface {
	IsBusinessDay(ctx context.Context, date time.Time) (bool, error)
}

type holiday struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// HolidayAPI is a Calendar backed by a BrasilAPI-compatible holiday endpoint
// (GET {base}/api/feriados/v1/{year}), with per-year cache-aside.
type HolidayAPI struct {
	baseURL string
	client  *http.Client
	cache   cache.Cache
	logger  *slog.Logger
}

func NewHolidayAPI(baseURL string, c cache.Cache, logger *slog.Logger) *HolidayAPI {
	return &HolidayAPI{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   c,
		logger:  logger,
	}
}

// IsBusinessDay returns false for weekends without consulting the holiday
// source, otherwise checks the year's holiday list.
func (h *HolidayAPI) IsBusinessDay(ctx context.Context, date time.Time) (bool, error) {
	switch date.UTC().Weekday() {
	case time.Saturday, time.Sunday:
		return false, nil
	}

	holidays, err := h.holidaysForYear(ctx, date.UTC().Year())
	if err != nil {
		return false, err
	}

	day := date.UTC().Format("2006-01-02")
	for _, hd := range holidays {
		if hd.Date == day {
			return false, nil
		}
	}
	return true, nil
}

func (h *HolidayAPI) holidaysForYear(ctx context.Context, year int) ([]holiday, error) {
	key := fmt.Sprintf("holidays_%d", year)

	if v, err := h.cache.Get(ctx, key); err == nil {
		var holidays []holiday
		if err := json.Unmarshal([]byte(v), &holidays); err == nil {
			return holidays, nil
		}
		// Corrupt entry; drop it and refetch.
		_ = h.cache.Delete(ctx, key)
	}

	holidays, err := h.fetchHolidays(ctx, year)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(holidays); err == nil {
		if err := h.cache.Set(ctx, key, string(raw), cacheTTLForYear(year, time.Now())); err != nil {
			h.logger.Warn("failed to cache holidays", "year", year, "err", err)
		}
	}
	return holidays, nil
}

func (h *HolidayAPI) fetchHolidays(ctx context.Context, year int) ([]holiday, error) {
	url := fmt.Sprintf("%s/api/feriados/v1/%d", h.baseURL, year)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch holidays for %d: %w", year, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch holidays for %d: unexpected status %d", year, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var holidays []holiday
	if err := json.Unmarshal(body, &holidays); err != nil {
		return nil, fmt.Errorf("decode holidays for %d: %w", year, err)
	}
	return holidays, nil
}

// cacheTTLForYear keeps a year's holiday list until shortly after that year
// ends. Past years effectively never change.
func cacheTTLForYear(year int, now time.Time) time.Duration {
	endOfYear := time.Date(year, 12, 31, 23, 59, 59, 0, time.UTC)
	if endOfYear.Before(now) {
		return 365 * 24 * time.Hour
	}
	return endOfYear.Sub(now) + 24*time.Hour
}
