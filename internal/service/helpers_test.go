package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"chubank/internal/calendar"
	"chubank/internal/core"
	"chubank/internal/storage/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCalendar answers without consulting any holiday source.
type fakeCalendar struct {
	businessDay bool
	err         error
}

var _ calendar.Calendar = (*fakeCalendar)(nil)

func (c *fakeCalendar) IsBusinessDay(ctx context.Context, date time.Time) (bool, error) {
	return c.businessDay, c.err
}

func openCalendar() *fakeCalendar   { return &fakeCalendar{businessDay: true} }
func closedCalendar() *fakeCalendar { return &fakeCalendar{businessDay: false} }

func seedAccount(t *testing.T, store *memory.Store, number string, balance int64) *core.Account {
	t.Helper()

	acc := &core.Account{
		ID:             uuid.New(),
		AccountNumber:  number,
		HolderName:     "Holder " + number,
		Balance:        decimal.NewFromInt(balance),
		InitialBalance: decimal.NewFromInt(balance),
		CreatedAt:      time.Now().UTC(),
		IsActive:       true,
	}
	require.NoError(t, store.CreateAccount(context.Background(), acc))
	return acc
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}
