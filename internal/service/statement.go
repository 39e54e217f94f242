package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"chubank/internal/cache"
	"chubank/internal/core"
	"chubank/internal/storage"
)

const statementCacheTTL = 30 * time.Minute

// StatementService is the read side of the ledger: it replays the transfer
// log to reconstruct an account's running balance over a date window. It
// writes nothing but cache entries.
type StatementService struct {
	store  storage.Storage
	cache  cache.Cache
	logger *slog.Logger
}

func NewStatementService(store storage.Storage, c cache.Cache, logger *slog.Logger) *StatementService {
	return &StatementService{store: store, cache: c, logger: logger}
}

func statementCacheKey(accountID uuid.UUID, start, end time.Time) string {
	return fmt.Sprintf("statement_%s_%s_%s", accountID, start.Format("20060102"), end.Format("20060102"))
}

// GenerateStatement produces the statement for [start, end]. The window is
// taken as given: the caller layer guarantees start <= end and end not in
// the future. A cached statement is returned verbatim; otherwise the opening
// balance is replayed from the full prior history and the window's transfers
// are walked once in posting order.
func (s *StatementService) GenerateStatement(ctx context.Context, accountID uuid.UUID, start, end time.Time) (*core.Statement, error) {
	start = core.DateOnly(start)
	end = core.DateOnly(end)

	key := statementCacheKey(accountID, start, end)
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var cached core.Statement
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return &cached, nil
		}
		s.logger.Warn("discarding unreadable cached statement", "key", key)
		_ = s.cache.Delete(ctx, key)
	}

	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	opening, err := s.openingBalance(ctx, account, start)
	if err != nil {
		return nil, err
	}

	transfers, err := s.store.ListTransfersByAccount(ctx, accountID, &start, &end)
	if err != nil {
		return nil, err
	}

	numbers := map[uuid.UUID]string{accountID: account.AccountNumber}

	entries := make([]core.StatementEntry, 0, len(transfers))
	running := opening
	for _, t := range transfers {
		isDebit := t.FromAccountID == accountID
		amount := t.Amount
		if isDebit {
			amount = amount.Neg()
		}
		running = running.Add(amount)

		entryType := core.EntryCredit
		if isDebit {
			entryType = core.EntryDebit
		}

		description := t.Description
		if description == "" {
			counterparty := t.ToAccountID
			if !isDebit {
				counterparty = t.FromAccountID
			}
			number, err := s.accountNumber(ctx, numbers, counterparty)
			if err != nil {
				return nil, err
			}
			if isDebit {
				description = "Transfer to " + number
			} else {
				description = "Transfer from " + number
			}
		}

		entries = append(entries, core.StatementEntry{
			Date:        t.TransferDate,
			Description: description,
			Amount:      amount,
			Balance:     running,
			Type:        entryType,
		})
	}

	statement := &core.Statement{
		ID:             uuid.New(),
		AccountNumber:  account.AccountNumber,
		StartDate:      start,
		EndDate:        end,
		OpeningBalance: opening,
		ClosingBalance: running,
		Entries:        entries,
		GeneratedAt:    time.Now().UTC(),
	}

	if raw, err := json.Marshal(statement); err == nil {
		if err := s.cache.Set(ctx, key, string(raw), statementCacheTTL); err != nil {
			s.logger.Warn("failed to cache statement", "key", key, "err", err)
		}
	}

	return statement, nil
}

// openingBalance seeds from the account's initial balance and replays every
// transfer posted strictly before start. The replay is a pure signed sum, so
// order does not matter.
func (s *StatementService) openingBalance(ctx context.Context, account *core.Account, start time.Time) (decimal.Decimal, error) {
	before := start.AddDate(0, 0, -1)
	transfers, err := s.store.ListTransfersByAccount(ctx, account.ID, nil, &before)
	if err != nil {
		return decimal.Zero, err
	}

	balance := account.InitialBalance
	for _, t := range transfers {
		if t.FromAccountID == account.ID {
			balance = balance.Sub(t.Amount)
		} else {
			balance = balance.Add(t.Amount)
		}
	}
	return balance, nil
}

func (s *StatementService) accountNumber(ctx context.Context, memo map[uuid.UUID]string, id uuid.UUID) (string, error) {
	if n, ok := memo[id]; ok {
		return n, nil
	}
	acc, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return "", err
	}
	memo[id] = acc.AccountNumber
	return acc.AccountNumber, nil
}
