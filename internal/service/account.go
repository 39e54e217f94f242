package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"chubank/internal/cache"
	"chubank/internal/core"
	"chubank/internal/storage"
)

const (
	accountCacheTTLOnCreate = 30 * time.Minute
	accountCacheTTLOnRead   = 15 * time.Minute
)

// AccountService creates and reads accounts. It never moves money; balance
// mutation belongs to the transfer engine alone.
type AccountService struct {
	store  storage.AccountStore
	cache  cache.Cache
	logger *slog.Logger
}

func NewAccountService(store storage.AccountStore, c cache.Cache, logger *slog.Logger) *AccountService {
	return &AccountService{store: store, cache: c, logger: logger}
}

func accountCacheKey(id uuid.UUID) string {
	return "account_" + id.String()
}

// CreateAccount opens an account seeded with a non-negative initial balance
// and a unique 6-digit account number, regenerated on collision.
func (s *AccountService) CreateAccount(ctx context.Context, holderName string, initialBalance decimal.Decimal) (*core.Account, error) {
	s.logger.Info("creating account", "holder", holderName)

	number, err := s.uniqueAccountNumber(ctx)
	if err != nil {
		return nil, err
	}

	account := &core.Account{
		ID:             uuid.New(),
		AccountNumber:  number,
		HolderName:     holderName,
		Balance:        initialBalance,
		InitialBalance: initialBalance,
		CreatedAt:      time.Now().UTC(),
		IsActive:       true,
	}

	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.cacheAccount(ctx, account, accountCacheTTLOnCreate)
	s.logger.Info("account created", "account_number", number, "holder", holderName)
	return account, nil
}

// GetAccount reads an account, cache-aside.
func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*core.Account, error) {
	key := accountCacheKey(id)
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var cached core.Account
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return &cached, nil
		}
		_ = s.cache.Delete(ctx, key)
	}

	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheAccount(ctx, account, accountCacheTTLOnRead)
	return account, nil
}

// GetAccountByNumber reads an account by its human-facing number, bypassing
// the cache (the cache is keyed by id).
func (s *AccountService) GetAccountByNumber(ctx context.Context, number string) (*core.Account, error) {
	return s.store.GetAccountByNumber(ctx, number)
}

// ListAccounts returns all accounts.
func (s *AccountService) ListAccounts(ctx context.Context) ([]*core.Account, error) {
	return s.store.ListAccounts(ctx)
}

// DeactivateAccount soft-deactivates an account. The record and its history
// remain; only IsActive flips.
func (s *AccountService) DeactivateAccount(ctx context.Context, id uuid.UUID) (*core.Account, error) {
	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return account, nil
	}

	account.IsActive = false
	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}

	if err := s.cache.Delete(ctx, accountCacheKey(id)); err != nil {
		s.logger.Warn("failed to invalidate account cache", "account_id", id, "err", err)
	}
	return account, nil
}

func (s *AccountService) cacheAccount(ctx context.Context, account *core.Account, ttl time.Duration) {
	raw, err := json.Marshal(account)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, accountCacheKey(account.ID), string(raw), ttl); err != nil {
		s.logger.Warn("failed to cache account", "account_id", account.ID, "err", err)
	}
}

func (s *AccountService) uniqueAccountNumber(ctx context.Context) (string, error) {
	for {
		number := fmt.Sprintf("%06d", 100000+rand.Intn(900000))
		_, err := s.store.GetAccountByNumber(ctx, number)
		if errors.Is(err, storage.ErrAccountNotFound) {
			return number, nil
		}
		if err != nil {
			return "", err
		}
		// Taken; roll again.
	}
}
