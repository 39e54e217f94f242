package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"chubank/internal/core"
	"chubank/internal/storage"
)

var _ storage.Storage = (*Store)(nil)

// Store provides in-memory persistence for accounts, transfers, and users.
// It is the test and local-run backend; postgres is the durable one.
type Store struct {
	mu        sync.RWMutex
	accounts  map[uuid.UUID]*core.Account
	numbers   map[string]uuid.UUID
	transfers []*core.Transfer
	users     map[uuid.UUID]*core.User
	usernames map[string]uuid.UUID

	locksMu   sync.Mutex
	acctLocks map[uuid.UUID]*sync.Mutex
}

// NewStore creates a new in-memory data store.
func NewStore() *Store {
	return &Store{
		accounts:  make(map[uuid.UUID]*core.Account),
		numbers:   make(map[string]uuid.UUID),
		users:     make(map[uuid.UUID]*core.User),
		usernames: make(map[string]uuid.UUID),
		acctLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *Store) getAccountLock(id uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	l, ok := s.acctLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.acctLocks[id] = l
	}
	s.locksMu.Unlock()
	return l
}

// CreateAccount adds a new account.
func (s *Store) CreateAccount(ctx context.Context, acc *core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *acc
	s.accounts[c.ID] = &c
	s.numbers[c.AccountNumber] = c.ID
	return nil
}

// GetAccount retrieves an account by id.
func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	c := *acc
	return &c, nil
}

// GetAccountByNumber retrieves an account by its account number.
func (s *Store) GetAccountByNumber(ctx context.Context, number string) (*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.numbers[number]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	c := *s.accounts[id]
	return &c, nil
}

// ListAccounts returns all accounts ordered by creation time.
func (s *Store) ListAccounts(ctx context.Context) ([]*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*core.Account
	for _, acc := range s.accounts {
		c := *acc
		list = append(list, &c)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID.String() < list[j].ID.String()
	})
	return list, nil
}

// UpdateAccount persists identity and status fields. Balances move only
// through Transfer.
func (s *Store) UpdateAccount(ctx context.Context, acc *core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.accounts[acc.ID]
	if !ok {
		return storage.ErrAccountNotFound
	}
	cur.HolderName = acc.HolderName
	cur.IsActive = acc.IsActive
	return nil
}

// Transfer debits, credits, and appends the log entry atomically. The two
// account locks are always taken in id order so transfers over a shared
// account serialize without deadlocking.
func (s *Store) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, description string, transferDate time.Time) (*core.Transfer, error) {
	if fromID == toID {
		return nil, core.ErrSameAccount
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, core.ErrInvalidAmount
	}

	first, second := fromID, toID
	if second.String() < first.String() {
		first, second = second, first
	}

	firstLock := s.getAccountLock(first)
	secondLock := s.getAccountLock(second)

	firstLock.Lock()
	defer firstLock.Unlock()
	secondLock.Lock()
	defer secondLock.Unlock()

	s.mu.RLock()
	fromAcc, ok1 := s.accounts[fromID]
	toAcc, ok2 := s.accounts[toID]
	s.mu.RUnlock()

	if !ok1 || !ok2 {
		return nil, storage.ErrAccountNotFound
	}
	if fromAcc.Balance.LessThan(amount) {
		return nil, storage.ErrInsufficientFunds
	}

	transfer := &core.Transfer{
		ID:            uuid.New(),
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        amount,
		Description:   description,
		TransferDate:  core.DateOnly(transferDate),
		CreatedAt:     time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fromAcc.Balance = fromAcc.Balance.Sub(amount)
	toAcc.Balance = toAcc.Balance.Add(amount)
	s.transfers = append(s.transfers, transfer)

	c := *transfer
	return &c, nil
}

// RecordTransfer appends a transfer without touching balances.
func (s *Store) RecordTransfer(ctx context.Context, t *core.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *t
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.TransferDate = core.DateOnly(c.TransferDate)
	s.transfers = append(s.transfers, &c)
	return nil
}

// GetTransfer retrieves a transfer by id.
func (s *Store) GetTransfer(ctx context.Context, id uuid.UUID) (*core.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.transfers {
		if t.ID == id {
			c := *t
			return &c, nil
		}
	}
	return nil, storage.ErrTransferNotFound
}

// ListTransfersByAccount returns transfers where the account is either party,
// bounded by posting date, in replay order (date, created_at, id).
func (s *Store) ListTransfersByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*core.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*core.Transfer
	for _, t := range s.transfers {
		if t.FromAccountID != accountID && t.ToAccountID != accountID {
			continue
		}
		if from != nil && t.TransferDate.Before(core.DateOnly(*from)) {
			continue
		}
		if to != nil && t.TransferDate.After(core.DateOnly(*to)) {
			continue
		}
		c := *t
		list = append(list, &c)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].TransferDate.Equal(list[j].TransferDate) {
			return list[i].TransferDate.Before(list[j].TransferDate)
		}
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID.String() < list[j].ID.String()
	})
	return list, nil
}

// CreateUser adds a new user.
func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usernames[u.Username]; ok {
		return storage.ErrUserExists
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return storage.ErrUserExists
		}
	}
	c := *u
	s.users[c.ID] = &c
	s.usernames[c.Username] = c.ID
	return nil
}

// GetUserByID retrieves a user by id.
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

// GetUserByUsername retrieves a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	c := *s.users[id]
	return &c, nil
}

// UpdateUser persists mutable user state.
func (s *Store) UpdateUser(ctx context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[u.ID]
	if !ok {
		return storage.ErrUserNotFound
	}
	c := *u
	c.Username = cur.Username
	s.users[u.ID] = &c
	return nil
}
