package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chubank/internal/cache"
	"chubank/internal/service"
	"chubank/internal/storage/memory"
)

// stubCalendar lets a test flip between business and non-business days.
type stubCalendar struct {
	businessDay bool
	err         error
}

func (c *stubCalendar) IsBusinessDay(ctx context.Context, date time.Time) (bool, error) {
	return c.businessDay, c.err
}

type testEnv struct {
	handler http.Handler
	store   *memory.Store
	cal     *stubCalendar
	token   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	c := cache.NewMemory()
	cal := &stubCalendar{businessDay: true}

	accounts := service.NewAccountService(store, c, logger)
	transfers := service.NewTransferService(store, cal, c, logger)
	statements := service.NewStatementService(store, c, logger)
	auth := service.NewAuthService(store, c, "test-secret", "chubank", logger)

	ctx := context.Background()
	_, err := auth.CreateUser(ctx, "tester", "tester@example.com", "password123", "Test", "User")
	require.NoError(t, err)
	_, token, err := auth.Authenticate(ctx, "tester", "password123", "127.0.0.1")
	require.NoError(t, err)

	api := NewAPI(accounts, transfers, statements, auth, logger)
	return &testEnv{handler: api.Router(), store: store, cal: cal, token: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "127.0.0.1:51234"
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func (e *testEnv) createAccount(t *testing.T, holder string, balance int64) accountResponse {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/v1/accounts", map[string]any{
		"holder_name":     holder,
		"initial_balance": balance,
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[accountResponse](t, rec)
}

func TestRouter_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/accounts", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec2 := httptest.NewRecorder()
	env.handler.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)
}

func TestUserAndLoginEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/users", map[string]string{
		"username": "maria", "email": "maria@example.com",
		"password": "longenough", "first_name": "Maria", "last_name": "Silva",
	}, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decodeBody[userResponse](t, rec)
	assert.Equal(t, "maria", user.Username)

	// Duplicate username.
	rec = env.do(t, http.MethodPost, "/api/v1/users", map[string]string{
		"username": "maria", "email": "maria2@example.com", "password": "longenough",
	}, false)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Short password.
	rec = env.do(t, http.MethodPost, "/api/v1/users", map[string]string{
		"username": "short", "email": "short@example.com", "password": "tiny",
	}, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/login", map[string]string{
		"username": "maria", "password": "wrong-password",
	}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/login", map[string]string{
		"username": "maria", "password": "longenough",
	}, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decodeBody[loginResponse](t, rec)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "maria", login.User.Username)
}

func TestAccountEndpoints(t *testing.T) {
	env := newTestEnv(t)

	acc := env.createAccount(t, "Maria Silva", 1000)
	assert.Len(t, acc.AccountNumber, 6)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(1000)))
	assert.True(t, acc.IsActive)

	rec := env.do(t, http.MethodGet, "/api/v1/accounts/"+acc.ID, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[accountResponse](t, rec)
	assert.Equal(t, acc.ID, got.ID)

	rec = env.do(t, http.MethodGet, "/api/v1/accounts", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[map[string][]accountResponse](t, rec)
	assert.Len(t, list["accounts"], 1)

	rec = env.do(t, http.MethodGet, "/api/v1/accounts/not-a-uuid", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/accounts/"+uuid.NewString(), nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/accounts/"+acc.ID, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	deactivated := decodeBody[accountResponse](t, rec)
	assert.False(t, deactivated.IsActive)

	rec = env.do(t, http.MethodPost, "/api/v1/accounts", map[string]any{
		"holder_name": "", "initial_balance": 0,
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/accounts", map[string]any{
		"holder_name": "Negative", "initial_balance": -5,
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransferEndpoints(t *testing.T) {
	env := newTestEnv(t)
	from := env.createAccount(t, "Maria", 1000)
	to := env.createAccount(t, "Joao", 0)

	rec := env.do(t, http.MethodPost, "/api/v1/transfers", map[string]any{
		"from_account_number": from.AccountNumber,
		"to_account_number":   to.AccountNumber,
		"amount":              300,
		"description":         "rent",
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tr := decodeBody[transferResponse](t, rec)
	assert.True(t, tr.Amount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "rent", tr.Description)

	rec = env.do(t, http.MethodGet, "/api/v1/transfers/"+tr.ID, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/accounts/"+from.ID, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	fromAfter := decodeBody[accountResponse](t, rec)
	assert.True(t, fromAfter.Balance.Equal(decimal.NewFromInt(700)))

	// More than the source holds.
	rec = env.do(t, http.MethodPost, "/api/v1/transfers", map[string]any{
		"from_account_number": from.AccountNumber,
		"to_account_number":   to.AccountNumber,
		"amount":              5000,
	}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Unknown source.
	rec = env.do(t, http.MethodPost, "/api/v1/transfers", map[string]any{
		"from_account_number": "000000",
		"to_account_number":   to.AccountNumber,
		"amount":              10,
	}, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Self transfer and non-positive amounts are caught before the engine.
	rec = env.do(t, http.MethodPost, "/api/v1/transfers", map[string]any{
		"from_account_number": from.AccountNumber,
		"to_account_number":   from.AccountNumber,
		"amount":              10,
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/transfers", map[string]any{
		"from_account_number": from.AccountNumber,
		"to_account_number":   to.AccountNumber,
		"amount":              0,
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Holidays and weekends refuse the transfer.
	env.cal.businessDay = false
	rec = env.do(t, http.MethodPost, "/api/v1/transfers", map[string]any{
		"from_account_number": from.AccountNumber,
		"to_account_number":   to.AccountNumber,
		"amount":              10,
	}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// An unreachable calendar refuses rather than guessing.
	env.cal.businessDay = true
	env.cal.err = fmt.Errorf("holiday source down")
	rec = env.do(t, http.MethodPost, "/api/v1/transfers", map[string]any{
		"from_account_number": from.AccountNumber,
		"to_account_number":   to.AccountNumber,
		"amount":              10,
	}, true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatementEndpoint(t *testing.T) {
	env := newTestEnv(t)
	from := env.createAccount(t, "Maria", 1000)
	to := env.createAccount(t, "Joao", 500)

	rec := env.do(t, http.MethodPost, "/api/v1/transfers", map[string]any{
		"from_account_number": from.AccountNumber,
		"to_account_number":   to.AccountNumber,
		"amount":              300,
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	today := time.Now().UTC().Format("2006-01-02")
	path := fmt.Sprintf("/api/v1/accounts/%s/statement?start_date=%s&end_date=%s", from.ID, today, today)

	rec = env.do(t, http.MethodGet, path, nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decodeBody[statementResponse](t, rec)
	assert.Equal(t, from.AccountNumber, st.AccountNumber)
	assert.True(t, st.OpeningBalance.Equal(decimal.NewFromInt(1000)))
	assert.True(t, st.ClosingBalance.Equal(decimal.NewFromInt(700)))
	require.Len(t, st.Entries, 1)
	assert.Equal(t, "DEBIT", st.Entries[0].Type)

	// Window validation happens before the engine runs.
	badOrder := fmt.Sprintf("/api/v1/accounts/%s/statement?start_date=2025-06-30&end_date=2025-06-01", from.ID)
	rec = env.do(t, http.MethodGet, badOrder, nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	future := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
	futurePath := fmt.Sprintf("/api/v1/accounts/%s/statement?start_date=%s&end_date=%s", from.ID, today, future)
	rec = env.do(t, http.MethodGet, futurePath, nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	missing := fmt.Sprintf("/api/v1/accounts/%s/statement?start_date=%s", from.ID, today)
	rec = env.do(t, http.MethodGet, missing, nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/accounts/%s/statement?start_date=%s&end_date=%s", uuid.NewString(), today, today), nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
