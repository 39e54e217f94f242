package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"chubank/internal/core"
	"chubank/internal/service"
	"chubank/internal/storage"
)

const maxDescriptionLength = 200

type API struct {
	accounts   *service.AccountService
	transfers  *service.TransferService
	statements *service.StatementService
	auth       *service.AuthService
	logger     *slog.Logger
}

func NewAPI(accounts *service.AccountService, transfers *service.TransferService,
	statements *service.StatementService, auth *service.AuthService, logger *slog.Logger) *API {
	return &API{
		accounts:   accounts,
		transfers:  transfers,
		statements: statements,
		auth:       auth,
		logger:     logger,
	}
}

type createAccountRequest struct {
	HolderName     string          `json:"holder_name"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

func validateCreateAccount(req createAccountRequest) error {
	if req.HolderName == "" {
		return errors.New("holder_name is required")
	}
	if req.InitialBalance.IsNegative() {
		return errors.New("initial_balance must not be negative")
	}
	return nil
}

func (a *API) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validateCreateAccount(req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	acc, err := a.accounts.CreateAccount(r.Context(), req.HolderName, req.InitialBalance)
	if err != nil {
		a.logger.Error("failed to create account", "err", err)
		httpError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	jsonResponse(w, http.StatusCreated, newAccountResponse(acc))
}

func (a *API) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	acc, err := a.accounts.GetAccount(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			httpError(w, http.StatusNotFound, "account not found")
			return
		}
		a.logger.Error("failed to get account", "err", err)
		httpError(w, http.StatusInternalServerError, "failed to get account")
		return
	}

	jsonResponse(w, http.StatusOK, newAccountResponse(acc))
}

func (a *API) GetAccountsHandler(w http.ResponseWriter, r *http.Request) {
	accounts, err := a.accounts.ListAccounts(r.Context())
	if err != nil {
		a.logger.Error("failed to list accounts", "err", err)
		httpError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}

	resp := make([]accountResponse, 0, len(accounts))
	for _, acc := range accounts {
		resp = append(resp, newAccountResponse(acc))
	}
	jsonResponse(w, http.StatusOK, map[string]any{"accounts": resp})
}

func (a *API) DeactivateAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	acc, err := a.accounts.DeactivateAccount(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			httpError(w, http.StatusNotFound, "account not found")
			return
		}
		a.logger.Error("failed to deactivate account", "err", err)
		httpError(w, http.StatusInternalServerError, "failed to deactivate account")
		return
	}

	jsonResponse(w, http.StatusOK, newAccountResponse(acc))
}

type createTransferRequest struct {
	FromAccountNumber string          `json:"from_account_number"`
	ToAccountNumber   string          `json:"to_account_number"`
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
}

func validateCreateTransfer(req createTransferRequest) error {
	if req.FromAccountNumber == "" || req.ToAccountNumber == "" {
		return errors.New("both account numbers are required")
	}
	if req.FromAccountNumber == req.ToAccountNumber {
		return errors.New("source and destination accounts cannot be the same")
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("amount must be greater than zero")
	}
	if len(req.Description) > maxDescriptionLength {
		return errors.New("description too long")
	}
	return nil
}

func (a *API) CreateTransferHandler(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validateCreateTransfer(req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	transfer, err := a.transfers.CreateTransfer(r.Context(), req.FromAccountNumber, req.ToAccountNumber, req.Amount, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotBusinessDay):
			httpError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, service.ErrSourceAccountNotFound),
			errors.Is(err, service.ErrDestinationAccountNotFound):
			httpError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, storage.ErrInsufficientFunds):
			httpError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, service.ErrTransferConflict):
			httpError(w, http.StatusConflict, "transfer conflicted, please retry")
		case errors.Is(err, service.ErrCalendarUnavailable):
			a.logger.Error("calendar unavailable", "err", err)
			httpError(w, http.StatusServiceUnavailable, "unable to verify business day")
		default:
			a.logger.Error("transfer failed", "err", err)
			httpError(w, http.StatusInternalServerError, "transfer failed")
		}
		return
	}

	jsonResponse(w, http.StatusCreated, newTransferResponse(transfer))
}

func (a *API) GetTransferHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}

	transfer, err := a.transfers.GetTransfer(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrTransferNotFound) {
			httpError(w, http.StatusNotFound, "transfer not found")
			return
		}
		a.logger.Error("failed to get transfer", "err", err)
		httpError(w, http.StatusInternalServerError, "failed to get transfer")
		return
	}

	jsonResponse(w, http.StatusOK, newTransferResponse(transfer))
}

func (a *API) GetStatementHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	start, err := time.Parse("2006-01-02", r.URL.Query().Get("start_date"))
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid start_date, expected YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", r.URL.Query().Get("end_date"))
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid end_date, expected YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		httpError(w, http.StatusBadRequest, "start_date must not be after end_date")
		return
	}
	if core.DateOnly(end).After(core.DateOnly(time.Now())) {
		httpError(w, http.StatusBadRequest, "end_date must not be in the future")
		return
	}

	statement, err := a.statements.GenerateStatement(r.Context(), id, start, end)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			httpError(w, http.StatusNotFound, "account not found")
			return
		}
		a.logger.Error("failed to generate statement", "err", err)
		httpError(w, http.StatusInternalServerError, "failed to generate statement")
		return
	}

	jsonResponse(w, http.StatusOK, newStatementResponse(statement))
}
