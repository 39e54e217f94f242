package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"chubank/internal/core"
)

// Response shapes are produced by exactly one mapping function per entity so
// read and write paths can never drift apart.

type accountResponse struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"account_number"`
	HolderName    string          `json:"holder_name"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
	IsActive      bool            `json:"is_active"`
}

func newAccountResponse(a *core.Account) accountResponse {
	return accountResponse{
		ID:            a.ID.String(),
		AccountNumber: a.AccountNumber,
		HolderName:    a.HolderName,
		Balance:       a.Balance,
		CreatedAt:     a.CreatedAt,
		IsActive:      a.IsActive,
	}
}

type transferResponse struct {
	ID            string          `json:"id"`
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description,omitempty"`
	TransferDate  string          `json:"transfer_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

func newTransferResponse(t *core.Transfer) transferResponse {
	return transferResponse{
		ID:            t.ID.String(),
		FromAccountID: t.FromAccountID.String(),
		ToAccountID:   t.ToAccountID.String(),
		Amount:        t.Amount,
		Description:   t.Description,
		TransferDate:  t.TransferDate.Format("2006-01-02"),
		CreatedAt:     t.CreatedAt,
	}
}

type statementEntryResponse struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Balance     decimal.Decimal `json:"balance"`
	Type        string          `json:"type"`
}

type statementResponse struct {
	ID             string                   `json:"id"`
	AccountNumber  string                   `json:"account_number"`
	StartDate      string                   `json:"start_date"`
	EndDate        string                   `json:"end_date"`
	OpeningBalance decimal.Decimal          `json:"opening_balance"`
	ClosingBalance decimal.Decimal          `json:"closing_balance"`
	Entries        []statementEntryResponse `json:"entries"`
	GeneratedAt    time.Time                `json:"generated_at"`
}

func newStatementResponse(s *core.Statement) statementResponse {
	entries := make([]statementEntryResponse, 0, len(s.Entries))
	for _, e := range s.Entries {
		entries = append(entries, statementEntryResponse{
			Date:        e.Date.Format("2006-01-02"),
			Description: e.Description,
			Amount:      e.Amount,
			Balance:     e.Balance,
			Type:        string(e.Type),
		})
	}
	return statementResponse{
		ID:             s.ID.String(),
		AccountNumber:  s.AccountNumber,
		StartDate:      s.StartDate.Format("2006-01-02"),
		EndDate:        s.EndDate.Format("2006-01-02"),
		OpeningBalance: s.OpeningBalance,
		ClosingBalance: s.ClosingBalance,
		Entries:        entries,
		GeneratedAt:    s.GeneratedAt,
	}
}

type userResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func newUserResponse(u *core.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func httpError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
