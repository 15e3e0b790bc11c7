package dto

import (
	"time"

	"github.com/hongminglow/budget-be/internal/models"
)

// amountPlaces is the number of fractional digits every monetary value is rendered with.
const amountPlaces = 2

type CreateBudgetRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type CreateTransactionRequest struct {
	// Amount accepts either a JSON number or a numeric string.
	Amount  Amount `json:"amount"`
	Type    string `json:"type"`
	Comment string `json:"comment"`
}

type BudgetResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Balance     string    `json:"balance"`
	CreatedAt   time.Time `json:"created_at"`
}

type TransactionResponse struct {
	ID        int64     `json:"id"`
	Amount    string    `json:"amount"`
	Type      string    `json:"type"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type SummaryResponse struct {
	BudgetCount   int    `json:"budget_count"`
	TotalBalance  string `json:"total_balance"`
	TotalIncomes  string `json:"total_incomes"`
	TotalExpenses string `json:"total_expenses"`
}

func NewBudgetResponse(b models.BudgetView) BudgetResponse {
	return BudgetResponse{
		ID:          b.ID.String(),
		Name:        b.Name,
		Description: b.Description,
		Balance:     b.Balance.StringFixed(amountPlaces),
		CreatedAt:   b.CreatedAt,
	}
}

func NewBudgetResponses(views []models.BudgetView) []BudgetResponse {
	out := make([]BudgetResponse, 0, len(views))
	for _, v := range views {
		out = append(out, NewBudgetResponse(v))
	}
	return out
}

func NewTransactionResponse(t models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:        t.ID,
		Amount:    t.Amount.StringFixed(amountPlaces),
		Type:      string(t.Type),
		Comment:   t.Comment,
		CreatedAt: t.CreatedAt,
	}
}

func NewTransactionResponses(txs []models.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, NewTransactionResponse(t))
	}
	return out
}

func NewSummaryResponse(s models.Summary) SummaryResponse {
	return SummaryResponse{
		BudgetCount:   s.BudgetCount,
		TotalBalance:  s.TotalBalance.StringFixed(amountPlaces),
		TotalIncomes:  s.TotalIncomes.StringFixed(amountPlaces),
		TotalExpenses: s.TotalExpenses.StringFixed(amountPlaces),
	}
}
