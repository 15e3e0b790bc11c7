package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Budget is a named container of transactions owned by exactly one user.
// OwnerID and CreatedAt are fixed when the budget is created.
type Budget struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"-"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// BudgetView is a budget together with its derived balance.
type BudgetView struct {
	Budget
	Balance decimal.Decimal `json:"balance"`
}

// Summary aggregates every budget of a single owner.
type Summary struct {
	BudgetCount   int             `json:"budget_count"`
	TotalBalance  decimal.Decimal `json:"total_balance"`
	TotalIncomes  decimal.Decimal `json:"total_incomes"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
}
