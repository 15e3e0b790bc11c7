package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType carries the sign of a transaction.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// Transaction is a single ledger entry. Amount is never negative.
type Transaction struct {
	ID        int64           `json:"id"`
	BudgetID  uuid.UUID       `json:"-"`
	Amount    decimal.Decimal `json:"amount"`
	Type      TransactionType `json:"type"`
	Comment   string          `json:"comment"`
	CreatedAt time.Time       `json:"created_at"`
}

// SortOrder selects how transactions are ordered when read.
type SortOrder int

const (
	SortAscending SortOrder = iota
	SortDescending
)
