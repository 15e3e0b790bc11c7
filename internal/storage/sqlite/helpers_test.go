package sqlite

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/budget-be/internal/models"
)

func sampleTransaction() models.Transaction {
	return models.Transaction{
		BudgetID:  uuid.New(),
		Amount:    decimal.RequireFromString("12.34"),
		Type:      models.TransactionExpense,
		Comment:   "Groceries",
		CreatedAt: time.Now().UTC(),
	}
}
