package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hongminglow/budget-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore persists identities. Emails are unique.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// BudgetStore persists budgets.
type BudgetStore interface {
	CreateBudget(ctx context.Context, budget models.Budget) (models.Budget, error)
	FindBudgetByID(ctx context.Context, id uuid.UUID) (models.Budget, error)
	ListBudgetsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Budget, error)
}

// TransactionStore persists the append-only ledger. Each append is a single
// atomic insert referencing an existing budget.
type TransactionStore interface {
	AppendTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	ListTransactionsByBudget(ctx context.Context, budgetID uuid.UUID) ([]models.Transaction, error)
}

// Store is the full persistence surface consumed by the services.
type Store interface {
	UserStore
	BudgetStore
	TransactionStore
	Close() error
}

// Resetter is implemented by stores that can drop all data and recreate an
// empty schema.
type Resetter interface {
	Reset(ctx context.Context) error
}
