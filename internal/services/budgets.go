package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hongminglow/budget-be/internal/models"
	"github.com/hongminglow/budget-be/internal/storage"
)

// CreateBudgetInput is the data needed to create a budget.
type CreateBudgetInput struct {
	Name        string `validate:"required,max=255"`
	Description *string
}

// AppendTransactionInput is the data needed to record a transaction.
// Amount is kept as text until ParseAmount turns it into a decimal.
type AppendTransactionInput struct {
	Amount  string `validate:"required"`
	Type    string `validate:"required,txtype"`
	Comment string `validate:"required,max=255"`
}

// Budgets owns budget access and the transaction ledger. Every operation is
// scoped to the owning user; budgets of other users look exactly like
// budgets that do not exist.
type Budgets struct {
	budgets  storage.BudgetStore
	ledger   storage.TransactionStore
	validate *Validator
	log      *zap.Logger
	now      func() time.Time
}

// NewBudgets wires the budget service.
func NewBudgets(budgets storage.BudgetStore, ledger storage.TransactionStore, log *zap.Logger) *Budgets {
	return &Budgets{
		budgets:  budgets,
		ledger:   ledger,
		validate: NewValidator(),
		log:      log.Named("budgets"),
		now:      time.Now,
	}
}

// CreateBudget creates an empty budget owned by ownerID.
func (s *Budgets) CreateBudget(ctx context.Context, ownerID uuid.UUID, in CreateBudgetInput) (models.BudgetView, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return models.BudgetView{}, err
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if d == "" {
			in.Description = nil
		} else {
			in.Description = &d
		}
	}

	created, err := s.budgets.CreateBudget(ctx, models.Budget{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   s.now().UTC().Truncate(time.Microsecond),
	})
	if err != nil {
		return models.BudgetView{}, fmt.Errorf("create budget: %w", err)
	}

	s.log.Info("budget created",
		zap.String("budget_id", created.ID.String()),
		zap.String("user_id", ownerID.String()))
	return models.BudgetView{Budget: created, Balance: decimal.Zero}, nil
}

// ListBudgets returns every budget of ownerID with its balance, oldest first.
func (s *Budgets) ListBudgets(ctx context.Context, ownerID uuid.UUID) ([]models.BudgetView, error) {
	budgets, err := s.budgets.ListBudgetsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	views := make([]models.BudgetView, 0, len(budgets))
	for _, b := range budgets {
		txs, err := s.ledger.ListTransactionsByBudget(ctx, b.ID)
		if err != nil {
			return nil, fmt.Errorf("list transactions: %w", err)
		}
		views = append(views, models.BudgetView{Budget: b, Balance: Balance(txs)})
	}
	return views, nil
}

// ResolveOwnedBudget returns the budget with budgetID when it belongs to
// ownerID. Malformed ids, missing budgets and foreign budgets all yield
// ErrNotFound.
func (s *Budgets) ResolveOwnedBudget(ctx context.Context, ownerID uuid.UUID, budgetID string) (models.Budget, error) {
	id, err := uuid.Parse(strings.TrimSpace(budgetID))
	if err != nil {
		return models.Budget{}, ErrNotFound
	}
	b, err := s.budgets.FindBudgetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Budget{}, ErrNotFound
		}
		return models.Budget{}, fmt.Errorf("find budget: %w", err)
	}
	if b.OwnerID != ownerID {
		s.log.Debug("budget owned by another user",
			zap.String("budget_id", b.ID.String()),
			zap.String("user_id", ownerID.String()))
		return models.Budget{}, ErrNotFound
	}
	return b, nil
}

// GetBudget returns one owned budget with its balance.
func (s *Budgets) GetBudget(ctx context.Context, ownerID uuid.UUID, budgetID string) (models.BudgetView, error) {
	b, err := s.ResolveOwnedBudget(ctx, ownerID, budgetID)
	if err != nil {
		return models.BudgetView{}, err
	}
	txs, err := s.ledger.ListTransactionsByBudget(ctx, b.ID)
	if err != nil {
		return models.BudgetView{}, fmt.Errorf("list transactions: %w", err)
	}
	return models.BudgetView{Budget: b, Balance: Balance(txs)}, nil
}

// ListTransactions returns the transactions of an owned budget sorted by
// creation time in the requested order.
func (s *Budgets) ListTransactions(ctx context.Context, ownerID uuid.UUID, budgetID string, order models.SortOrder) ([]models.Transaction, error) {
	b, err := s.ResolveOwnedBudget(ctx, ownerID, budgetID)
	if err != nil {
		return nil, err
	}
	txs, err := s.ledger.ListTransactionsByBudget(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	sortTransactions(txs, order)
	return txs, nil
}

// AppendTransaction records a transaction against an owned budget. The
// budget reference is always taken from the resolved budget.
func (s *Budgets) AppendTransaction(ctx context.Context, ownerID uuid.UUID, budgetID string, in AppendTransactionInput) (models.Transaction, error) {
	b, err := s.ResolveOwnedBudget(ctx, ownerID, budgetID)
	if err != nil {
		return models.Transaction{}, err
	}

	in.Type = strings.TrimSpace(in.Type)
	in.Comment = strings.TrimSpace(in.Comment)
	in.Amount = strings.TrimSpace(in.Amount)
	verr := &ValidationError{}
	if err := s.validate.Struct(in); err != nil {
		if !errors.As(err, &verr) {
			return models.Transaction{}, err
		}
	}
	var amount decimal.Decimal
	if in.Amount != "" {
		parsed, err := ParseAmount(in.Amount)
		if err != nil {
			var amountErr *ValidationError
			if !errors.As(err, &amountErr) {
				return models.Transaction{}, err
			}
			verr.Messages = append(amountErr.Messages, verr.Messages...)
		}
		amount = parsed
	}
	if len(verr.Messages) > 0 {
		return models.Transaction{}, verr
	}

	created, err := s.ledger.AppendTransaction(ctx, models.Transaction{
		BudgetID:  b.ID,
		Amount:    amount,
		Type:      models.TransactionType(in.Type),
		Comment:   in.Comment,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Transaction{}, ErrNotFound
		}
		return models.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}

	s.log.Info("transaction appended",
		zap.String("budget_id", b.ID.String()),
		zap.Int64("transaction_id", created.ID),
		zap.String("type", string(created.Type)),
		zap.String("amount", created.Amount.StringFixed(amountPlaces)))
	return created, nil
}

// ComputeBalance returns the current balance of an owned budget.
func (s *Budgets) ComputeBalance(ctx context.Context, ownerID uuid.UUID, budgetID string) (decimal.Decimal, error) {
	view, err := s.GetBudget(ctx, ownerID, budgetID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return view.Balance, nil
}

// Summary aggregates the balances and totals of every budget of ownerID.
func (s *Budgets) Summary(ctx context.Context, ownerID uuid.UUID) (models.Summary, error) {
	budgets, err := s.budgets.ListBudgetsByOwner(ctx, ownerID)
	if err != nil {
		return models.Summary{}, fmt.Errorf("list budgets: %w", err)
	}
	sum := models.Summary{
		BudgetCount:   len(budgets),
		TotalBalance:  decimal.Zero,
		TotalIncomes:  decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, b := range budgets {
		txs, err := s.ledger.ListTransactionsByBudget(ctx, b.ID)
		if err != nil {
			return models.Summary{}, fmt.Errorf("list transactions: %w", err)
		}
		income, expense := Totals(txs)
		sum.TotalIncomes = sum.TotalIncomes.Add(income)
		sum.TotalExpenses = sum.TotalExpenses.Add(expense)
	}
	sum.TotalBalance = sum.TotalIncomes.Sub(sum.TotalExpenses)
	return sum, nil
}

func sortTransactions(txs []models.Transaction, order models.SortOrder) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if order == models.SortDescending {
			a, b = b, a
		}
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
