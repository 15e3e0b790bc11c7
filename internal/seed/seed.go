// Package seed loads the demo data set: one user with three budgets and a
// handful of transactions each.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hongminglow/budget-be/internal/auth"
	"github.com/hongminglow/budget-be/internal/models"
	"github.com/hongminglow/budget-be/internal/storage"
)

// Demo credentials.
const (
	Email    = "test@example.com"
	Password = "password123"
)

const transactionsPerBudget = 5

var budgetFixtures = []struct {
	name, description string
}{
	{"Holiday savings", "Money for the dream holiday in Greece"},
	{"Emergency fund", "Savings for unexpected expenses"},
	{"New car", "Saving up to replace the old car"},
}

var commentFixtures = map[models.TransactionType][]string{
	models.TransactionIncome: {
		"Salary",
		"Annual bonus",
		"Tax refund",
		"Sold unused items",
		"Holiday allowance",
		"Freelance web project",
		"Stock dividend",
		"Medical refund",
	},
	models.TransactionExpense: {
		"Groceries",
		"Fuel",
		"Utility bills",
		"Phone plan",
		"Car insurance",
		"Doctor visit",
		"Dinner out",
		"Books",
		"Cinema with family",
		"Apartment renovation",
		"Birthday present",
		"Streaming subscription",
	},
}

// Options tune the generated data. Zero values pick the current time and a
// fixed random seed.
type Options struct {
	Now  time.Time
	Seed int64
}

// Result describes what was written.
type Result struct {
	User         models.User
	Budgets      []models.Budget
	Transactions int
}

// Load writes the demo data set into store. It fails with
// storage.ErrAlreadyExists when the demo user is already present.
func Load(ctx context.Context, store storage.Store, hasher auth.PasswordHasher, opts Options, log *zap.Logger) (Result, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = 42
	}
	rng := rand.New(rand.NewSource(seed))

	hash, err := hasher.Hash(Password)
	if err != nil {
		return Result{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := store.CreateUser(ctx, models.User{
		ID:           uuid.New(),
		Email:        Email,
		PasswordHash: hash,
		Active:       true,
		Roles:        []string{models.RoleUser},
		CreatedAt:    stamp(now),
	})
	if err != nil {
		return Result{}, fmt.Errorf("create demo user: %w", err)
	}

	res := Result{User: user}
	for _, f := range budgetFixtures {
		description := f.description
		budget, err := store.CreateBudget(ctx, models.Budget{
			ID:          uuid.New(),
			OwnerID:     user.ID,
			Name:        f.name,
			Description: &description,
			CreatedAt:   stamp(daysAgo(now, 30+rng.Intn(151))),
		})
		if err != nil {
			return Result{}, fmt.Errorf("create budget %q: %w", f.name, err)
		}
		res.Budgets = append(res.Budgets, budget)

		for i := 0; i < transactionsPerBudget; i++ {
			tx := randomTransaction(rng, now)
			tx.BudgetID = budget.ID
			if _, err := store.AppendTransaction(ctx, tx); err != nil {
				return Result{}, fmt.Errorf("append transaction: %w", err)
			}
			res.Transactions++
		}
	}

	log.Info("demo data loaded",
		zap.String("email", Email),
		zap.Int("budgets", len(res.Budgets)),
		zap.Int("transactions", res.Transactions))
	return res, nil
}

func randomTransaction(rng *rand.Rand, now time.Time) models.Transaction {
	kind := models.TransactionExpense
	if rng.Intn(2) == 1 {
		kind = models.TransactionIncome
	}
	var cents int64
	switch kind {
	case models.TransactionIncome:
		cents = 50000 + rng.Int63n(450001)
	default:
		cents = 2000 + rng.Int63n(148001)
	}
	comments := commentFixtures[kind]
	return models.Transaction{
		Amount:    decimal.New(cents, -2),
		Type:      kind,
		Comment:   comments[rng.Intn(len(comments))],
		CreatedAt: stamp(daysAgo(now, 1+rng.Intn(90))),
	}
}

func daysAgo(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
