package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/budget-be/internal/auth"
	"github.com/hongminglow/budget-be/internal/models"
	"github.com/hongminglow/budget-be/internal/storage/memory"
)

type fixture struct {
	store    *memory.Store
	accounts *Accounts
	budgets  *Budgets
	revoked  *auth.MemoryRevocationList
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	revoked := auth.NewMemoryRevocationList()
	tokens := auth.NewTokenManager("test-secret", "budget-test", time.Hour)
	log := zap.NewNop()
	return &fixture{
		store:    store,
		accounts: NewAccounts(store, auth.NewBcryptHasher(bcrypt.MinCost), tokens, revoked, log),
		budgets:  NewBudgets(store, store, log),
		revoked:  revoked,
	}
}

func (f *fixture) register(t *testing.T, email string) models.User {
	t.Helper()
	user, err := f.accounts.Register(context.Background(), RegisterInput{Email: email, Password: "secret1"})
	require.NoError(t, err)
	return user
}

func (f *fixture) budget(t *testing.T, owner models.User, name string) models.BudgetView {
	t.Helper()
	view, err := f.budgets.CreateBudget(context.Background(), owner.ID, CreateBudgetInput{Name: name})
	require.NoError(t, err)
	return view
}

func (f *fixture) appendTx(t *testing.T, owner models.User, budget models.BudgetView, amount, kind, comment string) models.Transaction {
	t.Helper()
	tx, err := f.budgets.AppendTransaction(context.Background(), owner.ID, budget.ID.String(), AppendTransactionInput{
		Amount:  amount,
		Type:    kind,
		Comment: comment,
	})
	require.NoError(t, err)
	return tx
}

// fixedClock returns a clock that advances one second per call.
func fixedClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func randomID() string {
	return uuid.NewString()
}
