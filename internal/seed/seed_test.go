package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/budget-be/internal/auth"
	"github.com/hongminglow/budget-be/internal/storage"
	"github.com/hongminglow/budget-be/internal/storage/memory"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	res, err := Load(ctx, store, hasher, Options{Now: now, Seed: 7}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, Email, res.User.Email)
	assert.True(t, hasher.Verify(Password, res.User.PasswordHash))
	require.Len(t, res.Budgets, 3)
	assert.Equal(t, 15, res.Transactions)

	for _, b := range res.Budgets {
		assert.Equal(t, res.User.ID, b.OwnerID)
		assert.NotNil(t, b.Description)
		assert.True(t, b.CreatedAt.Before(now.AddDate(0, 0, -29)), b.Name)

		txs, err := store.ListTransactionsByBudget(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, txs, transactionsPerBudget)
		for _, tx := range txs {
			assert.True(t, tx.Type.Valid())
			assert.False(t, tx.Amount.IsNegative())
			assert.True(t, tx.Amount.Equal(tx.Amount.Round(2)))
			assert.NotEmpty(t, tx.Comment)
			assert.True(t, tx.CreatedAt.Before(now))
		}
	}
}

func TestLoadIsDeterministic(t *testing.T) {
	ctx := context.Background()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	amounts := func() []string {
		store := memory.NewStore()
		res, err := Load(ctx, store, hasher, Options{Now: now, Seed: 99}, zap.NewNop())
		require.NoError(t, err)
		var out []string
		for _, b := range res.Budgets {
			txs, err := store.ListTransactionsByBudget(ctx, b.ID)
			require.NoError(t, err)
			for _, tx := range txs {
				out = append(out, string(tx.Type)+":"+tx.Amount.StringFixed(2)+":"+tx.Comment)
			}
		}
		return out
	}

	assert.Equal(t, amounts(), amounts())
}

func TestLoadTwiceFails(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	_, err := Load(ctx, store, hasher, Options{}, zap.NewNop())
	require.NoError(t, err)

	_, err = Load(ctx, store, hasher, Options{}, zap.NewNop())
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
}
