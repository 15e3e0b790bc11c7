package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/budget-be/internal/models"
)

func TestBudgetScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Register(ctx, RegisterInput{Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	token, _, err := f.accounts.Authenticate(ctx, LoginInput{Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	user, _, err := f.accounts.ResolveToken(ctx, token.Value)
	require.NoError(t, err)

	trip := f.budget(t, user, "Trip")
	assert.Equal(t, "0.00", trip.Balance.StringFixed(2))

	f.appendTx(t, user, trip, "3000.00", "income", "Salary")
	f.appendTx(t, user, trip, "250.50", "expense", "Hotel")
	f.appendTx(t, user, trip, "800.00", "income", "Bonus")

	txs, err := f.budgets.ListTransactions(ctx, user.ID, trip.ID.String(), models.SortAscending)
	require.NoError(t, err)
	assert.Len(t, txs, 3)

	balance, err := f.budgets.ComputeBalance(ctx, user.ID, trip.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "3549.50", balance.StringFixed(2))
}

func TestComputeBalanceIsExact(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "a@example.com")
	b := f.budget(t, user, "Household")

	f.appendTx(t, user, b, "1000.00", "income", "Salary")
	f.appendTx(t, user, b, "500.00", "income", "Side job")
	f.appendTx(t, user, b, "300.00", "expense", "Rent")
	f.appendTx(t, user, b, "150.75", "expense", "Groceries")

	balance, err := f.budgets.ComputeBalance(context.Background(), user.ID, b.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "1049.25", balance.StringFixed(2))

	// Ten cents added ten times is exactly one unit.
	c := f.budget(t, user, "Cents")
	for i := 0; i < 10; i++ {
		f.appendTx(t, user, c, "0.10", "income", "coin")
	}
	balance, err = f.budgets.ComputeBalance(context.Background(), user.ID, c.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "1.00", balance.StringFixed(2))
}

func TestBalanceMayGoNegative(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "a@example.com")
	b := f.budget(t, user, "Overdrawn")

	f.appendTx(t, user, b, "10.00", "income", "Gift")
	f.appendTx(t, user, b, "25.50", "expense", "Dinner")

	balance, err := f.budgets.ComputeBalance(context.Background(), user.ID, b.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "-15.50", balance.StringFixed(2))
}

func TestAppendTransactionVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "a@example.com")
	b := f.budget(t, user, "Food")
	f.appendTx(t, user, b, "100.00", "income", "Allowance")

	tx := f.appendTx(t, user, b, "250.50", "expense", "  Groceries ")
	assert.Equal(t, b.ID, tx.BudgetID)
	assert.Equal(t, "250.50", tx.Amount.StringFixed(2))
	assert.Equal(t, models.TransactionExpense, tx.Type)
	assert.Equal(t, "Groceries", tx.Comment)
	assert.NotZero(t, tx.ID)

	txs, err := f.budgets.ListTransactions(ctx, user.ID, b.ID.String(), models.SortAscending)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, tx.ID, txs[1].ID)

	balance, err := f.budgets.ComputeBalance(ctx, user.ID, b.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "-150.50", balance.StringFixed(2))
}

func TestAppendTransactionAcceptsCommaSeparator(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "a@example.com")
	b := f.budget(t, user, "Food")

	tx := f.appendTx(t, user, b, "12,5", "expense", "Bread")
	assert.Equal(t, "12.50", tx.Amount.StringFixed(2))
}

func TestAppendTransactionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "a@example.com")
	b := f.budget(t, user, "Food")

	tests := []struct {
		name     string
		input    AppendTransactionInput
		messages []string
	}{
		{
			name:     "negative amount",
			input:    AppendTransactionInput{Amount: "-0.01", Type: "expense", Comment: "x"},
			messages: []string{"Amount must be zero or positive"},
		},
		{
			name:     "not a number",
			input:    AppendTransactionInput{Amount: "bogus", Type: "expense", Comment: "x"},
			messages: []string{"Amount must be a valid number"},
		},
		{
			name:     "empty amount",
			input:    AppendTransactionInput{Amount: "", Type: "expense", Comment: "x"},
			messages: []string{"Amount is required"},
		},
		{
			name:     "too many decimals",
			input:    AppendTransactionInput{Amount: "1.005", Type: "income", Comment: "x"},
			messages: []string{"Amount cannot have more than 2 decimal places"},
		},
		{
			name:     "unknown type",
			input:    AppendTransactionInput{Amount: "1.00", Type: "transfer", Comment: "x"},
			messages: []string{"Transaction type must be either income or expense"},
		},
		{
			name:     "type is case sensitive",
			input:    AppendTransactionInput{Amount: "1.00", Type: "INCOME", Comment: "x"},
			messages: []string{"Transaction type must be either income or expense"},
		},
		{
			name:     "missing comment",
			input:    AppendTransactionInput{Amount: "1.00", Type: "income", Comment: "   "},
			messages: []string{"Comment is required"},
		},
		{
			name:     "exponent amount",
			input:    AppendTransactionInput{Amount: "1e-2000000000", Type: "income", Comment: "x"},
			messages: []string{"Amount must be a valid number"},
		},
		{
			name:     "comment of 256 runes",
			input:    AppendTransactionInput{Amount: "1.00", Type: "income", Comment: strings.Repeat("é", 256)},
			messages: []string{"Comment cannot exceed 255 characters"},
		},
		{
			name:  "several problems at once",
			input: AppendTransactionInput{Amount: "-1", Type: "", Comment: ""},
			messages: []string{
				"Amount must be zero or positive",
				"Transaction type is required",
				"Comment is required",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.budgets.AppendTransaction(ctx, user.ID, b.ID.String(), tt.input)
			require.ErrorIs(t, err, ErrInvalidInput)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.messages, verr.Messages)
		})
	}

	txs, err := f.budgets.ListTransactions(ctx, user.ID, b.ID.String(), models.SortAscending)
	require.NoError(t, err)
	assert.Empty(t, txs)

	tx := f.appendTx(t, user, b, "0", "income", "Nothing")
	assert.True(t, tx.Amount.IsZero())
}

func TestAppendTransactionCommentLengthCountsRunes(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "a@example.com")
	b := f.budget(t, user, "Food")

	comment := strings.Repeat("é", 255)
	require.Greater(t, len(comment), 255)
	tx := f.appendTx(t, user, b, "1.00", "expense", comment)
	assert.Equal(t, comment, tx.Comment)
}

func TestOwnershipIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice@example.com")
	bob := f.register(t, "bob@example.com")
	x := f.budget(t, alice, "Alice only")
	f.appendTx(t, alice, x, "10.00", "income", "Gift")

	foreign := x.ID.String()
	missing := randomID()

	for _, id := range []string{foreign, missing, "not-a-uuid", ""} {
		_, err := f.budgets.ResolveOwnedBudget(ctx, bob.ID, id)
		assert.ErrorIs(t, err, ErrNotFound, id)

		_, err = f.budgets.GetBudget(ctx, bob.ID, id)
		assert.ErrorIs(t, err, ErrNotFound, id)

		_, err = f.budgets.ListTransactions(ctx, bob.ID, id, models.SortAscending)
		assert.ErrorIs(t, err, ErrNotFound, id)

		_, err = f.budgets.ComputeBalance(ctx, bob.ID, id)
		assert.ErrorIs(t, err, ErrNotFound, id)

		_, err = f.budgets.AppendTransaction(ctx, bob.ID, id, AppendTransactionInput{
			Amount: "5.00", Type: "expense", Comment: "sneaky",
		})
		assert.ErrorIs(t, err, ErrNotFound, id)
	}

	// Invalid input against a foreign budget still reports NotFound.
	_, err := f.budgets.AppendTransaction(ctx, bob.ID, foreign, AppendTransactionInput{Amount: "-1"})
	assert.ErrorIs(t, err, ErrNotFound)

	txs, err := f.budgets.ListTransactions(ctx, alice.ID, foreign, models.SortAscending)
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	bobBudgets, err := f.budgets.ListBudgets(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobBudgets)
}

func TestCreateBudgetValidation(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "a@example.com")

	_, err := f.budgets.CreateBudget(context.Background(), user.ID, CreateBudgetInput{Name: "   "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Budget name is required"}, verr.Messages)

	blank := "  "
	view, err := f.budgets.CreateBudget(context.Background(), user.ID, CreateBudgetInput{Name: " Trip ", Description: &blank})
	require.NoError(t, err)
	assert.Equal(t, "Trip", view.Name)
	assert.Nil(t, view.Description)
}

func TestCreateBudgetNameLengthCountsRunes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "a@example.com")

	name := strings.Repeat("é", 255)
	view, err := f.budgets.CreateBudget(ctx, user.ID, CreateBudgetInput{Name: name})
	require.NoError(t, err)
	assert.Equal(t, name, view.Name)

	_, err = f.budgets.CreateBudget(ctx, user.ID, CreateBudgetInput{Name: name + "é"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Budget name cannot exceed 255 characters"}, verr.Messages)
}

func TestListBudgetsAndSummary(t *testing.T) {
	f := newFixture(t)
	f.budgets.now = fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	user := f.register(t, "a@example.com")

	first := f.budget(t, user, "First")
	second := f.budget(t, user, "Second")
	f.appendTx(t, user, first, "100.00", "income", "a")
	f.appendTx(t, user, first, "40.00", "expense", "b")
	f.appendTx(t, user, second, "20.25", "expense", "c")

	views, err := f.budgets.ListBudgets(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "First", views[0].Name)
	assert.Equal(t, "60.00", views[0].Balance.StringFixed(2))
	assert.Equal(t, "-20.25", views[1].Balance.StringFixed(2))

	sum, err := f.budgets.Summary(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.BudgetCount)
	assert.Equal(t, "100.00", sum.TotalIncomes.StringFixed(2))
	assert.Equal(t, "60.25", sum.TotalExpenses.StringFixed(2))
	assert.Equal(t, "39.75", sum.TotalBalance.StringFixed(2))
}

func TestListTransactionsOrder(t *testing.T) {
	f := newFixture(t)
	f.budgets.now = fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	user := f.register(t, "a@example.com")
	b := f.budget(t, user, "Ordered")

	a := f.appendTx(t, user, b, "1.00", "income", "a")
	c := f.appendTx(t, user, b, "2.00", "income", "b")
	d := f.appendTx(t, user, b, "3.00", "income", "c")

	asc, err := f.budgets.ListTransactions(ctx, user.ID, b.ID.String(), models.SortAscending)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, c.ID, d.ID}, ids(asc))

	desc, err := f.budgets.ListTransactions(ctx, user.ID, b.ID.String(), models.SortDescending)
	require.NoError(t, err)
	assert.Equal(t, []int64{d.ID, c.ID, a.ID}, ids(desc))
}

func TestConcurrentAppends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "a@example.com")
	b := f.budget(t, user, "Busy")

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.budgets.AppendTransaction(ctx, user.ID, b.ID.String(), AppendTransactionInput{
				Amount: "1.25", Type: "income", Comment: "tick",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	txs, err := f.budgets.ListTransactions(ctx, user.ID, b.ID.String(), models.SortAscending)
	require.NoError(t, err)
	assert.Len(t, txs, workers)

	balance, err := f.budgets.ComputeBalance(ctx, user.ID, b.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "25.00", balance.StringFixed(2))
}

func ids(txs []models.Transaction) []int64 {
	out := make([]int64, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.ID)
	}
	return out
}
