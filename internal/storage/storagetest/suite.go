// Package storagetest holds the behaviour every storage.Store implementation
// must share, packaged as a testify suite.
package storagetest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/hongminglow/budget-be/internal/models"
	"github.com/hongminglow/budget-be/internal/storage"
)

// StoreSuite runs against a fresh store for every test.
type StoreSuite struct {
	suite.Suite
	// NewStore returns an empty store. It is called before each test.
	NewStore func() storage.Store

	store storage.Store
	ctx   context.Context
	base  time.Time
}

func (s *StoreSuite) SetupTest() {
	s.store = s.NewStore()
	s.ctx = context.Background()
	s.base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		s.Require().NoError(s.store.Close())
	}
}

func (s *StoreSuite) newUser(email string) models.User {
	user, err := s.store.CreateUser(s.ctx, models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "hash",
		Active:       true,
		Roles:        []string{models.RoleUser},
		CreatedAt:    s.base,
	})
	s.Require().NoError(err)
	return user
}

func (s *StoreSuite) newBudget(owner models.User, name string, offset time.Duration) models.Budget {
	b, err := s.store.CreateBudget(s.ctx, models.Budget{
		ID:        uuid.New(),
		OwnerID:   owner.ID,
		Name:      name,
		CreatedAt: s.base.Add(offset),
	})
	s.Require().NoError(err)
	return b
}

func (s *StoreSuite) TestCreateAndFindUser() {
	created := s.newUser("a@example.com")

	byID, err := s.store.FindUserByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("a@example.com", byID.Email)
	s.True(byID.Active)
	s.Equal([]string{models.RoleUser}, byID.Roles)
	s.True(s.base.Equal(byID.CreatedAt))

	byEmail, err := s.store.FindUserByEmail(s.ctx, "a@example.com")
	s.Require().NoError(err)
	s.Equal(created.ID, byEmail.ID)
}

func (s *StoreSuite) TestFindMissingUser() {
	_, err := s.store.FindUserByID(s.ctx, uuid.New())
	s.ErrorIs(err, storage.ErrNotFound)

	_, err = s.store.FindUserByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *StoreSuite) TestDuplicateEmail() {
	s.newUser("dup@example.com")

	_, err := s.store.CreateUser(s.ctx, models.User{
		ID:           uuid.New(),
		Email:        "dup@example.com",
		PasswordHash: "other",
		Active:       true,
		Roles:        []string{models.RoleUser},
		CreatedAt:    s.base,
	})
	s.ErrorIs(err, storage.ErrAlreadyExists)
}

func (s *StoreSuite) TestUpdatePasswordAndSetActive() {
	user := s.newUser("a@example.com")

	s.Require().NoError(s.store.UpdatePassword(s.ctx, user.ID, "new-hash"))
	s.Require().NoError(s.store.SetActive(s.ctx, user.ID, false))

	got, err := s.store.FindUserByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("new-hash", got.PasswordHash)
	s.False(got.Active)

	s.ErrorIs(s.store.UpdatePassword(s.ctx, uuid.New(), "x"), storage.ErrNotFound)
	s.ErrorIs(s.store.SetActive(s.ctx, uuid.New(), true), storage.ErrNotFound)
}

func (s *StoreSuite) TestBudgets() {
	alice := s.newUser("alice@example.com")
	bob := s.newUser("bob@example.com")

	description := "Summer"
	second := s.newBudget(alice, "Second", 2*time.Minute)
	first, err := s.store.CreateBudget(s.ctx, models.Budget{
		ID:          uuid.New(),
		OwnerID:     alice.ID,
		Name:        "First",
		Description: &description,
		CreatedAt:   s.base.Add(time.Minute),
	})
	s.Require().NoError(err)
	s.newBudget(bob, "Bob", 0)

	got, err := s.store.FindBudgetByID(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(alice.ID, got.OwnerID)
	s.Require().NotNil(got.Description)
	s.Equal("Summer", *got.Description)

	list, err := s.store.ListBudgetsByOwner(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(first.ID, list[0].ID)
	s.Equal(second.ID, list[1].ID)
	s.Nil(list[1].Description)

	none, err := s.store.ListBudgetsByOwner(s.ctx, uuid.New())
	s.Require().NoError(err)
	s.Empty(none)

	_, err = s.store.FindBudgetByID(s.ctx, uuid.New())
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *StoreSuite) TestBudgetRequiresOwner() {
	_, err := s.store.CreateBudget(s.ctx, models.Budget{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		Name:      "Orphan",
		CreatedAt: s.base,
	})
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *StoreSuite) TestTransactions() {
	user := s.newUser("a@example.com")
	b := s.newBudget(user, "Ledger", 0)
	other := s.newBudget(user, "Other", time.Minute)

	amounts := []string{"1000.00", "0.10", "150.75"}
	var ids []int64
	for i, amount := range amounts {
		tx, err := s.store.AppendTransaction(s.ctx, models.Transaction{
			BudgetID:  b.ID,
			Amount:    decimal.RequireFromString(amount),
			Type:      models.TransactionIncome,
			Comment:   "entry",
			CreatedAt: s.base.Add(time.Duration(i) * time.Second),
		})
		s.Require().NoError(err)
		s.NotZero(tx.ID)
		s.Equal(b.ID, tx.BudgetID)
		s.Equal(amount, tx.Amount.StringFixed(2))
		ids = append(ids, tx.ID)
	}
	_, err := s.store.AppendTransaction(s.ctx, models.Transaction{
		BudgetID:  other.ID,
		Amount:    decimal.RequireFromString("5"),
		Type:      models.TransactionExpense,
		Comment:   "elsewhere",
		CreatedAt: s.base,
	})
	s.Require().NoError(err)

	txs, err := s.store.ListTransactionsByBudget(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Require().Len(txs, 3)
	for i, tx := range txs {
		s.Equal(ids[i], tx.ID)
		s.Equal(amounts[i], tx.Amount.StringFixed(2))
		s.Equal(models.TransactionIncome, tx.Type)
		s.Equal("entry", tx.Comment)
		s.True(s.base.Add(time.Duration(i)*time.Second).Equal(tx.CreatedAt))
	}

	empty, err := s.store.ListTransactionsByBudget(s.ctx, uuid.New())
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *StoreSuite) TestTransactionRequiresBudget() {
	_, err := s.store.AppendTransaction(s.ctx, models.Transaction{
		BudgetID:  uuid.New(),
		Amount:    decimal.RequireFromString("1"),
		Type:      models.TransactionIncome,
		Comment:   "lost",
		CreatedAt: s.base,
	})
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *StoreSuite) TestReset() {
	resetter, ok := s.store.(storage.Resetter)
	if !ok {
		s.T().Skip("store does not support reset")
	}
	user := s.newUser("a@example.com")
	s.newBudget(user, "Gone", 0)

	s.Require().NoError(resetter.Reset(s.ctx))

	_, err := s.store.FindUserByID(s.ctx, user.ID)
	s.ErrorIs(err, storage.ErrNotFound)
	s.newUser("a@example.com")
}
