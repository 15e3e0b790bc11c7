package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/hongminglow/budget-be/internal/models"
	"github.com/hongminglow/budget-be/internal/storage"
)

var (
	_ storage.Store    = (*Store)(nil)
	_ storage.Resetter = (*Store)(nil)
)

// Store keeps every record in process memory. It enforces the same email
// uniqueness and budget references as the SQL stores.
type Store struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]models.User
	emails       map[string]uuid.UUID
	budgets      map[uuid.UUID]models.Budget
	transactions map[uuid.UUID][]models.Transaction
	nextTxID     int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:        make(map[uuid.UUID]models.User),
		emails:       make(map[string]uuid.UUID),
		budgets:      make(map[uuid.UUID]models.Budget),
		transactions: make(map[uuid.UUID][]models.Transaction),
	}
}

func (s *Store) Close() error { return nil }

// Reset discards every record.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[uuid.UUID]models.User)
	s.emails = make(map[string]uuid.UUID)
	s.budgets = make(map[uuid.UUID]models.Budget)
	s.transactions = make(map[uuid.UUID][]models.Transaction)
	s.nextTxID = 0
	return nil
}

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[user.Email]; ok {
		return models.User{}, storage.ErrAlreadyExists
	}
	if _, ok := s.users[user.ID]; ok {
		return models.User{}, storage.ErrAlreadyExists
	}
	user.Roles = append([]string(nil), user.Roles...)
	s.users[user.ID] = user
	s.emails[user.Email] = user.ID
	return user, nil
}

func (s *Store) FindUserByID(_ context.Context, id uuid.UUID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	user.PasswordHash = passwordHash
	s.users[id] = user
	return nil
}

func (s *Store) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	user.Active = active
	s.users[id] = user
	return nil
}

func (s *Store) CreateBudget(_ context.Context, budget models.Budget) (models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[budget.OwnerID]; !ok {
		return models.Budget{}, storage.ErrNotFound
	}
	if _, ok := s.budgets[budget.ID]; ok {
		return models.Budget{}, storage.ErrAlreadyExists
	}
	s.budgets[budget.ID] = budget
	return budget, nil
}

func (s *Store) FindBudgetByID(_ context.Context, id uuid.UUID) (models.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.budgets[id]
	if !ok {
		return models.Budget{}, storage.ErrNotFound
	}
	return b, nil
}

func (s *Store) ListBudgetsByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Budget{}
	for _, b := range s.budgets {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) AppendTransaction(_ context.Context, tx models.Transaction) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.budgets[tx.BudgetID]; !ok {
		return models.Transaction{}, storage.ErrNotFound
	}
	s.nextTxID++
	tx.ID = s.nextTxID
	s.transactions[tx.BudgetID] = append(s.transactions[tx.BudgetID], tx)
	return tx, nil
}

func (s *Store) ListTransactionsByBudget(_ context.Context, budgetID uuid.UUID) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.Transaction{}, s.transactions[budgetID]...), nil
}
