package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/budget-be/internal/models"
	"github.com/hongminglow/budget-be/internal/storage"
)

// Ensure Store satisfies the storage interfaces at compile time.
var (
	_ storage.Store    = (*Store)(nil)
	_ storage.Resetter = (*Store)(nil)
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Store provides Postgres-backed persistence for users, budgets and transactions.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			roles TEXT[] NOT NULL DEFAULT '{ROLE_USER}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_unique_idx ON users (email);`,
		`CREATE TABLE IF NOT EXISTS budgets (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			name VARCHAR(255) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS budgets_user_id_idx ON budgets (user_id);`,
		`CREATE TABLE IF NOT EXISTS budget_transactions (
			id BIGSERIAL PRIMARY KEY,
			budget_id UUID NOT NULL REFERENCES budgets(id),
			amount NUMERIC(14,2) NOT NULL CHECK (amount >= 0),
			type TEXT NOT NULL CHECK (type IN ('income', 'expense')),
			comment VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS budget_transactions_budget_id_idx ON budget_transactions (budget_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// Reset drops every table and recreates the empty schema.
func (s *Store) Reset(ctx context.Context) error {
	const drop = `DROP TABLE IF EXISTS budget_transactions, budgets, users CASCADE`
	if _, err := s.pool.Exec(ctx, drop); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return s.migrate(ctx)
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (id, email, password_hash, is_active, roles, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, email, password_hash, is_active, roles, created_at;
	`
	row := s.pool.QueryRow(ctx, query, user.ID, user.Email, user.PasswordHash, user.Active, user.Roles, user.CreatedAt)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindUserByID fetches a user by primary key.
func (s *Store) FindUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	const query = `
	SELECT id, email, password_hash, is_active, roles, created_at
	FROM users
	WHERE id = $1;
	`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

// FindUserByEmail fetches a user by its normalized email address.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
	SELECT id, email, password_hash, is_active, roles, created_at
	FROM users
	WHERE email = $1;
	`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// UpdatePassword replaces the stored credential hash.
func (s *Store) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1;`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SetActive toggles the active flag.
func (s *Store) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET is_active = $2 WHERE id = $1;`, id, active)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CreateBudget inserts a budget owned by budget.OwnerID.
func (s *Store) CreateBudget(ctx context.Context, budget models.Budget) (models.Budget, error) {
	const query = `
		INSERT INTO budgets (id, user_id, name, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, name, description, created_at;
	`
	row := s.pool.QueryRow(ctx, query, budget.ID, budget.OwnerID, budget.Name, budget.Description, budget.CreatedAt)
	created, err := scanBudget(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case uniqueViolation:
				return models.Budget{}, storage.ErrAlreadyExists
			case foreignKeyViolation:
				return models.Budget{}, storage.ErrNotFound
			}
		}
		return models.Budget{}, err
	}
	return created, nil
}

// FindBudgetByID fetches a budget regardless of owner; ownership is checked by the caller.
func (s *Store) FindBudgetByID(ctx context.Context, id uuid.UUID) (models.Budget, error) {
	const query = `
	SELECT id, user_id, name, description, created_at
	FROM budgets
	WHERE id = $1;
	`
	return scanBudget(s.pool.QueryRow(ctx, query, id))
}

// ListBudgetsByOwner returns the owner's budgets, oldest first.
func (s *Store) ListBudgetsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Budget, error) {
	const query = `
	SELECT id, user_id, name, description, created_at
	FROM budgets
	WHERE user_id = $1
	ORDER BY created_at, id;
	`
	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	budgets := []models.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// AppendTransaction inserts one ledger row. Amounts travel as text so that
// NUMERIC values never pass through a binary float.
func (s *Store) AppendTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	const query = `
		INSERT INTO budget_transactions (budget_id, amount, type, comment, created_at)
		VALUES ($1, $2::numeric, $3, $4, $5)
		RETURNING id, budget_id, amount::text, type, comment, created_at;
	`
	row := s.pool.QueryRow(ctx, query, tx.BudgetID, tx.Amount.StringFixed(2), string(tx.Type), tx.Comment, tx.CreatedAt)
	created, err := scanTransaction(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return models.Transaction{}, storage.ErrNotFound
		}
		return models.Transaction{}, err
	}
	return created, nil
}

// ListTransactionsByBudget returns the budget's transactions in insertion order.
func (s *Store) ListTransactionsByBudget(ctx context.Context, budgetID uuid.UUID) ([]models.Transaction, error) {
	const query = `
	SELECT id, budget_id, amount::text, type, comment, created_at
	FROM budget_transactions
	WHERE budget_id = $1
	ORDER BY id;
	`
	rows, err := s.pool.Query(ctx, query, budgetID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Active, &user.Roles, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanBudget(row pgx.Row) (models.Budget, error) {
	var b models.Budget
	if err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Description, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Budget{}, storage.ErrNotFound
		}
		return models.Budget{}, err
	}
	return b, nil
}

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var (
		t      models.Transaction
		amount string
		kind   string
	)
	if err := row.Scan(&t.ID, &t.BudgetID, &amount, &kind, &t.Comment, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Transaction{}, storage.ErrNotFound
		}
		return models.Transaction{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	t.Amount = d
	t.Type = models.TransactionType(kind)
	return t, nil
}
