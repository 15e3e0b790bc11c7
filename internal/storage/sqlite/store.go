package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/hongminglow/budget-be/internal/models"
	"github.com/hongminglow/budget-be/internal/storage"
)

var (
	_ storage.Store    = (*Store)(nil)
	_ storage.Resetter = (*Store)(nil)
)

const driverName = "sqlite"

// Store provides SQLite-backed persistence through database/sql.
type Store struct {
	db  *sql.DB
	dsn string
}

// DSN builds the connection string used for path, with foreign keys enforced.
func DSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite", path)
}

// NewStore opens the database file at path, creating its directory when
// needed, and runs the embedded migrations.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := DSN(path)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, err
	}
	s := NewWithDB(db)
	s.dsn = dsn
	return s, nil
}

// NewWithDB wraps an already opened handle. No migrations are run.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases database resources.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Reset drops every table and re-applies the migrations.
func (s *Store) Reset(_ context.Context) error {
	if s.dsn == "" {
		return errors.New("reset: store was not opened from a path")
	}
	return Reset(s.dsn)
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	roles, err := json.Marshal(user.Roles)
	if err != nil {
		return models.User{}, fmt.Errorf("encode roles: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, is_active, roles, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID.String(), user.Email, user.PasswordHash, user.Active, string(roles), user.CreatedAt.UTC(),
	)
	if err != nil {
		return models.User{}, mapConstraint(err, "create user")
	}
	return s.FindUserByID(ctx, user.ID)
}

// FindUserByID fetches a user by primary key.
func (s *Store) FindUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, is_active, roles, created_at FROM users WHERE id = ?`, id.String())
	return scanUser(row)
}

// FindUserByEmail fetches a user by its normalized email address.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, is_active, roles, created_at FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// UpdatePassword replaces the stored credential hash.
func (s *Store) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id.String())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireRow(res)
}

// SetActive toggles the active flag.
func (s *Store) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET is_active = ? WHERE id = ?`, active, id.String())
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	return requireRow(res)
}

// CreateBudget inserts a budget owned by budget.OwnerID.
func (s *Store) CreateBudget(ctx context.Context, budget models.Budget) (models.Budget, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (id, user_id, name, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		budget.ID.String(), budget.OwnerID.String(), budget.Name, budget.Description, budget.CreatedAt.UTC(),
	)
	if err != nil {
		return models.Budget{}, mapConstraint(err, "create budget")
	}
	return s.FindBudgetByID(ctx, budget.ID)
}

// FindBudgetByID fetches a budget regardless of owner.
func (s *Store) FindBudgetByID(ctx context.Context, id uuid.UUID) (models.Budget, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, description, created_at FROM budgets WHERE id = ?`, id.String())
	return scanBudget(row)
}

// ListBudgetsByOwner returns the owner's budgets, oldest first.
func (s *Store) ListBudgetsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, description, created_at FROM budgets WHERE user_id = ? ORDER BY created_at, id`,
		ownerID.String())
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

// AppendTransaction inserts one ledger row. Amounts are stored as fixed
// two-digit text.
func (s *Store) AppendTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO budget_transactions (budget_id, amount, type, comment, created_at) VALUES (?, ?, ?, ?, ?)`,
		tx.BudgetID.String(), tx.Amount.StringFixed(2), string(tx.Type), tx.Comment, tx.CreatedAt.UTC(),
	)
	if err != nil {
		return models.Transaction{}, mapConstraint(err, "append transaction")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, budget_id, amount, type, comment, created_at FROM budget_transactions WHERE id = ?`, id)
	return scanTransaction(row)
}

// ListTransactionsByBudget returns the budget's transactions in insertion order.
func (s *Store) ListTransactionsByBudget(ctx context.Context, budgetID uuid.UUID) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, budget_id, amount, type, comment, created_at FROM budget_transactions WHERE budget_id = ? ORDER BY id`,
		budgetID.String())
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

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (models.User, error) {
	var (
		user      models.User
		id, roles string
		createdAt time.Time
	)
	if err := row.Scan(&id, &user.Email, &user.PasswordHash, &user.Active, &roles, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return models.User{}, fmt.Errorf("scan user id: %w", err)
	}
	if err := json.Unmarshal([]byte(roles), &user.Roles); err != nil {
		return models.User{}, fmt.Errorf("decode roles: %w", err)
	}
	user.ID = parsed
	user.CreatedAt = createdAt
	return user, nil
}

func scanBudget(row scanner) (models.Budget, error) {
	var (
		b           models.Budget
		id, ownerID string
		description sql.NullString
	)
	if err := row.Scan(&id, &ownerID, &b.Name, &description, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Budget{}, storage.ErrNotFound
		}
		return models.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	var err error
	if b.ID, err = uuid.Parse(id); err != nil {
		return models.Budget{}, fmt.Errorf("scan budget id: %w", err)
	}
	if b.OwnerID, err = uuid.Parse(ownerID); err != nil {
		return models.Budget{}, fmt.Errorf("scan budget owner: %w", err)
	}
	if description.Valid {
		b.Description = &description.String
	}
	return b, nil
}

func scanTransaction(row scanner) (models.Transaction, error) {
	var (
		t                models.Transaction
		budgetID, amount string
		kind             string
	)
	if err := row.Scan(&t.ID, &budgetID, &amount, &kind, &t.Comment, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Transaction{}, storage.ErrNotFound
		}
		return models.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	var err error
	if t.BudgetID, err = uuid.Parse(budgetID); err != nil {
		return models.Transaction{}, fmt.Errorf("scan transaction budget: %w", err)
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return models.Transaction{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	t.Type = models.TransactionType(kind)
	return t, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func mapConstraint(err error, op string) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return storage.ErrAlreadyExists
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return storage.ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
