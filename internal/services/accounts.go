package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hongminglow/budget-be/internal/auth"
	"github.com/hongminglow/budget-be/internal/models"
	"github.com/hongminglow/budget-be/internal/storage"
)

// RegisterInput is the data needed to create an identity.
type RegisterInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// LoginInput is the data needed to authenticate.
type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// ChangePasswordInput carries the current credential and the replacement.
type ChangePasswordInput struct {
	Current string `validate:"required"`
	New     string `validate:"required,min=6"`
	Confirm string `validate:"required,eqfield=New"`
}

// Accounts registers, authenticates and resolves identities.
type Accounts struct {
	users    storage.UserStore
	hasher   auth.PasswordHasher
	tokens   *auth.TokenManager
	revoked  auth.RevocationList
	validate *Validator
	log      *zap.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummy     string
}

// NewAccounts wires the account service.
func NewAccounts(users storage.UserStore, hasher auth.PasswordHasher, tokens *auth.TokenManager, revoked auth.RevocationList, log *zap.Logger) *Accounts {
	return &Accounts{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		revoked:  revoked,
		validate: NewValidator(),
		log:      log.Named("accounts"),
		now:      time.Now,
	}
}

// NormalizeEmail trims and lower-cases an address. Emails are compared and
// stored in this form, so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an active identity with the default role.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Email = NormalizeEmail(in.Email)
	if err := a.validate.Struct(in); err != nil {
		return models.User{}, err
	}

	if _, err := a.users.FindUserByEmail(ctx, in.Email); err == nil {
		return models.User{}, ErrDuplicateIdentity
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return models.User{}, invalid("Password cannot exceed 72 bytes")
		}
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := a.users.CreateUser(ctx, models.User{
		ID:           uuid.New(),
		Email:        in.Email,
		PasswordHash: hash,
		Active:       true,
		Roles:        []string{models.RoleUser},
		CreatedAt:    a.now().UTC().Truncate(time.Microsecond),
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, ErrDuplicateIdentity
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	a.log.Info("user registered", zap.String("user_id", created.ID.String()))
	return created, nil
}

// Authenticate checks the credential and issues a bearer token. Unknown
// email, wrong password and inactive account all return
// ErrAuthenticationFailed.
func (a *Accounts) Authenticate(ctx context.Context, in LoginInput) (auth.Token, models.User, error) {
	in.Email = NormalizeEmail(in.Email)
	if err := a.validate.Struct(in); err != nil {
		return auth.Token{}, models.User{}, err
	}

	user, err := a.users.FindUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Unknown emails pay the same hashing cost as a wrong password.
			a.hasher.Verify(in.Password, a.dummyHash())
			return auth.Token{}, models.User{}, ErrAuthenticationFailed
		}
		return auth.Token{}, models.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !a.hasher.Verify(in.Password, user.PasswordHash) || !user.Active {
		return auth.Token{}, models.User{}, ErrAuthenticationFailed
	}

	token, err := a.tokens.Generate(user)
	if err != nil {
		return auth.Token{}, models.User{}, err
	}
	a.log.Info("user authenticated", zap.String("user_id", user.ID.String()))
	return token, user, nil
}

// dummyHash returns a hash of a fixed throwaway password made with the
// configured hasher and cost.
func (a *Accounts) dummyHash() string {
	a.dummyOnce.Do(func() {
		hash, err := a.hasher.Hash("budget-be-unknown-account")
		if err != nil {
			a.log.Warn("dummy hash failed", zap.Error(err))
			return
		}
		a.dummy = hash
	})
	return a.dummy
}

// ChangePassword replaces the stored credential after checking the current one.
func (a *Accounts) ChangePassword(ctx context.Context, user models.User, in ChangePasswordInput) error {
	if err := a.validate.Struct(in); err != nil {
		return err
	}

	current, err := a.users.FindUserByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrAuthenticationFailed
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if !a.hasher.Verify(in.Current, current.PasswordHash) {
		return ErrAuthenticationFailed
	}

	hash, err := a.hasher.Hash(in.New)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return invalid("Password cannot exceed 72 bytes")
		}
		return fmt.Errorf("hash password: %w", err)
	}
	if err := a.users.UpdatePassword(ctx, current.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	a.log.Info("password changed", zap.String("user_id", current.ID.String()))
	return nil
}

// SetActive enables or disables an identity. Disabled identities can no
// longer authenticate and their outstanding tokens stop resolving.
func (a *Accounts) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	if err := a.users.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("set active: %w", err)
	}
	a.log.Info("user active flag changed", zap.String("user_id", userID.String()), zap.Bool("active", active))
	return nil
}

// ResolveToken verifies a bearer token and returns the active identity it
// was issued to.
func (a *Accounts) ResolveToken(ctx context.Context, bearer string) (models.User, auth.Claims, error) {
	claims, err := a.tokens.Parse(bearer)
	if err != nil {
		return models.User{}, auth.Claims{}, ErrAuthenticationFailed
	}

	revoked, err := a.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return models.User{}, auth.Claims{}, err
	}
	if revoked {
		return models.User{}, auth.Claims{}, ErrAuthenticationFailed
	}

	user, err := a.Resolve(ctx, claims)
	if err != nil {
		return models.User{}, auth.Claims{}, err
	}
	return user, claims, nil
}

// Resolve maps verified claims to an active identity.
func (a *Accounts) Resolve(ctx context.Context, claims auth.Claims) (models.User, error) {
	id, err := claims.UserID()
	if err != nil {
		return models.User{}, ErrAuthenticationFailed
	}
	user, err := a.users.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, ErrAuthenticationFailed
		}
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !user.Active {
		return models.User{}, ErrAuthenticationFailed
	}
	return user, nil
}

// Logout revokes the token described by claims for the rest of its lifetime.
func (a *Accounts) Logout(ctx context.Context, claims auth.Claims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(a.now())
	if err := a.revoked.Revoke(ctx, claims.ID, ttl); err != nil {
		return err
	}
	a.log.Info("token revoked", zap.String("user_id", claims.Subject))
	return nil
}
