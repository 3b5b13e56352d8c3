// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login and resolving the account
// behind a session token.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// PasswordHasher is the credential hashing dependency of UserService.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

// TokenIssuer is the token dependency of UserService.
type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
	Validate(token string) (*auth.Claims, error)
}

// UserService provides authentication-related operations:
// - Register: validate, create the user and mint a token
// - Login: verify credentials and mint a token
// - Resolve: map a token back to its account
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer

	dummyOnce sync.Once
	dummyHash string
}

// NewUserService constructs a UserService.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, tokens TokenIssuer) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
	}
}

// Register creates an account with the default roles and returns a token
// for it. Username uniqueness is checked before email uniqueness; both
// checks are repeated by the storage constraints on insert.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	if err := validateRegister(&req); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	if err := s.ensureFree(repo.FindByUsername(ctx, req.Username)); err != nil {
		if errors.Is(err, errTaken) {
			return nil, common.ErrDuplicateUsername
		}
		return nil, err
	}
	if err := s.ensureFree(repo.FindByEmail(ctx, req.Email)); err != nil {
		if errors.Is(err, errTaken) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user *models.User
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var createErr error
		user, createErr = s.repomanager.Users(tx).Create(ctx, req.Username, req.Email, hash, models.DefaultRoles())
		return createErr
	}); err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) || errors.Is(err, common.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, storeError(err)
	}

	return s.respond(user)
}

// Login authenticates by username or email. An unknown account and a wrong
// password both yield common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if err := validateLogin(&req); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.FindByUsernameOrEmail(ctx, req.UsernameOrEmail)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// keep the miss as slow as a wrong password
			s.hasher.Verify(req.Password, s.dummy())
			return nil, common.ErrInvalidCredentials
		}
		return nil, storeError(err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	return s.respond(user)
}

// Resolve validates token and loads the account it was issued for.
// Tokens of deleted or replaced accounts yield common.ErrInvalidToken.
func (s *UserService) Resolve(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.FindByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, storeError(err)
	}
	if user.ID != claims.UserID {
		return nil, common.ErrInvalidToken
	}

	return user, nil
}

// --- helpers below ---

var errTaken = errors.New("taken")

// ensureFree turns a lookup result into errTaken, nil for a miss, or a
// store error.
func (s *UserService) ensureFree(_ *models.User, err error) error {
	switch {
	case err == nil:
		return errTaken
	case errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		return storeError(err)
	}
}

func (s *UserService) respond(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.Issue(auth.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Roles:    user.Roles,
	})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &models.AuthResponse{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Roles:    user.Roles,
	}, nil
}

func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("timing-equalizer")
	})
	return s.dummyHash
}

func storeError(err error) error {
	return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
}
