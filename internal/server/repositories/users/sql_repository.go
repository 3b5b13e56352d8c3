package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/google/uuid"
)

const userColumns = `id, username, email, password_hash, roles, created_at, updated_at`

// SQLRepository implements Repository on top of database/sql. The queries
// run unchanged on PostgreSQL (pgx) and SQLite.
type SQLRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, now: time.Now}
}

// Create inserts a new account with a generated id. The storage unique
// constraints are authoritative, so two concurrent registrations of the same
// username or email leave exactly one row.
func (r *SQLRepository) Create(ctx context.Context, username, email, passwordHash string, roles []string) (*models.User, error) {
	// microsecond precision survives a round trip through both engines
	now := r.now().UTC().Truncate(time.Microsecond)

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Roles:        models.SplitRoles(models.JoinRoles(roles)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query :=
		`INSERT INTO users (id, username, email, password_hash, roles, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		models.JoinRoles(user.Roles), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if detail, ok := dbx.UniqueViolation(err); ok {
			switch {
			case strings.Contains(detail, "username"):
				return nil, common.ErrDuplicateUsername
			case strings.Contains(detail, "email"):
				return nil, common.ErrDuplicateEmail
			}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE username = $1
		 `
	return r.findOne(ctx, query, username)
}

func (r *SQLRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE email = $1
		 `
	return r.findOne(ctx, query, email)
}

// FindByUsernameOrEmail looks identifier up as a username and as an email in
// one query. If it matches the username of one account and the email of
// another, the username match is returned.
func (r *SQLRepository) FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE username = $1 OR email = $1
		 ORDER BY CASE WHEN username = $1 THEN 0 ELSE 1 END
		 LIMIT 1
		 `
	return r.findOne(ctx, query, identifier)
}

func (r *SQLRepository) findOne(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	var roles string

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&roles, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Roles = models.SplitRoles(roles)
	return user, nil
}
