package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository is the User Store. Lookups return common.ErrorNotFound when no
// account matches; Create reports uniqueness failures as
// common.ErrDuplicateUsername or common.ErrDuplicateEmail.
type Repository interface {
	Create(ctx context.Context, username, email, passwordHash string, roles []string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error)
}
