package users

import (
	"context"

	"github.com/dmitrijs2005/maunavault/internal/server/models"
)

type Repository interface {
	// Create returns common.ErrorAlreadyExists when the email is taken.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateCredentialHash(ctx context.Context, id string, hash []byte) error
}
