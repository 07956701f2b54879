// Package refreshtokens stores the refresh tokens of the server's
// authentication flow. Tokens are looked up by their hash; the plain token
// is only ever held by the client.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/maunavault/internal/server/models"
)

type Repository interface {
	// Create stores token for userID, valid for validity from now.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find returns the stored token or common.ErrorNotFound.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete revokes token. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteByUser revokes every refresh token of userID.
	DeleteByUser(ctx context.Context, userID string) error

	// DeleteExpired drops the expired tokens of userID and returns how many
	// were removed.
	DeleteExpired(ctx context.Context, userID string) (int64, error)
}
