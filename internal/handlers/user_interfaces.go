package handlers

import (
	"context"
	"io"

	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
)

// UserServiceInterface defines the methods required from UserService.
// The embedded Store serves the admin endpoints; the rest acts on the
// logged in user's own account.
type UserServiceInterface interface {
	Store[*models.User]

	// UpdateMe applies a self-service profile change and returns the saved user.
	UpdateMe(ctx context.Context, user *models.User, req *models.UpdateMeRequest) (*models.User, error)

	// DeleteMe deactivates the account. The row is kept.
	DeleteMe(ctx context.Context, id int64) error

	// UploadPhoto resizes and stores a profile photo and returns its URL.
	UploadPhoto(ctx context.Context, userID int64, r io.Reader) (string, error)
}
