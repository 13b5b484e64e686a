package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/database"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/repository"
	"github.com/yasinhessnawi1/Natours_Backend/internal/storage"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// UserService handles user-related operations
type UserService struct {
	users  repository.UserRepository
	images storage.ImageStore
	now    func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(users repository.UserRepository, images storage.ImageStore) *UserService {
	return &UserService{
		users:  users,
		images: images,
		now:    time.Now,
	}
}

// GetActiveByID resolves the subject of a session token.
func (s *UserService) GetActiveByID(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// Create is not offered to admins; accounts come from signup.
func (s *UserService) Create(ctx context.Context, user *models.User) (*models.User, error) {
	return nil, utils.NewInternalError(constants.MsgCreateUserUndefined, nil)
}

// Get retrieves an active user by ID
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// List returns one page of active users.
func (s *UserService) List(ctx context.Context, q *database.ListQuery) ([]*models.User, int, error) {
	return s.users.List(ctx, q)
}

// Update saves the profile fields of user.
func (s *UserService) Update(ctx context.Context, user *models.User) (*models.User, error) {
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	log.Info().Int64("user_id", user.ID).Msg("User updated")
	return user, nil
}

// Delete removes a user for good.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Int64("user_id", id).Msg("User deleted")
	return nil
}

// UpdateMe applies a self-service profile change.
func (s *UserService) UpdateMe(ctx context.Context, user *models.User, req *models.UpdateMeRequest) (*models.User, error) {
	if req.Empty() {
		return user, nil
	}

	updated := *user
	if req.Name != nil {
		updated.Name = *req.Name
	}
	if req.Email != nil {
		updated.Email = *req.Email
	}
	if req.Photo != nil {
		updated.Photo = *req.Photo
	}

	updated.BeforeSave()
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, &updated); err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", updated.ID).Msg("User profile updated")
	return &updated, nil
}

// DeleteMe deactivates the account; the row is kept.
func (s *UserService) DeleteMe(ctx context.Context, id int64) error {
	if err := s.users.Deactivate(ctx, id); err != nil {
		return err
	}
	log.Info().Int64("user_id", id).Msg("User deactivated")
	return nil
}

// UploadPhoto resizes an uploaded photo to a square JPEG, stores it and
// returns its URL.
func (s *UserService) UploadPhoto(ctx context.Context, userID int64, r io.Reader) (string, error) {
	data, err := storage.ResizeJPEG(r, constants.UserPhotoWidth, constants.UserPhotoHeight)
	if err != nil {
		return "", err
	}

	url, err := s.images.Put(ctx, storage.UserPhotoKey(userID, s.now()), constants.ContentTypeJPEG, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to store user photo: %w", err)
	}
	return url, nil
}
