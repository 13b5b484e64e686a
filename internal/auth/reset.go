package auth

import (
	"fmt"
	"time"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// CreateResetToken generates a password reset token valid for
// constants.ResetTokenTTL from now.
func CreateResetToken(now time.Time) (*models.PasswordResetToken, error) {
	plain, err := utils.RandomHex(constants.ResetTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reset token: %w", err)
	}
	return &models.PasswordResetToken{
		Plain:     plain,
		Hash:      HashResetToken(plain),
		ExpiresAt: now.Add(constants.ResetTokenTTL),
	}, nil
}

// HashResetToken returns the stored form of a reset token.
func HashResetToken(plain string) string {
	return utils.SHA256Hex(plain)
}
