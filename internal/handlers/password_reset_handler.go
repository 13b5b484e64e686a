package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// ForgotPassword emails a password reset link to the given address.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.RespondError(w, r, err)
		return
	}

	prefix := requestBaseURL(r, h.baseURL) + constants.ResetPasswdPath
	if err := h.authService.ForgotPassword(r.Context(), req.Email, prefix); err != nil {
		utils.RespondError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{
		"message": constants.MsgTokenSent,
	})
}

// ResetPassword sets a new password using the token from the emailed link
// and logs the user in.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, constants.ParamToken)
	if token == "" {
		utils.RespondError(w, r, utils.NewBadRequestError(constants.MsgResetTokenInvalid))
		return
	}

	var req models.ResetPasswordRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.RespondError(w, r, err)
		return
	}

	resp, err := h.authService.ResetPassword(r.Context(), token, &req)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	h.sendToken(w, r, http.StatusOK, resp)
}
