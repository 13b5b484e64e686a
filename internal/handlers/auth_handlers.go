package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/yasinhessnawi1/Natours_Backend/internal/auth"
	"github.com/yasinhessnawi1/Natours_Backend/internal/config"
	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// AuthHandler handles authentication-related routes
type AuthHandler struct {
	authService  AuthServiceInterface
	cookieExpiry time.Duration
	production   bool
	baseURL      string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService AuthServiceInterface, cfg *config.AppConfig) *AuthHandler {
	if authService == nil {
		panic("authService cannot be nil")
	}
	return &AuthHandler{
		authService:  authService,
		cookieExpiry: cfg.JWT.CookieExpiry,
		production:   cfg.App.IsProduction(),
		baseURL:      cfg.App.BaseURL,
	}
}

// Signup handles user registration
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.RespondError(w, r, err)
		return
	}

	accountURL := requestBaseURL(r, h.baseURL) + constants.ViewAccountPath
	resp, err := h.authService.Signup(r.Context(), &req, accountURL)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	h.sendToken(w, r, http.StatusCreated, resp)
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, r, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	h.sendToken(w, r, http.StatusOK, resp)
}

// Logout replaces the session cookie with a short-lived placeholder.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w, r, h.production)
	utils.JSON(w, http.StatusOK, nil)
}

// UpdateMyPassword changes the password of the logged in user.
func (h *AuthHandler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		utils.Unauthorized(w, constants.MsgLoginRequired)
		return
	}

	var req models.UpdatePasswordRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.RespondError(w, r, err)
		return
	}

	resp, err := h.authService.UpdatePassword(r.Context(), user.ID, &req)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	h.sendToken(w, r, http.StatusOK, resp)
}

// sendToken sets the session cookie and returns the token with the user.
func (h *AuthHandler) sendToken(w http.ResponseWriter, r *http.Request, status int, resp *models.AuthResponse) {
	auth.SetTokenCookie(w, r, resp.Token, h.cookieExpiry, h.production)
	utils.JSON(w, status, resp)
}

// requestBaseURL returns the configured public base URL, or the scheme and
// host the request arrived on.
func requestBaseURL(r *http.Request, configured string) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}
	scheme := "http"
	if auth.IsSecureRequest(r) {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
