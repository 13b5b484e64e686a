package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/auth"
	"github.com/yasinhessnawi1/Natours_Backend/internal/config"
	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/database"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/repository"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
	"github.com/yasinhessnawi1/Natours_Backend/internal/views"
)

const bookingAlert = "Your booking was successful! Please check your email for a confirmation. " +
	"If your booking doesn't show up here immediately, please come back later."

// PageRenderer writes HTML pages.
type PageRenderer interface {
	Render(w http.ResponseWriter, status int, name string, page *views.Page) error
}

// ViewHandler serves the server-rendered pages.
type ViewHandler struct {
	tours       TourServiceInterface
	users       UserServiceInterface
	pages       PageRenderer
	mapboxToken string
	stripeKey   string
}

// NewViewHandler creates a new ViewHandler
func NewViewHandler(tours TourServiceInterface, users UserServiceInterface, pages PageRenderer, cfg *config.AppConfig) *ViewHandler {
	return &ViewHandler{
		tours:       tours,
		users:       users,
		pages:       pages,
		mapboxToken: cfg.Views.MapboxToken,
		stripeKey:   cfg.Stripe.PublicKey,
	}
}

// Overview lists all public tours.
func (h *ViewHandler) Overview(w http.ResponseWriter, r *http.Request) {
	q, err := database.ParseListQuery(url.Values{}, repository.TourSchema)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	tours, _, err := h.tours.List(r.Context(), q)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	page := h.page(r, "All Tours")
	page.Tours = tours
	h.render(w, r, http.StatusOK, views.PageOverview, page)
}

// Tour shows one tour with its guides and reviews.
func (h *ViewHandler) Tour(w http.ResponseWriter, r *http.Request) {
	tour, err := h.tours.GetBySlug(r.Context(), chi.URLParam(r, constants.ParamSlug))
	if err != nil {
		if utils.IsNotFoundError(err) {
			err = utils.NewNotFoundError(constants.MsgNoTourWithName)
		}
		h.renderError(w, r, err)
		return
	}

	page := h.page(r, tour.Name+" Tour")
	page.Tour = tour
	h.render(w, r, http.StatusOK, views.PageTour, page)
}

// Login shows the login form.
func (h *ViewHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.PageLogin, h.page(r, "Log into your account"))
}

// Signup shows the signup form.
func (h *ViewHandler) Signup(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.PageSignup, h.page(r, "Create your account"))
}

// Account shows the settings of the logged in user.
func (h *ViewHandler) Account(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.PageAccount, h.page(r, "Your account"))
}

// MyTours lists the tours the logged in user has booked.
func (h *ViewHandler) MyTours(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		h.renderError(w, r, utils.NewUnauthorizedError(constants.MsgLoginRequired))
		return
	}

	tours, err := h.tours.BookedByUser(r.Context(), user.ID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	page := h.page(r, "My Tours")
	page.Tours = tours
	h.render(w, r, http.StatusOK, views.PageOverview, page)
}

// SubmitUserData updates name and email from the account form and shows the
// account page again.
func (h *ViewHandler) SubmitUserData(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		h.renderError(w, r, utils.NewUnauthorizedError(constants.MsgLoginRequired))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxRequestBodySize)
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, utils.NewBadRequestError("Invalid form data"))
		return
	}

	req := &models.UpdateMeRequest{}
	if name := strings.TrimSpace(r.PostForm.Get("name")); name != "" {
		req.Name = &name
	}
	if email := strings.TrimSpace(r.PostForm.Get("email")); email != "" {
		req.Email = &email
	}

	updated, err := h.users.UpdateMe(r.Context(), user, req)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	page := h.page(r, "Your account")
	page.User = updated
	h.render(w, r, http.StatusOK, views.PageAccount, page)
}

// RequireLogin renders the error page for anonymous visitors. It runs after
// the soft auth middleware.
func (h *ViewHandler) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAuthenticated(r) {
			h.renderError(w, r, utils.NewUnauthorizedError(constants.MsgLoginRequired))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NotFound renders the error page for unknown page routes.
func (h *ViewHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, utils.NewNotFoundError("Can't find "+r.URL.Path+" on this server!"))
}

func (h *ViewHandler) page(r *http.Request, title string) *views.Page {
	page := &views.Page{
		Title:       title,
		MapboxToken: h.mapboxToken,
		StripeKey:   h.stripeKey,
	}
	if user, ok := auth.CurrentUser(r); ok {
		page.User = user
	}
	if r.URL.Query().Get(constants.QueryParamAlert) == constants.AlertBooking {
		page.Alert = bookingAlert
	}
	return page
}

// renderError shows the error page. Non-operational errors are logged and,
// unless verbose errors are enabled, shown as a generic message.
func (h *ViewHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := utils.ParseError(err)
	message := appErr.Message
	if !appErr.IsOperational() {
		utils.LogError(err, map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		if !utils.VerboseErrors(r.Context()) {
			message = "Please try again later."
		}
	}

	page := h.page(r, "Something went wrong!")
	page.Message = message
	h.render(w, r, appErr.StatusCode, views.PageError, page)
}

func (h *ViewHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, page *views.Page) {
	if err := h.pages.Render(w, status, name, page); err != nil {
		log.Error().Err(err).Str("page", name).Str("path", r.URL.Path).Msg("Failed to render page")
		http.Error(w, constants.MsgSomethingWrong, http.StatusInternalServerError)
	}
}
