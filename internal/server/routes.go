package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/auth"
	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/middleware"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// staticPrefixes are the public asset folders served from the static directory.
var staticPrefixes = []string{"/img", "/css", "/js"}

// SetupRoutes configures the routes for the application: the JSON API under
// /api/v1, the payment webhook, the rendered pages and static assets.
func (s *Server) SetupRoutes() {
	r := chi.NewRouter()

	// Base middleware
	r.Use(middleware.RealIP(s.proxies))
	r.Use(middleware.RequestID)
	if s.Config.Logging.RequestLog {
		r.Use(middleware.RequestLogger)
	}
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(s.Config.CORS))
	r.Use(middleware.SecurityHeaders(s.Config.App.IsProduction()))
	r.Use(middleware.ErrorMode(!s.Config.App.IsProduction()))
	r.Use(chimiddleware.Compress(5))

	r.Get(constants.HealthPath, s.handleHealth)
	r.Get(constants.VersionPath, s.handleVersion)

	// The webhook needs the raw body for signature checks, so it stays outside
	// the JSON API and its body limit.
	r.Post(constants.WebhookPath, s.Handlers.Booking.WebhookCheckout)

	r.Route(constants.APIBasePath, func(r chi.Router) {
		if s.limiter != nil {
			r.Use(middleware.RateLimit(s.limiter))
		}
		r.NotFound(apiNotFound)
		r.MethodNotAllowed(apiMethodNotAllowed)

		r.Route("/v1", func(r chi.Router) {
			r.Use(middleware.BodyLimit(constants.MaxRequestBodySize, constants.MaxUploadSize))
			r.Use(middleware.HPP(constants.HPPWhitelist))

			r.Route(constants.UsersPath, s.userRoutes)
			r.Route(constants.ToursPath, s.tourRoutes)
			r.Route(constants.ReviewsPath, s.reviewRoutes)
			r.Route(constants.BookingsPath, s.bookingRoutes)
		})
	})

	s.viewRoutes(r)
	s.staticRoutes(r)
	r.NotFound(s.Handlers.View.NotFound)

	s.router = r
}

// GetRouter returns the configured router.
func (s *Server) GetRouter() chi.Router {
	return s.router
}

func (s *Server) userRoutes(r chi.Router) {
	authH := s.Handlers.Auth
	userH := s.Handlers.User

	r.Post("/signup", authH.Signup)
	r.Post("/login", authH.Login)
	r.Get("/logout", authH.Logout)
	r.Post("/forgotPassword", authH.ForgotPassword)
	r.Patch("/resetPassword/{"+constants.ParamToken+"}", authH.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticator.Protect)

		r.Patch("/updateMyPassword", authH.UpdateMyPassword)
		r.Get("/me", userH.GetMe)
		r.Patch("/updateMe", userH.UpdateMe)
		r.Delete("/deleteMe", userH.DeleteMe)

		r.Group(func(r chi.Router) {
			r.Use(auth.RestrictTo(models.RoleAdmin))

			r.Get("/", userH.GetAll)
			r.Post("/", userH.CreateUser)
			r.Get("/{id}", userH.GetOne)
			r.Patch("/{id}", userH.UpdateOne)
			r.Delete("/{id}", userH.DeleteOne)
		})
	})
}

func (s *Server) tourRoutes(r chi.Router) {
	h := s.Handlers.Tour

	r.Route("/{"+constants.ParamTourID+"}/reviews", s.reviewRoutes)

	r.With(h.AliasTopTours).Get("/top-5-cheap", h.GetAll)
	r.Get("/tour-stats", h.GetTourStats)
	r.With(
		s.authenticator.Protect,
		auth.RestrictTo(models.RoleAdmin, models.RoleLeadGuide, models.RoleGuide),
	).Get("/monthly-plan/{"+constants.ParamYear+"}", h.GetMonthlyPlan)
	r.Get("/tours-within/{distance}/center/{latlng}/unit/{unit}", h.GetToursWithin)
	r.Get("/distances/{latlng}/unit/{unit}", h.GetDistances)
	r.Get("/search", h.SearchTours)

	r.Get("/", h.GetAll)
	r.Get("/{id}", h.GetOne)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticator.Protect)
		r.Use(auth.RestrictTo(models.RoleAdmin, models.RoleLeadGuide))

		r.Post("/", h.Create)
		r.Patch("/{id}", h.UpdateTour)
		r.Delete("/{id}", h.DeleteOne)
	})
}

// reviewRoutes serves /reviews and /tours/{tourId}/reviews.
func (s *Server) reviewRoutes(r chi.Router) {
	h := s.Handlers.Review

	r.Use(s.authenticator.Protect)

	r.Get("/", h.GetAll)
	r.With(auth.RestrictTo(models.RoleUser)).Post("/", h.Create)
	r.Get("/{id}", h.GetOne)

	r.Group(func(r chi.Router) {
		r.Use(auth.RestrictTo(models.RoleUser, models.RoleAdmin))
		r.Use(auth.RequireOwnerOrAdmin(constants.ParamID, h.Owner()))

		r.Patch("/{id}", h.UpdateOne)
		r.Delete("/{id}", h.DeleteOne)
	})
}

func (s *Server) bookingRoutes(r chi.Router) {
	h := s.Handlers.Booking

	r.Use(s.authenticator.Protect)

	r.Get("/checkout-session/{"+constants.ParamTourID+"}", h.GetCheckoutSession)

	r.Group(func(r chi.Router) {
		r.Use(auth.RestrictTo(models.RoleAdmin, models.RoleLeadGuide))

		r.Get("/", h.GetAll)
		r.Post("/", h.Create)
		r.Get("/{id}", h.GetOne)
		r.Patch("/{id}", h.UpdateOne)
		r.Delete("/{id}", h.DeleteOne)
	})
}

func (s *Server) viewRoutes(r chi.Router) {
	h := s.Handlers.View

	r.Group(func(r chi.Router) {
		r.Use(s.authenticator.SoftAuth)

		r.Get(constants.ViewOverviewPath, h.Overview)
		r.Get(constants.ViewTourPath, h.Tour)
		r.Get(constants.ViewLoginPath, h.Login)
		r.Get(constants.ViewSignupPath, h.Signup)

		r.Group(func(r chi.Router) {
			r.Use(middleware.NoCache)
			r.Use(h.RequireLogin)

			r.Get(constants.ViewAccountPath, h.Account)
			r.Get(constants.ViewMyToursPath, h.MyTours)
			r.Post(constants.ViewSubmitPath, h.SubmitUserData)
		})
	})
}

// staticRoutes serves images, stylesheets and scripts. Directory listings
// are not exposed.
func (s *Server) staticRoutes(r chi.Router) {
	dir := s.Config.Server.StaticDir
	if dir == "" {
		return
	}

	files := http.FileServer(http.Dir(dir))
	for _, prefix := range staticPrefixes {
		r.Get(prefix+"/*", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") {
				s.Handlers.View.NotFound(w, r)
				return
			}
			files.ServeHTTP(w, r)
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health.HealthCheck(r.Context()); err != nil {
		log.Error().Err(err).Msg("Health check failed")
		utils.Error(w, http.StatusServiceUnavailable, "service_unavailable", "Service is not healthy", nil)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.Config.App.Version,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{
		"name":        s.Config.App.Name,
		"version":     s.Config.App.Version,
		"environment": s.Config.App.Environment,
	})
}

func apiNotFound(w http.ResponseWriter, r *http.Request) {
	utils.Error(w, http.StatusNotFound, constants.CodeNotFound, fmt.Sprintf(constants.MsgRouteNotFound, r.URL.Path), nil)
}

func apiMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	utils.MethodNotAllowed(w)
}
