// Package server provides HTTP server implementation for the Natours application.
// It wires the database, external integrations, services and handlers together,
// and manages the server lifecycle.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/auth"
	"github.com/yasinhessnawi1/Natours_Backend/internal/config"
	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/database"
	"github.com/yasinhessnawi1/Natours_Backend/internal/handlers"
	"github.com/yasinhessnawi1/Natours_Backend/internal/mailer"
	"github.com/yasinhessnawi1/Natours_Backend/internal/middleware"
	"github.com/yasinhessnawi1/Natours_Backend/internal/payment"
	"github.com/yasinhessnawi1/Natours_Backend/internal/repository"
	"github.com/yasinhessnawi1/Natours_Backend/internal/search"
	"github.com/yasinhessnawi1/Natours_Backend/internal/service"
	"github.com/yasinhessnawi1/Natours_Backend/internal/storage"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils/ratelimit"
	"github.com/yasinhessnawi1/Natours_Backend/internal/views"
	"github.com/yasinhessnawi1/Natours_Backend/migrations"
)

// Handlers contains all HTTP handlers for the application.
type Handlers struct {
	Auth    *handlers.AuthHandler
	User    *handlers.UserHandler
	Tour    *handlers.TourHandler
	Review  *handlers.ReviewHandler
	Booking *handlers.BookingHandler
	View    *handlers.ViewHandler
}

// Services contains the business services behind the handlers.
type Services struct {
	Auth    *service.AuthService
	User    *service.UserService
	Tour    *service.TourService
	Review  *service.ReviewService
	Booking *service.BookingService
}

// integrations holds the clients of systems outside the database.
type integrations struct {
	images    storage.ImageStore
	index     search.TourIndex
	gateway   payment.Gateway
	publisher mailer.Publisher
	renderer  *views.Renderer
}

// closer releases one resource on shutdown.
type closer struct {
	name string
	fn   func() error
}

// Server represents the API server for the Natours application.
type Server struct {
	// Config contains application configuration
	Config *config.AppConfig

	// Db provides database access
	Db *database.Pool

	// Handlers contains all HTTP request handlers
	Handlers *Handlers

	// Services contains the business services
	Services *Services

	router        chi.Router
	health        ServerDBHealthChecker
	authenticator *auth.Authenticator
	limiter       middleware.Allower
	proxies       middleware.TrustedProxies
	reindexer     tourReindexer
	ext           integrations
	closers       []closer
	httpServer    *http.Server

	stopMaintenance context.CancelFunc
}

// NewServer connects to the database, brings its schema up to date and builds
// a server with all components wired.
//
// The initialization order is: database → integrations → repositories and
// services → handlers → routes.
func NewServer(cfg *config.AppConfig) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	migrator := migrations.NewMigrator(db)
	if err := migrator.RunMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	s, err := newServer(cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// newServer builds the server around an open pool.
func newServer(cfg *config.AppConfig, db *database.Pool) (*Server, error) {
	s := &Server{
		Config: cfg,
		Db:     db,
		health: db,
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, err
	}
	s.proxies = proxies

	if err := s.setupIntegrations(context.Background()); err != nil {
		s.closeResources()
		return nil, fmt.Errorf("failed to set up integrations: %w", err)
	}

	s.setupRateLimiter(context.Background())
	s.setupServices()
	s.setupHandlers()
	s.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Server.ServerAddress(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  constants.DefaultIdleTimeout,
	}

	return s, nil
}

func (s *Server) addCloser(name string, fn func() error) {
	s.closers = append(s.closers, closer{name: name, fn: fn})
}

// setupIntegrations creates the image store, search index, payment gateway,
// mail publisher and page renderer. Search and the mail broker are optional.
func (s *Server) setupIntegrations(ctx context.Context) error {
	cfg := s.Config

	images, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create image store: %w", err)
	}
	s.ext.images = images
	if c, ok := images.(io.Closer); ok {
		s.addCloser("image store", c.Close)
	}
	log.Info().Str("driver", cfg.Storage.Driver).Msg("Image store ready")

	if len(cfg.Elasticsearch.Addresses) > 0 {
		client, err := search.NewClient(cfg.Elasticsearch)
		if err != nil {
			return fmt.Errorf("failed to create search client: %w", err)
		}
		s.ext.index = search.NewElasticIndex(client, cfg.Elasticsearch.Index)
		log.Info().Strs("addresses", cfg.Elasticsearch.Addresses).Msg("Tour search backed by Elasticsearch")
	} else {
		log.Info().Msg("No search cluster configured, tour search uses SQL")
	}

	s.ext.gateway = payment.NewStripeGateway(cfg.Stripe)

	if cfg.RabbitMQ.URL != "" {
		publisher, err := mailer.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			return err
		}
		s.ext.publisher = publisher
		s.addCloser("email publisher", func() error {
			publisher.Close()
			return nil
		})
	} else {
		log.Warn().Msg("No message broker configured, email jobs are only logged")
		s.ext.publisher = mailer.LogPublisher{}
	}

	renderer, err := views.New(cfg.Views.TemplateDir)
	if err != nil {
		return fmt.Errorf("failed to load page templates: %w", err)
	}
	s.ext.renderer = renderer
	s.addCloser("page renderer", renderer.Close)
	if cfg.Views.TemplateDir != "" && cfg.App.IsDevelopment() {
		if err := renderer.Watch(); err != nil {
			log.Warn().Err(err).Msg("Template hot reload disabled")
		}
	}

	return nil
}

// setupRateLimiter prefers Redis so the budget is shared between instances,
// and falls back to an in-process store.
func (s *Server) setupRateLimiter(ctx context.Context) {
	rl := s.Config.RateLimit
	if !rl.Enabled {
		log.Info().Msg("Rate limiting disabled")
		return
	}

	var counter ratelimit.Counter
	if addr := s.Config.Redis.Addr; addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: s.Config.Redis.Password,
			DB:       s.Config.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, constants.RedisPingTimeout)
		err := client.Ping(pingCtx).Err()
		cancel()

		if err != nil {
			log.Warn().Err(err).Str("addr", addr).Msg("Redis unavailable, using in-memory rate limit store")
			_ = client.Close()
		} else {
			counter = ratelimit.NewRedisStore(client)
			s.addCloser("redis", client.Close)
		}
	}

	if counter == nil {
		store := ratelimit.NewMemoryStore(constants.RateLimitCleanupInterval)
		counter = store
		s.addCloser("rate limit store", func() error {
			store.Stop()
			return nil
		})
	}

	s.limiter = ratelimit.NewLimiter(counter, rl.Max, rl.Window, rl.Prefix)
	log.Info().Int("max", rl.Max).Dur("window", rl.Window).Msg("Rate limiting enabled")
}

// setupServices creates repositories and the services built on them.
func (s *Server) setupServices() {
	users := repository.NewUserRepository(s.Db)
	tours := repository.NewTourRepository(s.Db)
	reviews := repository.NewReviewRepository(s.Db)
	bookings := repository.NewBookingRepository(s.Db)

	tokens := auth.NewTokenService(&s.Config.JWT)
	hasher := auth.NewArgon2Hasher(auth.ConfigFromAppConfig(s.Config))

	s.Services = &Services{
		Auth:    service.NewAuthService(users, tokens, hasher, s.ext.publisher),
		User:    service.NewUserService(users, s.ext.images),
		Tour:    service.NewTourService(tours, reviews, s.ext.index, s.ext.images),
		Review:  service.NewReviewService(reviews, tours),
		Booking: service.NewBookingService(bookings, tours, users, s.ext.gateway),
	}

	s.authenticator = auth.NewAuthenticator(tokens, s.Services.User)
	if s.ext.index != nil {
		s.reindexer = s.Services.Tour
	}
}

// setupHandlers initializes all HTTP request handlers.
func (s *Server) setupHandlers() {
	s.Handlers = &Handlers{
		Auth:    handlers.NewAuthHandler(s.Services.Auth, s.Config),
		User:    handlers.NewUserHandler(s.Services.User),
		Tour:    handlers.NewTourHandler(s.Services.Tour),
		Review:  handlers.NewReviewHandler(s.Services.Review),
		Booking: handlers.NewBookingHandler(s.Services.Booking, s.Config),
		View:    handlers.NewViewHandler(s.Services.Tour, s.Services.User, s.ext.renderer, s.Config),
	}
}

// Start starts the HTTP server and blocks until it fails or a shutdown
// signal arrives, in which case it shuts down gracefully.
func (s *Server) Start() error {
	serverErrors := make(chan error, 1)

	go func() {
		log.Info().
			Str("address", s.Config.Server.ServerAddress()).
			Str("environment", s.Config.App.Environment).
			Msg("Starting server")

		serverErrors <- s.httpServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	s.SetupMaintenanceTasks()

	select {
	case err := <-serverErrors:
		if s.stopMaintenance != nil {
			s.stopMaintenance()
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info().
			Str("signal", sig.String()).
			Msg("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.Shutdown(ctx); err != nil {
			if closeErr := s.httpServer.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// Shutdown stops accepting requests, waits for in-flight requests and
// background bookings, then releases every resource.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stopMaintenance != nil {
		s.stopMaintenance()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	log.Info().Msg("Server stopped gracefully")

	if s.Services != nil {
		done := make(chan struct{})
		go func() {
			s.Services.Booking.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			log.Warn().Msg("Gave up waiting for webhook bookings")
		}
	}

	s.closeResources()

	s.Db.Close()
	log.Info().Msg("Database connection closed")

	return nil
}

// closeResources releases integrations in reverse order of creation.
func (s *Server) closeResources() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		c := s.closers[i]
		if err := c.fn(); err != nil {
			log.Warn().Err(err).Str("resource", c.name).Msg("Failed to close resource")
		}
	}
	s.closers = nil
}

// SetupMaintenanceTasks rebuilds the tour search index once at startup and
// then periodically, so the index recovers from writes whose sync failed.
func (s *Server) SetupMaintenanceTasks() {
	if s.reindexer == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopMaintenance = cancel

	go func() {
		ticker := time.NewTicker(constants.SearchReindexInterval)
		defer ticker.Stop()

		for {
			s.reindex(ctx)

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *Server) reindex(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, constants.SearchReindexTimeout)
	defer cancel()

	start := time.Now()
	count, err := s.reindexer.Reindex(ctx)
	if err != nil {
		log.Error().Err(err).Int("indexed", count).Msg("Failed to rebuild tour search index")
		return
	}
	log.Info().Int("count", count).Dur("took", time.Since(start)).Msg("Rebuilt tour search index")
}
