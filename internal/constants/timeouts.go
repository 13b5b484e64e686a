package constants

import "time"

// Server Timeouts define the HTTP server's connection behavior.
const (
	DefaultReadTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
)

// Database Timeouts define limits for database operations.
const (
	DBConnectionTimeout  = 30 * time.Second
	DBQueryTimeout       = 15 * time.Second
	DBHealthCheckTimeout = 5 * time.Second
	DBConnMaxLifetime    = 1 * time.Hour
	DBConnMaxIdleTime    = 30 * time.Minute
)

// Token and cookie lifetimes.
const (
	// DefaultJWTExpiry is the lifetime of a session token (90 days).
	DefaultJWTExpiry = 90 * 24 * time.Hour

	// DefaultCookieExpiry is the lifetime of the jwt cookie (90 days).
	DefaultCookieExpiry = 90 * 24 * time.Hour

	// ResetTokenTTL is how long a password reset token stays valid.
	ResetTokenTTL = 10 * time.Minute

	// LogoutCookieTTL is how long the placeholder logout cookie lives.
	LogoutCookieTTL = 10 * time.Second

	// PasswordChangedSkew backdates password_changed_at so a token issued in the
	// same second as the change is still accepted.
	PasswordChangedSkew = time.Second
)

// Background work timeouts.
const (
	// DefaultRateLimitWindow is the fixed window for the per-IP request budget.
	DefaultRateLimitWindow = time.Hour

	// RateLimitCleanupInterval is how often the in-memory limiter drops expired windows.
	RateLimitCleanupInterval = 5 * time.Minute

	// WebhookBookingTimeout bounds the detached booking creation after a webhook.
	WebhookBookingTimeout = 15 * time.Second

	// SearchIndexTimeout bounds index sync calls made after tour writes.
	SearchIndexTimeout = 5 * time.Second

	// MailPublishTimeout bounds publishing one email job.
	MailPublishTimeout = 5 * time.Second

	// MailSendTimeout bounds one provider send in the worker.
	MailSendTimeout = 10 * time.Second

	// SearchReindexInterval is how often every public tour is rewritten to the search index.
	SearchReindexInterval = 6 * time.Hour

	// SearchReindexTimeout bounds one full reindex.
	SearchReindexTimeout = 5 * time.Minute

	// RedisPingTimeout bounds the startup check of the rate limit store.
	RedisPingTimeout = 3 * time.Second

	// TemplateReloadDebounce groups bursts of file events before re-parsing templates.
	TemplateReloadDebounce = 200 * time.Millisecond
)

// Cache Control
const (
	CacheControlMaxAge = 300 // in seconds
)
