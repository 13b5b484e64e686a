// Package constants provides shared constant values used throughout the application.
//
// The defaults.go file defines default values and limits used when configuration
// leaves a setting empty.
package constants

// Default Pagination Values define the parameters used for list endpoints.
const (
	// DefaultPage is the page returned when none is requested.
	DefaultPage = 1

	// DefaultPageSize is the number of items per page when no limit is requested.
	DefaultPageSize = 100

	// MaxPageSize caps the limit a client may request.
	MaxPageSize = 100

	// DefaultSort orders lists newest first.
	DefaultSort = "-createdAt"
)

// Default Configuration Values define fallback settings when not specified in configuration.
const (
	DefaultServerPort       = 8080
	DefaultDBPort           = 5432
	DefaultDBMaxConnections = 20
	DefaultDBMinConnections = 5
	DefaultDBSSLMode        = "disable"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultAppName          = "natours"
	DefaultAppVersion       = "1.0.0"
	DefaultCurrency         = "usd"
	DefaultStorageDriver    = StorageDriverLocal
	DefaultStorageLocalDir  = "public/img"
	DefaultStoragePublicURL = "/img"
	DefaultStaticDir        = "public"
	DefaultRabbitMQQueue    = "email_jobs"
	DefaultESIndex          = "tours"
	DefaultEmailFromName    = "Natours"
	DefaultEmailFrom        = "hello@natours.io"
	DefaultMailRatePerSec   = 5
	DefaultMailBurst        = 10
	DefaultWorkerPrefetch   = 16
)

// Environment Types define the recognized application running environments.
const (
	// EnvDevelopment enables verbose errors and console logging.
	EnvDevelopment = "development"

	// EnvTesting identifies automated test runs.
	EnvTesting = "testing"

	// EnvProduction sanitizes error messages.
	EnvProduction = "production"
)

// Storage drivers accepted by the storage.driver setting.
const (
	StorageDriverLocal = "local"
	StorageDriverGCS   = "gcs"
	StorageDriverS3    = "s3"
)

// Request Size Limits protect handlers from oversized payloads.
const (
	// MaxRequestBodySize is the maximum size in bytes for JSON request bodies (10 KB).
	MaxRequestBodySize = 10 * 1024

	// MaxUploadSize is the maximum size in bytes of a multipart upload.
	MaxUploadSize = 10 << 20

	// MaxTourImages is the number of gallery images accepted on a tour update.
	MaxTourImages = 3
)

// Image dimensions used when resizing uploads.
const (
	UserPhotoWidth   = 500
	UserPhotoHeight  = 500
	TourImageWidth   = 2000
	TourImageHeight  = 1333
	ImageJPEGQuality = 90
)

// Default Password Hash Settings define the parameters for Argon2id hashing.
const (
	// DefaultPasswordHashMemory is the memory cost parameter in KiB.
	DefaultPasswordHashMemory = 64 * 1024

	// DefaultPasswordHashIterations is the time cost parameter.
	DefaultPasswordHashIterations = 3

	// DefaultPasswordHashParallelism is the number of threads used while hashing.
	DefaultPasswordHashParallelism = 2

	// DefaultPasswordHashSaltLength is the length in bytes of the random salt.
	DefaultPasswordHashSaltLength = 16

	// DefaultPasswordHashKeyLength is the length in bytes of the derived key.
	DefaultPasswordHashKeyLength = 32

	// DevPasswordHashMemory keeps hashing fast in development.
	DevPasswordHashMemory = 16 * 1024

	// DevPasswordHashIterations keeps hashing fast in development.
	DevPasswordHashIterations = 1
)

// Token Constants control session and reset token behavior.
const (
	// DefaultJWTIssuer is the issuer claim value for session tokens.
	DefaultJWTIssuer = "natours-api"

	// BearerTokenPrefix is the prefix for Authorization header bearer tokens.
	BearerTokenPrefix = "Bearer "

	// ResetTokenBytes is the amount of randomness in a password reset token.
	ResetTokenBytes = 32
)

// Rate limiting defaults for the /api subtree.
const (
	DefaultRateLimitMax    = 100
	DefaultRateLimitPrefix = "rl:"
)

// Geo constants used by the distance queries.
const (
	EarthRadiusMiles = 3963.2
	EarthRadiusKm    = 6378.1
	MetersToMiles    = 0.000621371
	MetersToKm       = 0.001
	UnitMiles        = "mi"
	UnitKilometers   = "km"
)

// Tour rating defaults.
const (
	DefaultRatingsAverage = 4.5
	MinTourRating         = 4.5
)
