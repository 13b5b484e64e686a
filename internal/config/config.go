// Package config loads the application configuration from a YAML file and
// environment variables. The resulting *AppConfig is built once in main and passed
// explicitly to every component that needs it.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
)

// AppConfig is the root configuration object.
type AppConfig struct {
	App           AppSettings           `yaml:"app"`
	Server        ServerSettings        `yaml:"server"`
	Database      DatabaseSettings      `yaml:"database"`
	JWT           JWTSettings           `yaml:"jwt"`
	PasswordHash  HashSettings          `yaml:"password_hash"`
	Logging       LoggingSettings       `yaml:"logging"`
	CORS          CORSSettings          `yaml:"cors"`
	RateLimit     RateLimitSettings     `yaml:"rate_limit"`
	Redis         RedisSettings         `yaml:"redis"`
	RabbitMQ      RabbitMQSettings      `yaml:"rabbitmq"`
	Mailgun       MailgunSettings       `yaml:"mailgun"`
	SendGrid      SendGridSettings      `yaml:"sendgrid"`
	Email         EmailSettings         `yaml:"email"`
	Stripe        StripeSettings        `yaml:"stripe"`
	Elasticsearch ElasticsearchSettings `yaml:"elasticsearch"`
	Storage       StorageSettings       `yaml:"storage"`
	Views         ViewSettings          `yaml:"views"`
}

// AppSettings contains general application settings.
type AppSettings struct {
	Environment string `yaml:"environment" env:"APP_ENV"`
	Name        string `yaml:"name" env:"APP_NAME"`
	Version     string `yaml:"version" env:"APP_VERSION"`
	// BaseURL is used in emails and payment redirects when set; otherwise the
	// request's scheme and host are used.
	BaseURL string `yaml:"base_url" env:"APP_BASE_URL"`
}

// ServerSettings contains HTTP server settings.
type ServerSettings struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	StaticDir       string        `yaml:"static_dir" env:"SERVER_STATIC_DIR"`
	// TrustedProxies are the CIDRs or addresses allowed to set X-Forwarded-For.
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES"`
}

// DatabaseSettings contains PostgreSQL connection settings.
type DatabaseSettings struct {
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	Name     string `yaml:"name" env:"DB_NAME"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSLMODE"`
	MaxConns int    `yaml:"max_conns" env:"DB_MAX_CONNS"`
	MinConns int    `yaml:"min_conns" env:"DB_MIN_CONNS"`
}

// JWTSettings contains session token settings.
type JWTSettings struct {
	Secret       string        `yaml:"secret" env:"JWT_SECRET"`
	Expiry       time.Duration `yaml:"expiry" env:"JWT_EXPIRES_IN"`
	CookieExpiry time.Duration `yaml:"cookie_expiry" env:"JWT_COOKIE_EXPIRES_IN"`
	Issuer       string        `yaml:"issuer" env:"JWT_ISSUER"`
}

// HashSettings contains Argon2id cost parameters.
type HashSettings struct {
	Memory      uint32 `yaml:"memory" env:"HASH_MEMORY"`
	Iterations  uint32 `yaml:"iterations" env:"HASH_ITERATIONS"`
	Parallelism uint8  `yaml:"parallelism" env:"HASH_PARALLELISM"`
	SaltLength  uint32 `yaml:"salt_length" env:"HASH_SALT_LENGTH"`
	KeyLength   uint32 `yaml:"key_length" env:"HASH_KEY_LENGTH"`
}

// LoggingSettings contains logger settings.
type LoggingSettings struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	RequestLog bool   `yaml:"request_log" env:"LOG_REQUESTS"`
}

// CORSSettings contains Cross-Origin Resource Sharing settings.
type CORSSettings struct {
	AllowedOrigins   []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	AllowCredentials bool     `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS"`
}

// RateLimitSettings contains the per-IP request budget for the API.
type RateLimitSettings struct {
	Enabled bool          `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
	Max     int           `yaml:"max" env:"RATE_LIMIT_MAX"`
	Window  time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW"`
	Prefix  string        `yaml:"prefix" env:"RATE_LIMIT_PREFIX"`
}

// RedisSettings enables the shared rate limit store when Addr is set.
type RedisSettings struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// RabbitMQSettings configures the email job queue. An empty URL logs jobs instead.
type RabbitMQSettings struct {
	URL      string `yaml:"url" env:"RABBITMQ_URL"`
	Queue    string `yaml:"queue" env:"RABBITMQ_QUEUE"`
	Prefetch int    `yaml:"prefetch" env:"RABBITMQ_PREFETCH"`
}

// MailgunSettings configures email delivery in the worker.
type MailgunSettings struct {
	Domain  string `yaml:"domain" env:"MAILGUN_DOMAIN"`
	APIKey  string `yaml:"api_key" env:"MAILGUN_API_KEY"`
	APIBase string `yaml:"api_base" env:"MAILGUN_API_BASE"`
}

// SendGridSettings configures the alternative email provider.
type SendGridSettings struct {
	APIKey string `yaml:"api_key" env:"SENDGRID_API_KEY"`
	Host   string `yaml:"host" env:"SENDGRID_HOST"`
}

// EmailSettings contains sender identity, provider choice and worker throttling.
type EmailSettings struct {
	Provider   string  `yaml:"provider" env:"EMAIL_PROVIDER"`
	From       string  `yaml:"from" env:"EMAIL_FROM"`
	FromName   string  `yaml:"from_name" env:"EMAIL_FROM_NAME"`
	RatePerSec float64 `yaml:"rate_per_sec" env:"EMAIL_RATE_PER_SEC"`
	Burst      int     `yaml:"burst" env:"EMAIL_BURST"`
}

// StripeSettings contains payment provider credentials.
type StripeSettings struct {
	SecretKey     string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	PublicKey     string `yaml:"public_key" env:"STRIPE_PUBLIC_KEY"`
	Currency      string `yaml:"currency" env:"STRIPE_CURRENCY"`
}

// ElasticsearchSettings enables full-text tour search when Addresses is set.
type ElasticsearchSettings struct {
	Addresses []string `yaml:"addresses" env:"ES_ADDRESSES"`
	Username  string   `yaml:"username" env:"ES_USERNAME"`
	Password  string   `yaml:"password" env:"ES_PASSWORD"`
	Index     string   `yaml:"index" env:"ES_INDEX"`
}

// StorageSettings selects where resized images are written.
type StorageSettings struct {
	Driver    string `yaml:"driver" env:"STORAGE_DRIVER"`
	LocalDir  string `yaml:"local_dir" env:"STORAGE_LOCAL_DIR"`
	PublicURL string `yaml:"public_url" env:"STORAGE_PUBLIC_URL"`
	Bucket    string `yaml:"bucket" env:"STORAGE_BUCKET"`

	GCSCredentialsFile string `yaml:"gcs_credentials_file" env:"GCS_CREDENTIALS_FILE"`

	S3Region    string `yaml:"s3_region" env:"S3_REGION"`
	S3Endpoint  string `yaml:"s3_endpoint" env:"S3_ENDPOINT"`
	S3AccessKey string `yaml:"s3_access_key" env:"S3_ACCESS_KEY"`
	S3SecretKey string `yaml:"s3_secret_key" env:"S3_SECRET_KEY"`
}

// ViewSettings controls page template loading.
type ViewSettings struct {
	// TemplateDir loads templates from disk and watches them for changes when set.
	TemplateDir string `yaml:"template_dir" env:"VIEWS_TEMPLATE_DIR"`
	MapboxToken string `yaml:"mapbox_token" env:"MAPBOX_TOKEN"`
}

// ConnectionString returns the lib/pq keyword/value DSN.
func (dbs *DatabaseSettings) ConnectionString() string {
	parts := []string{
		fmt.Sprintf("host=%s", dbs.Host),
		fmt.Sprintf("port=%d", dbs.Port),
		fmt.Sprintf("dbname=%s", dbs.Name),
		fmt.Sprintf("sslmode=%s", dbs.SSLMode),
	}
	if dbs.User != "" {
		parts = append(parts, fmt.Sprintf("user=%s", dbs.User))
	}
	if dbs.Password != "" {
		parts = append(parts, fmt.Sprintf("password='%s'", strings.ReplaceAll(dbs.Password, "'", `\'`)))
	}
	return strings.Join(parts, " ")
}

// ServerAddress returns the listen address.
func (ss *ServerSettings) ServerAddress() string {
	return fmt.Sprintf("%s:%d", ss.Host, ss.Port)
}

// IsDevelopment reports whether the application runs in development mode.
func (as *AppSettings) IsDevelopment() bool {
	return strings.ToLower(as.Environment) == constants.EnvDevelopment
}

// IsProduction reports whether the application runs in production mode.
func (as *AppSettings) IsProduction() bool {
	return strings.ToLower(as.Environment) == constants.EnvProduction
}

// Load reads the YAML file at configPath (missing files are allowed), applies
// environment overrides and defaults, and validates the result.
func Load(configPath string) (*AppConfig, error) {
	config := &AppConfig{}

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := LoadEnv(config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	setDefaults(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logConfig(config)

	return config, nil
}

func setDefaults(config *AppConfig) {
	if config.App.Environment == "" {
		config.App.Environment = constants.EnvDevelopment
	}
	if config.App.Name == "" {
		config.App.Name = constants.DefaultAppName
	}
	if config.App.Version == "" {
		config.App.Version = constants.DefaultAppVersion
	}

	if config.Server.Port == 0 {
		config.Server.Port = constants.DefaultServerPort
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = constants.DefaultReadTimeout
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = constants.DefaultWriteTimeout
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = constants.DefaultShutdownTimeout
	}
	if config.Server.StaticDir == "" {
		config.Server.StaticDir = constants.DefaultStaticDir
	}

	if config.Database.Host == "" {
		config.Database.Host = "localhost"
	}
	if config.Database.Port == 0 {
		config.Database.Port = constants.DefaultDBPort
	}
	if config.Database.Name == "" {
		config.Database.Name = constants.DefaultAppName
	}
	if config.Database.SSLMode == "" {
		config.Database.SSLMode = constants.DefaultDBSSLMode
	}
	if config.Database.MaxConns == 0 {
		config.Database.MaxConns = constants.DefaultDBMaxConnections
	}
	if config.Database.MinConns == 0 {
		config.Database.MinConns = constants.DefaultDBMinConnections
	}

	if config.JWT.Expiry == 0 {
		config.JWT.Expiry = constants.DefaultJWTExpiry
	}
	if config.JWT.CookieExpiry == 0 {
		config.JWT.CookieExpiry = constants.DefaultCookieExpiry
	}
	if config.JWT.Issuer == "" {
		config.JWT.Issuer = constants.DefaultJWTIssuer
	}

	if config.PasswordHash.Memory == 0 {
		if config.App.IsProduction() {
			config.PasswordHash.Memory = constants.DefaultPasswordHashMemory
		} else {
			config.PasswordHash.Memory = constants.DevPasswordHashMemory
		}
	}
	if config.PasswordHash.Iterations == 0 {
		if config.App.IsProduction() {
			config.PasswordHash.Iterations = constants.DefaultPasswordHashIterations
		} else {
			config.PasswordHash.Iterations = constants.DevPasswordHashIterations
		}
	}
	if config.PasswordHash.Parallelism == 0 {
		config.PasswordHash.Parallelism = constants.DefaultPasswordHashParallelism
	}
	if config.PasswordHash.SaltLength == 0 {
		config.PasswordHash.SaltLength = constants.DefaultPasswordHashSaltLength
	}
	if config.PasswordHash.KeyLength == 0 {
		config.PasswordHash.KeyLength = constants.DefaultPasswordHashKeyLength
	}

	if config.Logging.Level == "" {
		config.Logging.Level = constants.DefaultLogLevel
	}
	if config.Logging.Format == "" {
		config.Logging.Format = constants.DefaultLogFormat
	}

	if len(config.CORS.AllowedOrigins) == 0 {
		config.CORS.AllowedOrigins = []string{"*"}
	}

	if config.RateLimit.Max == 0 {
		config.RateLimit.Max = constants.DefaultRateLimitMax
	}
	if config.RateLimit.Window == 0 {
		config.RateLimit.Window = constants.DefaultRateLimitWindow
	}
	if config.RateLimit.Prefix == "" {
		config.RateLimit.Prefix = constants.DefaultRateLimitPrefix
	}

	if config.RabbitMQ.Queue == "" {
		config.RabbitMQ.Queue = constants.DefaultRabbitMQQueue
	}
	if config.RabbitMQ.Prefetch == 0 {
		config.RabbitMQ.Prefetch = constants.DefaultWorkerPrefetch
	}

	if config.Email.From == "" {
		config.Email.From = constants.DefaultEmailFrom
	}
	if config.Email.FromName == "" {
		config.Email.FromName = constants.DefaultEmailFromName
	}
	if config.Email.Provider == "" {
		config.Email.Provider = constants.MailProviderMailgun
	}
	if config.Email.RatePerSec == 0 {
		config.Email.RatePerSec = constants.DefaultMailRatePerSec
	}
	if config.Email.Burst == 0 {
		config.Email.Burst = constants.DefaultMailBurst
	}

	if config.Stripe.Currency == "" {
		config.Stripe.Currency = constants.DefaultCurrency
	}

	if config.Elasticsearch.Index == "" {
		config.Elasticsearch.Index = constants.DefaultESIndex
	}

	if config.Storage.Driver == "" {
		config.Storage.Driver = constants.DefaultStorageDriver
	}
	if config.Storage.LocalDir == "" {
		config.Storage.LocalDir = constants.DefaultStorageLocalDir
	}
	if config.Storage.PublicURL == "" {
		config.Storage.PublicURL = constants.DefaultStoragePublicURL
	}
}

func validateConfig(config *AppConfig) error {
	env := strings.ToLower(config.App.Environment)
	if env != constants.EnvDevelopment && env != constants.EnvTesting && env != constants.EnvProduction {
		log.Warn().Str("environment", config.App.Environment).Msg("Invalid environment, defaulting to development")
		config.App.Environment = constants.EnvDevelopment
	}

	if config.App.IsProduction() && (config.JWT.Secret == "" || config.JWT.Secret == "changeme") {
		return fmt.Errorf("JWT secret must be set in production")
	}

	if config.App.BaseURL != "" {
		if _, err := url.ParseRequestURI(config.App.BaseURL); err != nil {
			return fmt.Errorf("invalid base url %q: %w", config.App.BaseURL, err)
		}
	}

	switch config.Storage.Driver {
	case "", constants.StorageDriverLocal:
	case constants.StorageDriverGCS, constants.StorageDriverS3:
		if config.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket must be set for driver %s", config.Storage.Driver)
		}
	default:
		return fmt.Errorf("invalid storage driver: %s", config.Storage.Driver)
	}

	switch config.Email.Provider {
	case "", constants.MailProviderMailgun, constants.MailProviderSendGrid:
	default:
		return fmt.Errorf("invalid email provider: %s", config.Email.Provider)
	}

	for _, proxy := range config.Server.TrustedProxies {
		if !validProxy(proxy) {
			return fmt.Errorf("invalid trusted proxy: %s", proxy)
		}
	}

	if config.RateLimit.Max < 0 {
		return fmt.Errorf("rate limit max must not be negative")
	}

	logLevel := strings.ToLower(config.Logging.Level)
	validLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	validLevel := false
	for _, level := range validLevels {
		if logLevel == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

func validProxy(entry string) bool {
	entry = strings.TrimSpace(entry)
	if strings.Contains(entry, "/") {
		_, _, err := net.ParseCIDR(entry)
		return err == nil
	}
	return entry == "" || net.ParseIP(entry) != nil
}

func logConfig(config *AppConfig) {
	log.Info().
		Str("environment", config.App.Environment).
		Str("version", config.App.Version).
		Str("server", config.Server.ServerAddress()).
		Str("db_host", config.Database.Host).
		Int("db_port", config.Database.Port).
		Str("db_name", config.Database.Name).
		Str("db_password", redact(config.Database.Password)).
		Str("jwt_secret", redact(config.JWT.Secret)).
		Bool("redis", config.Redis.Addr != "").
		Bool("rabbitmq", config.RabbitMQ.URL != "").
		Bool("elasticsearch", len(config.Elasticsearch.Addresses) > 0).
		Str("storage", config.Storage.Driver).
		Str("log_level", config.Logging.Level).
		Msg("Configuration loaded")
}

func redact(value string) string {
	if value == "" {
		return ""
	}
	return constants.LogRedactedValue
}
