package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + optional .env via Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	SessionSecret       string
	DatabaseURL         string
	DBDriver            string
	DBMaxConns          int
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	LabelName           string

	BrevoAPIKey        string
	MailFrom           string
	EmailRatePerSecond float64

	ESignBaseURL       string
	ESignAPIKey        string
	ESignWebhookSecret string

	SpotifyClientID     string
	SpotifyClientSecret string

	StorageURL       string // Supabase project URL for artwork uploads
	StorageSecretKey string // service_role key
	ArtworkBucket    string

	SmartLinkBaseURL string
}

// Load loads config from env and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("MAIL_FROM", "noreply@rightsdesk.local")
	v.SetDefault("EMAIL_RATE_PER_SECOND", 5)
	v.SetDefault("LABEL_NAME", "Rightsdesk Records")
	v.SetDefault("ARTWORK_BUCKET", "artwork")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")

	cfg := &Config{
		Env:                 v.GetString("APP_ENV"),
		Port:                v.GetString("PORT"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		SessionSecret:       v.GetString("SESSION_SECRET"),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		DBDriver:            v.GetString("DB_DRIVER"),
		DBMaxConns:          v.GetInt("DB_MAX_CONNS"),
		RedisURL:            v.GetString("REDIS_URL"),
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   v.GetBool("ALLOW_CROSS_SITE_DEV"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		LabelName:           v.GetString("LABEL_NAME"),
		BrevoAPIKey:         v.GetString("BREVO_API_KEY"),
		MailFrom:            v.GetString("MAIL_FROM"),
		EmailRatePerSecond:  v.GetFloat64("EMAIL_RATE_PER_SECOND"),
		ESignBaseURL:        v.GetString("ESIGN_BASE_URL"),
		ESignAPIKey:         v.GetString("ESIGN_API_KEY"),
		ESignWebhookSecret:  v.GetString("ESIGN_WEBHOOK_SECRET"),
		SpotifyClientID:     v.GetString("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: v.GetString("SPOTIFY_CLIENT_SECRET"),
		StorageURL:          v.GetString("SUPABASE_URL"),
		StorageSecretKey:    v.GetString("SUPABASE_SECRET_KEY"),
		ArtworkBucket:       v.GetString("ARTWORK_BUCKET"),
		SmartLinkBaseURL:    strings.TrimRight(v.GetString("SMARTLINK_BASE_URL"), "/"),
	}
	if cfg.BrevoAPIKey == "" {
		cfg.BrevoAPIKey = v.GetString("SENDINBLUE_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks settings the server cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.IsProduction() && len(c.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 characters in production")
	}
	switch strings.ToLower(c.DBDriver) {
	case "postgres", "postgresql", "mysql", "mariadb", "sqlite":
	default:
		return errors.New("DB_DRIVER must be postgres, mysql or sqlite")
	}
	return nil
}
