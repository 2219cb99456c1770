package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	AppEnv   string
	Port     int
	LogLevel string

	DBDriver       string
	DatabaseURL    string
	DBQueryTimeout time.Duration

	JWTAccessSecret     []byte
	JWTRefreshSecret    []byte
	AccessTokenExpires  time.Duration
	RefreshTokenExpires time.Duration

	WhitelistAdminMails []string
	WhitelistOrigins    []string

	DefaultResLimit  int
	DefaultResOffset int

	RateLimitPerMinute int
	RedisURL           string

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	UploadDir           string
	UploadBaseURL       string

	SessionGCInterval time.Duration
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		AppEnv:   strings.ToLower(EnvDefault("APP_ENV", EnvDevelopment)),
		Port:     EnvIntDefault("PORT", 3000),
		LogLevel: EnvDefault("LOG_LEVEL", "info"),

		DBDriver:       strings.ToLower(EnvDefault("DB_DRIVER", DriverPostgres)),
		DatabaseURL:    EnvDefault("DATABASE_URL", ""),
		DBQueryTimeout: EnvDurationDefault("DB_QUERY_TIMEOUT", 5*time.Second),

		JWTAccessSecret:     []byte(EnvDefault("JWT_ACCESS_SECRET", "")),
		JWTRefreshSecret:    []byte(EnvDefault("JWT_REFRESH_SECRET", "")),
		AccessTokenExpires:  EnvDurationDefault("ACCESS_TOKEN_EXPIRES", time.Hour),
		RefreshTokenExpires: EnvDurationDefault("REFRESH_TOKEN_EXPIRES", 7*24*time.Hour),

		WhitelistAdminMails: lowerAll(CSV(EnvDefault("WHITELIST_ADMIN_MAILS", ""))),
		WhitelistOrigins:    CSV(EnvDefault("WHITELIST_ORIGINS", "")),

		DefaultResLimit:  EnvIntDefault("DEFAULT_RES_LIMIT", 20),
		DefaultResOffset: EnvIntDefault("DEFAULT_RES_OFFSET", 0),

		RateLimitPerMinute: EnvIntDefault("RATE_LIMIT_PER_MINUTE", 60),
		RedisURL:           EnvDefault("REDIS_URL", ""),

		KafkaBrokers: CSV(EnvDefault("KAFKA_BROKERS", "")),

		ESURL:      EnvDefault("ES_URL", ""),
		ESUser:     EnvDefault("ES_USER", ""),
		ESPassword: EnvDefault("ES_PASSWORD", ""),
		ESIndex:    EnvDefault("ES_INDEX", "blogs"),

		CloudinaryCloudName: EnvDefault("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    EnvDefault("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: EnvDefault("CLOUDINARY_API_SECRET", ""),
		UploadDir:           EnvDefault("UPLOAD_DIR", "uploads"),
		UploadBaseURL:       EnvDefault("UPLOAD_BASE_URL", "/uploads"),

		SessionGCInterval: EnvDurationDefault("SESSION_GC_INTERVAL", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is Load for main packages: any configuration error is fatal.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func (c *Config) Validate() error {
	if len(c.JWTAccessSecret) == 0 {
		return fmt.Errorf("missing required env JWT_ACCESS_SECRET")
	}
	if len(c.JWTRefreshSecret) == 0 {
		return fmt.Errorf("missing required env JWT_REFRESH_SECRET")
	}
	switch c.DBDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("missing required env DATABASE_URL")
		}
	case DriverSQLite:
		if c.DatabaseURL == "" {
			c.DatabaseURL = "blog.db"
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.AccessTokenExpires <= 0 || c.RefreshTokenExpires <= 0 {
		return fmt.Errorf("token expirations must be positive")
	}
	if c.DefaultResLimit < 1 {
		c.DefaultResLimit = 20
	}
	if c.DefaultResOffset < 0 {
		c.DefaultResOffset = 0
	}
	return nil
}

func lowerAll(in []string) []string {
	for i := range in {
		in[i] = strings.ToLower(in[i])
	}
	return in
}
