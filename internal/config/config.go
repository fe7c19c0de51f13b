package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	TokenModeFirebase = "firebase"
	TokenModeHMAC     = "hmac"
)

type Config struct {
	HTTPAddr    string   `toml:"http_addr"`
	GinMode     string   `toml:"gin_mode"`
	LogLevel    string   `toml:"log_level"`
	CORSOrigins []string `toml:"cors_origins"`

	DBDriver   string `toml:"db_driver"`
	DBHost     string `toml:"db_host"`
	DBPort     string `toml:"db_port"`
	DBUser     string `toml:"db_user"`
	DBPassword string `toml:"db_password"`
	DBName     string `toml:"db_name"`
	SQLitePath string `toml:"sqlite_path"`

	TokenMode               string        `toml:"token_mode"`
	FirebaseProjectID       string        `toml:"firebase_project_id"`
	FirebaseCredentialsFile string        `toml:"firebase_credentials_file"`
	FirebaseCheckRevoked    bool          `toml:"firebase_check_revoked"`
	HMACSecret              string        `toml:"hmac_secret"`
	HMACIssuer              string        `toml:"hmac_issuer"`
	VerificationTimeout     time.Duration `toml:"-"`

	UploadDir      string `toml:"upload_dir"`
	MaxUploadBytes int64  `toml:"max_upload_bytes"`

	OpenAIAPIKey string `toml:"openai_api_key"`
}

// Load reads the optional TOML file named by APP_CONFIG_FILE and then applies
// environment overrides on top of it.
func Load() (*Config, error) {
	cfg := &Config{}
	if path := os.Getenv("APP_CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.HTTPAddr = getEnv("HTTP_ADDR", orDefault(cfg.HTTPAddr, ":8080"))
	cfg.GinMode = getEnv("GIN_MODE", orDefault(cfg.GinMode, "debug"))
	cfg.LogLevel = getEnv("LOG_LEVEL", orDefault(cfg.LogLevel, "info"))
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"http://localhost:3000"}
	}

	cfg.DBDriver = getEnv("DB_DRIVER", orDefault(cfg.DBDriver, DriverMySQL))
	cfg.DBHost = getEnv("DB_HOST", orDefault(cfg.DBHost, "localhost"))
	cfg.DBPort = getEnv("DB_PORT", orDefault(cfg.DBPort, defaultPort(cfg.DBDriver)))
	cfg.DBUser = getEnv("DB_USER", orDefault(cfg.DBUser, "taskuser"))
	cfg.DBPassword = getEnv("DB_PASSWORD", orDefault(cfg.DBPassword, "taskpassword"))
	cfg.DBName = getEnv("DB_NAME", orDefault(cfg.DBName, "project_management"))
	cfg.SQLitePath = getEnv("SQLITE_PATH", orDefault(cfg.SQLitePath, "data/project_management.db"))

	cfg.TokenMode = getEnv("TOKEN_MODE", orDefault(cfg.TokenMode, TokenModeFirebase))
	cfg.FirebaseProjectID = getEnv("FIREBASE_PROJECT_ID", cfg.FirebaseProjectID)
	cfg.FirebaseCredentialsFile = getEnv("FIREBASE_CREDENTIALS_FILE", cfg.FirebaseCredentialsFile)
	if raw := os.Getenv("FIREBASE_CHECK_REVOKED"); raw != "" {
		checkRevoked, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid FIREBASE_CHECK_REVOKED: %w", err)
		}
		cfg.FirebaseCheckRevoked = checkRevoked
	}
	cfg.HMACSecret = getEnv("HMAC_SECRET", cfg.HMACSecret)
	cfg.HMACIssuer = getEnv("HMAC_ISSUER", orDefault(cfg.HMACIssuer, "project-management-dev"))

	timeout, err := time.ParseDuration(getEnv("VERIFICATION_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid VERIFICATION_TIMEOUT: %w", err)
	}
	cfg.VerificationTimeout = timeout

	cfg.UploadDir = getEnv("UPLOAD_DIR", orDefault(cfg.UploadDir, "data/uploads"))
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if raw := os.Getenv("MAX_UPLOAD_BYTES"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES: %w", err)
		}
		cfg.MaxUploadBytes = n
	}

	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the combination of settings.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.TokenMode {
	case TokenModeFirebase:
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required when TOKEN_MODE=%s", TokenModeFirebase)
		}
	case TokenModeHMAC:
		if c.HMACSecret == "" {
			return fmt.Errorf("HMAC_SECRET is required when TOKEN_MODE=%s", TokenModeHMAC)
		}
	default:
		return fmt.Errorf("unsupported TOKEN_MODE %q", c.TokenMode)
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func defaultPort(driver string) string {
	if driver == DriverPostgres {
		return "5432"
	}
	return "3306"
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
