package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr = ":9000"
db_driver = "postgres"
token_mode = "hmac"
hmac_secret = "from-file"
cors_origins = ["https://app.example.com"]
`), 0o600))

	t.Setenv("APP_CONFIG_FILE", path)
	t.Setenv("HMAC_SECRET", "from-env")
	t.Setenv("VERIFICATION_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "from-env", cfg.HMACSecret)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 2*time.Second, cfg.VerificationTimeout)
	assert.Equal(t, int64(20<<20), cfg.MaxUploadBytes)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_CONFIG_FILE", "")
	t.Setenv("TOKEN_MODE", TokenModeFirebase)
	t.Setenv("FIREBASE_PROJECT_ID", "demo")
	t.Setenv("CORS_ORIGINS", " https://a.example.com, ,https://b.example.com ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMySQL, cfg.DBDriver)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Empty(t, cfg.FirebaseCredentialsFile)
	assert.False(t, cfg.FirebaseCheckRevoked)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("APP_CONFIG_FILE", "")
	t.Setenv("TOKEN_MODE", TokenModeHMAC)
	t.Setenv("HMAC_SECRET", "s")

	t.Setenv("MAX_UPLOAD_BYTES", "lots")
	_, err := Load()
	assert.ErrorContains(t, err, "MAX_UPLOAD_BYTES")

	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("VERIFICATION_TIMEOUT", "soon")
	_, err = Load()
	assert.ErrorContains(t, err, "VERIFICATION_TIMEOUT")

	t.Setenv("VERIFICATION_TIMEOUT", "")
	t.Setenv("FIREBASE_CHECK_REVOKED", "maybe")
	_, err = Load()
	assert.ErrorContains(t, err, "FIREBASE_CHECK_REVOKED")
}

func TestValidate(t *testing.T) {
	valid := Config{DBDriver: DriverSQLite, TokenMode: TokenModeHMAC, HMACSecret: "s", MaxUploadBytes: 1}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.DBDriver = "oracle" }, "DB_DRIVER"},
		{"unknown token mode", func(c *Config) { c.TokenMode = "none" }, "TOKEN_MODE"},
		{"hmac without secret", func(c *Config) { c.HMACSecret = "" }, "HMAC_SECRET"},
		{"firebase without project", func(c *Config) { c.TokenMode = TokenModeFirebase }, "FIREBASE_PROJECT_ID"},
		{"zero upload limit", func(c *Config) { c.MaxUploadBytes = 0 }, "MAX_UPLOAD_BYTES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
