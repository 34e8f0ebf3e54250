package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := Load(writeConfig(t, "server:\n  port: 0\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "schools.db", cfg.Database.DSN)
	assert.Equal(t, BackendLocal, cfg.Storage.Backend)
	assert.Equal(t, DefaultMaxUploadBytes, cfg.Storage.MaxUploadBytes)
	assert.Equal(t, "/schoolImages", cfg.Storage.Local.PublicPath)
	assert.Equal(t, "schoolImages", cfg.Storage.S3.Folder)
	assert.Equal(t, DefaultMaxUploadBytes+1<<20, cfg.Server.MaxBodyBytes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Zero(t, cfg.Server.RateLimitPerSec, "rate limiting is off unless configured")
	assert.Zero(t, cfg.Server.CacheTTL())
}

func TestLoad_FileValues(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("S3_BUCKET", "")
	t.Setenv("S3_REGION", "")

	cfg, err := Load(writeConfig(t, `
server:
  port: 9000
  rate_limit_per_sec: 2.5
  rate_limit_burst: 3
  cache_ttl_seconds: 15
database:
  driver: Postgres
  dsn: host=localhost user=app dbname=schools
storage:
  backend: s3
  max_upload_bytes: 1024
  s3:
    bucket: school-images
    region: eu-west-1
`))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.CacheTTL())
	assert.Equal(t, 2.5, cfg.Server.RateLimitPerSec)
	assert.Equal(t, 3, cfg.Server.RateLimitBurst)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, BackendS3, cfg.Storage.Backend)
	assert.Equal(t, int64(1024), cfg.Storage.MaxUploadBytes)
	assert.Equal(t, "school-images", cfg.Storage.S3.Bucket)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("DATABASE_DSN", "root:pw@tcp(localhost:3306)/schools?parseTime=true")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "database:\n  driver: sqlite\n  dsn: other.db\n"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "root:pw@tcp(localhost:3306)/schools?parseTime=true", cfg.Database.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("S3_BUCKET", "")
	t.Setenv("S3_REGION", "")

	testCases := []struct {
		name string
		body string
	}{
		{name: "unknown driver", body: "database:\n  driver: oracle\n  dsn: x\n"},
		{name: "postgres without dsn", body: "database:\n  driver: postgres\n"},
		{name: "unknown backend", body: "storage:\n  backend: ftp\n"},
		{name: "s3 without bucket", body: "storage:\n  backend: s3\n  s3:\n    region: us-east-1\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_NegativeLimitsDisable(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("STORAGE_BACKEND", "")

	cfg, err := Load(writeConfig(t, "server:\n  rate_limit_per_sec: -1\n  cache_ttl_seconds: -5\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.Server.RateLimitPerSec)
	assert.Zero(t, cfg.Server.CacheTTL())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(LogConfig{Level: "warn", Format: "text"})
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	logger = NewLogger(LogConfig{Level: "nonsense"})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}
