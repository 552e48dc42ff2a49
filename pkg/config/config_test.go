package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var envKeys = []string{
	"ACCOUNT_USERNAME", "ACCOUNT_PASSWORD", "INSTA_TARGET_PK", "DATABASE_URL", "CSV_FILE_PATH",
	"IGRELATIONS_SESSION_FILE", "IGRELATIONS_USER_AGENT", "IGRELATIONS_REQUESTS_PER_MINUTE",
	"IGRELATIONS_OUTPUT_DIR", "IGRELATIONS_DB_DRIVER", "IGRELATIONS_DB_TABLE",
	"IGRELATIONS_S3_ENDPOINT", "IGRELATIONS_S3_ACCESS_KEY", "IGRELATIONS_S3_SECRET_KEY",
	"IGRELATIONS_S3_BUCKET", "IGRELATIONS_METRICS_TEXTFILE", "IGRELATIONS_NOTIFICATIONS_ENABLED",
	"IGRELATIONS_LOG_LEVEL",
}

// clearEnv blanks every recognized variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	t.Setenv("HOME", t.TempDir())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 7*time.Second, cfg.Pacing.SuccessMin)
	assert.Equal(t, 18*time.Second, cfg.Pacing.SuccessMax)
	assert.Equal(t, 20*time.Second, cfg.Pacing.FailureMin)
	assert.Equal(t, 30*time.Second, cfg.Pacing.FailureMax)
	assert.Equal(t, 1.0, cfg.Pacing.BackoffMultiplier)
	assert.Equal(t, 30*time.Second, cfg.Pacing.SkipDelay)

	assert.Equal(t, "Main_Instagram_Data", cfg.Database.Table)
	assert.Empty(t, cfg.Database.Driver)
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.ObjectStore.Enabled())

	assert.Equal(t, []string{"json", "csv", "xlsx"}, cfg.Output.Formats)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ACCOUNT_USERNAME", "alice")
	t.Setenv("ACCOUNT_PASSWORD", "s3cret")
	t.Setenv("INSTA_TARGET_PK", "12345")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/ig")
	t.Setenv("CSV_FILE_PATH", "/data/in.csv")
	t.Setenv("IGRELATIONS_REQUESTS_PER_MINUTE", "12")
	t.Setenv("IGRELATIONS_OUTPUT_DIR", "/env/output")
	t.Setenv("IGRELATIONS_S3_BUCKET", "exports")
	t.Setenv("IGRELATIONS_NOTIFICATIONS_ENABLED", "false")
	t.Setenv("IGRELATIONS_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "alice", cfg.Instagram.Username)
	assert.Equal(t, "s3cret", cfg.Instagram.Password)
	assert.Equal(t, "12345", cfg.Instagram.TargetPK)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "/data/in.csv", cfg.Output.CSVFile)
	assert.Equal(t, 12, cfg.Instagram.RequestsPerMinute)
	assert.Equal(t, "/env/output", cfg.Output.Directory)
	assert.Equal(t, "exports", cfg.ObjectStore.Bucket)
	assert.False(t, cfg.Notifications.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvRejectsBadNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("IGRELATIONS_REQUESTS_PER_MINUTE", "lots")
	t.Setenv("IGRELATIONS_NOTIFICATIONS_ENABLED", "sometimes")

	err := DefaultConfig().LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IGRELATIONS_REQUESTS_PER_MINUTE")
	assert.Contains(t, err.Error(), "IGRELATIONS_NOTIFICATIONS_ENABLED")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
instagram:
  username: bob
  requests_per_minute: 20
pacing:
  success_min: 1s
  success_max: 2s
  failure_min: 3s
  failure_max: 4s
  max_failure_delay: 1m
output:
  directory: /tmp/out
  formats: [json]
database:
  url: mysql://root:pw@localhost:3306/ig
  driver: mysql
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "bob", cfg.Instagram.Username)
	assert.Equal(t, 20, cfg.Instagram.RequestsPerMinute)
	assert.Equal(t, time.Second, cfg.Pacing.SuccessMin)
	assert.Equal(t, 4*time.Second, cfg.Pacing.FailureMax)
	assert.Equal(t, time.Minute, cfg.Pacing.MaxFailureDelay)
	assert.Equal(t, []string{"json"}, cfg.Output.Formats)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	// untouched keys keep their defaults
	assert.Equal(t, "Main_Instagram_Data", cfg.Database.Table)
	assert.Equal(t, 30*time.Second, cfg.Pacing.SkipDelay)
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("pacing: [oops"), 0600))
	assert.Error(t, cfg.LoadFromFile(bad))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad target pk", mutate: func(c *Config) { c.Instagram.TargetPK = "abc" }, wantErr: "target pk"},
		{name: "zero target pk", mutate: func(c *Config) { c.Instagram.TargetPK = "0" }, wantErr: "target pk"},
		{name: "inverted success range", mutate: func(c *Config) { c.Pacing.SuccessMax = time.Second }, wantErr: "success pause range"},
		{name: "negative failure min", mutate: func(c *Config) { c.Pacing.FailureMin = -time.Second }, wantErr: "failure pause range"},
		{name: "multiplier below one", mutate: func(c *Config) { c.Pacing.BackoffMultiplier = 0.5 }, wantErr: "backoff multiplier"},
		{name: "cap below failure max", mutate: func(c *Config) { c.Pacing.MaxFailureDelay = 10 * time.Second }, wantErr: "max failure delay"},
		{name: "no output dir", mutate: func(c *Config) { c.Output.Directory = "" }, wantErr: "output directory"},
		{name: "unknown format", mutate: func(c *Config) { c.Output.Formats = []string{"parquet"} }, wantErr: "parquet"},
		{name: "unknown driver", mutate: func(c *Config) {
			c.Database.URL = "sqlite://x"
			c.Database.Driver = "sqlite"
		}, wantErr: "unsupported database driver"},
		{name: "driver inferred from url", mutate: func(c *Config) { c.Database.URL = "mysql://u:p@localhost/ig" }},
		{name: "postgresql driver", mutate: func(c *Config) {
			c.Database.URL = "postgresql://u:p@localhost/ig"
			c.Database.Driver = "postgresql"
		}},
		{name: "driver ignored without url", mutate: func(c *Config) { c.Database.Driver = "sqlite" }},
		{name: "endpoint without bucket", mutate: func(c *Config) { c.ObjectStore.Endpoint = "localhost:9000" }, wantErr: "bucket"},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "chatty" }, wantErr: "log level"},
		{name: "zero burst", mutate: func(c *Config) { c.Instagram.BurstSize = 0 }, wantErr: "burst size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Directory = ""
	cfg.Logging.Level = "chatty"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output directory")
	assert.Contains(t, err.Error(), "log level")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Instagram.Username = "carol"
	cfg.Pacing.SuccessMin = 2 * time.Second

	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Contains(t, raw, "pacing")

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "carol", loaded.Instagram.Username)
	assert.Equal(t, 2*time.Second, loaded.Pacing.SuccessMin)
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Instagram.Password = "hunter2"
	cfg.ObjectStore.SecretKey = "minio-secret"
	cfg.Database.URL = "postgres://ig:dbpass@db:5432/ig?sslmode=disable"

	r := cfg.Redacted()

	assert.Equal(t, "********", r.Instagram.Password)
	assert.Equal(t, "********", r.ObjectStore.SecretKey)
	assert.Equal(t, "postgres://ig:********@db:5432/ig?sslmode=disable", r.Database.URL)
	assert.Equal(t, "hunter2", cfg.Instagram.Password, "original must be untouched")

	assert.Equal(t, "postgres://db/ig", maskURL("postgres://db/ig"))
	assert.Equal(t, "", mask(""))
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"username":            "dave",
		"target-pk":           "99",
		"output":              "/flags/out",
		"formats":             []string{"csv"},
		"requests-per-minute": 5,
		"log-level":           "warn",
		"no-color":            true,
		"no-notify":           true,
		"database-url":        "",
	})

	assert.Equal(t, "dave", cfg.Instagram.Username)
	assert.Equal(t, "99", cfg.Instagram.TargetPK)
	assert.Equal(t, "/flags/out", cfg.Output.Directory)
	assert.Equal(t, []string{"csv"}, cfg.Output.Formats)
	assert.Equal(t, 5, cfg.Instagram.RequestsPerMinute)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Logging.NoColor)
	assert.False(t, cfg.Notifications.Enabled)
	assert.Empty(t, cfg.Database.URL, "empty flag values do not override")
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("instagram:\n  username: from_file\n  target_pk: \"1\"\noutput:\n  directory: /file/out\n"), 0600))

	t.Setenv("INSTA_TARGET_PK", "2")
	t.Setenv("IGRELATIONS_OUTPUT_DIR", "/env/out")

	cfg, err := Load(path, map[string]interface{}{"output": "/flag/out"})
	require.NoError(t, err)

	assert.Equal(t, "from_file", cfg.Instagram.Username)
	assert.Equal(t, "2", cfg.Instagram.TargetPK)
	assert.Equal(t, "/flag/out", cfg.Output.Directory)
}

func TestLoadFailsValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("INSTA_TARGET_PK", "not-a-number")

	_, err := Load("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}
