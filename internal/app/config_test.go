package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/visadesk-io/visadesk/internal/auth"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)
	require.Equal(t, "visadesk", cfg.Database.Postgres.Database)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "visadesk-test", cfg.Auth.JWT.Issuer)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)

	require.True(t, cfg.Sweep.Enabled)
	require.Equal(t, "15 7 * * *", cfg.Sweep.Schedule)
	require.Equal(t, "cron-secret", cfg.Sweep.CronSecret)

	require.True(t, cfg.Channels.Email.SMTP.Enabled)
	require.Equal(t, "smtp.example.com", cfg.Channels.Email.SMTP.Host)
	require.Equal(t, 2525, cfg.Channels.Email.SMTP.Port)
	require.Equal(t, "no-reply@example.com", cfg.Channels.Email.SMTP.From)
	require.Equal(t, 15*time.Second, cfg.Channels.Email.SMTP.Timeout)

	require.True(t, cfg.Channels.Telegram.Enabled)
	require.Equal(t, "bot-token", cfg.Channels.Telegram.Token)
	require.Equal(t, int64(123456), cfg.Channels.Telegram.ChatID)

	require.True(t, cfg.Channels.Push.Enabled)
	require.Equal(t, "https://push.example.com/v1/send", cfg.Channels.Push.Endpoint)
	require.Equal(t, 5*time.Second, cfg.Channels.Push.Timeout)

	require.Equal(t, "/var/lib/visadesk/documents", cfg.Storage.DocumentsDir)
	require.Equal(t, 45, cfg.Retention.NotificationDays)

	require.False(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/internal/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "0 8 * * *", cfg.Sweep.Schedule)
	require.True(t, cfg.Sweep.Enabled)
	require.Equal(t, 90, cfg.Retention.NotificationDays)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestAuthConfigAdapter(t *testing.T) {
	cfg := AuthConfig{
		JWT: JWTSettings{
			Secret: "secret",
			Issuer: "issuer",
			TTL:    30 * time.Minute,
		},
	}

	jwtCfg := cfg.JWTServiceConfig()
	require.Equal(t, auth.JWTConfig{
		Secret:         "secret",
		Issuer:         "issuer",
		AccessTokenTTL: 30 * time.Minute,
	}, jwtCfg)

	var empty AuthConfig
	require.Equal(t, auth.DefaultAccessTokenTTL, empty.JWTServiceConfig().AccessTokenTTL)
}

func TestChannelConfigAdapters(t *testing.T) {
	email := EmailConfig{
		SMTP: SMTPConfig{
			Enabled:  true,
			Host:     "smtp.example.com",
			Port:     2525,
			Username: "user",
			Password: "pass",
			From:     "no-reply@example.com",
			UseTLS:   true,
			Timeout:  10 * time.Second,
		},
	}
	settings := email.SMTPSettings()
	require.True(t, settings.Enabled)
	require.Equal(t, "smtp.example.com", settings.Host)
	require.Equal(t, 2525, settings.Port)
	require.Equal(t, "no-reply@example.com", settings.From)
	require.Equal(t, 10*time.Second, settings.Timeout)

	push := PushConfig{Endpoint: "https://push.example.com", APIKey: "key", Timeout: 5 * time.Second}
	pushSettings := push.PushSettings()
	require.Equal(t, "https://push.example.com", pushSettings.Endpoint)
	require.Equal(t, "key", pushSettings.APIKey)
	require.Equal(t, 5*time.Second, pushSettings.Timeout)
}
