package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/airsync/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.True(t, cfg.SSL)
	assert.Equal(t, "Android", cfg.DeviceType)
	assert.Equal(t, "2.5", cfg.ProtocolVersion)
	assert.Equal(t, "3d", cfg.Lookback)
	assert.Equal(t, 25, cfg.WindowSize)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Connect)
	assert.Equal(t, 60*time.Second, cfg.Timeouts.Command)
	assert.Equal(t, 120*time.Second, cfg.Timeouts.Send)
	assert.Equal(t, 470*time.Second, cfg.Ping.Heartbeat)
	assert.Equal(t, 30*time.Second, cfg.Ping.Margin)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Empty(t, cfg.Password)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
host: mail.example.com
user: jane@example.com
ssl: false
lookback: 1w
window_size: 50
timeouts:
  command: 45s
ping:
  heartbeat: 10m
data_dir: /var/lib/airsync
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mail.example.com", cfg.Host)
	assert.Equal(t, "jane@example.com", cfg.User)
	assert.False(t, cfg.SSL)
	assert.Equal(t, "1w", cfg.Lookback)
	assert.Equal(t, 50, cfg.WindowSize)
	assert.Equal(t, 45*time.Second, cfg.Timeouts.Command)
	assert.Equal(t, 120*time.Second, cfg.Timeouts.Send, "unset keys keep defaults")
	assert.Equal(t, 10*time.Minute, cfg.Ping.Heartbeat)
	assert.Equal(t, "/var/lib/airsync/airsync.db", cfg.DatabasePath())
	assert.Equal(t, "/var/lib/airsync/attachments", cfg.AttachmentDir())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "host: mail.example.com\nuser: jane\n")
	t.Setenv("AIRSYNC_HOST", "other.example.com")
	t.Setenv("AIRSYNC_PASSWORD", "hunter2")
	t.Setenv("AIRSYNC_TIMEOUTS_SEND", "5m")
	t.Setenv("AIRSYNC_SSL", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "other.example.com", cfg.Host)
	assert.Equal(t, "jane", cfg.User)
	assert.Equal(t, "hunter2", cfg.Password)
	assert.Equal(t, 5*time.Minute, cfg.Timeouts.Send)
	assert.False(t, cfg.SSL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "host: [unclosed", "reading config"},
		{"bad lookback", "lookback: 3y", "unknown lookback"},
		{"bad window", "window_size: 0", "window_size"},
		{"bad duration", "timeouts:\n  command: soon", "parsing config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.Host = "mail.example.com"
	cfg.User = "jane@example.com"
	cfg.DeviceID = "airsyncabc"
	cfg.Password = "never written"
	cfg.Timeouts.Command = 90 * time.Second
	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "never written")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mail.example.com", loaded.Host)
	assert.Equal(t, "airsyncabc", loaded.DeviceID)
	assert.Equal(t, 90*time.Second, loaded.Timeouts.Command)
	assert.Empty(t, loaded.Password)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host, user")

	cfg.Host, cfg.User = "mail.example.com", "jane"
	assert.NoError(t, cfg.Validate())
}

func TestEnsureDeviceID(t *testing.T) {
	cfg := &Config{}
	assert.True(t, cfg.EnsureDeviceID())
	assert.Len(t, cfg.DeviceID, len("airsync")+16)

	id := cfg.DeviceID
	assert.False(t, cfg.EnsureDeviceID())
	assert.Equal(t, id, cfg.DeviceID)
}

func TestAccountAndTransportConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	cfg.Host = "mail.example.com"
	cfg.User = "jane@example.com"
	cfg.DeviceID = "airsync1"

	acct, err := cfg.Account()
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", acct.Email, "email defaults to a login that is an address")
	assert.Equal(t, model.Lookback3Days, acct.Lookback)
	assert.Equal(t, model.InitialSyncKey, acct.SyncKey)

	tc := cfg.TransportConfig(&acct, "secret")
	assert.Equal(t, "mail.example.com", tc.Host)
	assert.True(t, tc.UseSSL)
	assert.Equal(t, "secret", tc.Password)
	assert.Equal(t, "airsync1", tc.DeviceID)
	assert.Equal(t, cfg.Timeouts.Send, tc.SendTimeout)
}
