// Package config loads the client configuration from a YAML file with
// environment overrides.
//
// Every key can be overridden by an AIRSYNC_ variable with dots replaced
// by underscores, so timeouts.command becomes AIRSYNC_TIMEOUTS_COMMAND.
// The password is never written to the file; it comes from the keyring or
// from AIRSYNC_PASSWORD.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/roach88/airsync/internal/model"
	"github.com/roach88/airsync/internal/transport"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AIRSYNC"

// Timeouts bound individual requests.
type Timeouts struct {
	Connect time.Duration `mapstructure:"connect" yaml:"connect"`
	Command time.Duration `mapstructure:"command" yaml:"command"`
	Send    time.Duration `mapstructure:"send" yaml:"send"`

	// Attachment bounds one attachment download.
	Attachment time.Duration `mapstructure:"attachment" yaml:"attachment"`
}

// Ping configures the push connection.
type Ping struct {
	Heartbeat time.Duration `mapstructure:"heartbeat" yaml:"heartbeat"`
	Margin    time.Duration `mapstructure:"margin" yaml:"margin"`
}

// Config is the client configuration for one account.
type Config struct {
	Host          string `mapstructure:"host" yaml:"host"`
	User          string `mapstructure:"user" yaml:"user"`
	Email         string `mapstructure:"email" yaml:"email"`
	SSL           bool   `mapstructure:"ssl" yaml:"ssl"`
	TrustAllCerts bool   `mapstructure:"trust_all_certs" yaml:"trust_all_certs"`

	// DeviceID is generated on first login when empty.
	DeviceID        string `mapstructure:"device_id" yaml:"device_id"`
	DeviceType      string `mapstructure:"device_type" yaml:"device_type"`
	ProtocolVersion string `mapstructure:"protocol_version" yaml:"protocol_version"`

	// Lookback is one of all, 1d, 3d, 1w, 2w or 1m.
	Lookback   string `mapstructure:"lookback" yaml:"lookback"`
	WindowSize int    `mapstructure:"window_size" yaml:"window_size"`

	Timeouts Timeouts `mapstructure:"timeouts" yaml:"timeouts"`
	Ping     Ping     `mapstructure:"ping" yaml:"ping"`

	// DataDir holds the database and downloaded attachments.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// Password is only ever read from the environment.
	Password string `mapstructure:"password" yaml:"-"`
}

// DefaultPath returns ~/.config/airsync/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "airsync", "config.yaml")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "airsync-data")
	}
	return filepath.Join(home, ".local", "share", "airsync")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "")
	v.SetDefault("user", "")
	v.SetDefault("email", "")
	v.SetDefault("ssl", true)
	v.SetDefault("trust_all_certs", false)
	v.SetDefault("device_id", "")
	v.SetDefault("device_type", "Android")
	v.SetDefault("protocol_version", transport.DefaultProtocolVersion)
	v.SetDefault("lookback", "3d")
	v.SetDefault("window_size", 25)
	v.SetDefault("timeouts.connect", 30*time.Second)
	v.SetDefault("timeouts.command", 60*time.Second)
	v.SetDefault("timeouts.send", 120*time.Second)
	v.SetDefault("timeouts.attachment", 120*time.Second)
	v.SetDefault("ping.heartbeat", 470*time.Second)
	v.SetDefault("ping.margin", 30*time.Second)
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("password", "")
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads the configuration at path. A missing file yields the
// defaults, still subject to environment overrides.
func Load(path string) (*Config, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if _, err := model.ParseLookback(cfg.Lookback); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.WindowSize <= 0 {
		return nil, fmt.Errorf("config %s: window_size must be positive, got %d", path, cfg.WindowSize)
	}
	if cfg.Ping.Heartbeat <= 0 {
		return nil, fmt.Errorf("config %s: ping.heartbeat must be positive", path)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories if needed. The
// password is left out.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.Set("host", cfg.Host)
	v.Set("user", cfg.User)
	v.Set("email", cfg.Email)
	v.Set("ssl", cfg.SSL)
	v.Set("trust_all_certs", cfg.TrustAllCerts)
	v.Set("device_id", cfg.DeviceID)
	v.Set("device_type", cfg.DeviceType)
	v.Set("protocol_version", cfg.ProtocolVersion)
	v.Set("lookback", cfg.Lookback)
	v.Set("window_size", cfg.WindowSize)
	v.Set("timeouts.connect", cfg.Timeouts.Connect.String())
	v.Set("timeouts.command", cfg.Timeouts.Command.String())
	v.Set("timeouts.send", cfg.Timeouts.Send.String())
	v.Set("timeouts.attachment", cfg.Timeouts.Attachment.String())
	v.Set("ping.heartbeat", cfg.Ping.Heartbeat.String())
	v.Set("ping.margin", cfg.Ping.Margin.String())
	v.Set("data_dir", cfg.DataDir)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the settings needed to reach a server are present.
func (c *Config) Validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.User == "" {
		missing = append(missing, "user")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// EnsureDeviceID fills in a generated device id when none is set and
// reports whether it did.
func (c *Config) EnsureDeviceID() bool {
	if c.DeviceID != "" {
		return false
	}
	c.DeviceID = "airsync" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	return true
}

// DatabasePath is where the SQLite store lives.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "airsync.db")
}

// AttachmentDir is where downloaded attachments are kept.
func (c *Config) AttachmentDir() string {
	return filepath.Join(c.DataDir, "attachments")
}

// Account returns the account record these settings describe.
func (c *Config) Account() (model.Account, error) {
	lookback, err := model.ParseLookback(c.Lookback)
	if err != nil {
		return model.Account{}, err
	}
	email := c.Email
	if email == "" && strings.Contains(c.User, "@") {
		email = c.User
	}
	return model.Account{
		Host:            c.Host,
		UseSSL:          c.SSL,
		TrustAllCerts:   c.TrustAllCerts,
		User:            c.User,
		Email:           email,
		DeviceID:        c.DeviceID,
		DeviceType:      c.DeviceType,
		ProtocolVersion: c.ProtocolVersion,
		SyncKey:         model.InitialSyncKey,
		Lookback:        lookback,
	}, nil
}

// TransportConfig returns the client settings for an account, using
// password for Basic authentication.
func (c *Config) TransportConfig(acct *model.Account, password string) transport.Config {
	return transport.Config{
		Host:            acct.Host,
		UseSSL:          acct.UseSSL,
		TrustAllCerts:   acct.TrustAllCerts,
		User:            acct.User,
		Password:        password,
		DeviceID:        acct.DeviceID,
		DeviceType:      acct.DeviceType,
		ProtocolVersion: acct.ProtocolVersion,
		ConnectTimeout:  c.Timeouts.Connect,
		CommandTimeout:  c.Timeouts.Command,
		SendTimeout:     c.Timeouts.Send,
	}
}
