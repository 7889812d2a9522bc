package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/airsync/internal/config"
	"github.com/roach88/airsync/internal/store"
	"github.com/roach88/airsync/internal/transport"
)

// LoginOptions holds flags for the login command.
type LoginOptions struct {
	*RootOptions
	Host          string
	User          string
	Email         string
	SSL           bool
	TrustAllCerts bool
	Lookback      string
	PasswordStdin bool
	NoVerify      bool
}

// LoginResult describes the account login saved.
type LoginResult struct {
	AccountID       int64  `json:"account_id"`
	Host            string `json:"host"`
	User            string `json:"user"`
	DeviceID        string `json:"device_id"`
	ProtocolVersion string `json:"protocol_version"`
	Created         bool   `json:"created"`
}

func (r LoginResult) String() string {
	verb := "Updated"
	if r.Created {
		verb = "Created"
	}
	return fmt.Sprintf("%s account %d for %s on %s (device %s, protocol %s)",
		verb, r.AccountID, r.User, r.Host, r.DeviceID, r.ProtocolVersion)
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoginOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save account settings and password",
		Long: `Save the account settings to the config file, the password to the
system keyring, and create the local account record.

The password is read from stdin with --password-stdin, or from the
AIRSYNC_PASSWORD environment variable. Unless --no-verify is given the
server is asked for its protocol versions first, which also checks that
the credentials are accepted.

Example:
  echo "$PW" | airsync login --host mail.example.com --user jane@example.com --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "", "server host name")
	cmd.Flags().StringVar(&opts.User, "user", "", "login name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address, if different from the login")
	cmd.Flags().BoolVar(&opts.SSL, "ssl", true, "connect over HTTPS")
	cmd.Flags().BoolVar(&opts.TrustAllCerts, "trust-all-certs", false, "accept any server certificate")
	cmd.Flags().StringVar(&opts.Lookback, "lookback", "", "how far back to sync (all, 1d, 3d, 1w, 2w, 1m)")
	cmd.Flags().BoolVar(&opts.PasswordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().BoolVar(&opts.NoVerify, "no-verify", false, "skip contacting the server")

	return cmd
}

func runLogin(cmd *cobra.Command, opts *LoginOptions) error {
	ctx := cmd.Context()
	log := opts.Logger()
	out := opts.formatter(cmd)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	applyLoginFlags(cmd, opts, cfg)
	if cfg.EnsureDeviceID() {
		log.Info("generated device id", "device_id", cfg.DeviceID)
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid settings", err)
	}
	acct, err := cfg.Account()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid settings", err)
	}

	pw := cfg.Password
	if opts.PasswordStdin {
		if pw, err = readPassword(cmd.InOrStdin()); err != nil {
			return WrapExitError(ExitCommandError, "failed to read password", err)
		}
	}
	if pw == "" {
		return NewExitError(ExitCommandError, "no password: use --password-stdin or set AIRSYNC_PASSWORD")
	}

	if !opts.NoVerify {
		client := transport.New(cfg.TransportConfig(&acct, pw), transport.WithLogger(log))
		version, err := client.NegotiateVersion(ctx)
		if err != nil {
			return wrapServerError("failed to reach server", err)
		}
		out.VerboseLog("Server accepted login, protocol %s", version)
		cfg.ProtocolVersion = version
		acct.ProtocolVersion = version
	}

	if err := config.Save(opts.ConfigPath, cfg); err != nil {
		return WrapExitError(ExitCommandError, "failed to save config", err)
	}
	creds, err := opts.credentials()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open keyring", err)
	}
	if err := creds.Set(cfg.User, cfg.Host, pw); err != nil {
		return WrapExitError(ExitCommandError, "failed to store password", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	result := LoginResult{
		Host:            acct.Host,
		User:            acct.User,
		DeviceID:        acct.DeviceID,
		ProtocolVersion: acct.ProtocolVersion,
	}
	existing, err := st.AccountByLogin(ctx, cfg.Host, cfg.User)
	switch {
	case err == nil:
		acct.ID = existing.ID
		if err := st.UpdateAccount(ctx, acct); err != nil {
			return WrapExitError(ExitFailure, "failed to update account", err)
		}
		result.AccountID = existing.ID
	case errors.Is(err, store.ErrNotFound):
		id, err := st.CreateAccount(ctx, acct)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to create account", err)
		}
		result.AccountID = id
		result.Created = true
	default:
		return WrapExitError(ExitFailure, "failed to load account", err)
	}

	log.Info("login saved", "account", result.AccountID, "host", result.Host, "user", result.User)
	return out.Success(result)
}

// applyLoginFlags copies the flags that were given onto cfg.
func applyLoginFlags(cmd *cobra.Command, opts *LoginOptions, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = opts.Host
	}
	if flags.Changed("user") {
		cfg.User = opts.User
	}
	if flags.Changed("email") {
		cfg.Email = opts.Email
	}
	if flags.Changed("ssl") {
		cfg.SSL = opts.SSL
	}
	if flags.Changed("trust-all-certs") {
		cfg.TrustAllCerts = opts.TrustAllCerts
	}
	if flags.Changed("lookback") {
		cfg.Lookback = opts.Lookback
	}
}

// readPassword returns the first line of r.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
