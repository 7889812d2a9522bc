package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/airsync/internal/config"
	"github.com/roach88/airsync/internal/credential"
	"github.com/roach88/airsync/internal/engine"
	"github.com/roach88/airsync/internal/model"
	"github.com/roach88/airsync/internal/outbox"
	"github.com/roach88/airsync/internal/store"
	"github.com/roach88/airsync/internal/transport"
)

// session is everything a command needs to talk to the configured
// account: its settings, the local store and an authenticated client.
type session struct {
	cfg     *config.Config
	store   *store.Store
	account *model.Account
	client  *transport.Client
	log     *slog.Logger
}

// loadConfig reads and validates the configuration file.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}
	return cfg, nil
}

// openStore opens the database under the configured data directory.
func openStore(cfg *config.Config) (*store.Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create data directory", err)
	}
	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// password returns AIRSYNC_PASSWORD when set and the keyring entry
// otherwise.
func (o *RootOptions) password(cfg *config.Config) (string, error) {
	if cfg.Password != "" {
		return cfg.Password, nil
	}
	creds, err := o.credentials()
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to open keyring", err)
	}
	pw, err := creds.Resolve("", cfg.User, cfg.Host)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return "", WrapExitError(ExitCommandError, "no password stored; run airsync login", err)
		}
		return "", WrapExitError(ExitCommandError, "failed to read password", err)
	}
	return pw, nil
}

// openSession loads the config, opens the store and builds a client for
// the account created by login. The caller must close the session.
func (o *RootOptions) openSession(ctx context.Context) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	log := o.Logger()

	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	acct, err := st.AccountByLogin(ctx, cfg.Host, cfg.User)
	if err != nil {
		st.Close()
		if errors.Is(err, store.ErrNotFound) {
			return nil, WrapExitError(ExitCommandError, "no account; run airsync login", err)
		}
		return nil, WrapExitError(ExitCommandError, "failed to load account", err)
	}
	pw, err := o.password(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	log.Debug("session opened", "account", acct.ID, "host", acct.Host, "db", cfg.DatabasePath())
	client := transport.New(cfg.TransportConfig(acct, pw), transport.WithLogger(log))
	return &session{cfg: cfg, store: st, account: acct, client: client, log: log}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.log.Error("error closing database", "error", err)
	}
}

// sender builds the outbox sender for the session's account.
func (s *session) sender(cb model.Callback) *outbox.Sender {
	return outbox.NewSender(s.store, s.client,
		outbox.WithLogger(s.log),
		outbox.WithCallback(cb),
	)
}

// engine builds the sync engine for the session's account with every
// configured tunable applied.
func (s *session) engine(cb model.Callback, extra ...engine.Option) *engine.Engine {
	opts := []engine.Option{
		engine.WithLogger(s.log),
		engine.WithCallback(cb),
		engine.WithWindowSize(s.cfg.WindowSize),
		engine.WithHeartbeat(s.cfg.Ping.Heartbeat, s.cfg.Ping.Margin),
		engine.WithAttachmentDir(s.cfg.AttachmentDir()),
		engine.WithAttachmentTimeout(s.cfg.Timeouts.Attachment),
	}
	return engine.New(s.account.ID, s.store, s.client, append(opts, extra...)...)
}

// mailbox finds a mailbox of the session's account by server id.
func (s *session) mailbox(ctx context.Context, serverID string) (*model.Mailbox, error) {
	mb, err := s.store.MailboxByServerID(ctx, s.account.ID, serverID)
	return mailboxResult(mb, err, serverID)
}

// mailboxOrRole finds a mailbox by server id, or by role name such as
// "trash" when no server id matches.
func (s *session) mailboxOrRole(ctx context.Context, arg string) (*model.Mailbox, error) {
	mb, err := s.store.MailboxByServerID(ctx, s.account.ID, arg)
	if t, ok := model.ParseMailboxType(arg); ok && errors.Is(err, store.ErrNotFound) {
		mb, err = s.store.MailboxByType(ctx, s.account.ID, t)
	}
	return mailboxResult(mb, err, arg)
}

func mailboxResult(mb *model.Mailbox, err error, arg string) (*model.Mailbox, error) {
	if err == nil {
		return mb, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("unknown mailbox %q; run airsync folders", arg), err)
	}
	return nil, WrapExitError(ExitCommandError, "failed to load mailbox", err)
}
