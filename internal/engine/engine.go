package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/airsync/internal/easerr"
	"github.com/roach88/airsync/internal/model"
	"github.com/roach88/airsync/internal/protocol"
	"github.com/roach88/airsync/internal/transport"
)

// Store is the collaborator the engine persists protocol state through.
// *store.Store implements it.
type Store interface {
	Account(ctx context.Context, id int64) (*model.Account, error)
	SaveAccountSyncKey(ctx context.Context, accountID int64, key string) error
	SaveProtocolVersion(ctx context.Context, accountID int64, version string) error
	ApplyFolderBatch(ctx context.Context, accountID int64, batch model.FolderBatch) error

	Mailboxes(ctx context.Context, accountID int64) ([]model.Mailbox, error)
	Mailbox(ctx context.Context, id int64) (*model.Mailbox, error)
	MailboxByServerID(ctx context.Context, accountID int64, serverID string) (*model.Mailbox, error)
	ApplyMessageBatch(ctx context.Context, batch model.MessageBatch) error
	InvalidateMailbox(ctx context.Context, mailboxID int64) error
	PendingChanges(ctx context.Context, mailboxID int64) ([]model.PendingChange, error)
	ClearPendingChanges(ctx context.Context, ids []int64) error

	Message(ctx context.Context, id int64) (*model.Message, error)
	MoveMessage(ctx context.Context, messageID, dstMailboxID int64, newServerID string) error
	Attachment(ctx context.Context, id int64) (*model.Attachment, error)
	SaveAttachmentFile(ctx context.Context, attachmentID int64, path string) error
}

// Transport sends commands to the server. *transport.Client implements it.
type Transport interface {
	SendCommand(ctx context.Context, cmd string, body []byte, timeout time.Duration) (*transport.Response, error)
	Fetch(ctx context.Context, cmd string, params []transport.Param, timeout time.Duration) (*transport.Response, error)
	NegotiateVersion(ctx context.Context) (string, error)
}

// Outbox uploads the messages waiting in an account's outbox.
// *outbox.Sender implements it.
type Outbox interface {
	SendPending(ctx context.Context, accountID int64) error
}

// maxKeyResets bounds how often one SyncMailbox call restarts from the
// initial key before giving up.
const maxKeyResets = 3

// Engine drives one account. Run must be called from exactly one
// goroutine; Notify, Stop, RequestAttachment and CancelAttachment are
// safe from any goroutine.
type Engine struct {
	accountID int64
	store     Store
	client    Transport
	outbox    Outbox
	callback  model.Callback
	log       *slog.Logger

	windowSize        int
	heartbeat         time.Duration
	pingMargin        time.Duration
	attachmentDir     string
	attachmentTimeout time.Duration

	gate    *Gate
	ping    *PingScheduler
	parts   *PartRequestQueue
	stopped atomic.Bool

	mu         sync.Mutex
	cancel     context.CancelFunc
	negotiated bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithCallback sets where status reports go. Default: model.NopCallback.
func WithCallback(cb model.Callback) Option {
	return func(e *Engine) {
		e.callback = cb
	}
}

// WithOutbox makes each pass of the run loop send the outbox.
func WithOutbox(o Outbox) Option {
	return func(e *Engine) {
		e.outbox = o
	}
}

// WithWindowSize sets the number of changes asked for per Sync round.
func WithWindowSize(n int) Option {
	return func(e *Engine) {
		e.windowSize = n
	}
}

// WithHeartbeat sets the Ping heartbeat and the margin the run loop waits
// beyond it.
func WithHeartbeat(heartbeat, margin time.Duration) Option {
	return func(e *Engine) {
		e.heartbeat = heartbeat
		e.pingMargin = margin
	}
}

// WithAttachmentDir sets where downloaded attachments are stored.
// Default: the OS temp directory.
func WithAttachmentDir(dir string) Option {
	return func(e *Engine) {
		e.attachmentDir = dir
	}
}

// WithAttachmentTimeout bounds one attachment download.
func WithAttachmentTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.attachmentTimeout = d
	}
}

// New creates an engine for the account with the given local id.
func New(accountID int64, s Store, client Transport, opts ...Option) *Engine {
	e := &Engine{
		accountID:         accountID,
		store:             s,
		client:            client,
		callback:          model.NopCallback{},
		log:               slog.Default(),
		windowSize:        protocol.DefaultWindowSize,
		heartbeat:         DefaultHeartbeat,
		pingMargin:        DefaultPingMargin,
		attachmentTimeout: transport.DefaultSendTimeout,
		gate:              NewGate(),
		parts:             NewPartRequestQueue(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With("account", accountID)
	e.ping = NewPingScheduler(client, e.gate, e.log)
	return e
}

// Notify wakes the run loop so it syncs every push mailbox now.
func (e *Engine) Notify() {
	e.gate.Wake()
}

// Stop makes Run return. The in-flight request, if any, is aborted by
// cancelling its context, which closes the connection.
func (e *Engine) Stop() {
	e.stopped.Store(true)
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	e.gate.Wake()
}

// Stopped reports whether Stop has been called.
func (e *Engine) Stopped() bool {
	return e.stopped.Load()
}

// Negotiate asks the server for its protocol versions and records the one
// chosen. It runs once per engine; later calls return nil at once.
func (e *Engine) Negotiate(ctx context.Context) error {
	e.mu.Lock()
	done := e.negotiated
	e.mu.Unlock()
	if done {
		return nil
	}

	version, err := e.client.NegotiateVersion(ctx)
	if err != nil {
		return err
	}
	if err := e.store.SaveProtocolVersion(ctx, e.accountID, version); err != nil {
		return err
	}

	e.mu.Lock()
	e.negotiated = true
	e.mu.Unlock()
	e.log.Info("protocol negotiated", "version", version)
	return nil
}

// SyncFolders brings the folder hierarchy up to date. A rejected account
// key (status 9) is reset to "0" and the hierarchy fetched again from
// scratch; any other non-success status is returned as a protocol error.
func (e *Engine) SyncFolders(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		acct, err := e.store.Account(ctx, e.accountID)
		if err != nil {
			return err
		}

		body, err := protocol.BuildFolderSync(acct.SyncKey)
		if err != nil {
			return err
		}
		data, err := e.command(ctx, protocol.CmdFolderSync, body)
		if err != nil {
			return err
		}
		res, err := protocol.ParseFolderSync(data)
		if err != nil {
			return err
		}

		switch res.Status {
		case protocol.FolderStatusSuccess:
			if err := e.store.ApplyFolderBatch(ctx, e.accountID, res.Batch()); err != nil {
				return fmt.Errorf("applying folder changes: %w", err)
			}
			e.log.Info("folders synced",
				"sync_key", res.SyncKey,
				"added", len(res.Added),
				"deleted", len(res.Deleted),
				"updated", len(res.Updated),
			)
			return nil

		case protocol.FolderStatusInvalidSyncKey:
			if acct.SyncKey == model.InitialSyncKey || attempt > 0 {
				return easerr.InvalidSyncKey(protocol.CmdFolderSync, res.Status)
			}
			e.log.Warn("folder sync key rejected, starting over", "sync_key", acct.SyncKey)
			if err := e.store.SaveAccountSyncKey(ctx, e.accountID, model.InitialSyncKey); err != nil {
				return err
			}

		default:
			e.log.Error("folder sync failed", "status", res.Status)
			return easerr.ProtocolStatus(protocol.CmdFolderSync, res.Status)
		}
	}
}

// Run drives the account until Stop is called or ctx is cancelled: it
// negotiates the protocol version, syncs folders, then loops over
// attachment downloads, push mailbox syncs, the outbox and a ping wait.
//
// Run returns nil when stopped and the first failure otherwise. Failures
// have already been reported through the callback.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()
	stopWake := context.AfterFunc(ctx, e.gate.Wake)
	defer stopWake()
	defer e.ping.Cancel()

	e.log.Info("engine starting")

	err := e.run(ctx)
	if e.stopped.Load() && IsStopped(err) {
		e.log.Info("engine stopping: stopped")
		return nil
	}
	if err != nil {
		e.log.Error("engine stopping", "error", err)
	}
	return err
}

func (e *Engine) run(ctx context.Context) error {
	if err := e.checkStopped(ctx); err != nil {
		return err
	}
	if err := e.Negotiate(ctx); err != nil {
		return err
	}
	if err := e.SyncFolders(ctx); err != nil {
		return err
	}

	var changed map[string]bool // nil: every push mailbox
	seen := e.gate.Generation()
	for {
		if err := e.checkStopped(ctx); err != nil {
			return err
		}

		out, err := e.pass(ctx, changed)
		if err != nil {
			return err
		}
		if err := e.checkStopped(ctx); err != nil {
			return err
		}

		var ping pingOutcome
		seen, ping, err = e.waitForChanges(ctx, seen, out)
		if err != nil {
			return err
		}
		if ping.heartbeat > 0 {
			e.log.Info("server adjusted heartbeat", "heartbeat", ping.heartbeat)
			e.heartbeat = ping.heartbeat
		}
		if ping.folderSync {
			if err := e.SyncFolders(ctx); err != nil {
				return err
			}
		}
		changed = ping.changed
	}
}

// RunOnce performs a single pass without waiting: negotiation, folders,
// queued attachments, every push mailbox and the outbox.
func (e *Engine) RunOnce(ctx context.Context) error {
	if err := e.Negotiate(ctx); err != nil {
		return err
	}
	if err := e.SyncFolders(ctx); err != nil {
		return err
	}
	_, err := e.pass(ctx, nil)
	return err
}

// pass runs one iteration of the loop body and returns the mailboxes the
// following ping should watch.
func (e *Engine) pass(ctx context.Context, changed map[string]bool) ([]model.Mailbox, error) {
	if err := e.drainParts(ctx); err != nil {
		return nil, err
	}

	boxes, err := e.pushMailboxes(ctx)
	if err != nil {
		return nil, err
	}
	for _, mb := range boxes {
		if changed != nil && !changed[mb.ServerID] {
			continue
		}
		if err := e.SyncMailbox(ctx, mb.ID); err != nil {
			return nil, err
		}
		if err := e.checkStopped(ctx); err != nil {
			return nil, err
		}
	}

	if e.outbox != nil {
		if err := e.outbox.SendPending(ctx, e.accountID); err != nil {
			if IsStopped(err) || easerr.IsAuth(err) {
				return nil, err
			}
			// Transient and per-message failures stay in the outbox for
			// the next pass.
			e.log.Warn("outbox incomplete", "error", err)
		}
	}
	return boxes, nil
}

// waitForChanges parks the loop on the gate until the ping answers, a
// Notify or Stop arrives, or heartbeat plus margin elapses.
func (e *Engine) waitForChanges(ctx context.Context, seen int64, boxes []model.Mailbox) (int64, pingOutcome, error) {
	timeout := e.heartbeat + e.pingMargin

	if len(boxes) == 0 || e.parts.Pending() > 0 {
		if e.parts.Pending() > 0 {
			timeout = 0
		}
		seen, _ = e.gate.Wait(seen, timeout)
		return seen, pingOutcome{}, nil
	}

	folders := make([]protocol.PingFolder, len(boxes))
	for i, mb := range boxes {
		folders[i] = protocol.PingFolder{ID: mb.ServerID, Class: mb.Type.Class()}
	}
	if err := e.ping.Start(ctx, e.heartbeat, folders); err != nil {
		return seen, pingOutcome{}, err
	}

	seen, woken := e.gate.Wait(seen, timeout)
	e.ping.Cancel()
	if !woken {
		e.log.Debug("ping wait timed out", "timeout", timeout)
	}

	if err := e.checkStopped(ctx); err != nil {
		return seen, pingOutcome{}, err
	}
	out, err := interpretPing(e.ping.Result())
	return seen, out, err
}

// pushMailboxes returns the Email mailboxes synced by push.
func (e *Engine) pushMailboxes(ctx context.Context) ([]model.Mailbox, error) {
	all, err := e.store.Mailboxes(ctx, e.accountID)
	if err != nil {
		return nil, err
	}
	var out []model.Mailbox
	for _, mb := range all {
		if mb.IsPush() && mb.Type.Class() == "Email" {
			out = append(out, mb)
		}
	}
	return out, nil
}

func (e *Engine) checkStopped(ctx context.Context) error {
	if e.stopped.Load() {
		return ErrStopped
	}
	return ctx.Err()
}

// command posts a WBXML command and returns the response body. An empty
// body is returned as nil.
func (e *Engine) command(ctx context.Context, cmd string, body []byte) ([]byte, error) {
	resp, err := e.client.SendCommand(ctx, cmd, body, 0)
	if err != nil {
		return nil, err
	}
	defer resp.Close()
	if err := resp.Err(); err != nil {
		return nil, err
	}
	data, err := resp.ReadBody()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return data, nil
}
