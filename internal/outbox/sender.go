// Package outbox uploads the messages waiting in an account's outbox.
//
// Each message is written as RFC 822 to a temporary file and posted with
// SendMail, or with SmartReply/SmartForward when it answers a message the
// server knows. The HTTP status decides the message's fate:
//
//   - 200: the local copy is deleted.
//   - 401/403: the message is marked send-failed and the batch stops.
//   - anything else: the message is marked send-failed and the batch
//     moves on.
//
// A network or file error leaves the message pending for the next batch.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/roach88/airsync/internal/easerr"
	"github.com/roach88/airsync/internal/model"
	"github.com/roach88/airsync/internal/protocol"
	"github.com/roach88/airsync/internal/transport"
)

// Store is what the sender reads and updates. *store.Store implements it.
type Store interface {
	Account(ctx context.Context, id int64) (*model.Account, error)
	OutboxMessages(ctx context.Context, accountID int64) ([]model.Message, error)
	LookupField(ctx context.Context, table string, id int64, column string) (string, error)
	MarkSendFailed(ctx context.Context, messageID int64) error
	DeleteMessage(ctx context.Context, messageID int64) error
}

// Transport posts raw message bodies. *transport.Client implements it.
type Transport interface {
	SendRaw(ctx context.Context, cmd string, params []transport.Param, body io.Reader, size int64) (*transport.Response, error)
}

// Outcome classifies the result of sending one message.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomePermanentFailure
	OutcomeAuthFailure
	OutcomeTransientFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomePermanentFailure:
		return "permanent_failure"
	case OutcomeAuthFailure:
		return "auth_failure"
	case OutcomeTransientFailure:
		return "transient_failure"
	default:
		return "unknown"
	}
}

// Result is the outcome of one message. HTTPStatus is set when the server
// answered; Err is set for every outcome but success.
type Result struct {
	MessageID  int64
	Outcome    Outcome
	HTTPStatus int
	Err        error
}

// Sender sends an account's outbox.
type Sender struct {
	store    Store
	client   Transport
	callback model.Callback
	log      *slog.Logger
	tempDir  string
	now      func() time.Time
}

// Option configures a Sender.
type Option func(*Sender)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Sender) {
		s.log = l
	}
}

// WithCallback sets where send reports go. Default: model.NopCallback.
func WithCallback(cb model.Callback) Option {
	return func(s *Sender) {
		s.callback = cb
	}
}

// WithTempDir sets where messages are serialized before upload.
// Default: the OS temp directory.
func WithTempDir(dir string) Option {
	return func(s *Sender) {
		s.tempDir = dir
	}
}

// NewSender returns a sender posting through client.
func NewSender(s Store, client Transport, opts ...Option) *Sender {
	snd := &Sender{
		store:    s,
		client:   client,
		callback: model.NopCallback{},
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(snd)
	}
	return snd
}

// SendPending sends every pending outbox message of the account in order.
//
// An auth failure ends the batch and is returned. Transient failures do
// not; the first one is returned once the batch is done. Messages the
// server refused for other reasons are marked failed and never returned
// as an error.
func (s *Sender) SendPending(ctx context.Context, accountID int64) error {
	acct, err := s.store.Account(ctx, accountID)
	if err != nil {
		return err
	}
	msgs, err := s.store.OutboxMessages(ctx, accountID)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	log := s.log.With("account", accountID)
	log.Info("sending outbox", "messages", len(msgs))

	var firstTransient error
	for i := range msgs {
		if err := ctx.Err(); err != nil {
			return err
		}

		res := s.Send(ctx, acct, &msgs[i])
		switch res.Outcome {
		case OutcomeAuthFailure:
			return res.Err
		case OutcomeTransientFailure:
			if errors.Is(res.Err, context.Canceled) {
				return res.Err
			}
			if firstTransient == nil {
				firstTransient = res.Err
			}
		}
	}
	return firstTransient
}

// Send uploads one message and applies its outcome to the store.
func (s *Sender) Send(ctx context.Context, acct *model.Account, msg *model.Message) Result {
	s.callback.SendMessageStatus(msg.ID, msg.Subject, model.StatusInProgress, 0)

	res := s.send(ctx, acct, msg)
	log := s.log.With("message", msg.ID, "outcome", res.Outcome.String())

	switch res.Outcome {
	case OutcomeSuccess:
		if err := s.store.DeleteMessage(ctx, msg.ID); err != nil {
			// The server has it; only the local copy lingers.
			log.Error("deleting sent message", "error", err)
		}
		s.callback.SendMessageStatus(msg.ID, msg.Subject, model.StatusSuccess, 100)
		log.Info("message sent")

	case OutcomeAuthFailure, OutcomePermanentFailure:
		if err := s.store.MarkSendFailed(ctx, msg.ID); err != nil {
			log.Error("marking message failed", "error", err)
		}
		s.callback.SendMessageStatus(msg.ID, msg.Subject, model.StatusOf(res.Err), 0)
		log.Warn("message refused", "http_status", res.HTTPStatus)

	case OutcomeTransientFailure:
		s.callback.SendMessageStatus(msg.ID, msg.Subject, model.StatusOf(res.Err), 0)
		log.Warn("message left pending", "error", res.Err)
	}
	return res
}

func (s *Sender) send(ctx context.Context, acct *model.Account, msg *model.Message) Result {
	res := Result{MessageID: msg.ID}
	cmd, params := s.command(ctx, msg)

	tmp, err := os.CreateTemp(s.tempDir, "outbox-*.eml")
	if err != nil {
		return transient(res, cmd, err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := WriteMessage(tmp, acct.Email, msg, s.now()); err != nil {
		if errors.Is(err, ErrInvalidMessage) {
			res.Outcome = OutcomePermanentFailure
			res.Err = easerr.Malformed(cmd, err)
			return res
		}
		return transient(res, cmd, err)
	}
	size, err := tmp.Seek(0, io.SeekCurrent)
	if err != nil {
		return transient(res, cmd, err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return transient(res, cmd, err)
	}

	s.log.Debug("posting message", "message", msg.ID, "command", cmd, "bytes", size)
	resp, err := s.client.SendRaw(ctx, cmd, params, tmp, size)
	if err != nil {
		return transient(res, cmd, err)
	}
	defer resp.Close()

	res.HTTPStatus = resp.StatusCode
	switch {
	case resp.StatusCode == http.StatusOK:
		res.Outcome = OutcomeSuccess
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		res.Outcome = OutcomeAuthFailure
		res.Err = resp.Err()
	default:
		res.Outcome = OutcomePermanentFailure
		res.Err = resp.Err()
	}
	return res
}

// command picks SendMail, or SmartReply/SmartForward with the referenced
// message's server ids when they can be resolved.
func (s *Sender) command(ctx context.Context, msg *model.Message) (string, []transport.Param) {
	params := []transport.Param{{Key: "SaveInSent", Value: "T"}}

	var cmd string
	switch {
	case msg.Flags&model.FlagReply != 0:
		cmd = protocol.CmdSmartReply
	case msg.Flags&model.FlagForward != 0:
		cmd = protocol.CmdSmartForward
	default:
		return protocol.CmdSendMail, params
	}
	if msg.ReferenceKey == 0 {
		return protocol.CmdSendMail, params
	}

	itemID, collectionID, err := s.reference(ctx, msg.ReferenceKey)
	if err != nil {
		s.log.Warn("reference not resolvable, sending as new mail",
			"message", msg.ID, "reference", msg.ReferenceKey, "error", err)
		return protocol.CmdSendMail, params
	}
	return cmd, append([]transport.Param{
		{Key: "ItemId", Value: itemID},
		{Key: "CollectionId", Value: collectionID},
	}, params...)
}

// reference resolves a local message id to its server id and the server
// id of the folder holding it.
func (s *Sender) reference(ctx context.Context, messageID int64) (string, string, error) {
	itemID, err := s.store.LookupField(ctx, "messages", messageID, "server_id")
	if err != nil {
		return "", "", err
	}
	mailbox, err := s.store.LookupField(ctx, "messages", messageID, "mailbox_id")
	if err != nil {
		return "", "", err
	}
	mailboxID, err := strconv.ParseInt(mailbox, 10, 64)
	if err != nil {
		return "", "", fmt.Errorf("mailbox id %q: %w", mailbox, err)
	}
	collectionID, err := s.store.LookupField(ctx, "mailboxes", mailboxID, "server_id")
	if err != nil {
		return "", "", err
	}
	if itemID == "" || collectionID == "" {
		return "", "", fmt.Errorf("message %d has not been synced", messageID)
	}
	return itemID, collectionID, nil
}

func transient(res Result, cmd string, err error) Result {
	res.Outcome = OutcomeTransientFailure
	if errors.Is(err, context.Canceled) {
		res.Err = err
	} else {
		res.Err = easerr.Classify(cmd, err)
		if !easerr.IsTransient(res.Err) {
			res.Err = easerr.Transient(cmd, err)
		}
	}
	return res
}
