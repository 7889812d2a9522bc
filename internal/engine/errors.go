package engine

import (
	"context"
	"errors"
	"fmt"
)

// ErrStopped is returned by operations attempted after Stop.
var ErrStopped = errors.New("engine stopped")

// MailboxError attributes a failure to the mailbox being synced.
//
// The underlying error keeps its easerr classification, so callers test it
// with easerr.IsAuth and friends as usual.
type MailboxError struct {
	// MailboxID is the local id of the mailbox.
	MailboxID int64

	// ServerID is the collection id the server knows the mailbox by.
	ServerID string

	// Err is the classified cause.
	Err error
}

// Error implements the error interface.
func (e *MailboxError) Error() string {
	if e.ServerID != "" {
		return fmt.Sprintf("mailbox %s (id=%d): %v", e.ServerID, e.MailboxID, e.Err)
	}
	return fmt.Sprintf("mailbox %d: %v", e.MailboxID, e.Err)
}

func (e *MailboxError) Unwrap() error {
	return e.Err
}

// IsStopped reports whether err comes from the engine being stopped or
// its context being cancelled, rather than from a real failure.
// Uses errors.Is to handle wrapped errors.
func IsStopped(err error) bool {
	return errors.Is(err, ErrStopped) || errors.Is(err, context.Canceled)
}

// mailboxError wraps err for mb unless it is nil or a stop.
func mailboxError(mailboxID int64, serverID string, err error) error {
	if err == nil || IsStopped(err) {
		return err
	}
	return &MailboxError{MailboxID: mailboxID, ServerID: serverID, Err: err}
}
