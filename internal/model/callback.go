package model

import (
	"context"
	"errors"

	"github.com/roach88/airsync/internal/easerr"
)

// Status is reported through Callback. Zero is success; progress values
// only mean something with StatusInProgress.
type Status int

const (
	StatusSuccess            Status = 0
	StatusInProgress         Status = 1
	StatusMessageNotFound    Status = 0x10
	StatusAttachmentNotFound Status = 0x11
	StatusRemoteException    Status = 0x15
	StatusLoginFailed        Status = 0x16
	StatusConnectionError    Status = 0x20
	StatusCancelled          Status = 0x21
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusInProgress:
		return "in_progress"
	case StatusMessageNotFound:
		return "message_not_found"
	case StatusAttachmentNotFound:
		return "attachment_not_found"
	case StatusRemoteException:
		return "remote_exception"
	case StatusLoginFailed:
		return "login_failed"
	case StatusConnectionError:
		return "connection_error"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// StatusOf maps an error to the status reported to the user.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled):
		return StatusCancelled
	case easerr.IsAuth(err):
		return StatusLoginFailed
	case easerr.IsTransient(err):
		return StatusConnectionError
	default:
		return StatusRemoteException
	}
}

// Callback receives progress and completion reports. Progress is 0 when
// an operation starts and 100 when it finishes; a nonzero status other
// than StatusInProgress is terminal.
type Callback interface {
	SyncMailboxStatus(mailboxID int64, status Status, progress int)
	SendMessageStatus(messageID int64, subject string, status Status, progress int)
	LoadAttachmentStatus(messageID, attachmentID int64, status Status, progress int)
}

// NopCallback discards every report.
type NopCallback struct{}

func (NopCallback) SyncMailboxStatus(int64, Status, int) {}
func (NopCallback) SendMessageStatus(int64, string, Status, int) {}
func (NopCallback) LoadAttachmentStatus(int64, int64, Status, int) {}
