// Package easerr classifies failures of the ActiveSync client.
//
// Every layer reports failures as *Error so the engine, the outbox and the
// CLI can decide what to do from the Code alone: a malformed stream ends
// the current parse, an invalid sync key is recovered by a reset, an auth
// failure stops the account, and transient I/O is left to the caller's
// retry policy. Nothing in this module retries on its own.
package easerr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/roach88/airsync/internal/wbxml"
)

// Code categorizes an Error.
type Code string

const (
	// CodeMalformedStream indicates WBXML corruption: a bad token, a
	// non-digit integer or input that ended mid-token.
	CodeMalformedStream Code = "MALFORMED_STREAM"

	// CodeProtocolStatus indicates a server status code the engine does
	// not recover from, or an unexpected HTTP status.
	CodeProtocolStatus Code = "PROTOCOL_STATUS"

	// CodeInvalidSyncKey indicates Sync status 3 or FolderSync status 9.
	CodeInvalidSyncKey Code = "INVALID_SYNC_KEY"

	// CodeAuthFailure indicates HTTP 401 or 403.
	CodeAuthFailure Code = "AUTH_FAILURE"

	// CodeTransientIO indicates a network or file system failure.
	CodeTransientIO Code = "TRANSIENT_IO"

	// CodeUnsupportedFraming indicates a chunked response body.
	CodeUnsupportedFraming Code = "UNSUPPORTED_FRAMING"
)

// Error is a classified failure.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Op names the command or step that failed, e.g. "Sync" or "SendMail".
	Op string

	// HTTPStatus is the response status when the failure came from one.
	HTTPStatus int

	// Status is the EAS status element value when the failure came from one.
	Status int

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	switch {
	case e.Status != 0:
		msg += fmt.Sprintf(" (status=%d)", e.Status)
	case e.HTTPStatus != 0:
		msg += fmt.Sprintf(" (http=%d)", e.HTTPStatus)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Malformed wraps a decoding failure.
func Malformed(op string, err error) *Error {
	return &Error{Code: CodeMalformedStream, Op: op, Err: err}
}

// ProtocolStatus reports an unrecoverable EAS status value.
func ProtocolStatus(op string, status int) *Error {
	return &Error{Code: CodeProtocolStatus, Op: op, Status: status}
}

// InvalidSyncKey reports that the server rejected the sync key.
func InvalidSyncKey(op string, status int) *Error {
	return &Error{Code: CodeInvalidSyncKey, Op: op, Status: status}
}

// Auth reports rejected credentials.
func Auth(op string, httpStatus int) *Error {
	return &Error{Code: CodeAuthFailure, Op: op, HTTPStatus: httpStatus}
}

// Transient wraps a network or file system failure.
func Transient(op string, err error) *Error {
	return &Error{Code: CodeTransientIO, Op: op, Err: err}
}

// UnsupportedFraming reports a response body this client cannot frame.
func UnsupportedFraming(op, detail string) *Error {
	return &Error{Code: CodeUnsupportedFraming, Op: op, Err: errors.New(detail)}
}

// FromHTTPStatus classifies a non-200 response: 401 and 403 are auth
// failures, anything else is a protocol failure carrying the status.
func FromHTTPStatus(op string, httpStatus int) *Error {
	if httpStatus == 401 || httpStatus == 403 {
		return Auth(op, httpStatus)
	}
	return &Error{Code: CodeProtocolStatus, Op: op, HTTPStatus: httpStatus}
}

// Classify returns err as an *Error. Errors that already are one pass
// through unchanged; WBXML errors become CodeMalformedStream; cancellation
// is returned as is so the stop path stays recognizable; everything else
// is treated as transient I/O.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, wbxml.ErrMalformed) || errors.Is(err, wbxml.ErrTruncated) {
		return Malformed(op, err)
	}
	return Transient(op, err)
}

// CodeOf returns the Code of err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsAuth reports whether err is an auth failure.
func IsAuth(err error) bool {
	return CodeOf(err) == CodeAuthFailure
}

// IsInvalidSyncKey reports whether err is a rejected sync key.
func IsInvalidSyncKey(err error) bool {
	return CodeOf(err) == CodeInvalidSyncKey
}

// IsMalformed reports whether err is stream corruption.
func IsMalformed(err error) bool {
	return CodeOf(err) == CodeMalformedStream
}

// IsTransient reports whether err is a network or I/O failure the caller
// may retry. Unclassified network errors count too.
func IsTransient(err error) bool {
	if CodeOf(err) == CodeTransientIO {
		return true
	}
	if CodeOf(err) != "" {
		return false
	}
	var ne net.Error
	return errors.As(err, &ne) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
