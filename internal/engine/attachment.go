package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/airsync/internal/easerr"
	"github.com/roach88/airsync/internal/model"
	"github.com/roach88/airsync/internal/protocol"
	"github.com/roach88/airsync/internal/store"
	"github.com/roach88/airsync/internal/transport"
)

// ChunkSize is how much of an attachment is read between progress
// reports.
const ChunkSize = 16 * 1024

// RequestAttachment queues an attachment for the run loop to download and
// wakes the loop. It returns false if the attachment is already queued.
func (e *Engine) RequestAttachment(messageID, attachmentID int64, location string) bool {
	ok := e.parts.Add(&PartRequest{MessageID: messageID, AttachmentID: attachmentID, Location: location})
	if ok {
		e.gate.Wake()
	}
	return ok
}

// CancelAttachment drops a queued download or aborts the one in flight.
func (e *Engine) CancelAttachment(attachmentID int64) bool {
	return e.parts.Cancel(attachmentID)
}

// Parts exposes the part request queue.
func (e *Engine) Parts() *PartRequestQueue {
	return e.parts
}

// drainParts downloads every queued attachment. Only an auth failure or a
// stop ends the drain early; other failures have been reported and the
// next request is tried.
func (e *Engine) drainParts(ctx context.Context) error {
	return e.drain(ctx, nil)
}

// DownloadQueued downloads the queued attachments outside the run loop
// and returns the first failure. A cancelled request is not a failure.
func (e *Engine) DownloadQueued(ctx context.Context) error {
	var first error
	err := e.drain(ctx, func(err error) {
		if first == nil {
			first = err
		}
	})
	if err != nil {
		return err
	}
	return first
}

func (e *Engine) drain(ctx context.Context, failed func(error)) error {
	for {
		req, rctx, ok := e.parts.Take(ctx)
		if !ok {
			return nil
		}
		err := e.LoadAttachment(rctx, req)
		cancelled := e.parts.Finish(req)
		switch {
		case err == nil:
		case cancelled && ctx.Err() == nil:
			e.log.Info("attachment cancelled", "attachment", req.AttachmentID)
		case IsStopped(err) || easerr.IsAuth(err):
			return err
		default:
			e.log.Warn("attachment failed", "attachment", req.AttachmentID, "error", err)
			if failed != nil {
				failed(err)
			}
		}
		if err := e.checkStopped(ctx); err != nil {
			return err
		}
	}
}

// LoadAttachment downloads one attachment with GetAttachment into the
// attachment directory and records its path in the store.
//
// The body is streamed to a temporary file in ChunkSize pieces with a
// progress report after each; the file is only moved into place once
// every byte has arrived. On failure or cancellation the partial file is
// removed and the failure's status reported.
func (e *Engine) LoadAttachment(ctx context.Context, req *PartRequest) (err error) {
	cb := func(status model.Status, progress int) {
		e.callback.LoadAttachmentStatus(req.MessageID, req.AttachmentID, status, progress)
	}

	att, err := e.store.Attachment(ctx, req.AttachmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cb(model.StatusAttachmentNotFound, 0)
		} else {
			cb(model.StatusOf(err), 0)
		}
		return err
	}
	location := req.Location
	if location == "" {
		location = att.Location
	}

	progress := 0
	cb(model.StatusInProgress, 0)
	defer func() {
		if err != nil {
			cb(model.StatusOf(err), progress)
		}
	}()

	resp, err := e.client.Fetch(ctx, protocol.CmdGetAttachment,
		[]transport.Param{{Key: "AttachmentName", Value: location}}, e.attachmentTimeout)
	if err != nil {
		return err
	}
	defer resp.Close()
	if err := resp.Err(); err != nil {
		return err
	}
	body, size, err := resp.Stream()
	if err != nil {
		return err
	}

	dir := e.attachmentDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return easerr.Transient(protocol.CmdGetAttachment, err)
	}
	tmp, err := os.CreateTemp(dir, "att-*.part")
	if err != nil {
		return easerr.Transient(protocol.CmdGetAttachment, err)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	buf := make([]byte, ChunkSize)
	var got int64
	for got < size {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(int64(len(buf)), size-got)
		m, err := io.ReadFull(body, buf[:n])
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return easerr.Transient(protocol.CmdGetAttachment, err)
		}
		if _, err := tmp.Write(buf[:m]); err != nil {
			return easerr.Transient(protocol.CmdGetAttachment, err)
		}
		got += int64(m)
		progress = int(got * 100 / size)
		if got < size {
			cb(model.StatusInProgress, progress)
		}
	}
	if err := tmp.Close(); err != nil {
		return easerr.Transient(protocol.CmdGetAttachment, err)
	}

	final := filepath.Join(dir, fmt.Sprintf("%d-%s", att.ID, safeFileName(att.FileName)))
	if err := os.Rename(tmp.Name(), final); err != nil {
		return easerr.Transient(protocol.CmdGetAttachment, err)
	}
	committed = true
	if err := e.store.SaveAttachmentFile(ctx, att.ID, final); err != nil {
		os.Remove(final)
		return err
	}

	progress = 100
	cb(model.StatusSuccess, 100)
	e.log.Info("attachment loaded", "attachment", att.ID, "bytes", got, "path", final)
	return nil
}

// safeFileName keeps the base name of a server-supplied file name.
func safeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "attachment"
	}
	return name
}
