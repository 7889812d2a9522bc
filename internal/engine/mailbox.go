package engine

import (
	"context"
	"fmt"

	"github.com/roach88/airsync/internal/easerr"
	"github.com/roach88/airsync/internal/model"
	"github.com/roach88/airsync/internal/protocol"
)

// SyncMailbox brings one mailbox up to date, uploading its queued local
// changes on the way. It issues Sync rounds while the server reports more
// available, applying each round and its key as one store batch.
//
// Status is reported through the callback: in progress at 0 when the
// mailbox starts, success at 100 when it is current, or the failure's
// status.
func (e *Engine) SyncMailbox(ctx context.Context, mailboxID int64) (err error) {
	mb, err := e.store.Mailbox(ctx, mailboxID)
	if err != nil {
		return err
	}
	if mb.Type.Class() != "Email" {
		e.log.Debug("skipping non-mail collection", "mailbox", mb.ServerID, "class", mb.Type.Class())
		return nil
	}

	e.callback.SyncMailboxStatus(mailboxID, model.StatusInProgress, 0)
	defer func() {
		if err != nil {
			e.callback.SyncMailboxStatus(mailboxID, model.StatusOf(err), 0)
			err = mailboxError(mailboxID, mb.ServerID, err)
			return
		}
		e.callback.SyncMailboxStatus(mailboxID, model.StatusSuccess, 100)
	}()

	acct, err := e.store.Account(ctx, e.accountID)
	if err != nil {
		return err
	}

	resets := 0
	for more := true; more; {
		if err := e.checkStopped(ctx); err != nil {
			return err
		}

		// The key changes every round; read it fresh.
		mb, err = e.store.Mailbox(ctx, mailboxID)
		if err != nil {
			return err
		}
		more, err = e.syncRound(ctx, acct, mb)
		if err != nil {
			if !easerr.IsInvalidSyncKey(err) {
				return err
			}
			resets++
			if resets > maxKeyResets {
				return err
			}
			more = true
		}
	}
	return nil
}

// syncRound issues one Sync request and applies its result. It reports
// whether the server has more changes waiting.
func (e *Engine) syncRound(ctx context.Context, acct *model.Account, mb *model.Mailbox) (bool, error) {
	req := protocol.SyncRequest{
		Class:        mb.Type.Class(),
		SyncKey:      mb.SyncKey,
		CollectionID: mb.ServerID,
		FilterType:   acct.Lookback.FilterType(),
		WindowSize:   e.windowSize,
	}
	if mb.SyncKey != model.InitialSyncKey {
		changes, err := e.store.PendingChanges(ctx, mb.ID)
		if err != nil {
			return false, err
		}
		req.Changes = changes
	}

	body, err := protocol.BuildSync(req)
	if err != nil {
		return false, err
	}
	data, err := e.command(ctx, protocol.CmdSync, body)
	if err != nil {
		return false, err
	}
	if len(data) == 0 && mb.SyncKey != model.InitialSyncKey {
		// An empty 200 means nothing changed since the key was issued.
		e.log.Debug("sync round empty", "mailbox", mb.ServerID, "sync_key", mb.SyncKey)
		return false, e.clearUploaded(ctx, req.Changes)
	}

	res, err := protocol.ParseSync(data)
	if err != nil {
		return false, err
	}

	switch res.Status {
	case protocol.SyncStatusSuccess:
		if err := e.store.ApplyMessageBatch(ctx, res.Batch(mb.ID)); err != nil {
			return false, fmt.Errorf("applying sync round: %w", err)
		}
		if err := e.clearUploaded(ctx, req.Changes); err != nil {
			return false, err
		}
		e.log.Info("sync round",
			"mailbox", mb.ServerID,
			"sync_key", res.SyncKey,
			"added", len(res.Added),
			"changed", len(res.Changed),
			"deleted", len(res.Deleted),
			"uploaded", len(req.Changes),
			"more", res.MoreAvailable,
		)
		// A round at the initial key only yields a key; the items follow.
		return res.MoreAvailable || mb.SyncKey == model.InitialSyncKey, nil

	case protocol.SyncStatusInvalidSyncKey:
		e.log.Warn("sync key rejected, invalidating mailbox", "mailbox", mb.ServerID, "sync_key", mb.SyncKey)
		if err := e.store.InvalidateMailbox(ctx, mb.ID); err != nil {
			return false, err
		}
		return true, easerr.InvalidSyncKey(protocol.CmdSync, res.Status)

	default:
		e.log.Error("sync failed", "mailbox", mb.ServerID, "status", res.Status)
		return false, easerr.ProtocolStatus(protocol.CmdSync, res.Status)
	}
}

func (e *Engine) clearUploaded(ctx context.Context, changes []model.PendingChange) error {
	if len(changes) == 0 {
		return nil
	}
	ids := make([]int64, len(changes))
	for i, c := range changes {
		ids[i] = c.ID
	}
	return e.store.ClearPendingChanges(ctx, ids)
}

// MoveMessage moves a message to another mailbox on the server and
// records its new server id locally.
func (e *Engine) MoveMessage(ctx context.Context, messageID, dstMailboxID int64) error {
	msg, err := e.store.Message(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.ServerID == "" {
		return fmt.Errorf("message %d has not been synced", messageID)
	}
	src, err := e.store.Mailbox(ctx, msg.MailboxID)
	if err != nil {
		return err
	}
	dst, err := e.store.Mailbox(ctx, dstMailboxID)
	if err != nil {
		return err
	}

	body, err := protocol.BuildMoveItems([]protocol.Move{{
		SrcMsgID: msg.ServerID,
		SrcFldID: src.ServerID,
		DstFldID: dst.ServerID,
	}})
	if err != nil {
		return err
	}
	data, err := e.command(ctx, protocol.CmdMoveItems, body)
	if err != nil {
		return err
	}
	responses, err := protocol.ParseMoveItems(data)
	if err != nil {
		return err
	}

	for _, r := range responses {
		if r.SrcMsgID != msg.ServerID {
			continue
		}
		if r.Status != protocol.MoveStatusSuccess {
			return easerr.ProtocolStatus(protocol.CmdMoveItems, r.Status)
		}
		newID := r.DstMsgID
		if newID == "" {
			newID = msg.ServerID
		}
		e.log.Info("message moved", "message", messageID, "from", src.ServerID, "to", dst.ServerID, "server_id", newID)
		return e.store.MoveMessage(ctx, messageID, dst.ID, newID)
	}
	return easerr.Malformed(protocol.CmdMoveItems, fmt.Errorf("no response for %s", msg.ServerID))
}

// Estimate asks the server how many changes are waiting for a mailbox.
// The mailbox must have synced at least once.
func (e *Engine) Estimate(ctx context.Context, mailboxID int64) (int, error) {
	mb, err := e.store.Mailbox(ctx, mailboxID)
	if err != nil {
		return 0, err
	}
	if mb.SyncKey == model.InitialSyncKey {
		return 0, fmt.Errorf("mailbox %s has not been synced", mb.ServerID)
	}
	acct, err := e.store.Account(ctx, e.accountID)
	if err != nil {
		return 0, err
	}

	body, err := protocol.BuildGetItemEstimate([]protocol.EstimateRequest{{
		Class:        mb.Type.Class(),
		CollectionID: mb.ServerID,
		FilterType:   acct.Lookback.FilterType(),
		SyncKey:      mb.SyncKey,
	}})
	if err != nil {
		return 0, err
	}
	data, err := e.command(ctx, protocol.CmdGetItemEstimate, body)
	if err != nil {
		return 0, err
	}
	estimates, err := protocol.ParseGetItemEstimate(data)
	if err != nil {
		return 0, err
	}
	for _, est := range estimates {
		if est.CollectionID != "" && est.CollectionID != mb.ServerID {
			continue
		}
		if est.Status != protocol.EstimateStatusSuccess {
			return 0, easerr.ProtocolStatus(protocol.CmdGetItemEstimate, est.Status)
		}
		return est.Count, nil
	}
	return 0, easerr.Malformed(protocol.CmdGetItemEstimate, fmt.Errorf("no estimate for %s", mb.ServerID))
}
