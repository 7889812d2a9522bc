package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/roach88/airsync/internal/model"
)

// CreateAccount inserts an account and returns its id. An empty sync key
// is stored as the initial key.
func (s *Store) CreateAccount(ctx context.Context, a model.Account) (int64, error) {
	if a.SyncKey == "" {
		a.SyncKey = model.InitialSyncKey
	}
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO accounts
		(host, use_ssl, trust_all_certs, user_name, email, device_id, device_type,
		 protocol_version, sync_key, lookback)
		VALUES (:host, :use_ssl, :trust_all_certs, :user_name, :email, :device_id, :device_type,
		 :protocol_version, :sync_key, :lookback)
	`, a)
	if err != nil {
		return 0, fmt.Errorf("creating account %s@%s: %w", a.User, a.Host, err)
	}
	return res.LastInsertId()
}

// UpdateAccount rewrites the connection settings of an existing account.
// The sync key is left alone.
func (s *Store) UpdateAccount(ctx context.Context, a model.Account) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE accounts SET
			host = :host, use_ssl = :use_ssl, trust_all_certs = :trust_all_certs,
			user_name = :user_name, email = :email, device_id = :device_id,
			device_type = :device_type, protocol_version = :protocol_version,
			lookback = :lookback
		WHERE id = :id
	`, a)
	if err != nil {
		return fmt.Errorf("updating account %d: %w", a.ID, err)
	}
	return expectOne(res, "account", a.ID)
}

// SaveAccountSyncKey stores the FolderSync key of an account.
func (s *Store) SaveAccountSyncKey(ctx context.Context, accountID int64, key string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE accounts SET sync_key = ? WHERE id = ?", key, accountID)
	if err != nil {
		return fmt.Errorf("saving sync key for account %d: %w", accountID, err)
	}
	return expectOne(res, "account", accountID)
}

// SaveProtocolVersion records the negotiated protocol version.
func (s *Store) SaveProtocolVersion(ctx context.Context, accountID int64, version string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE accounts SET protocol_version = ? WHERE id = ?", version, accountID)
	if err != nil {
		return fmt.Errorf("saving protocol version for account %d: %w", accountID, err)
	}
	return expectOne(res, "account", accountID)
}

// ApplyFolderBatch applies one FolderSync response: adds, deletes and
// updates plus the new account sync key, in one transaction. An add for a
// server id that already exists replaces its name, parent and type.
func (s *Store) ApplyFolderBatch(ctx context.Context, accountID int64, batch model.FolderBatch) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, mb := range batch.Added {
			mb.AccountID = accountID
			if mb.SyncKey == "" {
				mb.SyncKey = model.InitialSyncKey
			}
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO mailboxes
				(account_id, display_name, server_id, parent_server_id, type, sync_key, sync_interval)
				VALUES (:account_id, :display_name, :server_id, :parent_server_id, :type, :sync_key, :sync_interval)
				ON CONFLICT(account_id, server_id) DO UPDATE SET
					display_name = excluded.display_name,
					parent_server_id = excluded.parent_server_id,
					type = excluded.type
			`, mb)
			if err != nil {
				return fmt.Errorf("adding mailbox %s: %w", mb.ServerID, err)
			}
		}

		for _, serverID := range batch.Deleted {
			_, err := tx.ExecContext(ctx,
				"DELETE FROM mailboxes WHERE account_id = ? AND server_id = ?",
				accountID, serverID,
			)
			if err != nil {
				return fmt.Errorf("deleting mailbox %s: %w", serverID, err)
			}
		}

		for _, mb := range batch.Updated {
			_, err := tx.ExecContext(ctx, `
				UPDATE mailboxes SET display_name = ?, parent_server_id = ?, type = ?
				WHERE account_id = ? AND server_id = ?
			`, mb.DisplayName, mb.ParentServerID, mb.Type, accountID, mb.ServerID)
			if err != nil {
				return fmt.Errorf("updating mailbox %s: %w", mb.ServerID, err)
			}
		}

		res, err := tx.ExecContext(ctx, "UPDATE accounts SET sync_key = ? WHERE id = ?", batch.SyncKey, accountID)
		if err != nil {
			return fmt.Errorf("saving sync key for account %d: %w", accountID, err)
		}
		return expectOne(res, "account", accountID)
	})
}

// SetSyncInterval changes how a mailbox is synced: SyncIntervalPush,
// SyncIntervalNever, or minutes between polls.
func (s *Store) SetSyncInterval(ctx context.Context, mailboxID int64, interval int) error {
	res, err := s.db.ExecContext(ctx, "UPDATE mailboxes SET sync_interval = ? WHERE id = ?", interval, mailboxID)
	if err != nil {
		return fmt.Errorf("setting sync interval of mailbox %d: %w", mailboxID, err)
	}
	return expectOne(res, "mailbox", mailboxID)
}

// ApplyMessageBatch applies one Sync round and the mailbox's new sync key
// in one transaction. Changes and deletes for unknown server ids are
// ignored.
func (s *Store) ApplyMessageBatch(ctx context.Context, batch model.MessageBatch) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var accountID int64
		err := tx.GetContext(ctx, &accountID, "SELECT account_id FROM mailboxes WHERE id = ?", batch.MailboxID)
		if err != nil {
			return notFound(err, "mailbox", batch.MailboxID)
		}

		for _, msg := range batch.Added {
			msg.AccountID = accountID
			msg.MailboxID = batch.MailboxID
			if _, err := insertMessage(ctx, tx, msg); err != nil {
				return err
			}
		}

		for _, ch := range batch.Changed {
			if ch.FlagRead == nil {
				continue
			}
			_, err := tx.ExecContext(ctx,
				"UPDATE messages SET flag_read = ? WHERE mailbox_id = ? AND server_id = ?",
				*ch.FlagRead, batch.MailboxID, ch.ServerID,
			)
			if err != nil {
				return fmt.Errorf("changing message %s: %w", ch.ServerID, err)
			}
		}

		for _, serverID := range batch.Deleted {
			_, err := tx.ExecContext(ctx,
				"DELETE FROM messages WHERE mailbox_id = ? AND server_id = ?",
				batch.MailboxID, serverID,
			)
			if err != nil {
				return fmt.Errorf("deleting message %s: %w", serverID, err)
			}
		}

		_, err = tx.ExecContext(ctx, "UPDATE mailboxes SET sync_key = ? WHERE id = ?", batch.SyncKey, batch.MailboxID)
		if err != nil {
			return fmt.Errorf("saving sync key for mailbox %d: %w", batch.MailboxID, err)
		}
		return nil
	})
}

// InvalidateMailbox drops every message and pending change of a mailbox
// and resets its sync key, after the server rejected the key.
func (s *Store) InvalidateMailbox(ctx context.Context, mailboxID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE mailbox_id = ?", mailboxID); err != nil {
			return fmt.Errorf("clearing mailbox %d: %w", mailboxID, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM pending_changes WHERE mailbox_id = ?", mailboxID); err != nil {
			return fmt.Errorf("clearing pending changes of mailbox %d: %w", mailboxID, err)
		}
		res, err := tx.ExecContext(ctx, "UPDATE mailboxes SET sync_key = ? WHERE id = ?", model.InitialSyncKey, mailboxID)
		if err != nil {
			return fmt.Errorf("resetting sync key of mailbox %d: %w", mailboxID, err)
		}
		return expectOne(res, "mailbox", mailboxID)
	})
}

// AddMessage stores a local message, such as a draft placed in the
// outbox, with its attachments, and returns its id.
func (s *Store) AddMessage(ctx context.Context, msg model.Message) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		id, err = insertMessage(ctx, tx, msg)
		return err
	})
	return id, err
}

func insertMessage(ctx context.Context, tx *sqlx.Tx, msg model.Message) (int64, error) {
	res, err := tx.NamedExecContext(ctx, `
		INSERT INTO messages
		(account_id, mailbox_id, server_id, display_name, subject, from_addr, to_addr,
		 cc_addr, reply_to, timestamp, flag_read, text, text_info, flags, reference_key, send_failed)
		VALUES (:account_id, :mailbox_id, :server_id, :display_name, :subject, :from_addr, :to_addr,
		 :cc_addr, :reply_to, :timestamp, :flag_read, :text, :text_info, :flags, :reference_key, :send_failed)
	`, msg)
	if err != nil {
		return 0, fmt.Errorf("inserting message %q: %w", msg.ServerID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, att := range msg.Attachments {
		att.MessageID = id
		if att.MimeType == "" {
			att.MimeType = "application/octet-stream"
		}
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO attachments (message_id, file_name, mime_type, size, location, content_path)
			VALUES (:message_id, :file_name, :mime_type, :size, :location, :content_path)
		`, att)
		if err != nil {
			return 0, fmt.Errorf("inserting attachment %q: %w", att.FileName, err)
		}
	}
	return id, nil
}

// MarkSendFailed flags an outbox message whose upload was refused.
func (s *Store) MarkSendFailed(ctx context.Context, messageID int64) error {
	res, err := s.db.ExecContext(ctx, "UPDATE messages SET send_failed = 1 WHERE id = ?", messageID)
	if err != nil {
		return fmt.Errorf("marking message %d send failed: %w", messageID, err)
	}
	return expectOne(res, "message", messageID)
}

// DeleteMessage removes a message and its attachments.
func (s *Store) DeleteMessage(ctx context.Context, messageID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE id = ?", messageID)
	if err != nil {
		return fmt.Errorf("deleting message %d: %w", messageID, err)
	}
	return expectOne(res, "message", messageID)
}

// MoveMessage records a server-side move: the message now lives in
// dstMailboxID under newServerID.
func (s *Store) MoveMessage(ctx context.Context, messageID, dstMailboxID int64, newServerID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE messages SET mailbox_id = ?, server_id = ? WHERE id = ?",
		dstMailboxID, newServerID, messageID,
	)
	if err != nil {
		return fmt.Errorf("moving message %d: %w", messageID, err)
	}
	return expectOne(res, "message", messageID)
}

// SaveAttachmentFile records where an attachment's content was stored.
func (s *Store) SaveAttachmentFile(ctx context.Context, attachmentID int64, path string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE attachments SET content_path = ? WHERE id = ?", path, attachmentID)
	if err != nil {
		return fmt.Errorf("saving attachment %d: %w", attachmentID, err)
	}
	return expectOne(res, "attachment", attachmentID)
}

// MarkRead changes a synced message's read flag locally and queues the
// change for the next Sync round of its mailbox.
func (s *Store) MarkRead(ctx context.Context, messageID int64, read bool) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		msg, err := messageRef(ctx, tx, messageID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE messages SET flag_read = ? WHERE id = ?", read, messageID); err != nil {
			return fmt.Errorf("marking message %d read: %w", messageID, err)
		}
		return addPendingChange(ctx, tx, model.PendingChange{
			MailboxID: msg.MailboxID,
			ServerID:  msg.ServerID,
			Kind:      model.ChangeRead,
			FlagRead:  read,
		})
	})
}

// RemoveMessage deletes a synced message locally and queues the deletion
// for the next Sync round of its mailbox.
func (s *Store) RemoveMessage(ctx context.Context, messageID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		msg, err := messageRef(ctx, tx, messageID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE id = ?", messageID); err != nil {
			return fmt.Errorf("removing message %d: %w", messageID, err)
		}
		return addPendingChange(ctx, tx, model.PendingChange{
			MailboxID: msg.MailboxID,
			ServerID:  msg.ServerID,
			Kind:      model.ChangeDelete,
		})
	})
}

// ClearPendingChanges removes uploaded changes by id. Changes queued
// after the upload began are kept.
func (s *Store) ClearPendingChanges(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In("DELETE FROM pending_changes WHERE id IN (?)", ids)
	if err != nil {
		return fmt.Errorf("building pending change delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("clearing pending changes: %w", err)
	}
	return nil
}

type messageKey struct {
	MailboxID int64  `db:"mailbox_id"`
	ServerID  string `db:"server_id"`
}

func messageRef(ctx context.Context, tx *sqlx.Tx, messageID int64) (messageKey, error) {
	var key messageKey
	err := tx.GetContext(ctx, &key, "SELECT mailbox_id, server_id FROM messages WHERE id = ?", messageID)
	if err != nil {
		return key, notFound(err, "message", messageID)
	}
	if key.ServerID == "" {
		return key, fmt.Errorf("message %d has not been synced", messageID)
	}
	return key, nil
}

func addPendingChange(ctx context.Context, tx *sqlx.Tx, c model.PendingChange) error {
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO pending_changes (mailbox_id, server_id, kind, flag_read)
		VALUES (:mailbox_id, :server_id, :kind, :flag_read)
	`, c)
	if err != nil {
		return fmt.Errorf("queueing %s change for %s: %w", c.Kind, c.ServerID, err)
	}
	return nil
}
