package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/airsync/internal/model"
)

// lookupColumns whitelists the table columns LookupField may read. Names
// are interpolated into SQL, so nothing outside this map is accepted.
var lookupColumns = map[string]map[string]bool{
	"accounts": {
		"host": true, "user_name": true, "email": true, "device_id": true,
		"protocol_version": true, "sync_key": true,
	},
	"mailboxes": {
		"account_id": true, "display_name": true, "server_id": true,
		"parent_server_id": true, "type": true, "sync_key": true,
	},
	"messages": {
		"account_id": true, "mailbox_id": true, "server_id": true,
		"subject": true, "from_addr": true, "to_addr": true,
	},
	"attachments": {
		"message_id": true, "file_name": true, "location": true, "content_path": true,
	},
}

// LookupField returns one column of one row as text. It is how the outbox
// resolves the message a reply refers to and the folder that holds it.
func (s *Store) LookupField(ctx context.Context, table string, id int64, column string) (string, error) {
	cols, ok := lookupColumns[table]
	if !ok || !cols[column] {
		return "", fmt.Errorf("lookup of %s.%s is not allowed", table, column)
	}

	var value sql.NullString
	query := fmt.Sprintf("SELECT CAST(%s AS TEXT) FROM %s WHERE id = ?", column, table)
	if err := s.db.GetContext(ctx, &value, query, id); err != nil {
		return "", notFound(err, table, id)
	}
	return value.String, nil
}

// Account returns an account by id.
func (s *Store) Account(ctx context.Context, id int64) (*model.Account, error) {
	var a model.Account
	if err := s.db.GetContext(ctx, &a, "SELECT * FROM accounts WHERE id = ?", id); err != nil {
		return nil, notFound(err, "account", id)
	}
	return &a, nil
}

// AccountByLogin returns the account for user on host.
func (s *Store) AccountByLogin(ctx context.Context, host, user string) (*model.Account, error) {
	var a model.Account
	err := s.db.GetContext(ctx, &a, "SELECT * FROM accounts WHERE host = ? AND user_name = ?", host, user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %s on %s: %w", user, host, ErrNotFound)
		}
		return nil, fmt.Errorf("getting account %s on %s: %w", user, host, err)
	}
	return &a, nil
}

// Accounts returns every account ordered by id.
func (s *Store) Accounts(ctx context.Context) ([]model.Account, error) {
	var out []model.Account
	if err := s.db.SelectContext(ctx, &out, "SELECT * FROM accounts ORDER BY id"); err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	return out, nil
}

// Mailboxes returns the mailboxes of an account ordered by id.
func (s *Store) Mailboxes(ctx context.Context, accountID int64) ([]model.Mailbox, error) {
	var out []model.Mailbox
	err := s.db.SelectContext(ctx, &out, "SELECT * FROM mailboxes WHERE account_id = ? ORDER BY id", accountID)
	if err != nil {
		return nil, fmt.Errorf("querying mailboxes of account %d: %w", accountID, err)
	}
	return out, nil
}

// Mailbox returns a mailbox by id.
func (s *Store) Mailbox(ctx context.Context, id int64) (*model.Mailbox, error) {
	var mb model.Mailbox
	if err := s.db.GetContext(ctx, &mb, "SELECT * FROM mailboxes WHERE id = ?", id); err != nil {
		return nil, notFound(err, "mailbox", id)
	}
	return &mb, nil
}

// MailboxByServerID returns the mailbox an account knows as serverID.
func (s *Store) MailboxByServerID(ctx context.Context, accountID int64, serverID string) (*model.Mailbox, error) {
	var mb model.Mailbox
	err := s.db.GetContext(ctx, &mb,
		"SELECT * FROM mailboxes WHERE account_id = ? AND server_id = ?", accountID, serverID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("mailbox %q: %w", serverID, ErrNotFound)
		}
		return nil, fmt.Errorf("getting mailbox %q: %w", serverID, err)
	}
	return &mb, nil
}

// MailboxByType returns the first mailbox of an account with the given
// role, such as the outbox.
func (s *Store) MailboxByType(ctx context.Context, accountID int64, t model.MailboxType) (*model.Mailbox, error) {
	var mb model.Mailbox
	err := s.db.GetContext(ctx, &mb,
		"SELECT * FROM mailboxes WHERE account_id = ? AND type = ? ORDER BY id LIMIT 1", accountID, t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s mailbox: %w", t, ErrNotFound)
		}
		return nil, fmt.Errorf("getting %s mailbox: %w", t, err)
	}
	return &mb, nil
}

// Message returns a message by id with its attachments.
func (s *Store) Message(ctx context.Context, id int64) (*model.Message, error) {
	var msg model.Message
	if err := s.db.GetContext(ctx, &msg, "SELECT * FROM messages WHERE id = ?", id); err != nil {
		return nil, notFound(err, "message", id)
	}
	atts, err := s.Attachments(ctx, id)
	if err != nil {
		return nil, err
	}
	msg.Attachments = atts
	return &msg, nil
}

// Messages returns the messages of a mailbox, newest first. Attachments
// are not loaded.
func (s *Store) Messages(ctx context.Context, mailboxID int64) ([]model.Message, error) {
	var out []model.Message
	err := s.db.SelectContext(ctx, &out,
		"SELECT * FROM messages WHERE mailbox_id = ? ORDER BY timestamp DESC, id DESC", mailboxID)
	if err != nil {
		return nil, fmt.Errorf("querying messages of mailbox %d: %w", mailboxID, err)
	}
	return out, nil
}

// OutboxMessages returns the messages waiting in an account's outbox that
// have not failed, oldest first, with their attachments.
func (s *Store) OutboxMessages(ctx context.Context, accountID int64) ([]model.Message, error) {
	var out []model.Message
	err := s.db.SelectContext(ctx, &out, `
		SELECT m.* FROM messages m
		JOIN mailboxes b ON b.id = m.mailbox_id
		WHERE m.account_id = ? AND b.type = ? AND m.send_failed = 0
		ORDER BY m.id
	`, accountID, model.MailboxOutbox)
	if err != nil {
		return nil, fmt.Errorf("querying outbox of account %d: %w", accountID, err)
	}
	for i := range out {
		atts, err := s.Attachments(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Attachments = atts
	}
	return out, nil
}

// Attachments returns the attachments of a message ordered by id.
func (s *Store) Attachments(ctx context.Context, messageID int64) ([]model.Attachment, error) {
	var out []model.Attachment
	err := s.db.SelectContext(ctx, &out, "SELECT * FROM attachments WHERE message_id = ? ORDER BY id", messageID)
	if err != nil {
		return nil, fmt.Errorf("querying attachments of message %d: %w", messageID, err)
	}
	return out, nil
}

// Attachment returns an attachment by id.
func (s *Store) Attachment(ctx context.Context, id int64) (*model.Attachment, error) {
	var att model.Attachment
	if err := s.db.GetContext(ctx, &att, "SELECT * FROM attachments WHERE id = ?", id); err != nil {
		return nil, notFound(err, "attachment", id)
	}
	return &att, nil
}

// PendingChanges returns the queued local edits of a mailbox in the
// order they were made.
func (s *Store) PendingChanges(ctx context.Context, mailboxID int64) ([]model.PendingChange, error) {
	var out []model.PendingChange
	err := s.db.SelectContext(ctx, &out, "SELECT * FROM pending_changes WHERE mailbox_id = ? ORDER BY id", mailboxID)
	if err != nil {
		return nil, fmt.Errorf("querying pending changes of mailbox %d: %w", mailboxID, err)
	}
	return out, nil
}

func notFound(err error, what string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("getting %s %d: %w", what, id, err)
}

func expectOne(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}
