package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/airsync/internal/model"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testAccount() model.Account {
	return model.Account{
		Host:            "mail.example.com",
		UseSSL:          true,
		User:            "alice",
		Email:           "alice@example.com",
		DeviceID:        "androidc1234",
		DeviceType:      "Android",
		ProtocolVersion: "2.5",
		Lookback:        model.Lookback1Week,
	}
}

// seedAccount creates an account with an inbox (server id 5), an outbox
// (server id 6) and a sent folder (server id 7).
func seedAccount(t *testing.T, s *Store) (accountID int64, mailboxes map[string]model.Mailbox) {
	t.Helper()
	ctx := context.Background()

	accountID, err := s.CreateAccount(ctx, testAccount())
	require.NoError(t, err)

	err = s.ApplyFolderBatch(ctx, accountID, model.FolderBatch{
		Added: []model.Mailbox{
			{DisplayName: "Inbox", ServerID: "5", Type: model.MailboxInbox, SyncInterval: model.SyncIntervalPush},
			{DisplayName: "Outbox", ServerID: "6", Type: model.MailboxOutbox, SyncInterval: model.SyncIntervalNever},
			{DisplayName: "Sent Items", ServerID: "7", Type: model.MailboxSent, SyncInterval: model.SyncIntervalNever},
		},
		SyncKey: "1",
	})
	require.NoError(t, err)

	mailboxes = make(map[string]model.Mailbox)
	all, err := s.Mailboxes(ctx, accountID)
	require.NoError(t, err)
	for _, mb := range all {
		mailboxes[mb.ServerID] = mb
	}
	return accountID, mailboxes
}

func boolPtr(b bool) *bool { return &b }
