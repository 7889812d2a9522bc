// Package testutil provides fixtures shared by the engine, outbox and CLI
// tests: a throwaway SQLite store seeded with one account and a callback
// that records every status report.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/airsync/internal/model"
	"github.com/roach88/airsync/internal/store"
)

// NewTestStore opens a store in a temporary directory that is closed when
// the test ends.
func NewTestStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "airsync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// Fixture is a seeded account and its mailboxes keyed by server id.
type Fixture struct {
	Store     *store.Store
	AccountID int64
	Mailboxes map[string]model.Mailbox
}

// Account returns the fixture account as currently stored.
func (f *Fixture) Account(t testing.TB) *model.Account {
	t.Helper()
	a, err := f.Store.Account(context.Background(), f.AccountID)
	require.NoError(t, err)
	return a
}

// Mailbox returns the mailbox with serverID as currently stored.
func (f *Fixture) Mailbox(t testing.TB, serverID string) *model.Mailbox {
	t.Helper()
	mb, err := f.Store.MailboxByServerID(context.Background(), f.AccountID, serverID)
	require.NoError(t, err)
	return mb
}

// AddMessages stores synced messages in the mailbox with serverID and
// returns their local ids in order.
func (f *Fixture) AddMessages(t testing.TB, serverID string, msgs ...model.Message) []int64 {
	t.Helper()
	ctx := context.Background()
	mb := f.Mailbox(t, serverID)
	ids := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		m.AccountID = f.AccountID
		m.MailboxID = mb.ID
		id, err := f.Store.AddMessage(ctx, m)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

// NewFixture creates an account on host with the standard folders: inbox
// "5" (push), outbox "6", sent "7" and trash "8". The account sync key
// is "1"; every mailbox starts at the initial key.
func NewFixture(t testing.TB, host string) *Fixture {
	t.Helper()
	ctx := context.Background()
	s := NewTestStore(t)

	id, err := s.CreateAccount(ctx, model.Account{
		Host:            host,
		User:            "user@example.com",
		Email:           "user@example.com",
		DeviceID:        "androidc1234",
		DeviceType:      "Android",
		ProtocolVersion: "12.1",
		Lookback:        model.Lookback3Days,
	})
	require.NoError(t, err)

	folders := []model.Mailbox{
		{DisplayName: "Inbox", ServerID: "5", Type: model.MailboxInbox},
		{DisplayName: "Outbox", ServerID: "6", Type: model.MailboxOutbox},
		{DisplayName: "Sent Items", ServerID: "7", Type: model.MailboxSent},
		{DisplayName: "Deleted Items", ServerID: "8", Type: model.MailboxTrash},
	}
	for i := range folders {
		folders[i].SyncInterval = model.DefaultSyncInterval(folders[i].Type)
	}
	require.NoError(t, s.ApplyFolderBatch(ctx, id, model.FolderBatch{Added: folders, SyncKey: "1"}))

	f := &Fixture{Store: s, AccountID: id, Mailboxes: make(map[string]model.Mailbox)}
	all, err := s.Mailboxes(ctx, id)
	require.NoError(t, err)
	for _, mb := range all {
		f.Mailboxes[mb.ServerID] = mb
	}
	return f
}
