package store

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/airsync/internal/model"
)

func syncedMessage(serverID, subject string, ts int64) model.Message {
	return model.Message{
		ServerID:  serverID,
		Subject:   subject,
		From:      "bob@example.com",
		To:        "alice@example.com",
		TimeStamp: ts,
		Text:      "hello",
		TextInfo:  model.InlineTextInfo(5),
	}
}

func TestApplyMessageBatch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	accountID, boxes := seedAccount(t, s)
	inbox := boxes["5"]

	first := syncedMessage("5:1", "first", 1000)
	first.Attachments = []model.Attachment{{FileName: "report.pdf", Size: 2048, Location: "5:1:0"}}
	err := s.ApplyMessageBatch(ctx, model.MessageBatch{
		MailboxID: inbox.ID,
		Added:     []model.Message{first, syncedMessage("5:2", "second", 2000)},
		SyncKey:   "10",
	})
	require.NoError(t, err)

	msgs, err := s.Messages(ctx, inbox.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "second", msgs[0].Subject, "newest first")
	assert.Equal(t, accountID, msgs[1].AccountID)
	assert.Equal(t, model.InlineTextInfo(5), msgs[1].TextInfo)

	full, err := s.Message(ctx, msgs[1].ID)
	require.NoError(t, err)
	require.Len(t, full.Attachments, 1)
	assert.Equal(t, "application/octet-stream", full.Attachments[0].MimeType)
	assert.Equal(t, "5:1:0", full.Attachments[0].Location)

	err = s.ApplyMessageBatch(ctx, model.MessageBatch{
		MailboxID: inbox.ID,
		Changed: []model.MessageChange{
			{ServerID: "5:1", FlagRead: boolPtr(true)},
			{ServerID: "5:2"},
			{ServerID: "5:99", FlagRead: boolPtr(true)},
		},
		Deleted: []string{"5:2", "5:77"},
		SyncKey: "11",
	})
	require.NoError(t, err)

	msgs, err = s.Messages(ctx, inbox.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "5:1", msgs[0].ServerID)
	assert.True(t, msgs[0].FlagRead)

	mb, err := s.Mailbox(ctx, inbox.ID)
	require.NoError(t, err)
	assert.Equal(t, "11", mb.SyncKey)
}

func TestApplyMessageBatch_UnknownMailbox(t *testing.T) {
	s := createTestStore(t)
	err := s.ApplyMessageBatch(context.Background(), model.MessageBatch{MailboxID: 404, SyncKey: "1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvalidateMailbox(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, boxes := seedAccount(t, s)
	inbox := boxes["5"]

	require.NoError(t, s.ApplyMessageBatch(ctx, model.MessageBatch{
		MailboxID: inbox.ID,
		Added:     []model.Message{syncedMessage("5:1", "a", 1), syncedMessage("5:2", "b", 2)},
		SyncKey:   "4",
	}))
	msgs, err := s.Messages(ctx, inbox.ID)
	require.NoError(t, err)
	require.NoError(t, s.MarkRead(ctx, msgs[0].ID, true))

	require.NoError(t, s.InvalidateMailbox(ctx, inbox.ID))

	msgs, err = s.Messages(ctx, inbox.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	pending, err := s.PendingChanges(ctx, inbox.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
	mb, err := s.Mailbox(ctx, inbox.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InitialSyncKey, mb.SyncKey)

	var attachments int
	require.NoError(t, s.db.Get(&attachments, "SELECT COUNT(*) FROM attachments"))
	assert.Zero(t, attachments)

	assert.ErrorIs(t, s.InvalidateMailbox(ctx, 404), ErrNotFound)
}

func TestDeletingMailboxCascades(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	accountID, boxes := seedAccount(t, s)

	require.NoError(t, s.ApplyMessageBatch(ctx, model.MessageBatch{
		MailboxID: boxes["7"].ID,
		Added:     []model.Message{syncedMessage("7:1", "sent", 1)},
		SyncKey:   "2",
	}))
	require.NoError(t, s.ApplyFolderBatch(ctx, accountID, model.FolderBatch{Deleted: []string{"7"}, SyncKey: "3"}))

	var count int
	require.NoError(t, s.db.Get(&count, "SELECT COUNT(*) FROM messages"))
	assert.Zero(t, count)
}

func TestPendingChanges(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, boxes := seedAccount(t, s)
	inbox := boxes["5"]

	require.NoError(t, s.ApplyMessageBatch(ctx, model.MessageBatch{
		MailboxID: inbox.ID,
		Added:     []model.Message{syncedMessage("5:1", "a", 1), syncedMessage("5:2", "b", 2)},
		SyncKey:   "1",
	}))
	msgs, err := s.Messages(ctx, inbox.ID)
	require.NoError(t, err)
	byServer := map[string]int64{}
	for _, m := range msgs {
		byServer[m.ServerID] = m.ID
	}

	require.NoError(t, s.MarkRead(ctx, byServer["5:1"], true))
	require.NoError(t, s.RemoveMessage(ctx, byServer["5:2"]))

	pending, err := s.PendingChanges(ctx, inbox.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, model.ChangeRead, pending[0].Kind)
	assert.Equal(t, "5:1", pending[0].ServerID)
	assert.True(t, pending[0].FlagRead)
	assert.Equal(t, model.ChangeDelete, pending[1].Kind)
	assert.Equal(t, "5:2", pending[1].ServerID)

	read, err := s.Message(ctx, byServer["5:1"])
	require.NoError(t, err)
	assert.True(t, read.FlagRead)
	_, err = s.Message(ctx, byServer["5:2"])
	assert.ErrorIs(t, err, ErrNotFound)

	// A change queued after the upload started survives the clear.
	require.NoError(t, s.MarkRead(ctx, byServer["5:1"], false))
	require.NoError(t, s.ClearPendingChanges(ctx, []int64{pending[0].ID, pending[1].ID}))

	pending, err = s.PendingChanges(ctx, inbox.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.False(t, pending[0].FlagRead)

	assert.NoError(t, s.ClearPendingChanges(ctx, nil))
}

func TestPendingChanges_RequireServerID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	accountID, boxes := seedAccount(t, s)

	id, err := s.AddMessage(ctx, model.Message{AccountID: accountID, MailboxID: boxes["6"].ID, Subject: "draft"})
	require.NoError(t, err)

	err = s.MarkRead(ctx, id, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has not been synced")

	assert.ErrorIs(t, s.RemoveMessage(ctx, 404), ErrNotFound)
}

func TestOutboxMessages(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	accountID, boxes := seedAccount(t, s)
	outbox := boxes["6"]

	first, err := s.AddMessage(ctx, model.Message{
		AccountID: accountID, MailboxID: outbox.ID, Subject: "first", To: "bob@example.com",
		Attachments: []model.Attachment{{FileName: "a.txt", MimeType: "text/plain", ContentPath: "/tmp/a.txt"}},
	})
	require.NoError(t, err)
	second, err := s.AddMessage(ctx, model.Message{AccountID: accountID, MailboxID: outbox.ID, Subject: "second"})
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, model.Message{AccountID: accountID, MailboxID: boxes["5"].ID, Subject: "not outgoing"})
	require.NoError(t, err)

	require.NoError(t, s.MarkSendFailed(ctx, second))

	out, err := s.OutboxMessages(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, first, out[0].ID)
	require.Len(t, out[0].Attachments, 1)
	assert.Equal(t, "text/plain", out[0].Attachments[0].MimeType)

	require.NoError(t, s.DeleteMessage(ctx, first))
	out, err = s.OutboxMessages(ctx, accountID)
	require.NoError(t, err)
	assert.Empty(t, out)

	assert.ErrorIs(t, s.DeleteMessage(ctx, first), ErrNotFound)
	assert.ErrorIs(t, s.MarkSendFailed(ctx, 404), ErrNotFound)
}

func TestMoveMessage(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, boxes := seedAccount(t, s)

	require.NoError(t, s.ApplyMessageBatch(ctx, model.MessageBatch{
		MailboxID: boxes["5"].ID,
		Added:     []model.Message{syncedMessage("5:1", "a", 1)},
		SyncKey:   "1",
	}))
	msgs, err := s.Messages(ctx, boxes["5"].ID)
	require.NoError(t, err)

	require.NoError(t, s.MoveMessage(ctx, msgs[0].ID, boxes["7"].ID, "7:40"))

	moved, err := s.Message(ctx, msgs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, boxes["7"].ID, moved.MailboxID)
	assert.Equal(t, "7:40", moved.ServerID)

	assert.ErrorIs(t, s.MoveMessage(ctx, 404, boxes["7"].ID, "x"), ErrNotFound)
}

func TestSaveAttachmentFile(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, boxes := seedAccount(t, s)

	msg := syncedMessage("5:1", "a", 1)
	msg.Attachments = []model.Attachment{{FileName: "big.bin", Size: 32768, Location: "5:1:0"}}
	require.NoError(t, s.ApplyMessageBatch(ctx, model.MessageBatch{
		MailboxID: boxes["5"].ID, Added: []model.Message{msg}, SyncKey: "1",
	}))
	msgs, err := s.Messages(ctx, boxes["5"].ID)
	require.NoError(t, err)
	atts, err := s.Attachments(ctx, msgs[0].ID)
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Empty(t, atts[0].ContentPath)

	require.NoError(t, s.SaveAttachmentFile(ctx, atts[0].ID, "/data/att/1"))
	att, err := s.Attachment(ctx, atts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "/data/att/1", att.ContentPath)

	_, err = s.Attachment(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.SaveAttachmentFile(ctx, 404, "x"), ErrNotFound)
}

func TestLookupField(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	accountID, boxes := seedAccount(t, s)

	require.NoError(t, s.ApplyMessageBatch(ctx, model.MessageBatch{
		MailboxID: boxes["5"].ID,
		Added:     []model.Message{syncedMessage("5:1", "a", 1)},
		SyncKey:   "1",
	}))
	msgs, err := s.Messages(ctx, boxes["5"].ID)
	require.NoError(t, err)
	msgID := msgs[0].ID

	serverID, err := s.LookupField(ctx, "messages", msgID, "server_id")
	require.NoError(t, err)
	assert.Equal(t, "5:1", serverID)

	mailboxID, err := s.LookupField(ctx, "messages", msgID, "mailbox_id")
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(boxes["5"].ID, 10), mailboxID)

	host, err := s.LookupField(ctx, "accounts", accountID, "host")
	require.NoError(t, err)
	assert.Equal(t, "mail.example.com", host)

	_, err = s.LookupField(ctx, "messages", msgID+100, "server_id")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, tc := range []struct{ table, column string }{
		{"messages", "text"},
		{"pending_changes", "server_id"},
		{"messages; DROP TABLE messages", "id"},
		{"messages", "server_id FROM messages --"},
	} {
		_, err := s.LookupField(ctx, tc.table, msgID, tc.column)
		assert.Error(t, err, "%s.%s", tc.table, tc.column)
		assert.NotErrorIs(t, err, ErrNotFound)
	}
}
