package outbox

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/airsync/internal/model"
)

func TestWriteMessage_WithAttachment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("attached notes"), 0o600))

	msg := &model.Message{
		Subject:   "minutes",
		To:        "bob@example.com, Carol <carol@example.com>",
		Cc:        "dave@example.com",
		Text:      "see attached",
		TimeStamp: time.Date(2009, 7, 15, 10, 0, 0, 0, time.UTC).UnixMilli(),
		Attachments: []model.Attachment{
			{FileName: "notes.txt", ContentPath: path},
			{FileName: "remote.pdf", Location: "5:1:0"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, "user@example.com", msg, time.Now()))

	mr, err := mail.CreateReader(&buf)
	require.NoError(t, err)

	to, err := mr.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 2)
	assert.Equal(t, "Carol", to[1].Name)
	cc, err := mr.Header.AddressList("Cc")
	require.NoError(t, err)
	require.Len(t, cc, 1)

	date, err := mr.Header.Date()
	require.NoError(t, err)
	assert.True(t, date.Equal(time.UnixMilli(msg.TimeStamp)))

	var texts, files []string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(p.Body)
		require.NoError(t, err)

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			texts = append(texts, string(body))
		case *mail.AttachmentHeader:
			name, err := h.Filename()
			require.NoError(t, err)
			files = append(files, name+"="+string(body))
		}
	}
	assert.Equal(t, []string{"see attached"}, texts)
	// Attachments without local content are left out.
	assert.Equal(t, []string{"notes.txt=attached notes"}, files)
}

func TestWriteMessage_BadAddress(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMessage(&buf, "user@example.com", &model.Message{To: "not an address <"}, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing To")
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestMessageID(t *testing.T) {
	assert.Contains(t, messageID("user@example.com"), "@example.com")
	assert.Contains(t, messageID("nobody"), "@airsync.local")
	assert.NotEqual(t, messageID("a@b.c"), messageID("a@b.c"))
}
