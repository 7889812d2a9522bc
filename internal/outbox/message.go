package outbox

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"github.com/roach88/airsync/internal/model"
)

// ErrInvalidMessage marks a message whose headers cannot be written.
// Sending it again cannot succeed.
var ErrInvalidMessage = errors.New("invalid message")

// WriteMessage serializes msg as an RFC 822 message sent from the given
// address. The text becomes a UTF-8 text/plain part; attachments that
// have local content are added after it.
func WriteMessage(w io.Writer, from string, msg *model.Message, now time.Time) error {
	var h mail.Header
	date := now
	if msg.TimeStamp > 0 {
		date = time.UnixMilli(msg.TimeStamp)
	}
	h.SetDate(date)
	h.SetSubject(msg.Subject)
	h.SetMessageID(messageID(from))

	if err := setAddresses(&h, "From", from); err != nil {
		return err
	}
	for _, f := range []struct{ key, value string }{
		{"To", msg.To},
		{"Cc", msg.Cc},
		{"Reply-To", msg.ReplyTo},
	} {
		if err := setAddresses(&h, f.key, f.value); err != nil {
			return err
		}
	}

	attachments := withContent(msg.Attachments)
	if len(attachments) == 0 {
		h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		body, err := mail.CreateSingleInlineWriter(w, h)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(body, msg.Text); err != nil {
			return err
		}
		return body.Close()
	}

	mw, err := mail.CreateWriter(w, h)
	if err != nil {
		return err
	}
	tw, err := mw.CreateInline()
	if err != nil {
		return err
	}
	var text mail.InlineHeader
	text.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	part, err := tw.CreatePart(text)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(part, msg.Text); err != nil {
		return err
	}
	if err := part.Close(); err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}

	for _, att := range attachments {
		if err := writeAttachment(mw, att); err != nil {
			return err
		}
	}
	return mw.Close()
}

func writeAttachment(mw *mail.Writer, att model.Attachment) error {
	f, err := os.Open(att.ContentPath)
	if err != nil {
		return fmt.Errorf("opening attachment %q: %w", att.FileName, err)
	}
	defer f.Close()

	var ah mail.AttachmentHeader
	ct := att.MimeType
	if ct == "" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(att.FileName)))
	}
	if ct == "" {
		ct = "application/octet-stream"
	}
	ah.SetContentType(ct, nil)
	ah.SetFilename(att.FileName)

	w, err := mw.CreateAttachment(ah)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("writing attachment %q: %w", att.FileName, err)
	}
	return w.Close()
}

func setAddresses(h *mail.Header, key, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	addrs, err := mail.ParseAddressList(value)
	if err != nil {
		return fmt.Errorf("%w: parsing %s %q: %w", ErrInvalidMessage, key, value, err)
	}
	h.SetAddressList(key, addrs)
	return nil
}

// withContent keeps the attachments whose content is on disk.
func withContent(atts []model.Attachment) []model.Attachment {
	var out []model.Attachment
	for _, a := range atts {
		if a.ContentPath != "" {
			out = append(out, a)
		}
	}
	return out
}

func messageID(from string) string {
	domain := "airsync.local"
	if i := strings.LastIndexByte(from, '@'); i >= 0 && i < len(from)-1 {
		domain = strings.Trim(from[i+1:], "<> ")
	}
	return uuid.NewString() + "@" + domain
}
