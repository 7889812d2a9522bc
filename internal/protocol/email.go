package protocol

import (
	"mime"
	"path/filepath"

	"github.com/emersion/go-message/mail"

	"github.com/roach88/airsync/internal/model"
	"github.com/roach88/airsync/internal/tags"
	"github.com/roach88/airsync/internal/wbxml"
)

// parseEmailData fills msg from an Email ApplicationData element.
func parseEmailData(d *wbxml.Decoder, msg *model.Message) error {
	for {
		tag, ok, err := d.NextTag(tags.SyncApplicationData)
		if err != nil || !ok {
			return err
		}
		switch tag {
		case tags.EmailTo:
			msg.To, err = d.ValueString()
		case tags.EmailCc:
			msg.Cc, err = d.ValueString()
		case tags.EmailFrom:
			if msg.From, err = d.ValueString(); err == nil {
				msg.DisplayName = displayName(msg.From)
			}
		case tags.EmailReplyTo:
			msg.ReplyTo, err = d.ValueString()
		case tags.EmailSubject:
			msg.Subject, err = d.ValueString()
		case tags.EmailDateReceived:
			var s string
			if s, err = d.ValueString(); err == nil {
				msg.TimeStamp, err = parseDate(s)
			}
		case tags.EmailRead:
			var n int
			if n, err = d.ValueInt(); err == nil {
				msg.FlagRead = n == 1
			}
		case tags.EmailBody:
			if msg.Text, err = d.ValueString(); err == nil {
				msg.TextInfo = model.InlineTextInfo(int64(len(msg.Text)))
			}
		case tags.EmailAttachments:
			msg.Attachments, err = parseAttachments(d)
		default:
			// DisplayTo, Importance, MessageClass, ThreadTopic, flags and
			// calendar fields are not kept.
			err = d.Skip()
		}
		if err != nil {
			return err
		}
	}
}

// displayName returns the sender's name, or the address when there is
// none. Unparseable values are shown as given.
func displayName(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return from
	}
	if addr.Name != "" {
		return addr.Name
	}
	return addr.Address
}

func parseAttachments(d *wbxml.Decoder) ([]model.Attachment, error) {
	var atts []model.Attachment
	for {
		tag, ok, err := d.NextTag(tags.EmailAttachments)
		if err != nil || !ok {
			return atts, err
		}
		if tag != tags.EmailAttachment {
			if err := d.Skip(); err != nil {
				return nil, err
			}
			continue
		}
		att, complete, err := parseAttachment(d)
		if err != nil {
			return nil, err
		}
		if complete {
			atts = append(atts, att)
		}
	}
}

// parseAttachment reads one Attachment. DisplayName is the file name and
// AttName the server's file reference. complete is false unless both and
// the size were present.
func parseAttachment(d *wbxml.Decoder) (att model.Attachment, complete bool, err error) {
	var haveName, haveSize, haveLocation bool
	for {
		tag, ok, err := d.NextTag(tags.EmailAttachment)
		if err != nil {
			return att, false, err
		}
		if !ok {
			break
		}
		switch tag {
		case tags.EmailDisplayName:
			att.FileName, err = d.ValueString()
			haveName = true
		case tags.EmailAttSize:
			var n int
			if n, err = d.ValueInt(); err == nil {
				att.Size = int64(n)
			}
			haveSize = true
		case tags.EmailAttName:
			att.Location, err = d.ValueString()
			haveLocation = true
		default:
			err = d.Skip()
		}
		if err != nil {
			return att, false, err
		}
	}
	if !haveName || !haveSize || !haveLocation {
		return att, false, nil
	}
	att.MimeType = mimeTypeFor(att.FileName)
	return att, true, nil
}

func mimeTypeFor(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
