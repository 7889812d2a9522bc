package model

// Message flags describing how an outgoing message relates to another.
const (
	FlagReply   = 1 << 0
	FlagForward = 1 << 1
)

// Message is an email header and body as stored locally.
type Message struct {
	ID          int64  `json:"id" db:"id"`
	AccountID   int64  `json:"account_id" db:"account_id"`
	MailboxID   int64  `json:"mailbox_id" db:"mailbox_id"`
	ServerID    string `json:"server_id" db:"server_id"`
	DisplayName string `json:"display_name" db:"display_name"`
	Subject     string `json:"subject" db:"subject"`
	From        string `json:"from" db:"from_addr"`
	To          string `json:"to" db:"to_addr"`
	Cc          string `json:"cc" db:"cc_addr"`
	ReplyTo     string `json:"reply_to" db:"reply_to"`

	// TimeStamp is the received date in milliseconds since the epoch.
	TimeStamp int64    `json:"timestamp" db:"timestamp"`
	FlagRead  bool     `json:"read" db:"flag_read"`
	Text      string   `json:"text" db:"text"`
	TextInfo  TextInfo `json:"text_info" db:"text_info"`

	// Flags holds FlagReply or FlagForward for outgoing messages, and
	// ReferenceKey the local id of the message replied to or forwarded.
	Flags        int   `json:"flags" db:"flags"`
	ReferenceKey int64 `json:"reference_key" db:"reference_key"`
	SendFailed   bool  `json:"send_failed" db:"send_failed"`

	Attachments []Attachment `json:"attachments,omitempty" db:"-"`
}

// Attachment describes one part of a message. Location is the server's
// file reference used to download it; ContentPath is set once the
// content has been stored locally.
type Attachment struct {
	ID          int64  `json:"id" db:"id"`
	MessageID   int64  `json:"message_id" db:"message_id"`
	FileName    string `json:"file_name" db:"file_name"`
	MimeType    string `json:"mime_type" db:"mime_type"`
	Size        int64  `json:"size" db:"size"`
	Location    string `json:"location" db:"location"`
	ContentPath string `json:"content_path,omitempty" db:"content_path"`
}

// MessageChange is a server-side change to a message already stored.
// A nil FlagRead leaves the read state as it is.
type MessageChange struct {
	ServerID string
	FlagRead *bool
}

// MessageBatch is one Sync round applied as a unit together with the new
// collection sync key.
type MessageBatch struct {
	MailboxID int64
	Added     []Message
	Changed   []MessageChange
	Deleted   []string
	SyncKey   string
}

// ChangeKind identifies a local change waiting to be uploaded.
type ChangeKind string

const (
	ChangeRead   ChangeKind = "read"
	ChangeDelete ChangeKind = "delete"
)

// PendingChange is a local edit to a synced message that the next Sync
// round sends to the server.
type PendingChange struct {
	ID        int64      `db:"id"`
	MailboxID int64      `db:"mailbox_id"`
	ServerID  string     `db:"server_id"`
	Kind      ChangeKind `db:"kind"`
	FlagRead  bool       `db:"flag_read"`
}
