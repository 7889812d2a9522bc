package model

// MailboxType is the local role of a synced folder.
type MailboxType int

const (
	MailboxInbox MailboxType = iota
	MailboxMail
	MailboxDrafts
	MailboxOutbox
	MailboxSent
	MailboxTrash
	MailboxCalendar
	MailboxContacts
	MailboxTasks
)

var mailboxTypeNames = [...]string{
	MailboxInbox:    "inbox",
	MailboxMail:     "mail",
	MailboxDrafts:   "drafts",
	MailboxOutbox:   "outbox",
	MailboxSent:     "sent",
	MailboxTrash:    "trash",
	MailboxCalendar: "calendar",
	MailboxContacts: "contacts",
	MailboxTasks:    "tasks",
}

func (t MailboxType) String() string {
	if t >= 0 && int(t) < len(mailboxTypeNames) {
		return mailboxTypeNames[t]
	}
	return "unknown"
}

// ParseMailboxType resolves a role name such as "trash" or "sent".
func ParseMailboxType(name string) (MailboxType, bool) {
	for t, n := range mailboxTypeNames {
		if n == name {
			return MailboxType(t), true
		}
	}
	return 0, false
}

// Class returns the AirSync collection class for mailboxes of this type.
func (t MailboxType) Class() string {
	switch t {
	case MailboxCalendar:
		return "Calendar"
	case MailboxContacts:
		return "Contacts"
	case MailboxTasks:
		return "Tasks"
	default:
		return "Email"
	}
}

// Sync interval markers stored on a mailbox.
const (
	SyncIntervalPush  = -2
	SyncIntervalNever = -1
)

// EAS FolderHierarchy Type values this client keeps.
const (
	FolderTypeInbox    = 2
	FolderTypeDrafts   = 3
	FolderTypeTrash    = 4
	FolderTypeSent     = 5
	FolderTypeOutbox   = 6
	FolderTypeTasks    = 7
	FolderTypeCalendar = 8
	FolderTypeContacts = 9
	FolderTypeUserMail = 12
)

// MailboxTypeForFolder maps an EAS folder type to a local role. Folder
// types outside the recognized set report false and are not synced.
func MailboxTypeForFolder(folderType int) (MailboxType, bool) {
	switch folderType {
	case FolderTypeInbox:
		return MailboxInbox, true
	case FolderTypeDrafts:
		return MailboxDrafts, true
	case FolderTypeTrash:
		return MailboxTrash, true
	case FolderTypeSent:
		return MailboxSent, true
	case FolderTypeOutbox:
		return MailboxOutbox, true
	case FolderTypeTasks:
		return MailboxTasks, true
	case FolderTypeCalendar:
		return MailboxCalendar, true
	case FolderTypeContacts:
		return MailboxContacts, true
	case FolderTypeUserMail:
		return MailboxMail, true
	default:
		return 0, false
	}
}

// DefaultSyncInterval returns the interval a newly discovered mailbox of
// type t starts with: push for inbox, calendar and contacts.
func DefaultSyncInterval(t MailboxType) int {
	switch t {
	case MailboxInbox, MailboxCalendar, MailboxContacts:
		return SyncIntervalPush
	default:
		return SyncIntervalNever
	}
}

// Mailbox is a folder on the server mirrored locally.
type Mailbox struct {
	ID             int64       `json:"id" db:"id"`
	AccountID      int64       `json:"account_id" db:"account_id"`
	DisplayName    string      `json:"display_name" db:"display_name"`
	ServerID       string      `json:"server_id" db:"server_id"`
	ParentServerID string      `json:"parent_server_id,omitempty" db:"parent_server_id"`
	Type           MailboxType `json:"type" db:"type"`
	SyncKey        string      `json:"sync_key" db:"sync_key"`
	SyncInterval   int         `json:"sync_interval" db:"sync_interval"`
}

// IsPush reports whether the mailbox is synced by push.
func (m Mailbox) IsPush() bool {
	return m.SyncInterval == SyncIntervalPush
}

// FolderBatch is one FolderSync response applied as a unit: adds, deletes
// and renames plus the new account sync key.
type FolderBatch struct {
	Added   []Mailbox
	Deleted []string
	Updated []Mailbox
	SyncKey string
}
