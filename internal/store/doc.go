// Package store provides the SQLite-backed local mirror used by the sync
// engine and the outbox.
//
// Tables:
//   - accounts: login, device identity and the FolderSync key
//   - mailboxes: one row per server folder, with its Sync key
//   - messages and attachments: headers, inline text, attachment locations
//   - pending_changes: local read-flag edits and deletions to upload
//
// Each FolderSync or Sync round is applied in one transaction together
// with its new sync key, so a crash never leaves a key that does not
// match the stored contents.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Mailbox and message deletes cascade
package store
