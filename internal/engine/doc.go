// Package engine drives one Exchange ActiveSync account.
//
// An Engine owns the account's protocol state machine: it negotiates the
// protocol version once, keeps the folder hierarchy current with
// FolderSync, and brings each mailbox up to date with Sync rounds until
// the server has nothing more to send. All of it runs on the goroutine
// that calls Run.
//
// ARCHITECTURE:
//
// Run Loop:
// Each pass of the loop
// 1. downloads queued attachments (PartRequestQueue),
// 2. syncs the push mailboxes that changed (all of them on the first pass),
// 3. hands the outbox to the sender, if one is configured,
// 4. parks on the Gate while a PingScheduler long-polls the server.
//
// The ping goroutine is the only other goroutine touching the engine. It
// shares nothing with the loop except the Gate and the stop flag, and it
// exists only while the loop is parked.
//
// Sync keys:
// A mailbox starts at key "0". The first round only asks for a key; later
// rounds ask for changes. When the server rejects a key (Sync status 3)
// the mailbox's local contents are invalidated and syncing restarts from
// "0" at once. Every round's changes and its new key are applied to the
// Store as one batch, so a crash never leaves a key that does not match
// the stored messages.
//
// Errors:
// The engine never retries. Failures are classified with easerr, reported
// through the model.Callback, and returned to the caller, which owns the
// retry policy.
package engine
