package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/airsync/internal/model"
)

// Report is one status callback.
type Report struct {
	Kind     string // "mailbox", "send" or "attachment"
	ID       int64
	Status   model.Status
	Progress int
}

func (r Report) String() string {
	return fmt.Sprintf("%s %d %s %d", r.Kind, r.ID, r.Status, r.Progress)
}

// RecordingCallback is a model.Callback that keeps every report in order.
// It is safe for concurrent use.
type RecordingCallback struct {
	mu      sync.Mutex
	reports []Report
}

var _ model.Callback = (*RecordingCallback)(nil)

func (c *RecordingCallback) SyncMailboxStatus(mailboxID int64, status model.Status, progress int) {
	c.add(Report{Kind: "mailbox", ID: mailboxID, Status: status, Progress: progress})
}

func (c *RecordingCallback) SendMessageStatus(messageID int64, _ string, status model.Status, progress int) {
	c.add(Report{Kind: "send", ID: messageID, Status: status, Progress: progress})
}

func (c *RecordingCallback) LoadAttachmentStatus(_, attachmentID int64, status model.Status, progress int) {
	c.add(Report{Kind: "attachment", ID: attachmentID, Status: status, Progress: progress})
}

func (c *RecordingCallback) add(r Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, r)
}

// Reports returns a copy of the reports so far, optionally only those of
// one kind.
func (c *RecordingCallback) Reports(kind string) []Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Report
	for _, r := range c.reports {
		if kind == "" || r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Strings renders Reports(kind) one per element, for compact assertions.
func (c *RecordingCallback) Strings(kind string) []string {
	reports := c.Reports(kind)
	out := make([]string, len(reports))
	for i, r := range reports {
		out[i] = r.String()
	}
	return out
}

// Last returns the most recent report of kind, or false.
func (c *RecordingCallback) Last(kind string) (Report, bool) {
	reports := c.Reports(kind)
	if len(reports) == 0 {
		return Report{}, false
	}
	return reports[len(reports)-1], true
}
