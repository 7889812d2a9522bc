package cli

import (
	"fmt"
	"sync"

	"github.com/roach88/airsync/internal/model"
)

// statusEvent is one status report as printed by the CLI.
type statusEvent struct {
	Kind     string `json:"kind"`
	ID       int64  `json:"id"`
	Message  int64  `json:"message_id,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

func (e statusEvent) String() string {
	s := fmt.Sprintf("%s %d: %s", e.Kind, e.ID, e.Status)
	if e.Status == model.StatusInProgress.String() {
		s += fmt.Sprintf(" %d%%", e.Progress)
	}
	if e.Subject != "" {
		s += fmt.Sprintf(" (%s)", e.Subject)
	}
	return s
}

// statusPrinter is a model.Callback that prints reports through an
// OutputFormatter. Progress reports are only printed in verbose mode.
type statusPrinter struct {
	mu  sync.Mutex
	out *OutputFormatter
}

var _ model.Callback = (*statusPrinter)(nil)

func newStatusPrinter(out *OutputFormatter) *statusPrinter {
	return &statusPrinter{out: out}
}

func (p *statusPrinter) SyncMailboxStatus(mailboxID int64, status model.Status, progress int) {
	p.print(statusEvent{Kind: "mailbox", ID: mailboxID, Status: status.String(), Progress: progress})
}

func (p *statusPrinter) SendMessageStatus(messageID int64, subject string, status model.Status, progress int) {
	p.print(statusEvent{Kind: "send", ID: messageID, Subject: subject, Status: status.String(), Progress: progress})
}

func (p *statusPrinter) LoadAttachmentStatus(messageID, attachmentID int64, status model.Status, progress int) {
	p.print(statusEvent{
		Kind:     "attachment",
		ID:       attachmentID,
		Message:  messageID,
		Status:   status.String(),
		Progress: progress,
	})
}

func (p *statusPrinter) print(ev statusEvent) {
	if ev.Status == model.StatusInProgress.String() && !p.out.Verbose {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.out.Event(ev.String(), ev)
}
