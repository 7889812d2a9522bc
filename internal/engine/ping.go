package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/airsync/internal/easerr"
	"github.com/roach88/airsync/internal/protocol"
)

// DefaultHeartbeat is the Ping heartbeat asked of the server.
const DefaultHeartbeat = 470 * time.Second

// DefaultPingMargin is how much longer than the heartbeat the run loop
// waits, so a server reply always beats the local timeout.
const DefaultPingMargin = 30 * time.Second

// PingScheduler runs one Ping at a time on its own goroutine and wakes
// the gate when the server answers.
//
// Cancel aborts the request through its context and waits for the
// goroutine to exit. Cancelling a ping that already finished, or that was
// never started, is a no-op.
type PingScheduler struct {
	client Transport
	gate   *Gate
	log    *slog.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	cancelled bool
	result    *protocol.PingResult
	err       error
}

// NewPingScheduler returns a scheduler that wakes gate.
func NewPingScheduler(client Transport, gate *Gate, log *slog.Logger) *PingScheduler {
	if log == nil {
		log = slog.Default()
	}
	return &PingScheduler{client: client, gate: gate, log: log}
}

// Start sends a Ping for folders with the given heartbeat. Any earlier
// ping is cancelled first.
func (p *PingScheduler) Start(ctx context.Context, heartbeat time.Duration, folders []protocol.PingFolder) error {
	p.Cancel()

	body, err := protocol.BuildPing(int(heartbeat/time.Second), folders)
	if err != nil {
		return err
	}

	pctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.cancelled = false
	p.result = nil
	p.err = nil
	p.mu.Unlock()

	go p.run(pctx, body, done)
	return nil
}

func (p *PingScheduler) run(ctx context.Context, body []byte, done chan struct{}) {
	defer close(done)

	res, err := p.send(ctx, body)

	p.mu.Lock()
	p.result, p.err = res, err
	wake := !p.cancelled
	p.mu.Unlock()

	if wake {
		p.gate.Wake()
	}
}

func (p *PingScheduler) send(ctx context.Context, body []byte) (*protocol.PingResult, error) {
	start := time.Now()
	resp, err := p.client.SendCommand(ctx, protocol.CmdPing, body, -1)
	if err != nil {
		return nil, err
	}
	defer resp.Close()
	if err := resp.Err(); err != nil {
		return nil, err
	}
	data, err := resp.ReadBody()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	res, err := protocol.ParsePing(data)
	if err != nil {
		return nil, err
	}
	p.log.Debug("ping returned",
		"status", res.Status,
		"folders", res.Folders,
		"elapsed", time.Since(start),
	)
	return res, nil
}

// Cancel aborts the outstanding ping, if any, and waits for its goroutine.
func (p *PingScheduler) Cancel() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	if cancel == nil {
		p.mu.Unlock()
		return
	}
	select {
	case <-done:
		// Already finished; its result stands.
	default:
		p.cancelled = true
	}
	p.mu.Unlock()

	cancel()
	<-done
}

// active reports whether a ping is in flight.
func (p *PingScheduler) active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Result returns the outcome of the last ping. A ping aborted by Cancel
// reports context.Canceled.
func (p *PingScheduler) Result() (*protocol.PingResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancelled {
		return nil, context.Canceled
	}
	return p.result, p.err
}

// pingOutcome is what the run loop does after a ping.
type pingOutcome struct {
	// changed lists collection ids to sync; nil means every push mailbox.
	changed map[string]bool

	folderSync bool
	heartbeat  time.Duration
}

// interpretPing maps a finished ping onto the next pass of the run loop.
func interpretPing(res *protocol.PingResult, err error) (pingOutcome, error) {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Woken by Notify or the local timeout: sync everything.
			return pingOutcome{}, nil
		}
		return pingOutcome{}, err
	}

	switch res.Status {
	case protocol.PingStatusExpired:
		return pingOutcome{changed: map[string]bool{}}, nil
	case protocol.PingStatusChanges:
		changed := make(map[string]bool, len(res.Folders))
		for _, id := range res.Folders {
			changed[id] = true
		}
		return pingOutcome{changed: changed}, nil
	case protocol.PingStatusFolderSyncNeeded:
		return pingOutcome{folderSync: true}, nil
	case protocol.PingStatusBadHeartbeat:
		out := pingOutcome{changed: map[string]bool{}}
		if res.HeartbeatInterval > 0 {
			out.heartbeat = time.Duration(res.HeartbeatInterval) * time.Second
		}
		return out, nil
	default:
		return pingOutcome{}, easerr.ProtocolStatus(protocol.CmdPing, res.Status)
	}
}
