package engine

import (
	"context"
	"sync"
)

// PartRequest asks for one attachment to be downloaded.
type PartRequest struct {
	MessageID    int64
	AttachmentID int64

	// Location is the server's file reference, sent as AttachmentName.
	Location string

	cancel    context.CancelFunc
	cancelled bool
}

// PartRequestQueue holds attachment downloads waiting for the run loop.
//
// At most one request is in flight at a time. Every mutation (add, take,
// finish, cancel) happens under one mutex, so cancelling is safe while the
// request is being transferred: a queued request is simply removed, an
// in-flight one has its context cancelled and its partial file discarded
// by the loader. The queue does not wake the run loop; callers wake the
// engine's gate after adding.
type PartRequestQueue struct {
	mu       sync.Mutex
	pending  []*PartRequest
	inflight *PartRequest
}

// NewPartRequestQueue creates an empty queue.
func NewPartRequestQueue() *PartRequestQueue {
	return &PartRequestQueue{}
}

// Add queues req. A request for an attachment already queued or in flight
// is ignored and Add returns false.
func (q *PartRequestQueue) Add(req *PartRequest) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.inflight != nil && q.inflight.AttachmentID == req.AttachmentID {
		return false
	}
	for _, p := range q.pending {
		if p.AttachmentID == req.AttachmentID {
			return false
		}
	}
	q.pending = append(q.pending, req)
	return true
}

// Take removes the front request and marks it in flight. The returned
// context is cancelled by Cancel or Finish. Take returns false when the
// queue is empty or another request is still in flight.
func (q *PartRequestQueue) Take(ctx context.Context) (*PartRequest, context.Context, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.inflight != nil || len(q.pending) == 0 {
		return nil, nil, false
	}
	req := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]

	rctx, cancel := context.WithCancel(ctx)
	req.cancel = cancel
	q.inflight = req
	return req, rctx, true
}

// Finish releases the in-flight request. It reports whether the request
// was cancelled while in flight.
func (q *PartRequestQueue) Finish(req *PartRequest) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if req.cancel != nil {
		req.cancel()
	}
	if q.inflight == req {
		q.inflight = nil
	}
	return req.cancelled
}

// Cancel drops the request for attachmentID, aborting the transfer if it
// is in flight. It reports whether a request was found.
func (q *PartRequestQueue) Cancel(attachmentID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if r := q.inflight; r != nil && r.AttachmentID == attachmentID {
		r.cancelled = true
		r.cancel()
		return true
	}
	for i, p := range q.pending {
		if p.AttachmentID == attachmentID {
			p.cancelled = true
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Pending returns the number of queued requests, not counting the one in
// flight.
func (q *PartRequestQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// InFlight returns the request being transferred, or nil.
func (q *PartRequestQueue) InFlight() *PartRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inflight
}
