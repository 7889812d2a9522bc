package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/roach88/airsync/internal/transport"
)

// Server is a scripted ActiveSync endpoint backed by httptest.
//
// Replies are consumed per command in FIFO order. A command with no reply
// left is answered 500 and noted in Unexpected, so a test that makes more
// requests than it scripted fails its Check.
type Server struct {
	srv    *httptest.Server
	logger *slog.Logger
	done   chan struct{}

	mu         sync.Mutex
	versions   string
	queues     map[string][]Reply
	requests   []Request
	unexpected []string
	notify     chan struct{}
	closeOnce  sync.Once
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger used to trace requests. The default discards.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithVersions sets the MS-ASProtocolVersions header returned to OPTIONS.
func WithVersions(v string) ServerOption {
	return func(s *Server) {
		s.versions = v
	}
}

// NewServer starts an empty server. Callers must Close it.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		done:   make(chan struct{}),
		queues: make(map[string][]Reply),
		notify: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = httptest.NewServer(s)
	return s
}

// Serve starts a server scripted by sc and closes it when t finishes.
func Serve(t testing.TB, sc *Scenario, opts ...ServerOption) *Server {
	t.Helper()
	s := NewServer(append([]ServerOption{WithVersions(sc.Versions)}, opts...)...)
	s.Script(sc.Replies...)
	t.Cleanup(s.Close)
	return s
}

// Script queues replies.
func (s *Server) Script(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range replies {
		s.queues[r.Command] = append(s.queues[r.Command], r)
	}
}

// Close releases hanging requests and shuts the server down. It is safe
// to call more than once.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.srv.CloseClientConnections()
		s.srv.Close()
	})
}

// URL returns the server's base URL.
func (s *Server) URL() string { return s.srv.URL }

// Host returns the host:port clients should dial.
func (s *Server) Host() string {
	return strings.TrimPrefix(s.srv.URL, "http://")
}

// TransportConfig returns a client configuration pointing at s with short
// timeouts suitable for tests.
func (s *Server) TransportConfig() transport.Config {
	return transport.Config{
		Host:           s.Host(),
		User:           "user@example.com",
		Password:       "secret",
		DeviceID:       "androidc1234",
		DeviceType:     "Android",
		ConnectTimeout: 2 * time.Second,
		CommandTimeout: 5 * time.Second,
		SendTimeout:    5 * time.Second,
	}
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsFor returns the recorded requests for cmd.
func (s *Server) RequestsFor(cmd string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Command == cmd {
			out = append(out, r)
		}
	}
	return out
}

// Unexpected lists commands received with no reply scripted.
func (s *Server) Unexpected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.unexpected...)
}

// Pending returns the number of scripted replies not yet consumed.
func (s *Server) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, q := range s.queues {
		n += len(q)
	}
	return n
}

// WaitRequests blocks until at least n requests have been received.
func (s *Server) WaitRequests(ctx context.Context, n int) error {
	for {
		s.mu.Lock()
		have, ch := len(s.requests), s.notify
		s.mu.Unlock()
		if have >= n {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return fmt.Errorf("waiting for %d requests, have %d: %w", n, have, ctx.Err())
		}
	}
}

// Check evaluates the assertions against the recorded requests and adds
// any unscripted commands as failures.
func (s *Server) Check(assertions []Assertion) []string {
	errs := EvaluateAssertions(s.Requests(), assertions)
	for _, cmd := range s.Unexpected() {
		errs = append(errs, fmt.Sprintf("unscripted command %s", cmd))
	}
	return errs
}

// ServeHTTP records the request and answers from the script.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := Request{
		Method:          r.Method,
		Command:         r.URL.Query().Get("Cmd"),
		Query:           r.URL.Query(),
		ContentType:     r.Header.Get("Content-Type"),
		ProtocolVersion: r.Header.Get("MS-ASProtocolVersion"),
		Body:            body,
	}
	req.User, _, _ = r.BasicAuth()
	if strings.HasPrefix(req.ContentType, transport.ContentTypeWBXML) && len(body) > 0 {
		if dump, err := Dump(body); err == nil {
			req.Dump = dump
		}
	}

	s.mu.Lock()
	req.Seq = len(s.requests) + 1
	s.requests = append(s.requests, req)
	close(s.notify)
	s.notify = make(chan struct{})
	versions := s.versions

	var reply Reply
	ok := false
	if r.Method != http.MethodOptions {
		if q := s.queues[req.Command]; len(q) > 0 {
			reply, s.queues[req.Command] = q[0], q[1:]
			ok = true
		} else {
			s.unexpected = append(s.unexpected, req.Command)
		}
	}
	s.mu.Unlock()

	s.logger.Debug("harness request",
		"seq", req.Seq,
		"method", req.Method,
		"command", req.Command,
		"bytes", len(body),
	)

	if r.Method == http.MethodOptions {
		if versions != "" {
			w.Header().Set("MS-ASProtocolVersions", versions)
		}
		w.WriteHeader(http.StatusOK)
		return
	}
	if !ok {
		http.Error(w, "unscripted command "+req.Command, http.StatusInternalServerError)
		return
	}
	s.reply(w, r, reply)
}

func (s *Server) reply(w http.ResponseWriter, r *http.Request, reply Reply) {
	if reply.Hang {
		select {
		case <-r.Context().Done():
		case <-s.done:
		}
		return
	}
	if reply.Delay > 0 {
		select {
		case <-time.After(reply.Delay):
		case <-r.Context().Done():
			return
		case <-s.done:
			return
		}
	}

	body, err := reply.body()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	for k, v := range reply.Headers {
		w.Header().Set(k, v)
	}
	ct := reply.ContentType
	if ct == "" && reply.WBXML != "" {
		ct = transport.ContentTypeWBXML
	}
	if ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}

	if reply.Chunked {
		w.WriteHeader(status)
		flusher, _ := w.(http.Flusher)
		half := len(body) / 2
		_, _ = w.Write(body[:half])
		if flusher != nil {
			flusher.Flush()
		}
		_, _ = w.Write(body[half:])
		return
	}

	w.Header().Set("Content-Length", strconv.Itoa(len(body)+reply.ShortBy))
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (r Reply) body() ([]byte, error) {
	switch {
	case r.WBXML != "":
		return Compile(r.WBXML)
	case r.Body != "":
		return []byte(r.Body), nil
	case r.Size > 0:
		return PatternBytes(r.Size), nil
	}
	return nil, nil
}
