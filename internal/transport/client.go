// Package transport issues Exchange ActiveSync commands over HTTP.
//
// Every command is a POST to /Microsoft-Server-ActiveSync with the
// command name, user and device identity in the query string. Response
// bodies are only accepted with a Content-Length: chunked responses are
// reported as easerr.CodeUnsupportedFraming rather than read.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/roach88/airsync/internal/easerr"
)

// Content types sent with command bodies.
const (
	ContentTypeWBXML  = "application/vnd.ms-sync.wbxml"
	ContentTypeRFC822 = "message/rfc822"
)

const endpointPath = "/Microsoft-Server-ActiveSync"

// Default timeouts. A send waits longer than an ordinary command.
const (
	DefaultConnectTimeout = 20 * time.Second
	DefaultCommandTimeout = 30 * time.Second
	DefaultSendTimeout    = 120 * time.Second
)

// Config identifies the server, the user and this device.
type Config struct {
	Host          string
	UseSSL        bool
	TrustAllCerts bool

	User       string
	Password   string
	DeviceID   string
	DeviceType string
	UserAgent  string

	// ProtocolVersion is sent as MS-ASProtocolVersion until replaced by
	// SetProtocolVersion. Empty means DefaultProtocolVersion.
	ProtocolVersion string

	ConnectTimeout time.Duration
	CommandTimeout time.Duration
	SendTimeout    time.Duration
}

// Param is one extra query parameter, kept in order.
type Param struct {
	Key   string
	Value string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithHTTPClient replaces the HTTP client, e.g. with an httptest server's.
// The SSL governor only applies to the client built by New.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// Client sends commands for one account. It is safe for concurrent use.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	log     *slog.Logger
	version atomic.Value // string
}

// New builds a client for cfg.
func New(cfg Config, opts ...Option) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	if cfg.DeviceType == "" {
		cfg.DeviceType = "SmartPhone"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "airsync/1.0"
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	c := &Client{
		cfg:     cfg,
		baseURL: scheme + "://" + cfg.Host + endpointPath,
		log:     slog.Default(),
	}
	c.http = &http.Client{Transport: newTransport(cfg)}
	for _, opt := range opts {
		opt(c)
	}

	v := cfg.ProtocolVersion
	if v == "" {
		v = DefaultProtocolVersion
	}
	c.version.Store(v)
	return c
}

func newTransport(cfg Config) *http.Transport {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}
	return &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		// Transparent gzip drops Content-Length, which Stream requires.
		DisableCompression: true,

		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				host = addr
			}
			return dialTLS(ctx, dialer, network, addr, &tls.Config{
				ServerName:         host,
				InsecureSkipVerify: cfg.TrustAllCerts, //nolint:gosec // per-account opt-in
				MinVersion:         tls.VersionTLS12,
			})
		},
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
}

// Config returns the configuration the client was built with, defaults
// filled in.
func (c *Client) Config() Config {
	return c.cfg
}

// ProtocolVersion returns the version sent with each command.
func (c *Client) ProtocolVersion() string {
	return c.version.Load().(string)
}

// SetProtocolVersion changes the version sent with later commands.
func (c *Client) SetProtocolVersion(v string) {
	c.version.Store(v)
}

// CommandTimeout is the timeout for ordinary commands.
func (c *Client) CommandTimeout() time.Duration { return c.cfg.CommandTimeout }

// SendTimeout is the timeout for SendMail, SmartReply and SmartForward.
func (c *Client) SendTimeout() time.Duration { return c.cfg.SendTimeout }

// SendCommand posts a WBXML body for cmd. A zero timeout means the
// client's command timeout; a negative one means none, for Ping which
// bounds itself through ctx.
func (c *Client) SendCommand(ctx context.Context, cmd string, body []byte, timeout time.Duration) (*Response, error) {
	if timeout == 0 {
		timeout = c.cfg.CommandTimeout
	}
	var r io.Reader
	if len(body) > 0 {
		r = bytes.NewReader(body)
	}
	return c.do(ctx, http.MethodPost, cmd, nil, ContentTypeWBXML, r, int64(len(body)), timeout)
}

// SendRaw posts a MIME message for SendMail, SmartReply or SmartForward
// with the send timeout.
func (c *Client) SendRaw(ctx context.Context, cmd string, params []Param, body io.Reader, size int64) (*Response, error) {
	return c.do(ctx, http.MethodPost, cmd, params, ContentTypeRFC822, body, size, c.cfg.SendTimeout)
}

// Fetch posts an empty body, as GetAttachment expects.
func (c *Client) Fetch(ctx context.Context, cmd string, params []Param, timeout time.Duration) (*Response, error) {
	if timeout == 0 {
		timeout = c.cfg.CommandTimeout
	}
	return c.do(ctx, http.MethodPost, cmd, params, "", nil, 0, timeout)
}

// CommandURL returns the endpoint URL for cmd. Parameters are written in
// a fixed order: Cmd, User, DeviceId, DeviceType, then params.
func (c *Client) CommandURL(cmd string, params []Param) string {
	var sb strings.Builder
	sb.WriteString(c.baseURL)
	sb.WriteString("?Cmd=")
	sb.WriteString(url.QueryEscape(cmd))
	sb.WriteString("&User=")
	sb.WriteString(url.QueryEscape(c.cfg.User))
	sb.WriteString("&DeviceId=")
	sb.WriteString(url.QueryEscape(c.cfg.DeviceID))
	sb.WriteString("&DeviceType=")
	sb.WriteString(url.QueryEscape(c.cfg.DeviceType))
	for _, p := range params {
		sb.WriteByte('&')
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String()
}

func (c *Client) do(
	ctx context.Context,
	method string,
	cmd string,
	params []Param,
	contentType string,
	body io.Reader,
	size int64,
	timeout time.Duration,
) (*Response, error) {
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.CommandURL(cmd, params), body)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating %s request: %w", cmd, err)
	}
	if body != nil {
		req.ContentLength = size
	}
	c.setHeaders(req, contentType)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, easerr.Transient(cmd, err)
	}

	c.log.Debug("eas command",
		"cmd", cmd,
		"status", resp.StatusCode,
		"content_length", resp.ContentLength,
		"elapsed", time.Since(start),
	)
	return &Response{
		Op:         cmd,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		resp:       resp,
		cancel:     cancel,
	}, nil
}

func (c *Client) setHeaders(req *http.Request, contentType string) {
	req.SetBasicAuth(c.cfg.User, c.cfg.Password)
	req.Header.Set("MS-ASProtocolVersion", c.ProtocolVersion())
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Connection", "keep-alive")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
}
