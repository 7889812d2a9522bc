package transport

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/roach88/airsync/internal/easerr"
)

// DefaultProtocolVersion is assumed when the server does not list its
// versions.
const DefaultProtocolVersion = "2.5"

// SupportedVersions lists the protocol versions this client speaks,
// oldest first.
var SupportedVersions = []string{"2.5", "12.0", "12.1"}

// Options asks the server which protocol versions it supports.
func (c *Client) Options(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CommandTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, c.baseURL, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, easerr.Classify("OPTIONS", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, easerr.FromHTTPStatus("OPTIONS", resp.StatusCode)
	}
	versions := ParseVersions(resp.Header.Get("MS-ASProtocolVersions"))
	c.log.Debug("eas options", "versions", versions)
	return versions, nil
}

// ParseVersions splits an MS-ASProtocolVersions header. An empty header
// means the server only speaks DefaultProtocolVersion.
func ParseVersions(header string) []string {
	var out []string
	for _, v := range strings.Split(header, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return []string{DefaultProtocolVersion}
	}
	return out
}

// Negotiate picks the newest version in SupportedVersions the server also
// lists, falling back to DefaultProtocolVersion.
func Negotiate(server []string) string {
	for i := len(SupportedVersions) - 1; i >= 0; i-- {
		if slices.Contains(server, SupportedVersions[i]) {
			return SupportedVersions[i]
		}
	}
	return DefaultProtocolVersion
}

// NegotiateVersion runs Options and adopts the negotiated version for
// later commands.
func (c *Client) NegotiateVersion(ctx context.Context) (string, error) {
	versions, err := c.Options(ctx)
	if err != nil {
		return "", err
	}
	v := Negotiate(versions)
	c.SetProtocolVersion(v)
	return v, nil
}
