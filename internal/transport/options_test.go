package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/airsync/internal/easerr"
)

func TestParseVersions(t *testing.T) {
	assert.Equal(t, []string{"2.5"}, ParseVersions(""))
	assert.Equal(t, []string{"2.0", "2.5", "12.0"}, ParseVersions("2.0,2.5, 12.0"))
	assert.Equal(t, []string{"2.5"}, ParseVersions(" , "))
}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		server []string
		want   string
	}{
		{[]string{"2.0", "2.5", "12.0", "12.1", "14.0"}, "12.1"},
		{[]string{"2.5", "12.0"}, "12.0"},
		{[]string{"2.5"}, "2.5"},
		{[]string{"1.0"}, "2.5"},
		{nil, "2.5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Negotiate(tt.server), "%v", tt.server)
	}
}

func TestNegotiateVersion(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.Header().Set("MS-ASProtocolVersions", "2.0,2.5,12.0")
		w.Header().Set("MS-ASProtocolCommands", "Sync,FolderSync,Ping")
	}))
	defer srv.Close()

	c := newTestClient(t, srv, false)
	v, err := c.NegotiateVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "12.0", v)
	assert.Equal(t, "12.0", c.ProtocolVersion())
	assert.Equal(t, http.MethodOptions, method)
	assert.Equal(t, "/Microsoft-Server-ActiveSync", path)
}

func TestOptions_MissingHeaderMeansLegacy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := newTestClient(t, srv, false)
	versions, err := c.Options(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2.5"}, versions)
}

func TestOptions_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, false)
	_, err := c.Options(context.Background())
	assert.True(t, easerr.IsAuth(err))
}
