package transport

import (
	"context"
	"crypto/tls"
	"net"
)

// sslGovernor admits one TLS handshake at a time across every client in
// the process. Only the handshake holds it; data transfer runs
// concurrently.
var sslGovernor = make(chan struct{}, 1)

func acquireHandshake(ctx context.Context) error {
	select {
	case sslGovernor <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func releaseHandshake() {
	<-sslGovernor
}

func dialTLS(ctx context.Context, dialer *net.Dialer, network, addr string, cfg *tls.Config) (net.Conn, error) {
	raw, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	if err := acquireHandshake(ctx); err != nil {
		raw.Close()
		return nil, err
	}
	// The token is shared by every client, so the handshake is bounded
	// even when ctx has no deadline (Ping).
	hctx := ctx
	if dialer.Timeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, dialer.Timeout)
		defer cancel()
	}
	conn := tls.Client(raw, cfg)
	err = conn.HandshakeContext(hctx)
	releaseHandshake()

	if err != nil {
		raw.Close()
		return nil, err
	}
	return conn, nil
}
