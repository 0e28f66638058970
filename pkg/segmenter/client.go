package segmenter

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxResponse = 64 << 20
)

// Client opens one connection per Segment call. Connections are never
// pooled or shared between calls.
type Client struct {
	Addr string
	// Timeout bounds the whole round trip. Zero means defaultTimeout.
	Timeout time.Duration
	// MaxResponse caps the payload length accepted from the header.
	MaxResponse uint64
	// Dialer is optional; tests use it to shorten dial timeouts.
	Dialer *net.Dialer
}

// NewClient returns a client for the service listening on addr.
func NewClient(addr string, timeout time.Duration) *Client {
	return &Client{Addr: addr, Timeout: timeout, MaxResponse: defaultMaxResponse}
}

// Segment sends text to the service and returns its tokens in reading order.
// Every failure is a *ProtocolError; no retry happens here.
func (c *Client) Segment(ctx context.Context, text string) ([]Token, error) {
	text = Preprocess(text)
	if text == "" {
		return nil, nil
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := c.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	conn, err := dialer.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return nil, &ProtocolError{Op: "dial", Err: err}
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	// Unblock reads and writes as soon as the caller cancels.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := io.WriteString(conn, text); err != nil {
		return nil, &ProtocolError{Op: "write", Err: c.cause(ctx, err)}
	}
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		if err := cw.CloseWrite(); err != nil {
			return nil, &ProtocolError{Op: "write", Err: c.cause(ctx, err)}
		}
	}

	n, err := readHeader(conn)
	if err != nil {
		return nil, &ProtocolError{Op: "read header", Err: c.cause(ctx, err)}
	}
	limit := c.MaxResponse
	if limit == 0 {
		limit = defaultMaxResponse
	}
	if n > limit {
		return nil, &ProtocolError{Op: "read header", Err: fmt.Errorf("payload of %d bytes exceeds limit of %d", n, limit)}
	}
	payload, err := readPayload(conn, n)
	if err != nil {
		return nil, &ProtocolError{Op: "read payload", Err: c.cause(ctx, err)}
	}

	tokens, err := Decode(payload)
	if err != nil {
		return nil, &ProtocolError{Op: "parse", Err: err}
	}
	return tokens, nil
}

// cause prefers the context error so timeouts and cancellations are
// recognisable with errors.Is.
func (c *Client) cause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	// The conn deadline can fire just before the context timer does.
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}
