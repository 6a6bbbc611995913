package connection

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/yndnr/respkv/internal/resp"
)

// DefaultDialTimeout bounds Dial when the context has no deadline.
const DefaultDialTimeout = 5 * time.Second

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("connection: client closed")

// Client is a RESP client bound to one server connection.
type Client struct {
	addr string

	mu   sync.Mutex
	conn net.Conn
	rd   *resp.Reader
	wr   *bufio.Writer
}

// Dial connects to addr.
func Dial(ctx context.Context, addr string) (*Client, error) {
	d := net.Dialer{Timeout: DefaultDialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connection: dial %s: %w", addr, err)
	}
	return &Client{
		addr: addr,
		conn: conn,
		rd:   resp.NewReader(conn),
		wr:   bufio.NewWriter(conn),
	}, nil
}

// Addr returns the address the client dialed.
func (c *Client) Addr() string {
	return c.addr
}

// Do sends one command and returns its reply.
//
// Error replies from the server are returned as values of KindError, not as
// Go errors. A non-nil error means the connection is no longer usable.
func (c *Client) Do(ctx context.Context, args ...string) (resp.Value, error) {
	if len(args) == 0 {
		return resp.Value{}, errors.New("connection: empty command")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return resp.Value{}, ErrClosed
	}

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return resp.Value{}, err
	}

	// Unblock the read if ctx is cancelled without a deadline.
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if err := resp.WriteValue(c.wr, resp.Command(args...)); err != nil {
		return resp.Value{}, c.wrap(ctx, "write", err)
	}
	if err := c.wr.Flush(); err != nil {
		return resp.Value{}, c.wrap(ctx, "write", err)
	}

	v, err := c.rd.ReadValue()
	if err != nil {
		return resp.Value{}, c.wrap(ctx, "read", err)
	}
	return v, nil
}

// Close closes the connection. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) wrap(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return fmt.Errorf("connection: %s %s: %w", op, c.addr, err)
}
