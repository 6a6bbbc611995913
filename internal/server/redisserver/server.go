package redisserver

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/net/netutil"
	"golang.org/x/time/rate"

	"github.com/yndnr/respkv/internal/resp"
	"github.com/yndnr/respkv/internal/storage/memory"
	"github.com/yndnr/respkv/internal/telemetry/logger"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

// Config holds the server configuration.
type Config struct {
	// Address is the TCP listen address.
	Address string
	// MaxConnections caps concurrently served connections. Further clients
	// wait in the accept backlog. 0 disables the cap.
	MaxConnections int
	// RateLimit is the maximum number of commands per second per connection.
	// Set to 0 to disable rate limiting.
	RateLimit int
	// ReadBufferSize is the size of each socket read.
	ReadBufferSize int
	// IdleTimeout closes a connection that sends nothing for this long.
	// 0 disables it.
	IdleTimeout time.Duration
	// WriteTimeout bounds writing one reply. 0 disables it.
	WriteTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:        "127.0.0.1:6379",
		ReadBufferSize: resp.DefaultReadSize,
	}
}

// Server accepts client connections and serves commands against a Store.
type Server struct {
	cfg     *Config
	handler *CommandHandler
	logger  logger.Logger
	metrics *metric.Registry

	mu    sync.Mutex
	ln    net.Listener
	conns map[*Conn]struct{}

	running atomic.Bool
	wg      sync.WaitGroup
}

// Conn is a single client connection.
type Conn struct {
	id      string
	netConn net.Conn
	rd      *resp.Reader
	bw      *bufio.Writer
	limiter *rate.Limiter

	closed atomic.Bool
}

func (s *Server) newConn(c net.Conn) *Conn {
	conn := &Conn{
		id:      ulid.Make().String(),
		netConn: c,
		rd:      resp.NewReaderSize(c, s.cfg.ReadBufferSize),
		bw:      bufio.NewWriter(c),
	}
	if s.cfg.RateLimit > 0 {
		conn.limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateLimit)
	}
	return conn
}

// ID returns the connection's unique identifier.
func (c *Conn) ID() string {
	return c.id
}

// Close closes the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// RemoteAddr returns the client address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// New creates a server. A nil cfg uses DefaultConfig, a nil log discards
// output and a nil metrics registry disables metrics.
func New(cfg *Config, store *memory.Store, log logger.Logger, metrics *metric.Registry) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = resp.DefaultReadSize
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Server{
		cfg:     cfg,
		handler: NewCommandHandler(store, log, metrics),
		logger:  log,
		metrics: metrics,
		conns:   make(map[*Conn]struct{}),
	}
}

// Listen binds the configured address. It is called by ListenAndServe and is
// only needed directly when the bound address must be known before serving.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ListenAndServe binds the configured address and serves until ctx is done
// or Shutdown is called.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve accepts connections on the listener bound by Listen until ctx is done
// or Shutdown is called. It returns nil on a clean stop.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("redisserver: Serve called before Listen")
	}

	s.running.Store(true)
	s.logger.Info("redis server listening",
		"address", ln.Addr().String(),
		"max_connections", s.cfg.MaxConnections,
		"rate_limit", s.cfg.RateLimit,
	)

	stop := context.AfterFunc(ctx, func() {
		s.running.Store(false)
		_ = ln.Close()
	})
	defer stop()

	return s.acceptLoop(ctx, ln)
}

// Shutdown stops accepting, closes every open connection and waits for their
// goroutines to exit or ctx to be done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error

	s.mu.Lock()
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return firstErr
}

// ActiveConnections returns the number of connections being served.
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Accept retry backoff bounds.
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// acceptLoop returns only when the listener is closed. Other accept errors,
// such as running out of file descriptors, are retried with backoff.
func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	var delay time.Duration
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}

			if delay == 0 {
				delay = minAcceptDelay
			} else {
				delay = min(2*delay, maxAcceptDelay)
			}
			s.logger.Warn("accept failed, retrying", "error", err, "delay", delay)

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil
			}
			continue
		}
		delay = 0

		conn := s.newConn(c)
		if !s.track(conn) {
			_ = conn.Close()
			return nil
		}

		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) track(c *Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running.Load() {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	s.metrics.ConnOpened()
	return true
}

func (s *Server) untrack(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	s.metrics.ConnClosed()
}

func (s *Server) serveConn(ctx context.Context, c *Conn) {
	defer c.Close()

	ctx = logger.WithConnID(ctx, c.id)
	ctx = logger.WithRemoteAddr(ctx, c.RemoteAddr().String())
	ctx = logger.WithLogger(ctx, s.logger)
	log := logger.L(ctx)
	ctx = logger.WithLogger(ctx, log)

	log.Debug("connection accepted")
	defer log.Debug("connection closed")

	for {
		if s.cfg.IdleTimeout > 0 {
			if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
				return
			}
		}

		v, err := c.rd.ReadValue()
		if err != nil {
			var perr *resp.ProtocolError
			if !errors.As(err, &perr) {
				s.logReadError(log, err)
				return
			}

			if werr := s.reply(c, s.handler.ErrorReply(ctx, err)); werr != nil {
				return
			}
			if errors.Is(err, resp.ErrLimitExceeded) {
				log.Warn("protocol limit exceeded, closing connection", "error", err)
				s.metrics.ConnRejected()
				return
			}
			continue
		}

		var out resp.Value
		if c.limiter != nil && !c.limiter.Allow() {
			out = s.handler.ErrorReply(ctx, ErrRateLimited)
		} else {
			out = s.handler.Handle(ctx, v)
		}

		if err := s.reply(c, out); err != nil {
			log.Debug("write failed", "error", err)
			return
		}
	}
}

func (s *Server) reply(c *Conn, v resp.Value) error {
	if s.cfg.WriteTimeout > 0 {
		if err := c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return err
		}
	}
	if err := resp.WriteValue(c.bw, v); err != nil {
		return err
	}
	return c.bw.Flush()
}

func (s *Server) logReadError(log logger.Logger, err error) {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
	case errors.Is(err, io.ErrUnexpectedEOF):
		log.Debug("client closed mid-frame")
	case errors.As(err, &netErr) && netErr.Timeout():
		log.Debug("connection idle timeout")
	default:
		log.Debug("connection read error", "error", err)
	}
}
