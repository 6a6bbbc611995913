package redisserver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/yndnr/respkv/internal/resp"
	"github.com/yndnr/respkv/internal/storage/memory"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

// ============================================================
// Test helpers
// ============================================================

func startTestServer(t *testing.T, mutate func(*Config)) (*Server, *memory.Store) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	if mutate != nil {
		mutate(cfg)
	}

	store := memory.New()
	srv := New(cfg, store, nil, metric.NewRegistry())
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			t.Errorf("Shutdown: %v", err)
		}
		if err := <-done; err != nil {
			t.Errorf("Serve: %v", err)
		}
	})

	return srv, store
}

type testClient struct {
	conn net.Conn
	rd   *resp.Reader
}

func dial(t *testing.T, srv *Server) *testClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testClient{conn: conn, rd: resp.NewReader(conn)}
}

func (c *testClient) send(t *testing.T, raw string) {
	t.Helper()
	if _, err := io.WriteString(c.conn, raw); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func (c *testClient) read(t *testing.T) resp.Value {
	t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	v, err := c.rd.ReadValue()
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	return v
}

// readRaw reads exactly len(want) bytes so the wire form can be compared.
func (c *testClient) readRaw(t *testing.T, want string) {
	t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, len(want))
	if _, err := io.ReadFull(c.conn, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf) != want {
		t.Errorf("reply = %q, want %q", buf, want)
	}
}

func (c *testClient) do(t *testing.T, args ...string) resp.Value {
	t.Helper()
	c.send(t, string(resp.Encode(resp.Command(args...))))
	return c.read(t)
}

// ============================================================
// Wire Tests
// ============================================================

func TestServer_WireExamples(t *testing.T) {
	srv, _ := startTestServer(t, nil)
	c := dial(t, srv)

	steps := []struct {
		req  string
		want string
	}{
		{"*1\r\n$4\r\nPING\r\n", "+PONG\r\n"},
		{"*2\r\n$4\r\nECHO\r\n$9\r\nblueberry\r\n", "$9\r\nblueberry\r\n"},
		{"*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n", "+OK\r\n"},
		{"*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n", "$3\r\nbar\r\n"},
		{"*2\r\n$3\r\nGET\r\n$7\r\nmissing\r\n", "$-1\r\n"},
	}

	for _, st := range steps {
		c.send(t, st.req)
		c.readRaw(t, st.want)
	}
}

func TestServer_MalformedThenValid(t *testing.T) {
	srv, _ := startTestServer(t, nil)
	c := dial(t, srv)

	c.send(t, "$abc\r\n")
	v := c.read(t)
	if v.Kind != resp.KindError || !strings.HasPrefix(v.Str, "ERR Protocol error") {
		t.Fatalf("reply = %v, want protocol error", v)
	}

	c.send(t, "*1\r\n$4\r\nPING\r\n")
	c.readRaw(t, "+PONG\r\n")
}

func TestServer_BadFrameRemainderIgnored(t *testing.T) {
	srv, _ := startTestServer(t, nil)
	c := dial(t, srv)

	c.send(t, "*2\r\n$3\r\nGET\r\n$abc\r\nfoo\r\n")
	v := c.read(t)
	if v.Kind != resp.KindError || !strings.HasPrefix(v.Str, "ERR Protocol error") {
		t.Fatalf("reply = %v, want protocol error", v)
	}

	c.send(t, "*1\r\n$4\r\nPING\r\n")
	c.readRaw(t, "+PONG\r\n")

	// No reply is left over from the abandoned frame.
	if got := c.do(t, "ECHO", "next"); !got.Equal(resp.BulkString("next")) {
		t.Errorf("ECHO = %v, want the echoed value", got)
	}
}

func TestServer_SplitWrites(t *testing.T) {
	srv, _ := startTestServer(t, nil)
	c := dial(t, srv)

	req := "*3\r\n$3\r\nSET\r\n$3\r\nkey\r\n$5\r\nvalue\r\n"
	for i := 0; i < len(req); i++ {
		c.send(t, req[i:i+1])
		time.Sleep(time.Millisecond)
	}
	c.readRaw(t, "+OK\r\n")

	if got := c.do(t, "GET", "key"); !got.Equal(resp.BulkString("value")) {
		t.Errorf("GET = %v", got)
	}
}

func TestServer_Pipeline(t *testing.T) {
	srv, _ := startTestServer(t, nil)
	c := dial(t, srv)

	c.send(t, "*1\r\n$4\r\nPING\r\n*3\r\n$3\r\nSET\r\n$1\r\na\r\n$1\r\n1\r\n*2\r\n$3\r\nGET\r\n$1\r\na\r\n")
	c.readRaw(t, "+PONG\r\n+OK\r\n$1\r\n1\r\n")
}

func TestServer_CommandErrorsKeepConnection(t *testing.T) {
	srv, _ := startTestServer(t, nil)
	c := dial(t, srv)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"FOO"}, "ERR unknown command 'FOO'"},
		{[]string{"SET", "k"}, "ERR wrong number of arguments for 'set' command"},
		{[]string{"SET", "k", "v", "XX", "1"}, "ERR syntax error"},
		{[]string{"SET", "k", "v", "PX", "abc"}, "ERR value is not an integer or out of range"},
	}

	for _, tt := range tests {
		got := c.do(t, tt.args...)
		if got.Kind != resp.KindError || got.Str != tt.want {
			t.Errorf("%v => %v, want -%s", tt.args, got, tt.want)
		}
	}

	if got := c.do(t, "PING"); !got.Equal(resp.SimpleString("PONG")) {
		t.Errorf("PING after errors = %v", got)
	}
}

func TestServer_NestedArrayRejected(t *testing.T) {
	srv, _ := startTestServer(t, nil)
	c := dial(t, srv)

	c.send(t, "*2\r\n$4\r\nECHO\r\n*1\r\n$5\r\nirfan\r\n")
	v := c.read(t)
	if v.Kind != resp.KindError || !strings.HasPrefix(v.Str, "ERR invalid command format") {
		t.Fatalf("reply = %v", v)
	}
}

func TestServer_Expiry(t *testing.T) {
	srv, _ := startTestServer(t, nil)
	c := dial(t, srv)

	if got := c.do(t, "SET", "key", "value", "PX", "50"); !got.Equal(resp.SimpleString("OK")) {
		t.Fatalf("SET PX = %v", got)
	}
	if got := c.do(t, "GET", "key"); !got.Equal(resp.BulkString("value")) {
		t.Fatalf("immediate GET = %v", got)
	}

	time.Sleep(60 * time.Millisecond)
	if got := c.do(t, "GET", "key"); !got.IsNull() {
		t.Fatalf("GET after expiry = %v, want null", got)
	}

	c.do(t, "SET", "key", "v1", "PX", "100000")
	c.do(t, "SET", "key", "v2")
	if got := c.do(t, "GET", "key"); !got.Equal(resp.BulkString("v2")) {
		t.Fatalf("GET after overwrite = %v", got)
	}
}

func TestServer_ConcurrentClients(t *testing.T) {
	srv, store := startTestServer(t, nil)

	const clients = 8
	const perClient = 50

	var wg sync.WaitGroup
	errs := make(chan error, clients)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			conn, err := net.Dial("tcp", srv.Addr().String())
			if err != nil {
				errs <- err
				return
			}
			defer conn.Close()

			rd := resp.NewReader(conn)
			w := bufio.NewWriter(conn)
			for j := 0; j < perClient; j++ {
				key := fmt.Sprintf("c%d-k%d", id, j)
				for _, req := range []resp.Value{resp.Command("SET", key, key), resp.Command("GET", key)} {
					if err := resp.WriteValue(w, req); err != nil {
						errs <- err
						return
					}
					if err := w.Flush(); err != nil {
						errs <- err
						return
					}
				}
				if v, err := rd.ReadValue(); err != nil || !v.Equal(resp.SimpleString("OK")) {
					errs <- fmt.Errorf("SET %s: %v %v", key, v, err)
					return
				}
				if v, err := rd.ReadValue(); err != nil || !v.Equal(resp.BulkString(key)) {
					errs <- fmt.Errorf("GET %s: %v %v", key, v, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	if got := store.Len(); got != clients*perClient {
		t.Errorf("store.Len() = %d, want %d", got, clients*perClient)
	}
}

// ============================================================
// Limits
// ============================================================

func TestServer_RateLimit(t *testing.T) {
	srv, _ := startTestServer(t, func(cfg *Config) { cfg.RateLimit = 2 })
	c := dial(t, srv)

	limited := 0
	for i := 0; i < 10; i++ {
		v := c.do(t, "PING")
		if v.Kind == resp.KindError {
			if v.Str != "ERR rate limit exceeded" {
				t.Fatalf("unexpected error %q", v.Str)
			}
			limited++
		}
	}
	if limited == 0 {
		t.Fatal("expected some commands to be rate limited")
	}
}

func TestServer_LimitExceededClosesConnection(t *testing.T) {
	srv, _ := startTestServer(t, nil)
	c := dial(t, srv)

	c.send(t, "*99999999\r\n")
	v := c.read(t)
	if v.Kind != resp.KindError || !strings.HasPrefix(v.Str, "ERR Protocol error") {
		t.Fatalf("reply = %v", v)
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := c.rd.ReadValue(); err == nil {
		t.Fatal("connection should be closed after limit violation")
	}
}

func TestServer_IdleTimeout(t *testing.T) {
	srv, _ := startTestServer(t, func(cfg *Config) { cfg.IdleTimeout = 50 * time.Millisecond })
	c := dial(t, srv)

	if got := c.do(t, "PING"); !got.Equal(resp.SimpleString("PONG")) {
		t.Fatalf("PING = %v", got)
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := c.rd.ReadValue(); err == nil {
		t.Fatal("idle connection should be closed")
	}
}

func TestServer_ShutdownClosesConnections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	srv := New(cfg, memory.New(), nil, nil)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background()) }()

	c := dial(t, srv)
	if got := c.do(t, "PING"); !got.Equal(resp.SimpleString("PONG")) {
		t.Fatalf("PING = %v", got)
	}
	if n := srv.ActiveConnections(); n != 1 {
		t.Fatalf("ActiveConnections = %d, want 1", n)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Serve: %v", err)
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := c.rd.ReadValue(); err == nil {
		t.Fatal("client connection should be closed by Shutdown")
	}
}

func TestServer_ServeBeforeListen(t *testing.T) {
	srv := New(nil, memory.New(), nil, nil)
	if err := srv.Serve(context.Background()); err == nil {
		t.Fatal("Serve before Listen should fail")
	}
	if srv.Addr() != nil {
		t.Fatal("Addr before Listen should be nil")
	}
}

// failingListener fails the first failures Accept calls with EMFILE.
type failingListener struct {
	net.Listener
	failures atomic.Int32
}

func (l *failingListener) Accept() (net.Conn, error) {
	if l.failures.Add(-1) >= 0 {
		return nil, &net.OpError{Op: "accept", Net: "tcp", Err: os.NewSyscallError("accept", syscall.EMFILE)}
	}
	return l.Listener.Accept()
}

func TestServer_AcceptErrorsAreRetried(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	srv := New(cfg, memory.New(), nil, metric.NewRegistry())
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	fl := &failingListener{Listener: srv.ln}
	fl.failures.Store(3)
	srv.mu.Lock()
	srv.ln = fl
	srv.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	c := dial(t, srv)
	if got := c.do(t, "PING"); !got.Equal(resp.SimpleString("PONG")) {
		t.Fatalf("PING = %v, want PONG", got)
	}
	if n := fl.failures.Load(); n >= 0 {
		t.Fatalf("failures left = %d, want all consumed", n)
	}

	select {
	case err := <-done:
		t.Fatalf("Serve returned early: %v", err)
	default:
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Serve: %v", err)
	}
}
