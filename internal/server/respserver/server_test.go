package respserver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/keyden/keyden-go/internal/storage/memory"
)

// startTestServer starts a server on an ephemeral port and returns its
// address. The server is shut down when the test finishes.
func startTestServer(t *testing.T, cfg *Config) (string, *memory.Store) {
	t.Helper()

	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.Addr = "127.0.0.1:0"

	store := memory.New()
	srv := New(cfg, store, nil, nil)

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
	})

	return srv.Addr(), store
}

func dialTestServer(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("dial %s: %v", addr, err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn, bufio.NewReader(conn)
}

func sendCommand(t *testing.T, conn net.Conn, args ...string) {
	t.Helper()

	var sb strings.Builder
	fmt.Fprintf(&sb, "*%d\r\n", len(args))
	for _, a := range args {
		fmt.Fprintf(&sb, "$%d\r\n%s\r\n", len(a), a)
	}
	if _, err := io.WriteString(conn, sb.String()); err != nil {
		t.Fatalf("write command: %v", err)
	}
}

// readReply reads one serialized reply from the server.
func readReply(t *testing.T, br *bufio.Reader) string {
	t.Helper()

	line, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}

	if line[0] != '$' || strings.HasPrefix(line, "$-1") {
		return line
	}

	var n int
	if _, err := fmt.Sscanf(line, "$%d", &n); err != nil {
		t.Fatalf("parse bulk header %q: %v", line, err)
	}
	payload := make([]byte, n+2)
	if _, err := io.ReadFull(br, payload); err != nil {
		t.Fatalf("read bulk payload: %v", err)
	}
	return line + string(payload)
}

func TestServer_EndToEnd(t *testing.T) {
	addr, _ := startTestServer(t, nil)
	conn, br := dialTestServer(t, addr)

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"PING"}, "+PONG\r\n"},
		{[]string{"ECHO", "hello"}, "$5\r\nhello\r\n"},
		{[]string{"SET", "foo", "bar"}, "+OK\r\n"},
		{[]string{"GET", "foo"}, "$3\r\nbar\r\n"},
		{[]string{"GET", "missing"}, "$-1\r\n"},
		{[]string{"EXISTS", "foo"}, ":1\r\n"},
		{[]string{"DEL", "foo"}, ":1\r\n"},
		{[]string{"DEL", "foo"}, ":0\r\n"},
		{[]string{"EXISTS", "foo"}, ":0\r\n"},
	}

	for _, step := range steps {
		sendCommand(t, conn, step.args...)
		if got := readReply(t, br); got != step.want {
			t.Fatalf("%v = %q, want %q", step.args, got, step.want)
		}
	}
}

func TestServer_UnknownCommandKeepsConnectionOpen(t *testing.T) {
	addr, _ := startTestServer(t, nil)
	conn, br := dialTestServer(t, addr)

	sendCommand(t, conn, "FROB", "x")
	if got := readReply(t, br); got != "-ERR unknown command 'FROB'\r\n" {
		t.Fatalf("FROB = %q, want unknown command error", got)
	}

	// The session must continue after a command error.
	sendCommand(t, conn, "PING")
	if got := readReply(t, br); got != "+PONG\r\n" {
		t.Fatalf("PING after FROB = %q, want +PONG", got)
	}
}

func TestServer_WrongArityKeepsConnectionOpen(t *testing.T) {
	addr, _ := startTestServer(t, nil)
	conn, br := dialTestServer(t, addr)

	sendCommand(t, conn, "GET")
	if got := readReply(t, br); !strings.HasPrefix(got, "-ERR wrong number of arguments") {
		t.Fatalf("GET with no args = %q, want arity error", got)
	}

	sendCommand(t, conn, "SET", "a", "1")
	if got := readReply(t, br); got != "+OK\r\n" {
		t.Fatalf("SET after arity error = %q, want +OK", got)
	}
}

func TestServer_ProtocolErrorClosesConnection(t *testing.T) {
	addr, _ := startTestServer(t, nil)
	conn, br := dialTestServer(t, addr)

	if _, err := io.WriteString(conn, "*-1\r\n"); err != nil {
		t.Fatalf("write malformed frame: %v", err)
	}

	reply, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read error reply: %v", err)
	}
	if !strings.HasPrefix(reply, "-ERR protocol error") {
		t.Fatalf("reply = %q, want protocol error", reply)
	}

	// The server must close the connection after a framing error.
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := br.ReadByte(); err != io.EOF {
		t.Fatalf("read after protocol error = %v, want EOF", err)
	}
}

func TestServer_EmptyHeaderLineClosesOnlyThatConnection(t *testing.T) {
	addr, _ := startTestServer(t, nil)
	conn, br := dialTestServer(t, addr)

	// A blank line where a bulk header belongs must be a framing
	// error for this connection, never a server crash.
	if _, err := io.WriteString(conn, "*1\r\n\r\n"); err != nil {
		t.Fatalf("write malformed frame: %v", err)
	}

	reply, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read error reply: %v", err)
	}
	if !strings.HasPrefix(reply, "-ERR protocol error") {
		t.Fatalf("reply = %q, want protocol error", reply)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := br.ReadByte(); err != io.EOF {
		t.Fatalf("read after protocol error = %v, want EOF", err)
	}

	// The listener must still serve new connections.
	conn2, br2 := dialTestServer(t, addr)
	sendCommand(t, conn2, "PING")
	if got := readReply(t, br2); got != "+PONG\r\n" {
		t.Fatalf("PING on fresh connection = %q, want +PONG", got)
	}
}

func TestServer_LimitViolationClosesConnection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.MaxBulkLen = 16
	addr, _ := startTestServer(t, cfg)
	conn, br := dialTestServer(t, addr)

	if _, err := io.WriteString(conn, "*2\r\n$3\r\nSET\r\n$1000\r\n"); err != nil {
		t.Fatalf("write oversized frame: %v", err)
	}

	reply, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read error reply: %v", err)
	}
	if !strings.HasPrefix(reply, "-ERR protocol limit exceeded") {
		t.Fatalf("reply = %q, want limit exceeded error", reply)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := br.ReadByte(); err != io.EOF {
		t.Fatalf("read after limit violation = %v, want EOF", err)
	}
}

func TestServer_InlineCommands(t *testing.T) {
	addr, _ := startTestServer(t, nil)
	conn, br := dialTestServer(t, addr)

	if _, err := io.WriteString(conn, "SET foo bar\r\n"); err != nil {
		t.Fatalf("write inline command: %v", err)
	}
	if got := readReply(t, br); got != "+OK\r\n" {
		t.Fatalf("inline SET = %q, want +OK", got)
	}

	if _, err := io.WriteString(conn, "GET foo\r\n"); err != nil {
		t.Fatalf("write inline command: %v", err)
	}
	if got := readReply(t, br); got != "$3\r\nbar\r\n" {
		t.Fatalf("inline GET = %q, want bulk bar", got)
	}
}

func TestServer_PipelinedCommands(t *testing.T) {
	addr, _ := startTestServer(t, nil)
	conn, br := dialTestServer(t, addr)

	// Two commands in one write: responses must come back in order.
	pipeline := "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n*2\r\n$3\r\nGET\r\n$1\r\nk\r\n"
	if _, err := io.WriteString(conn, pipeline); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}

	if got := readReply(t, br); got != "+OK\r\n" {
		t.Fatalf("pipelined SET = %q, want +OK", got)
	}
	if got := readReply(t, br); got != "$1\r\nv\r\n" {
		t.Fatalf("pipelined GET = %q, want bulk v", got)
	}
}

func TestServer_SplitWrites(t *testing.T) {
	addr, _ := startTestServer(t, nil)
	conn, br := dialTestServer(t, addr)

	// One command delivered a few bytes at a time must parse the same
	// as a single write.
	frame := "*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n"
	for _, chunk := range []string{frame[:5], frame[5:13], frame[13:20], frame[20:]} {
		if _, err := io.WriteString(conn, chunk); err != nil {
			t.Fatalf("write chunk: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if got := readReply(t, br); got != "+OK\r\n" {
		t.Fatalf("split SET = %q, want +OK", got)
	}
}

func TestServer_Quit(t *testing.T) {
	addr, _ := startTestServer(t, nil)
	conn, br := dialTestServer(t, addr)

	sendCommand(t, conn, "QUIT")
	if got := readReply(t, br); got != "+OK\r\n" {
		t.Fatalf("QUIT = %q, want +OK", got)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := br.ReadByte(); err != io.EOF {
		t.Fatalf("read after QUIT = %v, want EOF", err)
	}
}

func TestServer_ConcurrentClients(t *testing.T) {
	addr, store := startTestServer(t, nil)

	const clients = 16
	var wg sync.WaitGroup
	errCh := make(chan error, clients)

	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
			if err != nil {
				errCh <- err
				return
			}
			defer conn.Close()
			br := bufio.NewReader(conn)

			value := fmt.Sprintf("value-%d", i)
			frame := fmt.Sprintf("*3\r\n$3\r\nSET\r\n$6\r\nshared\r\n$%d\r\n%s\r\n", len(value), value)
			if _, err := io.WriteString(conn, frame); err != nil {
				errCh <- err
				return
			}
			if line, err := br.ReadString('\n'); err != nil || line != "+OK\r\n" {
				errCh <- fmt.Errorf("SET reply = %q, err %v", line, err)
				return
			}
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("concurrent client error: %v", err)
	}

	// The surviving value must be exactly one of the written values,
	// never an interleaving.
	got, ok := store.Get("shared")
	if !ok {
		t.Fatal("shared key missing after concurrent writes")
	}
	valid := false
	for i := 0; i < clients; i++ {
		if got == fmt.Sprintf("value-%d", i) {
			valid = true
			break
		}
	}
	if !valid {
		t.Fatalf("shared = %q, not one of the written values", got)
	}
}

func TestServer_DisconnectDoesNotAffectStore(t *testing.T) {
	addr, store := startTestServer(t, nil)

	conn, br := dialTestServer(t, addr)
	sendCommand(t, conn, "SET", "persist", "1")
	if got := readReply(t, br); got != "+OK\r\n" {
		t.Fatalf("SET = %q, want +OK", got)
	}
	conn.Close()

	// Another connection still sees the data.
	conn2, br2 := dialTestServer(t, addr)
	sendCommand(t, conn2, "GET", "persist")
	if got := readReply(t, br2); got != "$1\r\n1\r\n" {
		t.Fatalf("GET after peer disconnect = %q, want bulk 1", got)
	}

	if !store.Exists("persist") {
		t.Error("store lost key after disconnect")
	}
}

func TestServer_RateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = 1
	addr, _ := startTestServer(t, cfg)
	conn, br := dialTestServer(t, addr)

	// Burst capacity is one command; a rapid second command is refused
	// but the session continues.
	sendCommand(t, conn, "PING")
	if got := readReply(t, br); got != "+PONG\r\n" {
		t.Fatalf("first PING = %q, want +PONG", got)
	}

	sendCommand(t, conn, "PING")
	if got := readReply(t, br); !strings.HasPrefix(got, "-ERR rate limit exceeded") {
		t.Fatalf("second PING = %q, want rate limit error", got)
	}
}

func TestServer_ShutdownStopsAccepting(t *testing.T) {
	store := memory.New()
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	srv := New(cfg, store, nil, nil)

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	addr := srv.Addr()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if _, err := net.DialTimeout("tcp", addr, 500*time.Millisecond); err == nil {
		t.Error("dial after Shutdown succeeded, want refusal")
	}
}
