package respserver

import (
	"testing"

	"github.com/keyden/keyden-go/internal/storage/memory"
)

func newTestHandler() (*CommandHandler, *memory.Store) {
	store := memory.New()
	return NewCommandHandler(store, nil, nil), store
}

func handle(t *testing.T, h *CommandHandler, name string, args ...string) Reply {
	t.Helper()
	cmd := &Command{Name: name}
	for _, a := range args {
		cmd.Args = append(cmd.Args, []byte(a))
	}
	reply, closeAfter := h.Handle(cmd)
	if closeAfter {
		t.Fatalf("%s requested connection close", name)
	}
	return reply
}

func TestHandle_Ping(t *testing.T) {
	h, _ := newTestHandler()

	if got := string(handle(t, h, "PING").Encode()); got != "+PONG\r\n" {
		t.Errorf("PING = %q, want +PONG", got)
	}
}

func TestHandle_Ping_WithMessage(t *testing.T) {
	h, _ := newTestHandler()

	if got := string(handle(t, h, "PING", "hello").Encode()); got != "$5\r\nhello\r\n" {
		t.Errorf("PING hello = %q, want bulk hello", got)
	}
}

func TestHandle_Echo(t *testing.T) {
	h, _ := newTestHandler()

	if got := string(handle(t, h, "ECHO", "hello").Encode()); got != "$5\r\nhello\r\n" {
		t.Errorf("ECHO hello = %q, want bulk hello", got)
	}
}

func TestHandle_Echo_MissingArgument(t *testing.T) {
	h, _ := newTestHandler()

	reply := handle(t, h, "ECHO")
	if !reply.IsError() {
		t.Fatalf("ECHO with no args = %q, want error", reply.Encode())
	}
	want := "-ERR wrong number of arguments for 'echo' command\r\n"
	if got := string(reply.Encode()); got != want {
		t.Errorf("ECHO error = %q, want %q", got, want)
	}
}

func TestHandle_SetGet(t *testing.T) {
	h, store := newTestHandler()

	if got := string(handle(t, h, "SET", "foo", "bar").Encode()); got != "+OK\r\n" {
		t.Fatalf("SET = %q, want +OK", got)
	}

	if v, ok := store.Get("foo"); !ok || v != "bar" {
		t.Fatalf("store.Get(foo) = (%q, %v), want (bar, true)", v, ok)
	}

	if got := string(handle(t, h, "GET", "foo").Encode()); got != "$3\r\nbar\r\n" {
		t.Errorf("GET foo = %q, want bulk bar", got)
	}
}

func TestHandle_Get_Missing(t *testing.T) {
	h, _ := newTestHandler()

	if got := string(handle(t, h, "GET", "missing").Encode()); got != "$-1\r\n" {
		t.Errorf("GET missing = %q, want nil bulk", got)
	}
}

func TestHandle_Set_Overwrite(t *testing.T) {
	h, _ := newTestHandler()

	handle(t, h, "SET", "k", "v1")
	handle(t, h, "SET", "k", "v2")

	if got := string(handle(t, h, "GET", "k").Encode()); got != "$2\r\nv2\r\n" {
		t.Errorf("GET k after overwrite = %q, want v2", got)
	}
}

func TestHandle_Del(t *testing.T) {
	h, _ := newTestHandler()

	handle(t, h, "SET", "foo", "bar")

	if got := string(handle(t, h, "DEL", "foo").Encode()); got != ":1\r\n" {
		t.Errorf("DEL foo = %q, want :1", got)
	}
	if got := string(handle(t, h, "DEL", "foo").Encode()); got != ":0\r\n" {
		t.Errorf("DEL foo again = %q, want :0", got)
	}
	if got := string(handle(t, h, "GET", "foo").Encode()); got != "$-1\r\n" {
		t.Errorf("GET foo after DEL = %q, want nil bulk", got)
	}
}

func TestHandle_Exists(t *testing.T) {
	h, _ := newTestHandler()

	if got := string(handle(t, h, "EXISTS", "foo").Encode()); got != ":0\r\n" {
		t.Errorf("EXISTS foo = %q, want :0", got)
	}

	handle(t, h, "SET", "foo", "bar")

	if got := string(handle(t, h, "EXISTS", "foo").Encode()); got != ":1\r\n" {
		t.Errorf("EXISTS foo after SET = %q, want :1", got)
	}

	handle(t, h, "DEL", "foo")

	if got := string(handle(t, h, "EXISTS", "foo").Encode()); got != ":0\r\n" {
		t.Errorf("EXISTS foo after DEL = %q, want :0", got)
	}
}

func TestHandle_CaseInsensitive(t *testing.T) {
	h, _ := newTestHandler()

	handle(t, h, "set", "foo", "bar")

	if got := string(handle(t, h, "GeT", "foo").Encode()); got != "$3\r\nbar\r\n" {
		t.Errorf("GeT foo = %q, want bulk bar", got)
	}
}

func TestHandle_WrongArity(t *testing.T) {
	h, store := newTestHandler()
	store.Set("guard", "untouched")

	tests := []struct {
		name string
		args []string
	}{
		{"GET", nil},
		{"GET", []string{"a", "b"}},
		{"SET", []string{"only-key"}},
		{"SET", []string{"a", "b", "c"}},
		{"DEL", nil},
		{"EXISTS", nil},
		{"PING", []string{"a", "b"}},
	}

	for _, tt := range tests {
		reply := handle(t, h, tt.name, tt.args...)
		if !reply.IsError() {
			t.Errorf("%s with %d args = %q, want arity error", tt.name, len(tt.args), reply.Encode())
		}
	}

	// Arity failures must never reach the store.
	if store.Len() != 1 {
		t.Errorf("store.Len() = %d, want 1", store.Len())
	}
}

func TestHandle_UnknownCommand(t *testing.T) {
	h, _ := newTestHandler()

	reply := handle(t, h, "FROB", "x")
	want := "-ERR unknown command 'FROB'\r\n"
	if got := string(reply.Encode()); got != want {
		t.Errorf("FROB = %q, want %q", got, want)
	}
}

func TestHandle_Quit(t *testing.T) {
	h, _ := newTestHandler()

	reply, closeAfter := h.Handle(&Command{Name: "QUIT"})
	if !closeAfter {
		t.Error("QUIT should request connection close")
	}
	if got := string(reply.Encode()); got != "+OK\r\n" {
		t.Errorf("QUIT = %q, want +OK", got)
	}
}

func TestHandle_BinaryRoundTrip(t *testing.T) {
	h, _ := newTestHandler()

	val := string([]byte{0x00, 0x01, '\r', '\n', 0xfe})
	handle(t, h, "SET", "bin", val)

	want := string(BulkReply([]byte(val)).Encode())
	if got := string(handle(t, h, "GET", "bin").Encode()); got != want {
		t.Errorf("GET bin = %x, want %x", got, want)
	}
}
