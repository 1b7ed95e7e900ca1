package respserver

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Protocol limits to prevent unbounded allocation from a hostile peer.
const (
	// DefaultMaxArrayLen limits the number of elements in a request array.
	// The largest supported command (SET) has three elements.
	DefaultMaxArrayLen = 1024

	// DefaultMaxBulkLen limits the size of a single bulk string (512KB).
	DefaultMaxBulkLen = 512 * 1024

	// DefaultMaxInlineLen limits inline command line length (4KB).
	DefaultMaxInlineLen = 4 * 1024

	// maxHeaderLen bounds "*<n>\r\n" and "$<n>\r\n" header lines.
	maxHeaderLen = 64
)

var (
	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

// Limits bounds request framing. Zero values fall back to the defaults.
type Limits struct {
	MaxArrayLen  int
	MaxBulkLen   int
	MaxInlineLen int
}

// DefaultLimits returns the default protocol limits.
func DefaultLimits() Limits {
	return Limits{
		MaxArrayLen:  DefaultMaxArrayLen,
		MaxBulkLen:   DefaultMaxBulkLen,
		MaxInlineLen: DefaultMaxInlineLen,
	}
}

func (l Limits) withDefaults() Limits {
	if l.MaxArrayLen <= 0 {
		l.MaxArrayLen = DefaultMaxArrayLen
	}
	if l.MaxBulkLen <= 0 {
		l.MaxBulkLen = DefaultMaxBulkLen
	}
	if l.MaxInlineLen <= 0 {
		l.MaxInlineLen = DefaultMaxInlineLen
	}
	return l
}

// Command is one parsed client command. Name is the raw first element;
// matching against known commands is the dispatcher's job, not the
// codec's.
type Command struct {
	Name string
	Args [][]byte
}

// Decode attempts to parse one complete command from the front of buf.
//
// It returns the command and the number of bytes consumed. When buf
// holds an incomplete command it returns (nil, 0, nil); the caller must
// read more bytes and retry. A non-nil error means the stream framing is
// broken and the connection cannot be resynchronized.
//
// Blank inline lines are consumed without producing a command: the
// returned command is nil while consumed is positive.
func Decode(buf []byte, lim Limits) (*Command, int, error) {
	if len(buf) == 0 {
		return nil, 0, nil
	}
	lim = lim.withDefaults()

	if buf[0] == '*' {
		return decodeArray(buf, lim)
	}
	return decodeInline(buf, lim)
}

// decodeArray parses "*<n>\r\n" followed by n bulk strings.
func decodeArray(buf []byte, lim Limits) (*Command, int, error) {
	line, consumed, err := readLine(buf, maxHeaderLen)
	if err != nil {
		return nil, 0, err
	}
	if consumed == 0 {
		return nil, 0, nil
	}

	n, err := strconv.Atoi(string(line[1:]))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: invalid array length %q", ErrProtocol, line[1:])
	}
	if n <= 0 {
		return nil, 0, fmt.Errorf("%w: array length %d", ErrProtocol, n)
	}
	if n > lim.MaxArrayLen {
		return nil, 0, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, lim.MaxArrayLen)
	}

	elems := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		elem, m, err := decodeBulk(buf[consumed:], lim)
		if err != nil {
			return nil, 0, err
		}
		if m == 0 {
			return nil, 0, nil
		}
		consumed += m
		elems = append(elems, elem)
	}

	if len(elems[0]) == 0 {
		return nil, 0, fmt.Errorf("%w: empty command name", ErrProtocol)
	}

	return &Command{Name: string(elems[0]), Args: elems[1:]}, consumed, nil
}

// decodeBulk parses "$<len>\r\n<bytes>\r\n" from the front of buf.
func decodeBulk(buf []byte, lim Limits) ([]byte, int, error) {
	line, consumed, err := readLine(buf, maxHeaderLen)
	if err != nil {
		return nil, 0, err
	}
	if consumed == 0 {
		return nil, 0, nil
	}
	if len(line) == 0 {
		return nil, 0, fmt.Errorf("%w: empty header line", ErrProtocol)
	}
	if line[0] != '$' {
		return nil, 0, fmt.Errorf("%w: expected bulk string, got %q", ErrProtocol, line[0])
	}

	n, err := strconv.Atoi(string(line[1:]))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: invalid bulk length %q", ErrProtocol, line[1:])
	}
	if n < 0 {
		return nil, 0, fmt.Errorf("%w: negative bulk length %d", ErrProtocol, n)
	}
	if n > lim.MaxBulkLen {
		return nil, 0, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, n, lim.MaxBulkLen)
	}

	end := consumed + n + 2
	if end > len(buf) {
		return nil, 0, nil
	}
	if buf[end-2] != '\r' || buf[end-1] != '\n' {
		return nil, 0, fmt.Errorf("%w: missing bulk terminator", ErrProtocol)
	}

	elem := make([]byte, n)
	copy(elem, buf[consumed:consumed+n])
	return elem, end, nil
}

// decodeInline parses a space-separated command line.
func decodeInline(buf []byte, lim Limits) (*Command, int, error) {
	line, consumed, err := readLine(buf, lim.MaxInlineLen)
	if err != nil {
		return nil, 0, err
	}
	if consumed == 0 {
		return nil, 0, nil
	}

	parts := strings.Fields(string(line))
	if len(parts) == 0 {
		// Blank line: consumed but no command.
		return nil, consumed, nil
	}

	args := make([][]byte, 0, len(parts)-1)
	for _, p := range parts[1:] {
		args = append(args, []byte(p))
	}
	return &Command{Name: parts[0], Args: args}, consumed, nil
}

// readLine reads one CRLF-terminated line from the front of buf. It
// returns the line without the terminator and the bytes consumed;
// consumed == 0 means the line is not yet complete. A bare LF or a line
// longer than maxLen is a framing error.
func readLine(buf []byte, maxLen int) ([]byte, int, error) {
	idx := bytes.IndexByte(buf, '\n')
	if idx == -1 {
		// A legal partial line holds up to maxLen content bytes plus
		// the trailing CR.
		if len(buf) > maxLen+1 {
			return nil, 0, fmt.Errorf("%w: line exceeds limit %d", ErrLimitExceeded, maxLen)
		}
		return nil, 0, nil
	}
	if idx == 0 || buf[idx-1] != '\r' {
		return nil, 0, fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}
	if idx-1 > maxLen {
		return nil, 0, fmt.Errorf("%w: line exceeds limit %d", ErrLimitExceeded, maxLen)
	}
	return buf[:idx-1], idx + 1, nil
}

// replyKind discriminates Reply variants.
type replyKind uint8

const (
	replySimple replyKind = iota
	replyError
	replyInteger
	replyBulk
	replyNil
)

// Reply is one protocol-level response value. Encoding is total: every
// constructed Reply serializes without error.
type Reply struct {
	kind replyKind
	str  string
	n    int64
	bulk []byte
}

// SimpleReply builds a simple string reply ("+<s>\r\n").
func SimpleReply(s string) Reply {
	return Reply{kind: replySimple, str: s}
}

// ErrorReply builds an error reply ("-<msg>\r\n").
func ErrorReply(msg string) Reply {
	return Reply{kind: replyError, str: msg}
}

// IntegerReply builds an integer reply (":<n>\r\n").
func IntegerReply(n int64) Reply {
	return Reply{kind: replyInteger, n: n}
}

// BulkReply builds a bulk string reply. A nil slice encodes as the nil
// bulk ("$-1\r\n"); an empty non-nil slice encodes as "$0\r\n\r\n".
func BulkReply(b []byte) Reply {
	if b == nil {
		return NilReply()
	}
	return Reply{kind: replyBulk, bulk: b}
}

// NilReply builds the nil bulk reply ("$-1\r\n").
func NilReply() Reply {
	return Reply{kind: replyNil}
}

// IsError reports whether the reply is an error reply.
func (r Reply) IsError() bool {
	return r.kind == replyError
}

// Encode serializes the reply to its wire form.
func (r Reply) Encode() []byte {
	return r.AppendTo(nil)
}

// AppendTo appends the reply's wire form to dst and returns the result.
func (r Reply) AppendTo(dst []byte) []byte {
	switch r.kind {
	case replySimple:
		dst = append(dst, '+')
		dst = append(dst, r.str...)
	case replyError:
		dst = append(dst, '-')
		dst = append(dst, r.str...)
	case replyInteger:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, r.n, 10)
	case replyBulk:
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(r.bulk)), 10)
		dst = append(dst, '\r', '\n')
		dst = append(dst, r.bulk...)
	case replyNil:
		dst = append(dst, "$-1"...)
	}
	return append(dst, '\r', '\n')
}

// normalizeCommandName uppercases an ASCII command name, skipping the
// allocation when the token is already uppercase.
func normalizeCommandName(name string) string {
	if strings.ContainsAny(name, "abcdefghijklmnopqrstuvwxyz") {
		return strings.ToUpper(name)
	}
	return name
}
