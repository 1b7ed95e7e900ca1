package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// DefaultTimeout bounds each request round trip.
const DefaultTimeout = 10 * time.Second

// ErrMalformedReply indicates the server sent a reply the client
// cannot parse.
var ErrMalformedReply = errors.New("client: malformed reply")

// ReplyKind identifies the wire form of a server reply.
type ReplyKind int

const (
	// SimpleReply is a "+..." status line.
	SimpleReply ReplyKind = iota
	// ErrorReply is a "-..." error line.
	ErrorReply
	// IntegerReply is a ":..." number line.
	IntegerReply
	// BulkReply is a "$n" length-prefixed payload.
	BulkReply
	// NilReply is the "$-1" null bulk.
	NilReply
)

// Reply is a parsed server reply.
type Reply struct {
	Kind ReplyKind
	Str  string
	Int  int64
}

// IsError reports whether the reply is an error.
func (r Reply) IsError() bool {
	return r.Kind == ErrorReply
}

// Client is a connection to a keyden server.
type Client struct {
	conn    net.Conn
	br      *bufio.Reader
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Dial connects to a keyden server at addr (host:port).
func Dial(addr string, opts ...Option) (*Client, error) {
	c := &Client{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}

	conn, err := net.DialTimeout("tcp", addr, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}

	c.conn = conn
	c.br = bufio.NewReader(conn)
	return c, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Do sends a command as an array of bulk strings and reads one reply.
func (c *Client) Do(args ...string) (Reply, error) {
	if len(args) == 0 {
		return Reply{}, errors.New("client: empty command")
	}

	req := encodeRequest(args)

	deadline := time.Now().Add(c.timeout)
	if err := c.conn.SetDeadline(deadline); err != nil {
		return Reply{}, err
	}

	if _, err := c.conn.Write(req); err != nil {
		return Reply{}, fmt.Errorf("send command: %w", err)
	}

	return c.readReply()
}

// encodeRequest frames args as *N followed by $len bulk strings.
func encodeRequest(args []string) []byte {
	buf := make([]byte, 0, 32)
	buf = append(buf, '*')
	buf = strconv.AppendInt(buf, int64(len(args)), 10)
	buf = append(buf, '\r', '\n')
	for _, a := range args {
		buf = append(buf, '$')
		buf = strconv.AppendInt(buf, int64(len(a)), 10)
		buf = append(buf, '\r', '\n')
		buf = append(buf, a...)
		buf = append(buf, '\r', '\n')
	}
	return buf
}

func (c *Client) readReply() (Reply, error) {
	line, err := c.readLine()
	if err != nil {
		return Reply{}, err
	}
	if len(line) == 0 {
		return Reply{}, ErrMalformedReply
	}

	switch line[0] {
	case '+':
		return Reply{Kind: SimpleReply, Str: line[1:]}, nil
	case '-':
		return Reply{Kind: ErrorReply, Str: line[1:]}, nil
	case ':':
		n, err := strconv.ParseInt(line[1:], 10, 64)
		if err != nil {
			return Reply{}, fmt.Errorf("%w: bad integer %q", ErrMalformedReply, line)
		}
		return Reply{Kind: IntegerReply, Int: n}, nil
	case '$':
		n, err := strconv.ParseInt(line[1:], 10, 64)
		if err != nil {
			return Reply{}, fmt.Errorf("%w: bad bulk length %q", ErrMalformedReply, line)
		}
		if n < 0 {
			return Reply{Kind: NilReply}, nil
		}
		payload := make([]byte, n+2)
		if _, err := io.ReadFull(c.br, payload); err != nil {
			return Reply{}, fmt.Errorf("read bulk payload: %w", err)
		}
		if payload[n] != '\r' || payload[n+1] != '\n' {
			return Reply{}, fmt.Errorf("%w: bulk payload not CRLF terminated", ErrMalformedReply)
		}
		return Reply{Kind: BulkReply, Str: string(payload[:n])}, nil
	default:
		return Reply{}, fmt.Errorf("%w: unknown reply type %q", ErrMalformedReply, line[0])
	}
}

func (c *Client) readLine() (string, error) {
	line, err := c.br.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read reply: %w", err)
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return "", fmt.Errorf("%w: line not CRLF terminated", ErrMalformedReply)
	}
	return line[:len(line)-2], nil
}
