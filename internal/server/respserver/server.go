package respserver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/keyden/keyden-go/internal/storage/memory"
	"github.com/keyden/keyden-go/internal/telemetry/logger"
	"github.com/keyden/keyden-go/internal/telemetry/metric"
)

// Config holds the wire protocol server configuration.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// ReadTimeout is the timeout for reading the rest of a started
	// command (default: 30s). Helps prevent slowloris attacks.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing a response (default: 30s).
	WriteTimeout time.Duration
	// IdleTimeout is the timeout for idle connections (default: 5m).
	IdleTimeout time.Duration
	// RateLimit is the maximum number of commands per second per IP.
	// Set to 0 to disable rate limiting.
	RateLimit int
	// Limits bounds request framing; zero values use the defaults.
	Limits Limits
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:4200",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
		RateLimit:    0,
		Limits:       DefaultLimits(),
	}
}

// Server accepts client connections and runs one handler goroutine per
// connection, all sharing one store instance.
type Server struct {
	cfg     *Config
	handler *CommandHandler
	log     logger.Logger
	metrics *metric.Registry
	limiter *ipLimiter

	ln      net.Listener
	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a new wire protocol server bound to the given store.
func New(cfg *Config, store *memory.Store, log logger.Logger, metrics *metric.Registry) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 5 * time.Minute
	}
	if log == nil {
		log = logger.Default()
	}

	var limiter *ipLimiter
	if cfg.RateLimit > 0 {
		limiter = newIPLimiter(cfg.RateLimit)
	}

	return &Server{
		cfg:     cfg,
		handler: NewCommandHandler(store, log, metrics),
		log:     log,
		metrics: metrics,
		limiter: limiter,
	}
}

// Start binds the listener and begins accepting connections in the
// background. It returns once the listener is bound, so Addr reports
// the actual address even when configured with port 0.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.running.Store(true)

	s.log.Info("server listening", "addr", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx)
	}()

	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Shutdown stops accepting connections and waits for in-flight handlers
// to finish, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error
	if s.ln != nil {
		if err := s.ln.Close(); err != nil {
			firstErr = err
		}
	}

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

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		c, err := s.ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			s.log.Error("accept error", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, c)
		}()
	}
}

// serveConn owns one client connection: it accumulates bytes in a
// buffer, decodes complete commands, dispatches them in arrival order
// and writes the replies back. A protocol error terminates the session;
// a command error is a normal reply and the session continues.
func (s *Server) serveConn(ctx context.Context, nc net.Conn) {
	defer nc.Close()

	connID := ulid.Make().String()
	log := s.log.With("conn_id", connID, "remote", nc.RemoteAddr().String())
	log.Debug("connection accepted")

	s.metrics.ConnOpened()
	defer s.metrics.ConnClosed()

	var limit *rate.Limiter
	if s.limiter != nil {
		limit = s.limiter.get(remoteIP(nc))
	}

	var (
		in  bytes.Buffer
		out []byte
		tmp = make([]byte, 4096)
	)

	for {
		// Drain every complete command already buffered before
		// touching the socket again, so pipelined requests are
		// answered in arrival order without extra reads.
		for {
			cmd, n, err := Decode(in.Bytes(), s.cfg.Limits)
			if err != nil {
				if len(out) > 0 {
					// Deliver replies already produced for this batch.
					_ = s.writeOut(nc, out)
				}
				s.failConn(nc, log, err)
				return
			}
			if n == 0 {
				break
			}
			in.Next(n)
			if cmd == nil {
				continue
			}

			if limit != nil && !limit.Allow() {
				out = ErrorReply("ERR rate limit exceeded").AppendTo(out)
				continue
			}

			reply, closeAfter := s.handler.Handle(cmd)
			out = reply.AppendTo(out)

			if closeAfter {
				_ = s.writeOut(nc, out)
				log.Debug("connection quit")
				return
			}
		}

		if len(out) > 0 {
			if err := s.writeOut(nc, out); err != nil {
				log.Debug("connection write error", "error", err)
				return
			}
			out = out[:0]
		}

		// An empty buffer means the peer is between commands: allow the
		// full idle timeout. A partial command gets the tighter read
		// timeout.
		deadline := s.cfg.IdleTimeout
		if in.Len() > 0 {
			deadline = s.cfg.ReadTimeout
		}
		if err := nc.SetReadDeadline(time.Now().Add(deadline)); err != nil {
			return
		}

		n, err := nc.Read(tmp)
		if n > 0 {
			in.Write(tmp[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug("connection closed by peer")
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				log.Debug("connection timed out")
				return
			}
			log.Debug("connection read error", "error", err)
			return
		}
	}
}

// failConn reports a fatal framing error to the peer if the write side
// is still viable, then lets the deferred close terminate the session.
// Resynchronizing the byte stream after a framing error is not possible,
// so one malformed command ends the connection.
func (s *Server) failConn(nc net.Conn, log logger.Logger, err error) {
	s.metrics.ProtocolError()

	if errors.Is(err, ErrLimitExceeded) {
		log.Warn("protocol limit exceeded", "error", err)
		_ = s.writeOut(nc, ErrorReply("ERR protocol limit exceeded").Encode())
		return
	}

	log.Info("protocol error, closing connection", "error", err)
	_ = s.writeOut(nc, ErrorReply("ERR protocol error: "+err.Error()).Encode())
}

func (s *Server) writeOut(nc net.Conn, b []byte) error {
	if err := nc.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return err
	}
	_, err := nc.Write(b)
	return err
}

// remoteIP extracts the peer IP without the port.
func remoteIP(nc net.Conn) string {
	host, _, err := net.SplitHostPort(nc.RemoteAddr().String())
	if err != nil {
		return nc.RemoteAddr().String()
	}
	return host
}

// ipLimiter keeps one token bucket per client IP.
type ipLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func newIPLimiter(perSecond int) *ipLimiter {
	return &ipLimiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(perSecond),
		burst:   perSecond,
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[ip]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[ip] = b
	}
	return b
}
