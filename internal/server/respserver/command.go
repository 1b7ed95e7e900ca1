package respserver

import (
	"strings"
	"time"

	"github.com/keyden/keyden-go/internal/storage/memory"
	"github.com/keyden/keyden-go/internal/telemetry/logger"
	"github.com/keyden/keyden-go/internal/telemetry/metric"
)

// CommandHandler maps parsed commands to store operations.
//
// Every execution is a single synchronous step: validate arity, make at
// most one store call, build the reply. The store handle is the only
// shared state; the handler itself is stateless and safe for concurrent
// use by all connection goroutines.
type CommandHandler struct {
	store   *memory.Store
	log     logger.Logger
	metrics *metric.Registry
}

// NewCommandHandler creates a command handler bound to the given store.
func NewCommandHandler(store *memory.Store, log logger.Logger, metrics *metric.Registry) *CommandHandler {
	if log == nil {
		log = logger.Default()
	}
	return &CommandHandler{
		store:   store,
		log:     log,
		metrics: metrics,
	}
}

// Handle executes one command and returns the reply, plus whether the
// connection should close after the reply is written (QUIT).
//
// Argument-count mismatches and unknown commands produce error replies
// and never reach the store; the session continues.
func (h *CommandHandler) Handle(cmd *Command) (Reply, bool) {
	name := normalizeCommandName(cmd.Name)
	start := time.Now()

	var reply Reply
	var closeAfter bool

	switch name {
	case "PING":
		reply = h.handlePing(cmd.Args)
	case "ECHO":
		reply = h.handleEcho(cmd.Args)
	case "GET":
		reply = h.handleGet(cmd.Args)
	case "SET":
		reply = h.handleSet(cmd.Args)
	case "DEL":
		reply = h.handleDel(cmd.Args)
	case "EXISTS":
		reply = h.handleExists(cmd.Args)
	case "QUIT":
		reply = SimpleReply("OK")
		closeAfter = true
	default:
		h.log.Debug("unknown command", "command", cmd.Name)
		reply = ErrorReply("ERR unknown command '" + cmd.Name + "'")
		name = "UNKNOWN"
	}

	h.metrics.ObserveCommand(name, time.Since(start))
	return reply, closeAfter
}

func (h *CommandHandler) handlePing(args [][]byte) Reply {
	switch len(args) {
	case 0:
		return SimpleReply("PONG")
	case 1:
		return BulkReply(args[0])
	default:
		return wrongArity("ping")
	}
}

func (h *CommandHandler) handleEcho(args [][]byte) Reply {
	if len(args) != 1 {
		return wrongArity("echo")
	}
	return BulkReply(args[0])
}

func (h *CommandHandler) handleGet(args [][]byte) Reply {
	if len(args) != 1 {
		return wrongArity("get")
	}
	v, ok := h.store.Get(string(args[0]))
	if !ok {
		return NilReply()
	}
	return BulkReply([]byte(v))
}

func (h *CommandHandler) handleSet(args [][]byte) Reply {
	if len(args) != 2 {
		return wrongArity("set")
	}
	h.store.Set(string(args[0]), string(args[1]))
	return SimpleReply("OK")
}

func (h *CommandHandler) handleDel(args [][]byte) Reply {
	if len(args) != 1 {
		return wrongArity("del")
	}
	if h.store.Delete(string(args[0])) {
		return IntegerReply(1)
	}
	return IntegerReply(0)
}

func (h *CommandHandler) handleExists(args [][]byte) Reply {
	if len(args) != 1 {
		return wrongArity("exists")
	}
	if h.store.Exists(string(args[0])) {
		return IntegerReply(1)
	}
	return IntegerReply(0)
}

func wrongArity(name string) Reply {
	return ErrorReply("ERR wrong number of arguments for '" + strings.ToLower(name) + "' command")
}
