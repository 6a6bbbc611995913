package redisserver

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yndnr/respkv/internal/command"
	"github.com/yndnr/respkv/internal/resp"
	"github.com/yndnr/respkv/internal/storage/memory"
	"github.com/yndnr/respkv/internal/telemetry/logger"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

// ErrRateLimited is reported when a connection exceeds its command rate.
var ErrRateLimited = errors.New("rate limit exceeded")

// CommandHandler executes commands against the store.
type CommandHandler struct {
	store   *memory.Store
	logger  logger.Logger
	metrics *metric.Registry
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(store *memory.Store, log logger.Logger, metrics *metric.Registry) *CommandHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &CommandHandler{
		store:   store,
		logger:  log,
		metrics: metrics,
	}
}

// Handle maps a decoded request to a command, executes it and returns the
// reply. It never fails: every error becomes an error reply.
func (h *CommandHandler) Handle(ctx context.Context, v resp.Value) resp.Value {
	cmd, err := command.FromValue(v)
	if err != nil {
		return h.errorReply(ctx, err, requestArgs(v))
	}

	start := time.Now()
	reply, err := h.Execute(cmd)
	h.metrics.ObserveCommand(cmd.Name(), time.Since(start))
	if err != nil {
		return h.errorReply(ctx, err, requestArgs(v))
	}
	return reply
}

// Execute runs cmd. The error is non-nil only when the store rejects it.
func (h *CommandHandler) Execute(cmd command.Command) (resp.Value, error) {
	switch c := cmd.(type) {
	case command.Ping:
		return resp.SimpleString("PONG"), nil

	case command.Echo:
		return resp.BulkString(c.Message), nil

	case command.Get:
		v, ok := h.store.Get(c.Key)
		if !ok {
			return resp.NullBulk(), nil
		}
		return resp.BulkString(v), nil

	case command.Set:
		h.store.Set(c.Key, c.Value)
		return resp.SimpleString("OK"), nil

	case command.SetWithExpiry:
		if err := h.store.SetWithExpiry(c.Key, c.Value, c.TTL, c.Unit); err != nil {
			return resp.Value{}, err
		}
		return resp.SimpleString("OK"), nil

	default:
		return resp.Value{}, command.ErrUnknownCommand
	}
}

// ErrorReply converts err into the error reply sent to the client and
// records it.
func (h *CommandHandler) ErrorReply(ctx context.Context, err error) resp.Value {
	return h.errorReply(ctx, err, "")
}

// errorReply is ErrorReply for a request whose arguments are known. They are
// logged under "args", which the logger truncates.
func (h *CommandHandler) errorReply(ctx context.Context, err error, args string) resp.Value {
	var (
		text string
		kind string
		perr *resp.ProtocolError
		cerr *command.Error
	)

	switch {
	case errors.As(err, &perr):
		text, kind = perr.Reply(), "protocol"
		if errors.Is(err, resp.ErrLimitExceeded) {
			kind = "limit"
		}
	case errors.As(err, &cerr):
		text, kind = cerr.Reply(), cerr.Code
	case errors.Is(err, memory.ErrInvalidTTL):
		text, kind = command.ErrInvalidExpire.Reply(), command.ErrInvalidExpire.Code
	case errors.Is(err, ErrRateLimited):
		text, kind = "ERR rate limit exceeded", "rate_limited"
	default:
		text, kind = "ERR "+err.Error(), "internal"
	}

	h.metrics.ObserveError(kind)
	attrs := []any{"kind", kind, "error", err}
	if args != "" {
		attrs = append(attrs, "args", args)
	}
	logger.FromContext(ctx).Debug("error reply", attrs...)
	return resp.ErrorString(text)
}

// maxLoggedArgs bounds how much of a request is copied for logging.
const maxLoggedArgs = 4 * logger.MaxPayloadLen

// requestArgs renders the string elements of a request separated by spaces,
// cut after maxLoggedArgs bytes.
func requestArgs(v resp.Value) string {
	if v.Kind != resp.KindArray {
		return ""
	}

	var b strings.Builder
	for i, e := range v.Array {
		if b.Len() >= maxLoggedArgs {
			break
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		switch e.Kind {
		case resp.KindBulkString:
			b.Write(e.Bulk[:min(len(e.Bulk), maxLoggedArgs)])
		case resp.KindSimpleString:
			b.WriteString(e.Str[:min(len(e.Str), maxLoggedArgs)])
		default:
			b.WriteString("<" + e.Kind.String() + ">")
		}
	}
	return b.String()
}
