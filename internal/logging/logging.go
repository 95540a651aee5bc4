package logging

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdobak/go-xerrors"
)

// RequestAttrs is the per-request context attached to log lines. Question
// text never goes here; attendees may type anything.
type RequestAttrs struct {
	Method    string
	Path      string
	IP        string
	RequestID string
}

type contextKey string

const requestAttrsKey contextKey = "requestAttrs"

// stackFrame represents a single frame in a stack trace
type stackFrame struct {
	Func   string `json:"func"`
	Source string `json:"source"`
	Line   int    `json:"line"`
}

// Initialize sets up the global slog with a JSON handler on stdout.
// Valid levels: debug, info, warn, error (defaults to info)
func Initialize(level string) *slog.Logger {
	logger := New(os.Stdout, level)
	slog.SetDefault(logger)
	return logger
}

// New builds a JSON logger writing to w that formats errors with their
// stack traces.
func New(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       decodeLogLevel(strings.ToLower(level)),
		ReplaceAttr: replaceAttr,
	})
	return slog.New(handler)
}

// decodeLogLevel maps LOGGING_LEVEL onto slog. Unknown values mean info.
func decodeLogLevel(levelStr string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if err, ok := a.Value.Any().(error); ok && a.Value.Kind() == slog.KindAny {
		a.Value = fmtErr(err)
	}
	return a
}

// marshalStack turns the trace recorded by xerrors into short
// "dir/file.go" frames. Errors without a trace yield nil.
func marshalStack(err error) []stackFrame {
	trace := xerrors.StackTrace(err)
	if len(trace) == 0 {
		return nil
	}

	var out []stackFrame
	for _, f := range trace.Frames() {
		out = append(out, stackFrame{
			Func:   filepath.Base(f.Function),
			Source: filepath.Join(filepath.Base(filepath.Dir(f.File)), filepath.Base(f.File)),
			Line:   f.Line,
		})
	}
	return out
}

// fmtErr renders an error as a {msg, trace} group.
func fmtErr(err error) slog.Value {
	frames := marshalStack(err)
	if frames == nil {
		return slog.GroupValue(slog.String("msg", err.Error()))
	}
	return slog.GroupValue(slog.String("msg", err.Error()), slog.Any("trace", frames))
}

// WrapError wraps an error with a message and captures stack trace
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	wrapped := xerrors.WithStackTrace(err, 1)
	return xerrors.Newf("%s: %v", msg, wrapped)
}

// WithRequestAttrs adds request attributes to context
func WithRequestAttrs(ctx context.Context, attrs *RequestAttrs) context.Context {
	return context.WithValue(ctx, requestAttrsKey, attrs)
}

// GetRequestAttrs retrieves request attributes from context
func GetRequestAttrs(ctx context.Context) *RequestAttrs {
	attrs, _ := ctx.Value(requestAttrsKey).(*RequestAttrs)
	return attrs
}

// RequestFields extracts slog attrs from context
func RequestFields(ctx context.Context) []any {
	attrs := GetRequestAttrs(ctx)
	if attrs == nil {
		return nil
	}

	fields := []any{
		slog.String("method", attrs.Method),
		slog.String("path", attrs.Path),
		slog.String("ip", attrs.IP),
	}
	if attrs.RequestID != "" {
		fields = append(fields, slog.String("request_id", attrs.RequestID))
	}
	return fields
}

// ExtractClientIP returns the viewer address. X-Real-IP, set by the
// client IP middleware, wins over the raw peer address.
func ExtractClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LogErrorWithStatus logs an ERROR-level message with context, status, and error
func LogErrorWithStatus(ctx context.Context, status int, msg string, err error) {
	fields := RequestFields(ctx)
	fields = append(fields, slog.Int("status", status))
	if err != nil {
		fields = append(fields, slog.Any("error", err))
	}
	slog.ErrorContext(ctx, msg, fields...)
}

// LogRejected logs a WARN-level client error such as a rejected submission.
func LogRejected(ctx context.Context, status int, msg string, err error) {
	fields := RequestFields(ctx)
	fields = append(fields, slog.Int("status", status), slog.String("reason", err.Error()))
	slog.WarnContext(ctx, msg, fields...)
}

// LogViewer records a live viewer joining or leaving a stream. viewers is
// the broker's subscriber count after the change.
func LogViewer(ctx context.Context, transport string, connected bool, viewers int) {
	msg := "viewer disconnected"
	if connected {
		msg = "viewer connected"
	}
	fields := RequestFields(ctx)
	fields = append(fields, slog.String("transport", transport), slog.Int("viewers", viewers))
	slog.InfoContext(ctx, msg, fields...)
}
