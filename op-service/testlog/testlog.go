// Package testlog provides a log handler for unit tests.
package testlog

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

var useColorInTestLog = os.Getenv("OP_TESTLOG_DISABLE_COLOR") != "true"

// Testing interface to log to.
// Standard Go testing.TB implements this, as well as other Go-like test frameworks.
type Testing interface {
	Logf(format string, args ...any)
	Helper()
}

// testHandler renders records with the terminal handler and forwards each one to t.Logf.
type testHandler struct {
	t     Testing
	mu    *sync.Mutex
	buf   *bytes.Buffer
	inner slog.Handler
}

func (h *testHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *testHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	h.t.Logf("%s", strings.TrimRight(h.buf.String(), "\n"))
	h.buf.Reset()
	return nil
}

func (h *testHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &testHandler{t: h.t, mu: h.mu, buf: h.buf, inner: h.inner.WithAttrs(attrs)}
}

func (h *testHandler) WithGroup(name string) slog.Handler {
	return &testHandler{t: h.t, mu: h.mu, buf: h.buf, inner: h.inner.WithGroup(name)}
}

func newTestHandler(t Testing, level slog.Level) slog.Handler {
	buf := new(bytes.Buffer)
	return &testHandler{
		t:     t,
		mu:    new(sync.Mutex),
		buf:   buf,
		inner: log.NewTerminalHandlerWithLevel(buf, level, useColorInTestLog),
	}
}

// Logger returns a logger which logs to the unit test log of t.
func Logger(t Testing, level slog.Level) log.Logger {
	return log.NewLogger(newTestHandler(t, level))
}
