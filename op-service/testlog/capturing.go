package testlog

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

// CapturedRecord is a log record together with the attributes inherited from the logger it was emitted on.
type CapturedRecord struct {
	slog.Record
	inherited []slog.Attr
}

// AttrValue returns the value of the attribute with the given key, searching the record first.
func (r *CapturedRecord) AttrValue(key string) (v slog.Value, ok bool) {
	r.Record.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			v, ok = a.Value, true
			return false
		}
		return true
	})
	if ok {
		return v, true
	}
	for _, a := range r.inherited {
		if a.Key == key {
			return a.Value, true
		}
	}
	return slog.Value{}, false
}

// CapturingHandler captures all log records and forwards them to a delegate.
type CapturingHandler struct {
	handler slog.Handler
	mu      *sync.Mutex
	logs    *[]*CapturedRecord // shared among derived CapturingHandlers
	attrs   []slog.Attr
}

// CaptureLogger returns a test logger together with the handler that records everything it logs.
func CaptureLogger(t Testing, level slog.Level) (log.Logger, *CapturingHandler) {
	ch := &CapturingHandler{
		handler: newTestHandler(t, level),
		mu:      new(sync.Mutex),
		logs:    new([]*CapturedRecord),
	}
	return log.NewLogger(ch), ch
}

func (c *CapturingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return c.handler.Enabled(ctx, level)
}

func (c *CapturingHandler) Handle(ctx context.Context, r slog.Record) error {
	c.mu.Lock()
	*c.logs = append(*c.logs, &CapturedRecord{Record: r.Clone(), inherited: c.attrs})
	c.mu.Unlock()
	return c.handler.Handle(ctx, r)
}

func (c *CapturingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	inherited := append(append([]slog.Attr{}, c.attrs...), attrs...)
	return &CapturingHandler{handler: c.handler.WithAttrs(attrs), mu: c.mu, logs: c.logs, attrs: inherited}
}

func (c *CapturingHandler) WithGroup(name string) slog.Handler {
	return &CapturingHandler{handler: c.handler.WithGroup(name), mu: c.mu, logs: c.logs, attrs: c.attrs}
}

// LogFilter matches captured records.
type LogFilter func(r *CapturedRecord) bool

func NewLevelFilter(level slog.Level) LogFilter {
	return func(r *CapturedRecord) bool {
		return r.Level == level
	}
}

func NewMessageFilter(msg string) LogFilter {
	return func(r *CapturedRecord) bool {
		return r.Message == msg
	}
}

func NewAttributesFilter(key, value string) LogFilter {
	return func(r *CapturedRecord) bool {
		v, ok := r.AttrValue(key)
		return ok && v.String() == value
	}
}

// FindLogs returns every captured record that matches all filters.
func (c *CapturingHandler) FindLogs(filters ...LogFilter) []*CapturedRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*CapturedRecord
outer:
	for _, r := range *c.logs {
		for _, f := range filters {
			if !f(r) {
				continue outer
			}
		}
		out = append(out, r)
	}
	return out
}

// FindLog returns the first matching record, or nil.
func (c *CapturingHandler) FindLog(filters ...LogFilter) *CapturedRecord {
	if logs := c.FindLogs(filters...); len(logs) > 0 {
		return logs[0]
	}
	return nil
}

func (c *CapturingHandler) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.logs = (*c.logs)[:0]
}
