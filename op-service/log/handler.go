package log

import (
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"reflect"
	"time"

	"github.com/holiman/uint256"

	elog "github.com/ethereum/go-ethereum/log"
)

const timeFormatMs = "2006-01-02T15:04:05.000-0700"

// JSONMsHandlerWithLevel writes JSON records with millisecond timestamps under the "t" key.
func JSONMsHandlerWithLevel(wr io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{
		ReplaceAttr: msReplacer(false),
		Level:       level,
	})
}

func LogfmtMsHandlerWithLevel(wr io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(wr, &slog.HandlerOptions{
		ReplaceAttr: msReplacer(true),
		Level:       level,
	})
}

// msReplacer renames the time and level keys the way geth does, and renders
// big numbers and Stringers as plain strings. Text output formats times itself.
func msReplacer(text bool) func([]string, slog.Attr) slog.Attr {
	return func(_ []string, attr slog.Attr) slog.Attr {
		switch attr.Key {
		case slog.TimeKey:
			if attr.Value.Kind() != slog.KindTime {
				break
			}
			if text {
				return slog.String("t", attr.Value.Time().Format(timeFormatMs))
			}
			return slog.Attr{Key: "t", Value: attr.Value}
		case slog.LevelKey:
			if l, ok := attr.Value.Any().(slog.Level); ok {
				return slog.String("lvl", elog.LevelString(l))
			}
		}
		if s, ok := renderValue(attr.Value.Any(), text); ok {
			attr.Value = slog.StringValue(s)
		}
		return attr
	}
}

func renderValue(v any, text bool) (string, bool) {
	switch v := v.(type) {
	case time.Time:
		return v.Format(timeFormatMs), text
	case *big.Int:
		if v == nil {
			return "<nil>", true
		}
		return v.String(), true
	case *uint256.Int:
		if v == nil {
			return "<nil>", true
		}
		return v.Dec(), true
	case fmt.Stringer:
		// typed nil pointers must not reach String()
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return "<nil>", true
		}
		return v.String(), true
	}
	return "", false
}
