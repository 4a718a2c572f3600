// Package asynclog moves log I/O off the caller's path: producers enqueue
// entries onto an unbounded FIFO queue and a single worker goroutine drains
// it into a Sink.
package asynclog

import (
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/V4T54L/api-performance/internal/pkg/logger"
)

// Level is the severity of an Entry. Values line up with log/slog.
type Level int

const (
	LevelDebug    = Level(slog.LevelDebug)
	LevelInfo     = Level(slog.LevelInfo)
	LevelWarning  = Level(slog.LevelWarn)
	LevelError    = Level(slog.LevelError)
	LevelCritical = Level(logger.LevelCritical)
)

// Reserved field keys.
const (
	FieldLevel     = "level"
	FieldTimestamp = "timestamp"
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelCritical:
		return "critical"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Slog converts l to the equivalent slog level.
func (l Level) Slog() slog.Level { return slog.Level(l) }

// ParseLevel reads a level name. ok is false when the name is not recognized.
func ParseLevel(s string) (lvl Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warning", "warn":
		return LevelWarning, true
	case "error":
		return LevelError, true
	case "critical", "fatal":
		return LevelCritical, true
	}
	return LevelInfo, false
}

// LevelOf classifies the value of a "level" field. Anything unrecognized is info.
func LevelOf(v any) Level {
	switch lv := v.(type) {
	case Level:
		if _, ok := ParseLevel(lv.String()); ok {
			return lv
		}
	case slog.Level:
		return fromSlog(lv)
	case string:
		lvl, _ := ParseLevel(lv)
		return lvl
	case fmt.Stringer:
		lvl, _ := ParseLevel(lv.String())
		return lvl
	}
	return LevelInfo
}

func fromSlog(l slog.Level) Level {
	switch {
	case l >= logger.LevelCritical:
		return LevelCritical
	case l >= slog.LevelError:
		return LevelError
	case l >= slog.LevelWarn:
		return LevelWarning
	case l >= slog.LevelInfo:
		return LevelInfo
	default:
		return LevelDebug
	}
}

// Fields carries the structured data of an Entry.
type Fields map[string]any

// Entry is one unit of work for the worker. It is not modified after it has
// been enqueued.
type Entry struct {
	Message string
	Level   Level
	Fields  Fields
}

// Time returns the submission time recorded in the timestamp field. Numeric
// values are seconds since the Unix epoch.
func (e Entry) Time() time.Time {
	switch ts := e.Fields[FieldTimestamp].(type) {
	case float64:
		sec := int64(ts)
		return time.Unix(sec, int64((ts-float64(sec))*1e9))
	case int:
		return time.Unix(int64(ts), 0)
	case int32:
		return time.Unix(int64(ts), 0)
	case int64:
		return time.Unix(ts, 0)
	case time.Time:
		return ts
	}
	return time.Time{}
}

// newEntry copies fields, pulls out the level key and injects a timestamp.
// The caller's map is left untouched.
func newEntry(message string, fields map[string]any, now time.Time) Entry {
	e := Entry{
		Message: message,
		Level:   LevelInfo,
		Fields:  make(Fields, len(fields)+1),
	}
	maps.Copy(e.Fields, fields)
	if v, ok := e.Fields[FieldLevel]; ok {
		e.Level = LevelOf(v)
		delete(e.Fields, FieldLevel)
	}
	if _, ok := e.Fields[FieldTimestamp]; !ok {
		e.Fields[FieldTimestamp] = epochSeconds(now)
	}
	return e
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
