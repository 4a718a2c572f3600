package asynclog

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/V4T54L/api-performance/internal/pkg/logger"
)

func TestWriterSink_JSON(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf, logger.FormatJSON)

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e := newEntry("cache miss", map[string]any{
		"level":     "critical",
		"cache_key": "all_posts",
		"attempt":   2,
	}, ts)
	if err := sink.Write(e); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("failed to decode output %q: %v", buf.String(), err)
	}
	if rec["msg"] != "cache miss" || rec["level"] != "CRITICAL" {
		t.Errorf("unexpected record: %v", rec)
	}
	if rec["cache_key"] != "all_posts" || rec["attempt"] != float64(2) {
		t.Errorf("fields not rendered: %v", rec)
	}
	if _, ok := rec["timestamp"]; ok {
		t.Error("timestamp field should become the record time")
	}
	got, err := time.Parse(time.RFC3339Nano, rec["time"].(string))
	if err != nil || !got.Equal(ts) {
		t.Errorf("record time = %v (%v), want %v", rec["time"], err, ts)
	}
}

func TestWriterSink_TextSortedKeys(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf, logger.FormatText)

	e := newEntry("hello", map[string]any{"zeta": 1, "alpha": 2, "mid": 3}, time.Now())
	if err := sink.Write(e); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	out := buf.String()
	a, m, z := strings.Index(out, "alpha="), strings.Index(out, "mid="), strings.Index(out, "zeta=")
	if a < 0 || m < 0 || z < 0 || !(a < m && m < z) {
		t.Errorf("expected sorted keys, got %s", out)
	}
	if !strings.Contains(out, "level=INFO") {
		t.Errorf("expected info level, got %s", out)
	}
}

func TestEntryTime(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		wantSec  int64
		wantNsec int
	}{
		{"Float Seconds", 1700000000.25, 1700000000, 250000000},
		{"Int Seconds", int(1700000000), 1700000000, 0},
		{"Int64 Seconds", int64(1700000000), 1700000000, 0},
		{"Int32 Seconds", int32(1700000000), 1700000000, 0},
		{"Time Value", time.Unix(1700000000, 5), 1700000000, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Entry{Fields: Fields{"timestamp": tt.value}}.Time()
			if got.Unix() != tt.wantSec || got.Nanosecond() != tt.wantNsec {
				t.Errorf("unexpected time %v", got)
			}
		})
	}

	if !(Entry{}).Time().IsZero() {
		t.Error("expected zero time without a timestamp")
	}
	if !(Entry{Fields: Fields{"timestamp": "yesterday"}}).Time().IsZero() {
		t.Error("expected zero time for a non-numeric timestamp")
	}
}

func TestWriterSink_IntegerTimestamp(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf, logger.FormatJSON)

	if err := s.Write(Entry{Message: "epoch", Level: LevelInfo, Fields: Fields{"timestamp": int64(1700000000)}}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"time":"2023-11-1`) {
		t.Errorf("expected record time from the integer timestamp, got %s", out)
	}
	if strings.Contains(out, `"timestamp"`) {
		t.Errorf("expected timestamp to be consumed as the record time, got %s", out)
	}
}

func TestSinkFunc(t *testing.T) {
	var got string
	var s Sink = SinkFunc(func(e Entry) error {
		got = e.Message
		return nil
	})
	if err := s.Write(Entry{Message: "fn"}); err != nil || got != "fn" {
		t.Errorf("SinkFunc did not forward: %q %v", got, err)
	}
}
