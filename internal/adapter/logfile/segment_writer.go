package logfile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	segmentPrefix = "segment-"
	segmentSuffix = ".log"
	filePerm      = 0644
)

// SegmentWriter is an io.Writer over size-rotated log segments in a directory.
// When the directory grows past maxTotalSize the oldest closed segments are removed.
type SegmentWriter struct {
	dir            string
	maxSegmentSize int64
	maxTotalSize   int64
	logger         *slog.Logger

	mu             sync.Mutex
	currentSegment *os.File
	currentSize    int64
}

// NewSegmentWriter opens dir, appending to its newest segment if there is room.
func NewSegmentWriter(dir string, maxSegmentSize, maxTotalSize int64, logger *slog.Logger) (*SegmentWriter, error) {
	if maxSegmentSize <= 0 {
		return nil, fmt.Errorf("segment size must be positive, got %d", maxSegmentSize)
	}
	if maxTotalSize < maxSegmentSize {
		return nil, fmt.Errorf("max total size %d is smaller than segment size %d", maxTotalSize, maxSegmentSize)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	w := &SegmentWriter{
		dir:            dir,
		maxSegmentSize: maxSegmentSize,
		maxTotalSize:   maxTotalSize,
		logger:         logger.With("component", "segment_writer"),
	}

	if err := w.openLatestSegment(); err != nil {
		return nil, err
	}

	return w, nil
}

// Write appends p to the current segment, rotating once it is full.
func (w *SegmentWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentSegment == nil {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.currentSegment.Write(p)
	w.currentSize += int64(n)
	if err != nil {
		return n, fmt.Errorf("failed to write to log segment: %w", err)
	}

	if w.currentSize >= w.maxSegmentSize {
		if err := w.rotate(); err != nil {
			w.logger.Error("Failed to rotate log segment", "error", err)
		}
	}

	return n, nil
}

// Segments lists segment paths, oldest first.
func (w *SegmentWriter) Segments() ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.getSortedSegments()
}

// Close syncs and closes the current segment.
func (w *SegmentWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.currentSegment == nil {
		return nil
	}
	if err := w.currentSegment.Sync(); err != nil {
		w.logger.Error("Failed to sync log segment on close", "error", err)
	}
	err := w.currentSegment.Close()
	w.currentSegment = nil
	return err
}

func (w *SegmentWriter) rotate() error {
	if w.currentSegment != nil {
		if err := w.currentSegment.Sync(); err != nil {
			w.logger.Error("Failed to sync log segment before rotating", "error", err)
		}
		if err := w.currentSegment.Close(); err != nil {
			w.logger.Error("Failed to close log segment before rotating", "error", err)
		}
		w.currentSegment = nil
	}

	segmentName := fmt.Sprintf("%s%020d%s", segmentPrefix, time.Now().UnixNano(), segmentSuffix)
	path := filepath.Join(w.dir, segmentName)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to create log segment %s: %w", path, err)
	}

	w.currentSegment = f
	w.currentSize = 0
	w.logger.Debug("Rotated to new log segment", "path", path)

	w.enforceRetention(path)
	return nil
}

// enforceRetention removes the oldest segments, never current, until the
// directory fits within maxTotalSize.
func (w *SegmentWriter) enforceRetention(current string) {
	segments, err := w.getSortedSegments()
	if err != nil {
		w.logger.Error("Failed to list log segments for retention", "error", err)
		return
	}

	sizes := make(map[string]int64, len(segments))
	var total int64
	for _, path := range segments {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		sizes[path] = info.Size()
		total += info.Size()
	}

	for _, path := range segments {
		if total <= w.maxTotalSize {
			return
		}
		if path == current {
			continue
		}
		if err := os.Remove(path); err != nil {
			w.logger.Error("Failed to remove old log segment", "path", path, "error", err)
			continue
		}
		total -= sizes[path]
		w.logger.Info("Removed old log segment", "path", path)
	}
}

func (w *SegmentWriter) openLatestSegment() error {
	segments, err := w.getSortedSegments()
	if err != nil {
		return err
	}

	if len(segments) == 0 {
		return w.rotate()
	}

	latestSegmentPath := segments[len(segments)-1]
	stat, err := os.Stat(latestSegmentPath)
	if err != nil {
		return fmt.Errorf("failed to stat latest segment %s: %w", latestSegmentPath, err)
	}

	if stat.Size() >= w.maxSegmentSize {
		return w.rotate()
	}

	f, err := os.OpenFile(latestSegmentPath, os.O_APPEND|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to open latest segment %s: %w", latestSegmentPath, err)
	}

	w.currentSegment = f
	w.currentSize = stat.Size()
	w.logger.Debug("Opened existing log segment", "path", latestSegmentPath, "size", w.currentSize)
	return nil
}

func (w *SegmentWriter) getSortedSegments() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read log directory: %w", err)
	}

	var segments []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, segmentPrefix) && strings.HasSuffix(name, segmentSuffix) {
			segments = append(segments, filepath.Join(w.dir, name))
		}
	}
	sort.Strings(segments)
	return segments, nil
}
