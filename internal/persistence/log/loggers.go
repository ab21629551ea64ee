package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/ThirdShiftStudios/FusionMMO-sub000/internal/sim/world"
)

// DefaultSegmentTicks is how many ticks one tick log file covers.
const DefaultSegmentTicks = 72000

// JSONLZstdWriter appends JSON lines to zstd files under baseDir. A new
// file starts whenever the segment key passed to Write changes.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string

	mu     sync.Mutex
	curKey string
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if key != w.curKey || w.w == nil {
		if err := w.rotateLocked(key); err != nil {
			return err
		}
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	// Flush through the encoder so a crash loses at most the current line.
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(key string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, key))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curKey = key
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

// TickLogger writes one JSONL entry per tick, with every join, leave and
// command of the tick. Files are named by their first tick so they sort in
// replay order.
type TickLogger struct {
	w            *JSONLZstdWriter
	segmentTicks uint64
}

func NewTickLogger(worldDir string) *TickLogger {
	return &TickLogger{
		w:            NewJSONLZstdWriter(filepath.Join(worldDir, "ticks"), "ticks"),
		segmentTicks: DefaultSegmentTicks,
	}
}

func (l *TickLogger) WriteTick(v world.TickLogEntry) error {
	seg := v.Tick - v.Tick%l.segmentTicks
	return l.w.Write(fmt.Sprintf("%012d", seg), v)
}

func (l *TickLogger) Close() error { return l.w.Close() }

// AuditLogger writes slot and gold changes, one file per UTC hour.
type AuditLogger struct {
	w   *JSONLZstdWriter
	now func() time.Time
}

func NewAuditLogger(worldDir string) *AuditLogger {
	return &AuditLogger{
		w:   NewJSONLZstdWriter(filepath.Join(worldDir, "audit"), "audit"),
		now: time.Now,
	}
}

func (l *AuditLogger) WriteAudit(v world.AuditEntry) error {
	return l.w.Write(l.now().UTC().Format("2006-01-02-15"), v)
}

func (l *AuditLogger) Close() error { return l.w.Close() }

// MultiTick fans tick entries out to several loggers and keeps the first error.
type MultiTick []world.TickLogger

func (m MultiTick) WriteTick(v world.TickLogEntry) error {
	var first error
	for _, l := range m {
		if err := l.WriteTick(v); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type MultiAudit []world.AuditLogger

func (m MultiAudit) WriteAudit(v world.AuditEntry) error {
	var first error
	for _, l := range m {
		if err := l.WriteAudit(v); err != nil && first == nil {
			first = err
		}
	}
	return first
}
