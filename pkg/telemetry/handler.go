// Package telemetry persists error-level log records to Parquet files so
// scoring failures can be inspected offline.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
)

// LogRecord represents a single log entry for Parquet storage
type LogRecord struct {
	ID         string    `parquet:"id"`
	Timestamp  time.Time `parquet:"timestamp"`
	Level      string    `parquet:"level"`
	Message    string    `parquet:"message"`
	Model      string    `parquet:"model"`
	Device     string    `parquet:"device"`
	Attributes string    `parquet:"attributes"` // JSON string
}

// ParquetHandler is a slog.Handler that forwards every record to the next
// handler and additionally buffers error-level records for Parquet storage.
type ParquetHandler struct {
	next      slog.Handler
	outputDir string
	model     string
	device    string
	mu        sync.Mutex
	buffer    []LogRecord
	batchSize int
}

// NewParquetHandler creates a handler writing error records under outputDir.
// model and device identify the engine the process runs, and are stamped on
// every record.
func NewParquetHandler(next slog.Handler, outputDir, model, device string) (*ParquetHandler, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}

	return &ParquetHandler{
		next:      next,
		outputDir: outputDir,
		model:     model,
		device:    device,
		batchSize: 100,
		buffer:    make([]LogRecord, 0, 100),
	}, nil
}

// Enabled implements slog.Handler
func (h *ParquetHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler
func (h *ParquetHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.next.Handle(ctx, r); err != nil {
		return err
	}

	// Only errors are persisted.
	if r.Level < slog.LevelError {
		return nil
	}

	attrs := make(map[string]interface{})
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})
	attrJSON, _ := json.Marshal(attrs)

	record := LogRecord{
		ID:         uuid.NewString(),
		Timestamp:  r.Time,
		Level:      r.Level.String(),
		Message:    r.Message,
		Model:      h.model,
		Device:     h.device,
		Attributes: string(attrJSON),
	}

	h.mu.Lock()
	h.buffer = append(h.buffer, record)
	full := len(h.buffer) >= h.batchSize
	h.mu.Unlock()

	if full {
		return h.Flush()
	}
	return nil
}

// WithAttrs implements slog.Handler. The clone shares no buffer with the
// parent; only the forwarding handler carries the attrs.
func (h *ParquetHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.clone(h.next.WithAttrs(attrs))
}

// WithGroup implements slog.Handler
func (h *ParquetHandler) WithGroup(name string) slog.Handler {
	return h.clone(h.next.WithGroup(name))
}

func (h *ParquetHandler) clone(next slog.Handler) *ParquetHandler {
	return &ParquetHandler{
		next:      next,
		outputDir: h.outputDir,
		model:     h.model,
		device:    h.device,
		batchSize: h.batchSize,
		buffer:    make([]LogRecord, 0, h.batchSize),
	}
}

// Flush writes any buffered records to a new Parquet file. Called on a full
// buffer and at shutdown.
func (h *ParquetHandler) Flush() error {
	h.mu.Lock()
	if len(h.buffer) == 0 {
		h.mu.Unlock()
		return nil
	}
	records := h.buffer
	h.buffer = make([]LogRecord, 0, h.batchSize)
	h.mu.Unlock()

	name := fmt.Sprintf("errors-%s-%s.parquet",
		time.Now().UTC().Format("20060102T150405"), uuid.NewString()[:8])
	path := filepath.Join(h.outputDir, name)

	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("writing telemetry parquet file: %w", err)
	}
	return nil
}
