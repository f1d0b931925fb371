// Package enrich streams a CSV through the score engine, rewriting one
// annotation column per row while leaving everything else untouched.
//
// The job is single-threaded and memory-bounded: it buffers at most
// BatchSize scorable rows before flushing them through the engine in one
// call, regardless of input file size.
package enrich

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/soundprediction/rerankd"
)

// Options configures an enrichment run.
type Options struct {
	// Input and Output are CSV file paths. They must differ; the job streams
	// from one to the other.
	Input  string
	Output string

	// BatchSize bounds the pending buffers. Default 64.
	BatchSize int

	// MaxRows caps how many rows are written; 0 means unlimited. Rows past
	// the cap are neither scored nor written.
	MaxRows int

	// Column names. Defaults: gameName, candidateTitle, reasons.
	QueryColumn      string
	TextColumn       string
	AnnotationColumn string
}

func (o *Options) applyDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = 64
	}
	if o.QueryColumn == "" {
		o.QueryColumn = "gameName"
	}
	if o.TextColumn == "" {
		o.TextColumn = "candidateTitle"
	}
	if o.AnnotationColumn == "" {
		o.AnnotationColumn = "reasons"
	}
}

// Job is a streaming CSV enrichment run over one scorer.
type Job struct {
	scorer rerankd.Scorer
	opts   Options
}

// New creates a job. The scorer is shared, already-loaded state; the job
// never loads or reloads models.
func New(scorer rerankd.Scorer, opts Options) *Job {
	opts.applyDefaults()
	return &Job{scorer: scorer, opts: opts}
}

// Run streams the input to the output and returns the number of rows
// written. Configuration problems (missing header, missing annotation
// column) fail before any data row is written.
func (j *Job) Run(ctx context.Context) (int, error) {
	in, err := os.Open(j.opts.Input)
	if err != nil {
		return 0, fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(j.opts.Output)
	if err != nil {
		return 0, fmt.Errorf("creating output: %w", err)
	}
	defer out.Close()

	total, err := j.run(ctx, in, out)
	if err != nil {
		return total, err
	}
	if err := out.Close(); err != nil {
		return total, fmt.Errorf("closing output: %w", err)
	}
	return total, nil
}

// run does the work against already-open streams; split out so tests can
// drive it with in-memory buffers.
func (j *Job) run(ctx context.Context, in io.Reader, out io.Writer) (int, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return 0, fmt.Errorf("input csv missing header")
	}
	if err != nil {
		return 0, fmt.Errorf("reading header: %w", err)
	}

	queryIdx := columnIndex(header, j.opts.QueryColumn)
	textIdx := columnIndex(header, j.opts.TextColumn)
	annotationIdx := columnIndex(header, j.opts.AnnotationColumn)
	if annotationIdx < 0 {
		return 0, fmt.Errorf("input csv missing %s column", j.opts.AnnotationColumn)
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(header); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	// Three parallel buffers, bounded by BatchSize.
	var (
		pendingRows    [][]string
		pendingQueries []string
		pendingTexts   []string
		total          int
	)

	flush := func() error {
		if len(pendingRows) == 0 {
			return nil
		}
		scores, err := j.scorer.Score(ctx, pendingQueries, pendingTexts)
		if err != nil {
			return fmt.Errorf("scoring batch of %d: %w", len(pendingRows), err)
		}
		for i, row := range pendingRows {
			row[annotationIdx] = RewriteAnnotation(row[annotationIdx], scores[i])
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("writing row: %w", err)
			}
			total++
		}
		pendingRows = pendingRows[:0]
		pendingQueries = pendingQueries[:0]
		pendingTexts = pendingTexts[:0]
		return nil
	}

	for {
		if j.opts.MaxRows > 0 && total+len(pendingRows) >= j.opts.MaxRows {
			break
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("reading row: %w", err)
		}
		row := padRow(record, len(header))

		query := strings.TrimSpace(field(row, queryIdx))
		text := strings.TrimSpace(field(row, textIdx))
		if query == "" || text == "" {
			// Not scorable: written through untouched, no buffering.
			if err := writer.Write(row); err != nil {
				return total, fmt.Errorf("writing row: %w", err)
			}
			total++
			continue
		}

		pendingRows = append(pendingRows, row)
		pendingQueries = append(pendingQueries, query)
		pendingTexts = append(pendingTexts, text)
		if len(pendingRows) >= j.opts.BatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}

	if err := flush(); err != nil {
		return total, err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return total, fmt.Errorf("flushing output: %w", err)
	}
	return total, nil
}

// columnIndex returns the index of name in header, or -1.
func columnIndex(header []string, name string) int {
	for i, col := range header {
		if col == name {
			return i
		}
	}
	return -1
}

// padRow extends a short record to the header width so column indexes are
// always addressable; a missing trailing field reads as "".
func padRow(record []string, width int) []string {
	if len(record) >= width {
		return record
	}
	row := make([]string, width)
	copy(row, record)
	return row
}

// field reads a column that may not exist in this file at all.
func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
