package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/JonMunkholm/instructcsv/internal/logging"
	"github.com/google/uuid"
)

// Store reads and writes whole objects at a location. Write hands fill a
// writer and must release the destination on every path, including when fill
// fails.
type Store interface {
	Read(ctx context.Context, location string) ([]byte, error)
	Write(ctx context.Context, location string, fill func(io.Writer) error) error
}

// Recorder persists a finished run. runErr is nil for successful runs.
type Recorder interface {
	Record(ctx context.Context, report Report, runErr error) error
}

// Observer receives every finished run, successful or not.
type Observer interface {
	Observe(report Report, runErr error)
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, Report, error) error { return nil }

type nopObserver struct{}

func (nopObserver) Observe(Report, error) {}

// Converter runs the read, clean, reshape and write pipeline.
type Converter struct {
	store      Store
	stdout     io.Writer
	recorder   Recorder
	observer   Observer
	lineEnding LineEnding
	now        func() time.Time
}

// ConverterOption customizes a Converter.
type ConverterOption func(*Converter)

// WithDiagnostics sets where the row count is printed (default os.Stdout).
func WithDiagnostics(w io.Writer) ConverterOption {
	return func(c *Converter) { c.stdout = w }
}

// WithRecorder sets the run history recorder.
func WithRecorder(r Recorder) ConverterOption {
	return func(c *Converter) { c.recorder = r }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) ConverterOption {
	return func(c *Converter) { c.observer = o }
}

// WithLineEnding sets the row terminator for delimited output.
func WithLineEnding(e LineEnding) ConverterOption {
	return func(c *Converter) { c.lineEnding = e }
}

// NewConverter creates a Converter reading and writing through store.
func NewConverter(store Store, opts ...ConverterOption) *Converter {
	c := &Converter{
		store:      store,
		stdout:     os.Stdout,
		recorder:   nopRecorder{},
		observer:   nopObserver{},
		lineEnding: LineEndingNative,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run converts opts.OriginPath into opts.NewPath.
func (c *Converter) Run(ctx context.Context, opts Options) (Report, error) {
	if opts.OriginPath == "" || opts.NewPath == "" {
		return Report{}, errors.New("origin and destination paths are required")
	}

	report := newReport(uuid.NewString(), opts.OriginPath, opts.NewPath, c.now())
	ctx = logging.WithRunID(ctx, report.RunID)
	logger := logging.WithFields(ctx, "origin", opts.OriginPath, "destination", opts.NewPath)
	logger.Debug("conversion started")

	err := c.finish(ctx, &report, c.run(ctx, opts, &report))
	return report, err
}

func (c *Converter) run(ctx context.Context, opts Options, report *Report) error {
	rows, err := c.Read(ctx, opts.OriginPath)
	if err != nil {
		return err
	}

	table := Transform(rows, report)
	return c.Write(ctx, opts.NewPath, table)
}

// Read loads and parses the origin, then prints the row count.
func (c *Converter) Read(ctx context.Context, location string) ([]Row, error) {
	data, err := c.store.Read(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, location, err)
	}

	rows, err := ParseRows(data, FormatFor(location))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", location, err)
	}

	if _, err := fmt.Fprintln(c.stdout, len(rows)); err != nil {
		return nil, fmt.Errorf("%w: report row count: %w", ErrIO, err)
	}
	return rows, nil
}

// Write serializes table to location.
func (c *Converter) Write(ctx context.Context, location string, table OutputTable) error {
	format := FormatFor(location)
	err := c.store.Write(ctx, location, func(w io.Writer) error {
		return WriteTable(w, table, format, c.lineEnding)
	})
	if err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, location, err)
	}
	return nil
}

// ConvertData runs the pipeline over an in-memory upload named name and
// writes the result to w in the format implied by name. The row count is not
// printed.
func (c *Converter) ConvertData(ctx context.Context, name string, data []byte, w io.Writer) (Report, error) {
	report := newReport(uuid.NewString(), name, "", c.now())
	ctx = logging.WithRunID(ctx, report.RunID)

	err := func() error {
		if len(data) == 0 {
			return ErrEmptyFile
		}
		format := FormatFor(name)
		rows, err := ParseRows(data, format)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}

		table := Transform(rows, &report)

		var buf bytes.Buffer
		if err := WriteTable(&buf, table, format, c.lineEnding); err != nil {
			return err
		}
		if _, err := buf.WriteTo(w); err != nil {
			return fmt.Errorf("%w: send result: %w", ErrIO, err)
		}
		return nil
	}()
	err = c.finish(ctx, &report, err)
	return report, err
}

// finish stamps the duration, notifies the observer and recorder, and logs
// the outcome. It returns runErr unchanged.
func (c *Converter) finish(ctx context.Context, report *Report, runErr error) error {
	report.Duration = c.now().Sub(report.StartedAt)
	logger := logging.FromContext(ctx)

	c.observer.Observe(*report, runErr)
	if err := c.recorder.Record(ctx, *report, runErr); err != nil {
		logger.Warn("failed to record conversion run", "error", err)
	}

	if runErr != nil {
		logger.Debug("conversion failed", "error", runErr, "rows_read", report.RowsRead)
		return runErr
	}

	if !report.HasDiscarded {
		logger.Warn("no formatted records; nothing to discard at index 1")
	}
	logger.Info("conversion completed",
		"rows_read", report.RowsRead,
		"rows_kept", report.RowsKept,
		"rows_dropped", report.DroppedTotal(),
		"records_written", report.RecordsWritten,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return nil
}
