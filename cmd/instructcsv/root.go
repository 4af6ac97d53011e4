package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/JonMunkholm/instructcsv/internal/config"
	"github.com/JonMunkholm/instructcsv/internal/core"
	"github.com/JonMunkholm/instructcsv/internal/history"
	"github.com/JonMunkholm/instructcsv/internal/metrics"
	"github.com/JonMunkholm/instructcsv/internal/storage"
	"github.com/spf13/cobra"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var opts core.Options

	cmd := &cobra.Command{
		Use:   "instructcsv --origin_path FILE --new_path FILE",
		Short: "Clean a Q&A table and reshape it into instruction records",
		Long: `instructcsv reads a CSV, TSV or XLSX table of question/answer rows, drops
blank rows and rows whose first field holds a link, is longer than 2048
characters or contains "??", and writes one "<s>[INST]... [/INST]  ... </s>"
record per remaining row under a "text" header.

Rows with 10 fields use fields 3 and 8 (question and answer text); rows with
2 fields use both; other rows are skipped. The first formatted record is
always discarded. The number of rows read is printed to stdout.

Locations may be local paths or s3://bucket/key.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConvert(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.OriginPath, "origin_path", "", "source table (.csv, .tsv, .xlsx or s3://...)")
	cmd.Flags().StringVar(&opts.NewPath, "new_path", "", "destination file; its extension picks the output format")
	cmd.MarkFlagRequired("origin_path")
	cmd.MarkFlagRequired("new_path")

	cmd.AddCommand(newServeCmd(cfg))
	return cmd
}

func runConvert(ctx context.Context, cfg *config.Config, opts core.Options, stdout io.Writer) error {
	collector := metrics.New()
	recorder, closeRecorder := openRecorder(ctx, cfg)
	defer closeRecorder()

	converter, err := newConverter(cfg, recorder, collector, core.WithDiagnostics(stdout))
	if err != nil {
		return err
	}

	_, runErr := converter.Run(ctx, opts)

	if cfg.Metrics.PushgatewayURL != "" {
		if err := collector.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
			slog.Warn("failed to push metrics", "error", err)
		}
	}
	return runErr
}

func newConverter(cfg *config.Config, recorder core.Recorder, observer core.Observer, extra ...core.ConverterOption) (*core.Converter, error) {
	ending, err := core.ParseLineEnding(cfg.Output.LineEnding)
	if err != nil {
		return nil, err
	}

	store := storage.New(storage.S3Config{
		Region:   cfg.Storage.Region,
		Endpoint: cfg.Storage.Endpoint,
	})
	opts := append([]core.ConverterOption{
		core.WithRecorder(recorder),
		core.WithObserver(observer),
		core.WithLineEnding(ending),
	}, extra...)
	return core.NewConverter(store, opts...), nil
}

// openRecorder connects run history when configured. A connection failure is
// logged and history is skipped; it never blocks a conversion.
func openRecorder(ctx context.Context, cfg *config.Config) (core.Recorder, func()) {
	if !cfg.History.Enabled() {
		return history.Nop{}, func() {}
	}

	rec, err := history.Open(ctx, history.PoolConfig{
		URL:             cfg.History.URL,
		MaxConns:        cfg.History.MaxConns,
		MaxConnLifetime: cfg.History.MaxConnLifetime,
	})
	if err != nil {
		slog.Warn("run history disabled", "error", err)
		return history.Nop{}, func() {}
	}
	return rec, rec.Close
}
