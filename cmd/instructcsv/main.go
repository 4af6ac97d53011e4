// Command instructcsv cleans a question/answer table and rewrites it as a
// single-column file of instruction-formatted records.
//
//	instructcsv --origin_path raw.csv --new_path train.csv
//	instructcsv serve --port 8080
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/instructcsv/internal/config"
	"github.com/JonMunkholm/instructcsv/internal/core"
	"github.com/JonMunkholm/instructcsv/internal/logging"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	envErr := godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if envErr != nil {
		slog.Debug("no .env file found, using environment variables")
	} else {
		slog.Debug("loaded .env file (overwriting existing env vars)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = newRootCmd(cfg).ExecuteContext(ctx)
	stop()
	if err != nil {
		logFailure(slog.Default(), err)
		os.Exit(1)
	}
}

// logFailure logs err together with its support code and suggested action.
func logFailure(logger *slog.Logger, err error) {
	userErr := core.NewUserError(err)
	logger.Error("instructcsv failed",
		"error", err,
		"message", userErr.Msg.Message,
		"code", userErr.Msg.Code,
		"action", userErr.Msg.Action,
	)
}
