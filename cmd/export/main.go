package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"kickpulse/internal/infrastructure/export"
	"kickpulse/pkg/logger"
)

func main() {
	input := flag.String("input", "", "session JSONL input path")
	metricsOut := flag.String("metrics", "", "session metrics CSV output path (default: <input>.csv)")
	messagesOut := flag.String("messages", "", "messages CSV output path (default: <input>-messages.csv)")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: export -input session.jsonl [-metrics out.csv] [-messages out.csv]")
		os.Exit(1)
	}

	zapLogger := logger.New(*logLevel, "console")
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	stem := strings.TrimSuffix(*input, ".jsonl")
	if *metricsOut == "" {
		*metricsOut = stem + ".csv"
	}
	if *messagesOut == "" {
		*messagesOut = stem + "-messages.csv"
	}

	ctx := context.Background()

	if err := exportFile(ctx, *input, *metricsOut, export.SessionMetricsCSV); err != nil {
		log.Fatalw("session metrics export failed", "error", err)
	}
	if err := exportFile(ctx, *input, *messagesOut, export.MessagesCSV); err != nil {
		log.Fatalw("messages export failed", "error", err)
	}
}

func exportFile(ctx context.Context, inputPath, outputPath string,
	fn func(ctx context.Context, log io.Reader, out io.Writer) (export.Summary, error)) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", inputPath, err)
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputPath, err)
	}

	summary, err := fn(ctx, in, out)
	if err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", outputPath, err)
	}

	fmt.Printf("wrote %s (%d rows, %d skipped)\n", outputPath, summary.Rows, summary.Skipped)
	return nil
}
