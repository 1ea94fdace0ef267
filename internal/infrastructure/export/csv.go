// Package export converts finished (or in-progress) session logs into
// flat tabular form. Exports are pure transforms: running one twice
// over an unmodified log yields identical output.
package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"kickpulse/internal/core/domain"
	"kickpulse/internal/infrastructure/sessionlog"
	apperrors "kickpulse/pkg/errors"
	"kickpulse/pkg/tracing"
)

// Summary reports what an export produced. Skipped counts records
// that were malformed or unrecognized and therefore left out.
type Summary struct {
	Rows    int
	Skipped int
}

var sessionMetricsHeader = []string{
	"timestamp", "channel", "messages_per_minute", "messages_per_second",
	"unique_per_minute", "unique_per_second", "total_messages",
	"unique_total", "viewer_count", "screenshot_path",
}

var messagesHeader = []string{"timestamp", "sender_id", "sender_name", "text"}

// SessionMetricsCSV projects every snapshot record into one CSV row.
// The screenshot_path column carries the most recent capture path at
// or before the snapshot, so rows between captures repeat the last
// artifact.
func SessionMetricsCSV(ctx context.Context, log io.Reader, out io.Writer) (Summary, error) {
	ctx, span := tracing.StartSpan(ctx, "export.session_metrics")
	defer span.End()

	writer := csv.NewWriter(out)
	if err := writer.Write(sessionMetricsHeader); err != nil {
		return Summary{}, apperrors.WrapError(err, apperrors.ErrCodeExport, "failed to write csv header")
	}

	var (
		summary        Summary
		channel        string
		lastScreenshot string
	)

	scanner := sessionlog.NewScanner(log)
	for {
		record, err := scanner.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return summary, apperrors.WrapError(err, apperrors.ErrCodeExport, "failed to read session log")
		}

		switch rec := record.(type) {
		case *domain.SessionStartRecord:
			channel = rec.Channel
		case *domain.SnapshotRecord:
			if rec.Screenshot != nil && rec.Screenshot.Path != nil {
				lastScreenshot = *rec.Screenshot.Path
			}
			viewers := ""
			if rec.ViewerCount != nil {
				viewers = strconv.Itoa(*rec.ViewerCount)
			}
			row := []string{
				formatTimestamp(rec.Timestamp),
				channel,
				strconv.Itoa(rec.MessagesPerMinute),
				strconv.Itoa(rec.MessagesPerSecond),
				strconv.Itoa(rec.UniquePerMinute),
				strconv.Itoa(rec.UniquePerSecond),
				strconv.Itoa(rec.TotalMessages),
				strconv.Itoa(rec.UniqueTotal),
				viewers,
				lastScreenshot,
			}
			if err := writer.Write(row); err != nil {
				return summary, apperrors.WrapError(err, apperrors.ErrCodeExport, "failed to write csv row")
			}
			summary.Rows++
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return summary, apperrors.WrapError(err, apperrors.ErrCodeExport, "failed to flush csv")
	}

	summary.Skipped = scanner.Skipped()
	tracing.AddSpanAttributes(ctx,
		tracing.RecordsKey.Int(summary.Rows),
		tracing.SkippedKey.Int(summary.Skipped),
	)
	return summary, nil
}

// MessagesCSV projects every message record into one CSV row.
// Embedded commas, quotes and newlines in the text column are escaped
// per standard CSV quoting.
func MessagesCSV(ctx context.Context, log io.Reader, out io.Writer) (Summary, error) {
	ctx, span := tracing.StartSpan(ctx, "export.messages")
	defer span.End()

	writer := csv.NewWriter(out)
	if err := writer.Write(messagesHeader); err != nil {
		return Summary{}, apperrors.WrapError(err, apperrors.ErrCodeExport, "failed to write csv header")
	}

	var summary Summary

	scanner := sessionlog.NewScanner(log)
	for {
		record, err := scanner.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return summary, apperrors.WrapError(err, apperrors.ErrCodeExport, "failed to read session log")
		}

		rec, ok := record.(*domain.MessageRecord)
		if !ok {
			continue
		}
		row := []string{
			formatTimestamp(rec.Timestamp),
			rec.SenderID,
			rec.SenderName,
			rec.Text,
		}
		if err := writer.Write(row); err != nil {
			return summary, apperrors.WrapError(err, apperrors.ErrCodeExport, "failed to write csv row")
		}
		summary.Rows++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return summary, apperrors.WrapError(err, apperrors.ErrCodeExport, "failed to flush csv")
	}

	summary.Skipped = scanner.Skipped()
	tracing.AddSpanAttributes(ctx,
		tracing.RecordsKey.Int(summary.Rows),
		tracing.SkippedKey.Int(summary.Skipped),
	)
	return summary, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
