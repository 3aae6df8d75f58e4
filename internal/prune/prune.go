// Package prune selects Updates-category messages older than a cutoff from a
// mailbox export and moves them to trash through the Gmail API.
package prune

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/meherc99/Gmail-Analyzer/internal/fetch"
)

const updatesLabel = "CATEGORY_UPDATES"

// DefaultBatchSize is the Gmail batchDelete request limit.
const DefaultBatchSize = 100

// Layouts tried after RFC 5322 parsing fails; providers emit a few
// nonconforming Date forms in the wild.
var fallbackLayouts = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
	time.RFC822,
}

// ParseDate parses a message Date header value.
func ParseDate(value string) (time.Time, error) {
	if t, err := mail.ParseDate(value); err == nil {
		return t, nil
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", value)
}

// Select returns the records carrying the Updates category label whose Date
// header parses to a time before the cutoff. Records with unparseable dates
// are logged and never selected.
func Select(records []fetch.Record, cutoff time.Time, logger *slog.Logger) []fetch.Record {
	var selected []fetch.Record
	for _, rec := range records {
		if !slices.Contains(rec.Labels, updatesLabel) {
			continue
		}

		ts, err := ParseDate(rec.Date)
		if err != nil {
			logger.Warn("skipping record with unparseable date", "id", rec.ID, "date", rec.Date)
			continue
		}

		if ts.Before(cutoff) {
			selected = append(selected, rec)
		}
	}

	return selected
}

// Preview renders a date/from/subject table for the first limit records.
func Preview(w io.Writer, selected []fetch.Record, limit int) {
	shown := len(selected)
	if limit > 0 && shown > limit {
		shown = limit
	}

	line := strings.Repeat("=", 100)
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "PREVIEW OF EMAILS TO DELETE (showing %d of %d)\n", shown, len(selected))
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "%-30s %-40s %s\n", "Date", "From", "Subject")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, rec := range selected[:shown] {
		fmt.Fprintf(w, "%-30s %-40s %s\n", clip(rec.Date, 28), clip(rec.From, 38), clip(rec.Subject, 40))
	}

	if len(selected) > shown {
		fmt.Fprintf(w, "\n... and %d more emails\n", len(selected)-shown)
	}
	fmt.Fprintln(w, line)
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

type deleteSvc interface {
	BatchDelete(ctx context.Context, msgIDs []string) error
}

// NewDeleter creates a batch deleter over the given Gmail service.
func NewDeleter(svc deleteSvc, logger *slog.Logger) *Deleter {
	return &Deleter{svc: svc, logger: logger}
}

// Deleter moves messages to trash in batches.
type Deleter struct {
	svc    deleteSvc
	logger *slog.Logger
}

// Result reports how many messages were trashed and how many failed.
type Result struct {
	Deleted int
	Failed  int
}

// Delete trashes the given IDs in chunks of batchSize. A failed batch is
// logged and counted, and later batches still run. With dryRun set, nothing
// is deleted and the would-be count is logged instead.
func (d *Deleter) Delete(ctx context.Context, msgIDs []string, batchSize int, dryRun bool) (Result, error) {
	if len(msgIDs) == 0 {
		d.logger.Info("no emails to delete")
		return Result{}, nil
	}
	if batchSize <= 0 || batchSize > DefaultBatchSize {
		batchSize = DefaultBatchSize
	}

	if dryRun {
		d.logger.Info("dry run, nothing deleted", "wouldDelete", len(msgIDs))
		return Result{}, nil
	}

	var res Result
	for start := 0; start < len(msgIDs); start += batchSize {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		batch := msgIDs[start:min(start+batchSize, len(msgIDs))]
		if err := d.svc.BatchDelete(ctx, batch); err != nil {
			d.logger.Error("batch delete failed", "size", len(batch), "err", err)
			res.Failed += len(batch)
			continue
		}

		res.Deleted += len(batch)
		d.logger.Info("moved messages to trash", "done", res.Deleted, "total", len(msgIDs))
	}

	return res, nil
}
