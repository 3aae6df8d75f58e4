// Package fetch implements the mailbox export pipeline: page through the
// message list, pull per-message metadata, and read/write the JSON export file.
package fetch

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/gmail/v1"
)

const maxPageSize = 500

type mailSvc interface {
	ListMessages(ctx context.Context, q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetMessageMetadata(ctx context.Context, msgID string) (*gmail.Message, error)
}

// Options control a single export run.
type Options struct {
	// Query restricts the export using Gmail search syntax; empty exports
	// the whole mailbox.
	Query string
	// Max caps the number of exported messages; 0 means no cap.
	Max int
	// PageSize is the list page size; clamped to the API maximum of 500.
	PageSize int64
}

// NewFetcher creates an export pipeline over the given Gmail service.
func NewFetcher(svc mailSvc, logger *slog.Logger) *Fetcher {
	return &Fetcher{svc: svc, logger: logger}
}

// Fetcher runs the list-then-get export pipeline sequentially.
type Fetcher struct {
	svc    mailSvc
	logger *slog.Logger
}

// Run lists message IDs page by page, then fetches metadata for each and
// returns the extracted records in mailbox order. A message whose metadata
// fetch fails is logged and skipped so a long run still produces output.
func (f *Fetcher) Run(ctx context.Context, opts Options) ([]Record, error) {
	ids, err := f.listIDs(ctx, opts)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		f.logger.Info("no messages found")
		return []Record{}, nil
	}

	f.logger.Info("fetching message details", "total", len(ids))

	records := make([]Record, 0, len(ids))
	for i, id := range ids {
		if (i+1)%100 == 0 {
			f.logger.Info("progress", "done", i+1, "total", len(ids))
		}

		msg, err := f.svc.GetMessageMetadata(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			f.logger.Warn("skipping message", "id", id, "err", err)
			continue
		}

		records = append(records, NewRecord(msg))
	}

	f.logger.Info("fetched messages", "records", len(records), "skipped", len(ids)-len(records))

	return records, nil
}

func (f *Fetcher) listIDs(ctx context.Context, opts Options) ([]string, error) {
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var ids []string
	pageToken := ""
	for {
		result, err := f.svc.ListMessages(ctx, opts.Query, pageToken, pageSize)
		if err != nil {
			return nil, fmt.Errorf("svc.ListMessages failed: %w", err)
		}

		for _, m := range result.Messages {
			ids = append(ids, m.Id)
		}
		f.logger.Info("listed message ids", "count", len(ids))

		if opts.Max > 0 && len(ids) >= opts.Max {
			ids = ids[:opts.Max]
			break
		}
		if result.NextPageToken == "" {
			break
		}
		pageToken = result.NextPageToken
	}

	return ids, nil
}
