package dictionary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Importer writes dictionary entries into the cache.
type Importer struct {
	client    redis.Cmdable
	batchSize int
	logger    *slog.Logger
	// OnProgress is called every batch with the number of submitted entries
	// and the total, and once more when the import ends. nil means no reporting.
	OnProgress func(current, total int)
}

// NewImporter returns an importer writing through client in batches of
// batchSize. A nil logger is silent.
func NewImporter(client redis.Cmdable, batchSize int, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Importer{client: client, batchSize: batchSize, logger: logger}
}

// Import stores every entry as a hash keyed by its uid and returns how many
// were written.
func (im *Importer) Import(ctx context.Context, entries []Entry) (int, error) {
	start := time.Now()
	bw := NewBatchWriter(im.client, im.batchSize, time.Second)
	bw.OnError = func(err error) {
		im.logger.Error("dictionary batch failed", slog.Any("error", err))
	}

	var submitErr error
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			submitErr = err
			break
		}
		fields := e.Fields()
		key := e.UID
		if err := bw.Submit(func(ctx context.Context, pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fields)
			return nil
		}); err != nil {
			submitErr = err
			break
		}
		if im.OnProgress != nil && im.batchSize > 0 && (i+1)%im.batchSize == 0 {
			im.OnProgress(i+1, len(entries))
		}
	}

	closeErr := bw.Close()
	written := bw.Written()
	if im.OnProgress != nil && submitErr == nil {
		im.OnProgress(len(entries), len(entries))
	}
	im.logger.Info("dictionary import finished",
		slog.Int("entries", len(entries)),
		slog.Int("written", written),
		slog.Duration("elapsed", time.Since(start)))

	if submitErr != nil {
		return written, fmt.Errorf("import: %w", submitErr)
	}
	if closeErr != nil {
		return written, fmt.Errorf("import: %w", closeErr)
	}
	return written, nil
}
