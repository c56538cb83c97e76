package privacy

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iotsignals/passage-api/internal/logger"
	"github.com/iotsignals/passage-api/internal/store"
)

const (
	// DefaultBatchSize bounds how many rows each rewrite statement touches
	DefaultBatchSize = 1000
	// DefaultPause is the pacing sleep between batches, as backpressure on
	// the database rather than a correctness mechanism
	DefaultPause = time.Second
)

// Sweeper rewrites privacy-sensitive fields of stored passages in place.
// It back-fills rows stored before normalization was enforced at write
// time; the rewrite rules match the write-time normalization exactly, so
// sweeping an already-normalized row changes nothing.
type Sweeper struct {
	store     store.Store
	batchSize int
	pause     time.Duration
}

// NewSweeper creates a Sweeper. Non-positive batchSize or pause fall back
// to the defaults.
func NewSweeper(s store.Store, batchSize int, pause time.Duration) *Sweeper {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if pause <= 0 {
		pause = DefaultPause
	}
	return &Sweeper{store: s, batchSize: batchSize, pause: pause}
}

// Run sweeps in bounded batches until no unprocessed rows remain, sleeping
// between batches. It returns the total number of rows rewritten.
func (s *Sweeper) Run(ctx context.Context) (int64, error) {
	var total int64

	for {
		ids, err := s.store.UnprocessedPassageIDs(ctx, s.batchSize)
		if err != nil {
			return total, err
		}
		if len(ids) == 0 {
			return total, nil
		}

		updated, err := s.store.AnonymizePassages(ctx, ids)
		if err != nil {
			return total, err
		}
		total += updated

		logger.InfoCtx(ctx, "processed batch",
			zap.Int("batch_size", len(ids)),
			zap.Int64("updated", updated),
			zap.Int64("total", total))

		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case <-time.After(s.pause):
		}
	}
}

// RunPartitions sweeps day by day over the full observed date range,
// rewriting every row of each day's partition and then vacuuming it. A
// vacuum failure is logged and does not abort the sweep. Returns the total
// number of rows rewritten.
func (s *Sweeper) RunPartitions(ctx context.Context) (int64, error) {
	dateRange, err := s.store.PassageDateRange(ctx)
	if err != nil {
		return 0, err
	}
	if dateRange == nil {
		logger.InfoCtx(ctx, "no passages stored, nothing to sweep")
		return 0, nil
	}

	var total int64

	first := truncateToDay(dateRange.Min)
	last := truncateToDay(dateRange.Max)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		updated, err := s.store.AnonymizePassagesForDay(ctx, day)
		if err != nil {
			return total, err
		}
		total += updated

		if err := s.store.VacuumPassagePartition(ctx, day); err != nil {
			logger.WarnCtx(ctx, "vacuum failed, continuing sweep",
				zap.String("date", day.Format("2006-01-02")),
				zap.Error(err))
		}

		logger.InfoCtx(ctx, "processed day",
			zap.String("date", day.Format("2006-01-02")),
			zap.Int64("updated", updated),
			zap.Int64("total", total))
	}

	return total, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
