package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/trackheat/internal/core/domain"
)

// archiveBatchSize is how many rows are queued per round trip.
const archiveBatchSize = 1000

// PointRepo implements ports.PointArchive with pgx.
type PointRepo struct {
	db *DB
}

// NewPointRepo creates a new PointRepo.
func NewPointRepo(db *DB) *PointRepo {
	return &PointRepo{db: db}
}

// ReplaceAll swaps the archived points for ds inside one transaction. Rows
// keep the dataset index in seq so the archive preserves dataset order.
func (r *PointRepo) ReplaceAll(ctx context.Context, ds *domain.Dataset) (int, error) {
	if err := ds.Validate(); err != nil {
		return 0, err
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `TRUNCATE track_points`); err != nil {
		return 0, fmt.Errorf("truncate: %w", err)
	}

	batch := &pgx.Batch{}
	count := 0
	for i, c := range ds.Coordinates {
		var recordedAt *time.Time
		if ts := ds.Timestamps[i]; !ts.IsZero() {
			recordedAt = &ts
		}
		batch.Queue(`
			INSERT INTO track_points (seq, lat, lon, recorded_at)
			VALUES ($1, $2, $3, $4)
		`, i, c.Lat, c.Lon, recordedAt)
		count++

		if count >= archiveBatchSize {
			if err := flushBatch(ctx, tx, batch, count); err != nil {
				return 0, err
			}
			batch = &pgx.Batch{}
			count = 0
		}
	}
	if count > 0 {
		if err := flushBatch(ctx, tx, batch, count); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return ds.Len(), nil
}

// Count returns the number of archived points.
func (r *PointRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM track_points`).Scan(&n)
	return n, err
}

// DateRange returns the UTC calendar dates of the oldest and newest archived
// timestamps, or nils when no point is dated.
func (r *PointRepo) DateRange(ctx context.Context) (first, last *domain.Date, err error) {
	var minTS, maxTS *time.Time
	err = r.db.Pool.QueryRow(ctx, `
		SELECT min(recorded_at), max(recorded_at) FROM track_points
	`).Scan(&minTS, &maxTS)
	if err != nil {
		return nil, nil, err
	}
	if minTS != nil {
		d := domain.DateOf(*minTS, time.UTC)
		first = &d
	}
	if maxTS != nil {
		d := domain.DateOf(*maxTS, time.UTC)
		last = &d
	}
	return first, last, nil
}

type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func flushBatch(ctx context.Context, conn batchSender, batch *pgx.Batch, count int) error {
	br := conn.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < count; i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch item %d: %w", i, err)
		}
	}
	return nil
}
