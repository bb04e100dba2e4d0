package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/uosnotice/programrank/internal/dedup"
)

// ProgressFunc is called after each group is applied
type ProgressFunc func(current, total int)

// ApplyDedup deletes the removed programs of every group. Each group is
// applied in its own transaction, so a failing group is rolled back without
// affecting the others. The run is recorded in dedup_run.
func (db *DB) ApplyDedup(ctx context.Context, groups []dedup.Group, cfg dedup.Config, progress ProgressFunc) (*DedupRun, error) {
	run := &DedupRun{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Threshold: cfg.Threshold,
		Keeper:    cfg.Keeper,
		Groups:    len(groups),
	}

	for i, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var deleted int64
		err := db.Transaction(ctx, func(tx *sql.Tx) error {
			var exists int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM program WHERE id = ?`, g.KeeperID).Scan(&exists); err != nil {
				return err
			}
			if exists == 0 {
				return fmt.Errorf("keeper %d not found", g.KeeperID)
			}

			n, err := deleteProgramsTx(ctx, tx, g.RemovedIDs)
			deleted = n
			return err
		})
		if err != nil {
			run.Failed++
		} else {
			run.Kept++
			run.Deleted += int(deleted)
		}

		if progress != nil {
			progress(i+1, len(groups))
		}
	}

	run.FinishedAt = time.Now().UTC()
	if _, err := exec(ctx, db, sq.Insert("dedup_run").
		Columns("id", "started_at", "finished_at", "threshold", "keeper", "groups_found", "kept", "deleted", "failed").
		Values(run.ID, run.StartedAt, run.FinishedAt, run.Threshold, run.Keeper, run.Groups, run.Kept, run.Deleted, run.Failed)); err != nil {
		return nil, fmt.Errorf("failed to record dedup run: %w", err)
	}

	return run, nil
}

// ListDedupRuns returns applied runs, most recent first
func (db *DB) ListDedupRuns(ctx context.Context, limit int) ([]DedupRun, error) {
	b := sq.Select("id", "started_at", "finished_at", "threshold", "keeper", "groups_found", "kept", "deleted", "failed").
		From("dedup_run").OrderBy("started_at DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	rows, err := query(ctx, db, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []DedupRun{}
	for rows.Next() {
		var r DedupRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Threshold, &r.Keeper,
			&r.Groups, &r.Kept, &r.Deleted, &r.Failed); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
