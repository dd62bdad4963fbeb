package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pixelpeek/internal/fetcher"
	"pixelpeek/internal/imagemeta"
	"pixelpeek/internal/logging"
	"pixelpeek/internal/metrics"
)

// DefaultListLimit is used by ListBatches when limit is not positive.
const DefaultListLimit = 50

// SaveBatch stores a batch summary and its outcomes in one transaction.
// Saving the same id twice replaces the earlier record.
func (d *Database) SaveBatch(ctx context.Context, rec BatchRecord, outcomes []fetcher.Outcome) (err error) {
	start := time.Now()
	defer func() {
		recordQuery("save_batch", start, err)
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.HistoryWritesTotal.WithLabelValues(status).Inc()
	}()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM outcomes WHERE batch_id = ?", rec.ID); err != nil {
		return fmt.Errorf("failed to clear outcomes: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO batches
			(id, started_at, finished_at, elapsed_seconds, total, succeeded, failed, state, output_path, cause)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.StartedAt.UnixMilli(),
		rec.FinishedAt.UnixMilli(),
		rec.ElapsedSeconds,
		rec.Total,
		rec.Succeeded,
		rec.Failed,
		rec.State,
		rec.OutputPath,
		rec.Cause,
	)
	if err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO outcomes
			(batch_id, idx, url, kind, width, height, mode, format, status_code, cause)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare outcome insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range outcomes {
		_, err = stmt.ExecContext(ctx,
			rec.ID,
			o.Index,
			o.URL,
			o.Kind.String(),
			o.Meta.Width,
			o.Meta.Height,
			o.Meta.Mode,
			o.Meta.Format,
			o.StatusCode,
			o.Cause,
		)
		if err != nil {
			return fmt.Errorf("failed to insert outcome %d: %w", o.Index, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	if statsErr := d.refreshStats(context.WithoutCancel(ctx)); statsErr != nil {
		logging.Warn("Failed to refresh history stats: %v", statsErr)
	}

	logging.Debug("Saved batch %s (%d outcomes)", rec.ID, len(outcomes))
	return nil
}

// ListBatches returns batch summaries, newest first.
func (d *Database) ListBatches(ctx context.Context, limit int) (batches []BatchRecord, err error) {
	start := time.Now()
	defer func() { recordQuery("list_batches", start, err) }()

	if limit <= 0 {
		limit = DefaultListLimit
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, elapsed_seconds, total, succeeded, failed, state,
			COALESCE(output_path, ''), COALESCE(cause, '')
		FROM batches
		ORDER BY started_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batches = []BatchRecord{}
	for rows.Next() {
		rec, scanErr := scanBatch(rows)
		if scanErr != nil {
			err = scanErr
			return nil, err
		}
		batches = append(batches, rec)
	}
	err = rows.Err()
	return batches, err
}

// GetBatch returns a stored batch with its outcomes ordered by input index.
// It returns ErrNotFound for unknown ids.
func (d *Database) GetBatch(ctx context.Context, id string) (detail *BatchDetail, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrNotFound) {
			recordQuery("get_batch", start, nil)
			return
		}
		recordQuery("get_batch", start, err)
	}()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, elapsed_seconds, total, succeeded, failed, state,
			COALESCE(output_path, ''), COALESCE(cause, '')
		FROM batches
		WHERE id = ?`, id)

	rec, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT idx, url, kind, width, height, COALESCE(mode, ''), COALESCE(format, ''),
			status_code, COALESCE(cause, '')
		FROM outcomes
		WHERE batch_id = ?
		ORDER BY idx`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	detail = &BatchDetail{BatchRecord: rec, Outcomes: []fetcher.Outcome{}}
	for rows.Next() {
		var (
			o    fetcher.Outcome
			kind string
			meta imagemeta.Metadata
		)
		if err = rows.Scan(&o.Index, &o.URL, &kind, &meta.Width, &meta.Height, &meta.Mode, &meta.Format, &o.StatusCode, &o.Cause); err != nil {
			return nil, err
		}
		if o.Kind, err = fetcher.ParseKind(kind); err != nil {
			return nil, err
		}
		if o.Kind == fetcher.Success {
			o.Meta = meta
		}
		detail.Outcomes = append(detail.Outcomes, o)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return detail, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(s scanner) (BatchRecord, error) {
	var (
		rec              BatchRecord
		startedMs, finMs int64
	)
	err := s.Scan(
		&rec.ID,
		&startedMs,
		&finMs,
		&rec.ElapsedSeconds,
		&rec.Total,
		&rec.Succeeded,
		&rec.Failed,
		&rec.State,
		&rec.OutputPath,
		&rec.Cause,
	)
	if err != nil {
		return BatchRecord{}, err
	}
	rec.StartedAt = time.UnixMilli(startedMs)
	rec.FinishedAt = time.UnixMilli(finMs)
	return rec, nil
}
