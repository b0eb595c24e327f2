// Package sqlstore implements storage.Driver over database/sql. The sqlite and
// postgres packages open the connection and pick the dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/siamese/pkg/storage"
)

// Dialect selects the bind parameter syntax.
type Dialect int

const (
	// SQLite binds with ?.
	SQLite Dialect = iota

	// Postgres binds with $1, $2, ...
	Postgres
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id             TEXT PRIMARY KEY,
		dataset        TEXT NOT NULL,
		data_file      TEXT NOT NULL,
		embedding_file TEXT NOT NULL,
		output_dir     TEXT NOT NULL,
		metric         TEXT NOT NULL,
		max_len        INTEGER NOT NULL,
		hidden_size    INTEGER NOT NULL,
		batch_size     INTEGER NOT NULL,
		epochs         INTEGER NOT NULL,
		learning_rate  DOUBLE PRECISION NOT NULL,
		train_samples  INTEGER NOT NULL,
		val_samples    INTEGER NOT NULL,
		status         TEXT NOT NULL,
		error          TEXT NOT NULL DEFAULT '',
		started_at     BIGINT NOT NULL,
		finished_at    BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS epochs (
		run_id         TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		epoch          INTEGER NOT NULL,
		loss           DOUBLE PRECISION NOT NULL,
		accuracy       DOUBLE PRECISION NOT NULL,
		val_loss       DOUBLE PRECISION NOT NULL,
		val_accuracy   DOUBLE PRECISION NOT NULL,
		has_validation BOOLEAN NOT NULL,
		duration_ns    BIGINT NOT NULL,
		PRIMARY KEY (run_id, epoch)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
}

const runColumns = `id, dataset, data_file, embedding_file, output_dir, metric, max_len, hidden_size,
	batch_size, epochs, learning_rate, train_samples, val_samples, status, error, started_at, finished_at`

// Driver implements storage.Driver over a *sql.DB.
type Driver struct {
	DB      *sql.DB
	dialect Dialect
}

// New wraps db and creates the schema if needed.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Driver, error) {
	d := &Driver{DB: db, dialect: dialect}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return d, nil
}

// rebind rewrites ? placeholders for the driver's dialect.
func (d *Driver) rebind(query string) string {
	if d.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func nanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

// CreateRun stores a new run.
func (d *Driver) CreateRun(ctx context.Context, run *storage.Run) error {
	if run == nil {
		return errors.New("cannot store nil run")
	}
	_, err := d.DB.ExecContext(ctx, d.rebind(`INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID, run.Dataset, run.DataFile, run.EmbeddingFile, run.OutputDir, run.Metric,
		run.MaxLen, run.HiddenSize, run.BatchSize, run.Epochs, run.LearningRate,
		run.TrainSamples, run.ValSamples, string(run.Status), run.Error,
		nanos(run.StartedAt), nanos(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}
	return nil
}

// RecordEpoch upserts one epoch record.
func (d *Driver) RecordEpoch(ctx context.Context, rec storage.EpochRecord) error {
	if err := d.exists(ctx, rec.RunID); err != nil {
		return err
	}
	_, err := d.DB.ExecContext(ctx, d.rebind(`INSERT INTO epochs
		(run_id, epoch, loss, accuracy, val_loss, val_accuracy, has_validation, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, epoch) DO UPDATE SET
			loss = excluded.loss,
			accuracy = excluded.accuracy,
			val_loss = excluded.val_loss,
			val_accuracy = excluded.val_accuracy,
			has_validation = excluded.has_validation,
			duration_ns = excluded.duration_ns`),
		rec.RunID, rec.Epoch, rec.Loss, rec.Accuracy, rec.ValLoss, rec.ValAccuracy,
		rec.HasValidation, rec.Duration.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("recording epoch %d of run %s: %w", rec.Epoch, rec.RunID, err)
	}
	return nil
}

func (d *Driver) exists(ctx context.Context, id string) error {
	var one int
	err := d.DB.QueryRowContext(ctx, d.rebind(`SELECT 1 FROM runs WHERE id = ?`), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound{ID: id}
	}
	if err != nil {
		return fmt.Errorf("looking up run %s: %w", id, err)
	}
	return nil
}

// FinishRun updates the status of a run.
func (d *Driver) FinishRun(ctx context.Context, id string, status storage.RunStatus, errMsg string, finishedAt time.Time) error {
	res, err := d.DB.ExecContext(ctx, d.rebind(`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`),
		string(status), errMsg, nanos(finishedAt), id)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", id, err)
	}
	if n == 0 {
		return storage.ErrNotFound{ID: id}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*storage.Run, error) {
	var (
		r                 storage.Run
		status            string
		started, finished int64
	)
	err := s.Scan(&r.ID, &r.Dataset, &r.DataFile, &r.EmbeddingFile, &r.OutputDir, &r.Metric,
		&r.MaxLen, &r.HiddenSize, &r.BatchSize, &r.Epochs, &r.LearningRate,
		&r.TrainSamples, &r.ValSamples, &status, &r.Error, &started, &finished)
	if err != nil {
		return nil, err
	}
	r.Status = storage.RunStatus(status)
	r.StartedAt = fromNanos(started)
	r.FinishedAt = fromNanos(finished)
	return &r, nil
}

// GetRun retrieves a run by its ID.
func (d *Driver) GetRun(ctx context.Context, id string) (*storage.Run, error) {
	row := d.DB.QueryRowContext(ctx, d.rebind(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("reading run %s: %w", id, err)
	}
	return r, nil
}

// ListRuns returns runs, most recent first.
func (d *Driver) ListRuns(ctx context.Context, limit int) ([]*storage.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.DB.QueryContext(ctx, d.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*storage.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Epochs returns the epoch records of a run in epoch order.
func (d *Driver) Epochs(ctx context.Context, runID string) ([]storage.EpochRecord, error) {
	if err := d.exists(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := d.DB.QueryContext(ctx, d.rebind(`SELECT epoch, loss, accuracy, val_loss, val_accuracy,
		has_validation, duration_ns FROM epochs WHERE run_id = ? ORDER BY epoch`), runID)
	if err != nil {
		return nil, fmt.Errorf("listing epochs of run %s: %w", runID, err)
	}
	defer rows.Close()

	var recs []storage.EpochRecord
	for rows.Next() {
		rec := storage.EpochRecord{RunID: runID}
		var dur int64
		if err := rows.Scan(&rec.Epoch, &rec.Loss, &rec.Accuracy, &rec.ValLoss, &rec.ValAccuracy,
			&rec.HasValidation, &dur); err != nil {
			return nil, fmt.Errorf("scanning epoch: %w", err)
		}
		rec.Duration = time.Duration(dur)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Close closes the database.
func (d *Driver) Close() error {
	return d.DB.Close()
}
