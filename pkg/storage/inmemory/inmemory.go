// Package inmemory provides a map-backed storage driver.
package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/papercomputeco/siamese/pkg/storage"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	// mu guards runs and epochs
	mu sync.RWMutex

	runs   map[string]*storage.Run
	epochs map[string]map[int]storage.EpochRecord
}

// NewDriver creates a new in-memory store.
func NewDriver() *Driver {
	return &Driver{
		runs:   make(map[string]*storage.Run),
		epochs: make(map[string]map[int]storage.EpochRecord),
	}
}

// CreateRun stores a copy of run.
func (d *Driver) CreateRun(_ context.Context, run *storage.Run) error {
	if run == nil {
		return errors.New("cannot store nil run")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.runs[run.ID]; ok {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	cp := *run
	d.runs[run.ID] = &cp
	return nil
}

// RecordEpoch stores rec for an existing run.
func (d *Driver) RecordEpoch(_ context.Context, rec storage.EpochRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.runs[rec.RunID]; !ok {
		return storage.ErrNotFound{ID: rec.RunID}
	}
	if d.epochs[rec.RunID] == nil {
		d.epochs[rec.RunID] = make(map[int]storage.EpochRecord)
	}
	d.epochs[rec.RunID][rec.Epoch] = rec
	return nil
}

// FinishRun updates the status of a run.
func (d *Driver) FinishRun(_ context.Context, id string, status storage.RunStatus, errMsg string, finishedAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	run, ok := d.runs[id]
	if !ok {
		return storage.ErrNotFound{ID: id}
	}
	run.Status = status
	run.Error = errMsg
	run.FinishedAt = finishedAt
	return nil
}

// GetRun retrieves a run by its ID.
func (d *Driver) GetRun(_ context.Context, id string) (*storage.Run, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	run, ok := d.runs[id]
	if !ok {
		return nil, storage.ErrNotFound{ID: id}
	}
	cp := *run
	return &cp, nil
}

// ListRuns returns runs, most recent first.
func (d *Driver) ListRuns(_ context.Context, limit int) ([]*storage.Run, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	runs := make([]*storage.Run, 0, len(d.runs))
	for _, r := range d.runs {
		cp := *r
		runs = append(runs, &cp)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Epochs returns the epoch records of a run in epoch order.
func (d *Driver) Epochs(_ context.Context, runID string) ([]storage.EpochRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, ok := d.runs[runID]; !ok {
		return nil, storage.ErrNotFound{ID: runID}
	}
	recs := make([]storage.EpochRecord, 0, len(d.epochs[runID]))
	for _, r := range d.epochs[runID] {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Epoch < recs[j].Epoch })
	return recs, nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}
