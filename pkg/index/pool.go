// Package index provides an asynchronous worker pool that encodes sentences
// with an embeddings.Embedder and stores them in a vector.Driver.
//
// The pool decouples encoding from callers so that the serve API and the
// index command can hand off sentences without waiting on the store.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/papercomputeco/siamese/pkg/embeddings"
	"github.com/papercomputeco/siamese/pkg/vector"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("index pool closed")

// Job is one sentence to encode and store.
type Job struct {
	// ID defaults to DocumentID(Text) when empty.
	ID   string
	Text string
}

// DocumentID derives a stable ID from the normalized text, so indexing the
// same sentence twice updates one document.
func DocumentID(text string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(text))))
	return hex.EncodeToString(sum[:16])
}

// Config is the configuration options for the worker pool.
type Config struct {
	VectorDriver vector.Driver
	Embedder     embeddings.Embedder

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	Logger *slog.Logger
}

// Stats counts processed jobs.
type Stats struct {
	Indexed uint64
	Failed  uint64
}

// Pool processes index jobs asynchronously.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool

	indexed atomic.Uint64
	failed  atomic.Uint64
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.VectorDriver == nil || c.Embedder == nil {
		return nil, errors.New("index pool needs a vector driver and an embedder")
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}
	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	p := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue submits a job without blocking.
// Returns true if enqueued, false if the queue is full or the pool is closed.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("index job queued", "id", job.ID)
		return true
	default:
		p.logger.Error("index job not queued, queue full, job dropped", "id", job.ID)
		return false
	}
}

// Submit blocks until the job is queued or ctx is done.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits for queued ones to drain.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

// Stats returns the job counters so far.
func (p *Pool) Stats() Stats {
	return Stats{Indexed: p.indexed.Load(), Failed: p.failed.Load()}
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("index worker started", "worker_id", id)

	for job := range p.queue {
		if err := p.processJob(context.Background(), job); err != nil {
			p.failed.Add(1)
			p.logger.Warn("index job failed", "id", job.ID, "error", err)
			continue
		}
		p.indexed.Add(1)
	}

	p.logger.Debug("index worker stopped", "worker_id", id)
}

func (p *Pool) processJob(ctx context.Context, job Job) error {
	if strings.TrimSpace(job.Text) == "" {
		return errors.New("empty text")
	}
	if job.ID == "" {
		job.ID = DocumentID(job.Text)
	}

	embedding, err := p.config.Embedder.Embed(ctx, job.Text)
	if err != nil {
		return fmt.Errorf("%w: %w", vector.ErrEmbedding, err)
	}

	doc := vector.Document{
		ID:        job.ID,
		Text:      job.Text,
		Embedding: embedding,
	}
	if err := p.config.VectorDriver.Add(ctx, []vector.Document{doc}); err != nil {
		return fmt.Errorf("storing embedding: %w", err)
	}

	p.logger.Debug("stored embedding", "id", job.ID, "embedding_dim", len(embedding))
	return nil
}
