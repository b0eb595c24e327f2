// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/siamese/pkg/vector"
)

// SQLiteVecDriver implements vector.Driver using SQLite with sqlite-vec.
type SQLiteVecDriver struct {
	db         *sql.DB
	dimensions int
	logger     *slog.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the encoder hidden size. It is required.
	Dimensions uint

	// Cosine switches the vec0 distance from L2 to cosine.
	Cosine bool
}

// NewSQLiteVecDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewSQLiteVecDriver(c Config, logger *slog.Logger) (*SQLiteVecDriver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, errors.New("database path is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	// vec0 virtual tables use integer rowids, so string document IDs are
	// mapped to rowids here.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sentence_documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating documents table: %w", err)
	}

	column := fmt.Sprintf("embedding float[%d]", c.Dimensions)
	if c.Cosine {
		column += " distance_metric=cosine"
	}
	if _, err := db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS sentence_embeddings USING vec0(` + column + `)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		"db_path", c.DBPath,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return &SQLiteVecDriver{
		db:         db,
		dimensions: int(c.Dimensions),
		logger:     logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to the little-endian BLOB format
// sqlite-vec reads.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// Add stores documents with their embeddings.
// If a document with the same ID already exists, it is updated.
func (d *SQLiteVecDriver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, doc := range docs {
		if len(doc.Embedding) != d.dimensions {
			return fmt.Errorf("%w: doc %s has %d values, store has %d", vector.ErrDimensions, doc.ID, len(doc.Embedding), d.dimensions)
		}
		blob := serializeFloat32(doc.Embedding)

		var rowID int64
		err = tx.QueryRowContext(ctx,
			`SELECT rowid FROM sentence_documents WHERE doc_id = ?`, doc.ID,
		).Scan(&rowID)

		switch {
		case err == nil:
			if _, err := tx.ExecContext(ctx,
				`UPDATE sentence_documents SET text = ? WHERE rowid = ?`, doc.Text, rowID,
			); err != nil {
				return fmt.Errorf("updating document %s: %w", doc.ID, err)
			}

			// vec0 does not support UPDATE
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM sentence_embeddings WHERE rowid = ?`, rowID,
			); err != nil {
				return fmt.Errorf("deleting old embedding for doc %s: %w", doc.ID, err)
			}
		case errors.Is(err, sql.ErrNoRows):
			result, err := tx.ExecContext(ctx,
				`INSERT INTO sentence_documents(doc_id, text) VALUES (?, ?)`, doc.ID, doc.Text,
			)
			if err != nil {
				return fmt.Errorf("inserting document %s: %w", doc.ID, err)
			}
			rowID, err = result.LastInsertId()
			if err != nil {
				return fmt.Errorf("getting rowid for doc %s: %w", doc.ID, err)
			}
		default:
			return fmt.Errorf("checking for existing document %s: %w", doc.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sentence_embeddings(rowid, embedding) VALUES (?, ?)`, rowID, blob,
		); err != nil {
			return fmt.Errorf("inserting embedding for doc %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("added documents to sqlite-vec", "count", len(docs))
	return nil
}

// Query finds the topK nearest documents to the given embedding.
func (d *SQLiteVecDriver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}
	if len(embedding) != d.dimensions {
		return nil, fmt.Errorf("%w: query has %d values, store has %d", vector.ErrDimensions, len(embedding), d.dimensions)
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT d.doc_id, d.text, se.embedding, se.distance
		FROM sentence_embeddings se
		INNER JOIN sentence_documents d ON d.rowid = se.rowid
		WHERE se.embedding MATCH ?
			AND se.k = ?
		ORDER BY se.distance
	`, serializeFloat32(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []vector.QueryResult
	for rows.Next() {
		var (
			doc      vector.Document
			blob     []byte
			distance float64
		)
		if err := rows.Scan(&doc.ID, &doc.Text, &blob, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}
		if doc.Embedding, err = deserializeFloat32(blob); err != nil {
			return nil, err
		}

		results = append(results, vector.QueryResult{
			Document: doc,
			// lower distance = higher similarity
			Score: float32(1.0 / (1.0 + distance)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	d.logger.Debug("queried sqlite-vec", "results", len(results))
	return results, nil
}

// Get retrieves documents by their IDs.
func (d *SQLiteVecDriver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT d.doc_id, d.text, se.embedding
		FROM sentence_documents d
		LEFT JOIN sentence_embeddings se ON se.rowid = d.rowid
		WHERE d.doc_id IN (`+placeholders(len(ids))+`)
	`, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []vector.Document
	for rows.Next() {
		var (
			doc  vector.Document
			blob []byte
		)
		if err := rows.Scan(&doc.ID, &doc.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if len(blob) > 0 {
			if doc.Embedding, err = deserializeFloat32(blob); err != nil {
				return nil, err
			}
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// Delete removes documents by their IDs.
func (d *SQLiteVecDriver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	in := placeholders(len(ids))
	args := stringArgs(ids)

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sentence_embeddings WHERE rowid IN (SELECT rowid FROM sentence_documents WHERE doc_id IN (`+in+`))`,
		args...,
	); err != nil {
		return fmt.Errorf("deleting embeddings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sentence_documents WHERE doc_id IN (`+in+`)`, args...); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("deleted documents from sqlite-vec", "count", len(ids))
	return nil
}

// Close releases resources held by the driver.
func (d *SQLiteVecDriver) Close() error {
	return d.db.Close()
}
