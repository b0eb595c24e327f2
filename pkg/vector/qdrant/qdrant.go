// Package qdrant provides a vector driver backed by a Qdrant collection.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/google/uuid"
	qc "github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/siamese/pkg/vector"
)

const (
	docIDKey = "doc_id"
	textKey  = "text"

	// DefaultCollection is used when Config.Collection is empty.
	DefaultCollection = "siamese_sentences"
)

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Addr is the gRPC host:port of the Qdrant server, e.g. "localhost:6334".
	Addr string

	APIKey string
	UseTLS bool

	Collection string

	// Dimensions is the encoder hidden size. It is required.
	Dimensions uint

	// Cosine selects cosine distance for the collection instead of Euclid.
	Cosine bool
}

// Driver implements vector.Driver on top of Qdrant.
type Driver struct {
	client     *qc.Client
	collection string
	dimensions int
	cosine     bool
	logger     *slog.Logger
}

// NewDriver connects to Qdrant and creates the collection if it does not
// exist yet.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.Addr == "" {
		return nil, errors.New("qdrant address is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("qdrant embedding dimensions cannot be 0, must be configured")
	}
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}

	host, portStr, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return nil, fmt.Errorf("parsing qdrant address %q: %w", c.Addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("parsing qdrant port %q: %w", portStr, err)
	}

	client, err := qc.NewClient(&qc.Config{
		Host:   host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}

	d := &Driver{
		client:     client,
		collection: c.Collection,
		dimensions: int(c.Dimensions),
		cosine:     c.Cosine,
		logger:     logger,
	}
	if err := d.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("qdrant vector driver initialized",
		"addr", c.Addr,
		"collection", c.Collection,
		"dimensions", c.Dimensions,
	)
	return d, nil
}

func (d *Driver) ensureCollection(ctx context.Context) error {
	exists, err := d.client.CollectionExists(ctx, d.collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection: %w", vector.ErrConnection, err)
	}
	if exists {
		return nil
	}

	distance := qc.Distance_Euclid
	if d.cosine {
		distance = qc.Distance_Cosine
	}
	err = d.client.CreateCollection(ctx, &qc.CreateCollection{
		CollectionName: d.collection,
		VectorsConfig: qc.NewVectorsConfig(&qc.VectorParams{
			Size:     uint64(d.dimensions),
			Distance: distance,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", d.collection, err)
	}
	return nil
}

// pointID maps a document ID onto the UUID space Qdrant accepts.
func pointID(docID string) *qc.PointId {
	return qc.NewID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(docID)).String())
}

func pointIDs(ids []string) []*qc.PointId {
	out := make([]*qc.PointId, len(ids))
	for i, id := range ids {
		out[i] = pointID(id)
	}
	return out
}

func denseVector(v *qc.VectorsOutput) []float32 {
	out := v.GetVector()
	if dense := out.GetDense(); dense != nil {
		return dense.GetData()
	}
	return out.GetData()
}

func document(payload map[string]*qc.Value, vectors *qc.VectorsOutput) vector.Document {
	return vector.Document{
		ID:        payload[docIDKey].GetStringValue(),
		Text:      payload[textKey].GetStringValue(),
		Embedding: denseVector(vectors),
	}
}

// Add upserts documents into the collection.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qc.PointStruct, 0, len(docs))
	for _, doc := range docs {
		if len(doc.Embedding) != d.dimensions {
			return fmt.Errorf("%w: doc %s has %d values, store has %d", vector.ErrDimensions, doc.ID, len(doc.Embedding), d.dimensions)
		}
		points = append(points, &qc.PointStruct{
			Id:      pointID(doc.ID),
			Vectors: qc.NewVectors(doc.Embedding...),
			Payload: qc.NewValueMap(map[string]any{
				docIDKey: doc.ID,
				textKey:  doc.Text,
			}),
		})
	}

	_, err := d.client.Upsert(ctx, &qc.UpsertPoints{
		CollectionName: d.collection,
		Wait:           qc.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("added documents to qdrant", "count", len(docs))
	return nil
}

// Query finds the topK nearest documents to the given embedding.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}
	if len(embedding) != d.dimensions {
		return nil, fmt.Errorf("%w: query has %d values, store has %d", vector.ErrDimensions, len(embedding), d.dimensions)
	}

	points, err := d.client.Query(ctx, &qc.QueryPoints{
		CollectionName: d.collection,
		Query:          qc.NewQuery(embedding...),
		Limit:          qc.PtrOf(uint64(topK)),
		WithPayload:    qc.NewWithPayload(true),
		WithVectors:    qc.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, p := range points {
		score := p.GetScore()
		if !d.cosine {
			// Euclid scores are distances
			score = 1 / (1 + score)
		}
		results = append(results, vector.QueryResult{
			Document: document(p.GetPayload(), p.GetVectors()),
			Score:    score,
		})
	}

	d.logger.Debug("queried qdrant", "results", len(results))
	return results, nil
}

// Get retrieves documents by their IDs. Unknown IDs are skipped.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	points, err := d.client.Get(ctx, &qc.GetPoints{
		CollectionName: d.collection,
		Ids:            pointIDs(ids),
		WithPayload:    qc.NewWithPayload(true),
		WithVectors:    qc.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting points: %w", err)
	}

	var docs []vector.Document
	for _, p := range points {
		docs = append(docs, document(p.GetPayload(), p.GetVectors()))
	}
	return docs, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := d.client.Delete(ctx, &qc.DeletePoints{
		CollectionName: d.collection,
		Wait:           qc.PtrOf(true),
		Points:         qc.NewPointsSelector(pointIDs(ids)...),
	})
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	d.logger.Debug("deleted documents from qdrant", "count", len(ids))
	return nil
}

// Close closes the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}
