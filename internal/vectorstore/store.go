// Package vectorstore persists categorized chunks with their embeddings
// and serves similarity search. Chunks share the `highlog` Postgres
// database with internal/db so a single `DELETE FROM records` cascades
// into both the relational rows and the vector rows in one transaction.
package vectorstore

import (
	"context"
	"database/sql"
	"sort"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/smeasylife/highlog-ai/internal/apperr"
	"github.com/smeasylife/highlog-ai/internal/circuitbreaker"
	dbpkg "github.com/smeasylife/highlog-ai/internal/db"
	"github.com/smeasylife/highlog-ai/internal/metrics"
)

// Chunk is a categorized, embedded span of a Record's source text.
type Chunk struct {
	ID         string
	RecordID   string
	ChunkIndex int
	Text       string
	Category   dbpkg.Category
	Embedding  []float32
}

// ScoredChunk is a search result.
type ScoredChunk struct {
	Chunk
	Score float64
}

// Store wraps the shared DatabaseWrapper for chunk persistence and
// cosine similarity search.
type Store struct {
	db     *circuitbreaker.DatabaseWrapper
	logger *zap.Logger
	dim    int
}

// New constructs a Store over an already-bootstrapped database.
func New(db *circuitbreaker.DatabaseWrapper, dim int, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger, dim: dim}
}

// PutChunks atomically replaces a record's chunks with the supplied set,
// so re-ingestion is idempotent: the delete and the inserts happen in one
// transaction.
func (s *Store) PutChunks(ctx context.Context, recordID string, chunks []Chunk) error {
	for _, c := range chunks {
		if len(c.Embedding) != s.dim {
			return apperr.InvalidRequest("chunk embedding dimension %d != expected %d", len(c.Embedding), s.dim)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Storage(err, "begin put_chunks tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE record_id = $1`, recordID); err != nil {
		return apperr.Storage(err, "delete existing chunks for record %s", recordID)
	}

	for _, c := range chunks {
		id := c.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (id, record_id, chunk_index, text, category, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			id, recordID, c.ChunkIndex, c.Text, c.Category, pgvector.NewVector(c.Embedding)); err != nil {
			return apperr.Storage(err, "insert chunk %d for record %s", c.ChunkIndex, recordID)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Storage(err, "commit put_chunks for record %s", recordID)
	}
	metrics.ChunksPersisted.WithLabelValues("all").Add(float64(len(chunks)))
	return nil
}

// GetByCategory returns a record's chunks in a category, ordered by
// chunk_index.
func (s *Store) GetByCategory(ctx context.Context, recordID string, category dbpkg.Category) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, record_id, chunk_index, text, category, embedding
		 FROM chunks WHERE record_id = $1 AND category = $2 ORDER BY chunk_index ASC`,
		recordID, category)
	if err != nil {
		return nil, apperr.Storage(err, "get_by_category %s/%s", recordID, category)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// Categories returns the distinct categories with at least one chunk for
// a record, used by the Question Generation Pipeline to know what to
// iterate over.
func (s *Store) Categories(ctx context.Context, recordID string) ([]dbpkg.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM chunks WHERE record_id = $1 ORDER BY category`, recordID)
	if err != nil {
		return nil, apperr.Storage(err, "list categories for record %s", recordID)
	}
	defer rows.Close()

	var cats []dbpkg.Category
	for rows.Next() {
		var c dbpkg.Category
		if err := rows.Scan(&c); err != nil {
			return nil, apperr.Storage(err, "scan category")
		}
		cats = append(cats, c)
	}
	return cats, nil
}

// Search performs cosine similarity search within one record, optionally
// filtered to a category. Score is normalized to [-1, 1]; ties break by
// chunk_index ascending.
func (s *Store) Search(ctx context.Context, recordID string, query []float32, k int, category *dbpkg.Category) ([]ScoredChunk, error) {
	if len(query) != s.dim {
		return nil, apperr.InvalidRequest("query embedding dimension %d != expected %d", len(query), s.dim)
	}
	qv := pgvector.NewVector(query)

	var (
		rows *sql.Rows
		err  error
	)
	if category != nil {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, record_id, chunk_index, text, category, embedding,
			        1 - (embedding <=> $1) AS score
			 FROM chunks
			 WHERE record_id = $2 AND category = $3
			 ORDER BY score DESC, chunk_index ASC
			 LIMIT $4`,
			qv, recordID, *category, k)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, record_id, chunk_index, text, category, embedding,
			        1 - (embedding <=> $1) AS score
			 FROM chunks
			 WHERE record_id = $2
			 ORDER BY score DESC, chunk_index ASC
			 LIMIT $3`,
			qv, recordID, k)
	}
	if err != nil {
		return nil, apperr.Storage(err, "search record %s", recordID)
	}
	defer rows.Close()

	var out []ScoredChunk
	for rows.Next() {
		var (
			c   Chunk
			v   pgvector.Vector
			sc  float64
		)
		if err := rows.Scan(&c.ID, &c.RecordID, &c.ChunkIndex, &c.Text, &c.Category, &v, &sc); err != nil {
			return nil, apperr.Storage(err, "scan search result")
		}
		c.Embedding = v.Slice()
		out = append(out, ScoredChunk{Chunk: c, Score: sc})
	}

	// Postgres already orders by score/chunk_index; this re-sort is a
	// defensive stabilizer in case a driver-level reorder ever happens.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ChunkIndex < out[j].ChunkIndex
	})

	return out, nil
}

// DeleteByRecord removes all chunks for a record. Normally implicit via
// the records table's ON DELETE CASCADE; exposed directly so the
// Ingestion Pipeline can purge a record's chunks before a retry without
// deleting the Record row itself.
func (s *Store) DeleteByRecord(ctx context.Context, recordID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE record_id = $1`, recordID); err != nil {
		return apperr.Storage(err, "delete_by_record %s", recordID)
	}
	return nil
}

func scanChunks(rows *sql.Rows) ([]Chunk, error) {
	var out []Chunk
	for rows.Next() {
		var (
			c Chunk
			v pgvector.Vector
		)
		if err := rows.Scan(&c.ID, &c.RecordID, &c.ChunkIndex, &c.Text, &c.Category, &v); err != nil {
			return nil, apperr.Storage(err, "scan chunk")
		}
		c.Embedding = v.Slice()
		out = append(out, c)
	}
	return out, nil
}
