package pgvector

import (
	"context"
	"fmt"
	"sync"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/opsgraph/backend/pkg/common"
	"github.com/opsgraph/backend/pkg/store"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// VectorIndexStorage implements store.VectorIndex on PostgreSQL with the
// pgvector extension. Passage vectors live in their own table keyed by
// passage id, decoupled from the graph database.
type VectorIndexStorage struct {
	conn   pgxIConn
	dbLock sync.Mutex
}

// NewVectorIndexStorage creates a vector index backed by an existing
// database connection. pgvector types must be registered on the connection.
func NewVectorIndexStorage(conn pgxIConn) *VectorIndexStorage {
	return &VectorIndexStorage{conn: conn}
}

// EnsureIndex creates the passage vector table and its similarity index if
// they do not exist. An existing table with a different vector dimension
// fails the call rather than silently truncating vectors.
func (s *VectorIndexStorage) EnsureIndex(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return common.ConfigurationErrorf("vector index dimensions must be positive, got %d", dimensions)
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	var existing int
	err := s.conn.QueryRow(ctx, `
SELECT atttypmod FROM pg_attribute
WHERE attrelid = to_regclass('passage_vectors') AND attname = 'embedding'
`).Scan(&existing)
	if err == nil {
		if existing != dimensions {
			return common.ConfigurationErrorf(
				"passage_vectors has %d dimensions, embedding model produces %d",
				existing, dimensions,
			)
		}
		return nil
	}
	if err != pgxv5.ErrNoRows {
		return fmt.Errorf("inspect passage_vectors: %w", err)
	}

	_, err = s.conn.Exec(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS passage_vectors (
	id TEXT PRIMARY KEY,
	text TEXT NOT NULL DEFAULT '',
	embedding VECTOR(%d) NOT NULL
)
`, dimensions))
	if err != nil {
		return fmt.Errorf("create passage_vectors: %w", err)
	}

	_, err = s.conn.Exec(ctx, `
CREATE INDEX IF NOT EXISTS passage_vectors_embedding_idx
ON passage_vectors USING hnsw (embedding vector_cosine_ops)
`)
	if err != nil {
		return fmt.Errorf("create passage_vectors index: %w", err)
	}
	return nil
}

// UpsertVectors writes passage embeddings in a single transaction so a
// failed batch leaves no partial rows behind.
func (s *VectorIndexStorage) UpsertVectors(ctx context.Context, vectors []store.PassageVector) error {
	if len(vectors) == 0 {
		return nil
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, vec := range vectors {
		if vec.ID == "" {
			return fmt.Errorf("passage id is empty")
		}
		_, err = tx.Exec(ctx, `
INSERT INTO passage_vectors (id, text, embedding)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET text = EXCLUDED.text, embedding = EXCLUDED.embedding
`, vec.ID, vec.Text, pgvector.NewVector(vec.Vector))
		if err != nil {
			return fmt.Errorf("upsert passage vector %s: %w", vec.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// Search returns the k passages most similar to the query vector by cosine
// similarity, most similar first.
func (s *VectorIndexStorage) Search(ctx context.Context, vector []float32, k int) ([]store.ScoredPassage, error) {
	if k <= 0 {
		k = 3
	}

	rows, err := s.conn.Query(ctx, `
SELECT id, text, 1 - (embedding <=> $1) AS score
FROM passage_vectors
ORDER BY embedding <=> $1
LIMIT $2
`, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	matches := []store.ScoredPassage{}
	for rows.Next() {
		var match store.ScoredPassage
		if err := rows.Scan(&match.ID, &match.Text, &match.Score); err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}
