package sqlite

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/custodia-labs/docchat/internal/adapters/driven/vectorstore"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// vectorStore implements driven.VectorStore over the vectors table.
// Queries load the namespace and score it in process, which suits the
// few hundred chunks a single PDF produces.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Upsert writes all entries in one transaction.
func (s *vectorStore) Upsert(ctx context.Context, namespace string, entries []domain.VectorEntry) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (namespace, id, page_number, text, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(namespace, id) DO UPDATE SET
			page_number = excluded.page_number,
			text = excluded.text,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := s.store.now().UnixNano()
	for _, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("%w: entry %s has no vector", domain.ErrInvalidInput, e.ID)
		}
		_, err := stmt.ExecContext(ctx, namespace, e.ID, e.Metadata.PageNumber, e.Metadata.Text,
			encodeVector(e.Vector), now)
		if err != nil {
			return fmt.Errorf("upserting vector %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// Query scores every entry in namespace against vector.
func (s *vectorStore) Query(
	ctx context.Context,
	namespace string,
	vector []float32,
	topK int,
) ([]domain.VectorMatch, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, page_number, text, embedding FROM vectors WHERE namespace = ?
	`, namespace)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var matches []domain.VectorMatch
	for rows.Next() {
		var m domain.VectorMatch
		var blob []byte
		if err := rows.Scan(&m.ID, &m.Metadata.PageNumber, &m.Metadata.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		m.Score = vectorstore.Cosine(vector, decodeVector(blob))
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	return vectorstore.TopK(matches, topK), nil
}

// DeleteNamespace removes every entry in namespace.
func (s *vectorStore) DeleteNamespace(ctx context.Context, namespace string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM vectors WHERE namespace = ?", namespace); err != nil {
		return fmt.Errorf("deleting namespace: %w", err)
	}
	return nil
}

// Count returns the number of entries in namespace.
func (s *vectorStore) Count(ctx context.Context, namespace string) (int, error) {
	var n int
	err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors WHERE namespace = ?", namespace).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return n, nil
}

// Close is a no-op; the owning Store closes the database.
func (s *vectorStore) Close() error {
	return nil
}

// encodeVector packs v as little-endian float32s for the embedding column.
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 0, 4*len(v))
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

// decodeVector is the inverse of encodeVector. Trailing bytes that do not
// form a whole float are dropped.
func decodeVector(blob []byte) []float32 {
	if len(blob) < 4 {
		return nil
	}
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return v
}
