package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/uptrace/bun"

	"genia/assistant/contract"
)

// Chunk is one embedded document slice. The embedding is stored as a
// JSON array so the table works identically on Postgres and SQLite.
type Chunk struct {
	bun.BaseModel `bun:"table:document_chunks,alias:c"`

	ID        int64  `bun:"id,pk,autoincrement"`
	Source    string `bun:"source,notnull"`
	Content   string `bun:"content,notnull"`
	Embedding string `bun:"embedding,notnull"`
}

// VectorStore persists chunks and answers top-k nearest-neighbor
// queries by cosine similarity. Ranking happens in process: upload-scale
// corpora are small enough that a linear scan is the simplest correct
// retriever.
type VectorStore struct {
	db *bun.DB
}

var _ contract.Retriever = (*VectorStore)(nil)

func NewVectorStore(db *bun.DB) *VectorStore {
	return &VectorStore{db: db}
}

// Init creates the chunk table if it does not exist yet.
func (s *VectorStore) Init(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*Chunk)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create document_chunks table: %w", err)
	}
	return nil
}

// Add stores one embedded chunk per content/embedding pair under the
// given source label.
func (s *VectorStore) Add(ctx context.Context, source string, contents []string, embeddings [][]float32) error {
	if len(contents) != len(embeddings) {
		return fmt.Errorf("got %d contents but %d embeddings", len(contents), len(embeddings))
	}
	if len(contents) == 0 {
		return nil
	}

	chunks := make([]Chunk, 0, len(contents))
	for i, content := range contents {
		encoded, err := json.Marshal(embeddings[i])
		if err != nil {
			return fmt.Errorf("encode embedding: %w", err)
		}
		chunks = append(chunks, Chunk{
			Source:    source,
			Content:   content,
			Embedding: string(encoded),
		})
	}

	if _, err := s.db.NewInsert().Model(&chunks).Exec(ctx); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	return nil
}

// Query returns the k stored chunks nearest to embedding, most similar
// first.
func (s *VectorStore) Query(ctx context.Context, embedding []float32, k int) ([]contract.RetrievedChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	var chunks []Chunk
	if err := s.db.NewSelect().
		Model(&chunks).
		Order("id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}

	scored := make([]contract.RetrievedChunk, 0, len(chunks))
	for _, chunk := range chunks {
		var vector []float32
		if err := json.Unmarshal([]byte(chunk.Embedding), &vector); err != nil {
			return nil, fmt.Errorf("decode embedding for chunk %d: %w", chunk.ID, err)
		}
		scored = append(scored, contract.RetrievedChunk{
			Content: chunk.Content,
			Source:  chunk.Source,
			Score:   cosineSimilarity(embedding, vector),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// cosineSimilarity is zero for mismatched lengths or zero-norm vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
