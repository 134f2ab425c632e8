package rag

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"genia/assistant/contract"
)

// Option customizes an Ingestor.
type Option func(*Ingestor)

// WithChunking overrides the chunk window and overlap.
func WithChunking(size, overlap int) Option {
	return func(i *Ingestor) {
		if size > 0 {
			i.chunkSize = size
		}
		if overlap >= 0 {
			i.chunkOverlap = overlap
		}
	}
}

// Ingestor runs the upload pipeline: load, chunk, embed, store.
type Ingestor struct {
	embedder     contract.Embedder
	store        *VectorStore
	chunkSize    int
	chunkOverlap int
}

func NewIngestor(embedder contract.Embedder, store *VectorStore, opts ...Option) (*Ingestor, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if store == nil {
		return nil, errors.New("vector store is required")
	}

	ingestor := &Ingestor{
		embedder:     embedder,
		store:        store,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ingestor)
		}
	}
	return ingestor, nil
}

// Ingest indexes the document at path under its base filename as the
// source label and returns how many chunks were stored.
func (i *Ingestor) Ingest(ctx context.Context, path string) (int, error) {
	text, err := LoadDocument(path)
	if err != nil {
		return 0, err
	}

	chunks := ChunkText(text, i.chunkSize, i.chunkOverlap)
	if len(chunks) == 0 {
		return 0, nil
	}

	embeddings, err := i.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}

	source := filepath.Base(path)
	if err := i.store.Add(ctx, source, chunks, embeddings); err != nil {
		return 0, err
	}

	log.Info().Str("source", source).Int("chunks", len(chunks)).Msg("document indexed")
	return len(chunks), nil
}
