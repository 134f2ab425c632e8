package contract

import "context"

// ChatModel generates one model response for a conversation. Any bound
// tool declarations are an adapter construction concern.
type ChatModel interface {
	Generate(ctx context.Context, msgs []Message) (ModelResponse, error)
}

// Embedder turns texts into embedding vectors, one per input, in input
// order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever returns the k context snippets nearest to the query
// embedding, most relevant first.
type Retriever interface {
	Query(ctx context.Context, embedding []float32, k int) ([]RetrievedChunk, error)
}
