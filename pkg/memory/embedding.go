package memory

import "context"

// Embedding is a fixed-length vector representation of a text, together
// with the model that produced it. Vectors from different models are
// not comparable.
type Embedding struct {
	Vector []float32
	Model  string
}

// EmbeddingProvider computes embeddings via an external model. A failed
// call means "no embedding available": callers degrade to keyword-only
// search or skip embedding storage, they never abort the surrounding
// operation because of it.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) (*Embedding, error)
}

// ChatCompleter is the narrow slice of an LLM chat client consumed by
// the extraction pipeline.
type ChatCompleter interface {
	Complete(ctx context.Context, system, prompt, model string) (string, error)
}
