// Package retrieval provides similarity search over the document store.
package retrieval

import (
	"context"
	"errors"

	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/models"
)

// ErrRetrieval is returned when the vector store backend fails.
var ErrRetrieval = errors.New("retrieval failed")

// Retriever returns the top-K stored document chunks most similar to the
// query vector, filtered by a similarity threshold. An empty result is
// valid: it means nothing scored above the threshold.
type Retriever interface {
	Search(ctx context.Context, vector []float32, threshold float64, topK int) ([]models.DocumentMatch, error)
	// Add stores a chunk with its embedding so operators can seed the
	// store; bulk ingestion is out of scope.
	Add(ctx context.Context, content string, metadata map[string]any, vector []float32) (string, error)
}
