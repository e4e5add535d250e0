package retrieval

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/models"
)

type storedChunk struct {
	id       string
	content  string
	metadata map[string]any
	vector   []float32
}

// MemoryRetriever is a brute-force cosine similarity index used when no
// database is configured. Suitable for demos and tests.
type MemoryRetriever struct {
	mu     sync.RWMutex
	chunks []storedChunk
}

func NewMemoryRetriever() *MemoryRetriever {
	return &MemoryRetriever{}
}

func (r *MemoryRetriever) Search(ctx context.Context, vector []float32, threshold float64, topK int) ([]models.DocumentMatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if topK <= 0 {
		return nil, nil
	}

	var matches []models.DocumentMatch
	for _, chunk := range r.chunks {
		score := cosineSimilarity(vector, chunk.vector)
		if score >= threshold {
			matches = append(matches, models.DocumentMatch{
				ID:         chunk.id,
				Content:    chunk.content,
				Metadata:   chunk.metadata,
				Similarity: score,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (r *MemoryRetriever) Add(ctx context.Context, content string, metadata map[string]any, vector []float32) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	vec := make([]float32, len(vector))
	copy(vec, vector)
	chunk := storedChunk{
		id:       uuid.New().String(),
		content:  content,
		metadata: metadata,
		vector:   vec,
	}
	r.chunks = append(r.chunks, chunk)
	return chunk.id, nil
}

// Size returns the number of stored chunks.
func (r *MemoryRetriever) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chunks)
}

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
