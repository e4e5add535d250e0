package retrieval

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/models"
)

// PostgresRetriever runs cosine similarity search against the pgvector
// documents table, sharing the credential store's connection pool.
type PostgresRetriever struct {
	db *sql.DB
}

func NewPostgresRetriever(db *sql.DB) *PostgresRetriever {
	return &PostgresRetriever{db: db}
}

func (r *PostgresRetriever) Search(ctx context.Context, vector []float32, threshold float64, topK int) ([]models.DocumentMatch, error) {
	query := `
		SELECT id, content, metadata, 1 - (embedding <=> $1) AS similarity
		FROM documents
		WHERE 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, vectorLiteral(vector), threshold, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}
	defer rows.Close()

	var matches []models.DocumentMatch
	for rows.Next() {
		var match models.DocumentMatch
		var metadata []byte
		if err := rows.Scan(&match.ID, &match.Content, &metadata, &match.Similarity); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &match.Metadata); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
			}
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	return matches, nil
}

func (r *PostgresRetriever) Add(ctx context.Context, content string, metadata map[string]any, vector []float32) (string, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	query := `
		INSERT INTO documents (content, metadata, embedding)
		VALUES ($1, $2, $3)
		RETURNING id`

	var id string
	if err := r.db.QueryRowContext(ctx, query, content, meta, vectorLiteral(vector)).Scan(&id); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRetrieval, err)
	}
	return id, nil
}

// vectorLiteral renders a vector in pgvector's text format: [v1,v2,...].
func vectorLiteral(vector []float32) string {
	parts := make([]string, len(vector))
	for i, v := range vector {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
