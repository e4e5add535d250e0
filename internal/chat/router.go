package chat

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/models"
	"go.uber.org/zap"
)

// MaxMessageLength is the hard cap enforced before routing.
const MaxMessageLength = 1000

var (
	// ErrEmptyMessage is returned for empty or whitespace-only messages.
	ErrEmptyMessage = errors.New("message cannot be empty")
	// ErrMessageTooLong is returned when the message exceeds the cap.
	ErrMessageTooLong = errors.New("message is too long")
)

// Answer providers reported to the client.
const (
	ProviderOpenAI = "openai"
	ProviderStatic = "static"
)

// ValidateMessage enforces the message rules before any routing happens.
func ValidateMessage(message string, maxLength int) error {
	if maxLength <= 0 {
		maxLength = MaxMessageLength
	}
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}
	// The cap counts characters, not bytes, so multi-byte text is not
	// penalized.
	if utf8.RuneCountInString(message) > maxLength {
		return ErrMessageTooLong
	}
	return nil
}

// Router classifies each message as canned-topic or needs-generation and
// dispatches it. When no generator is configured every message takes the
// static path.
type Router struct {
	responder *StaticResponder
	generator *Generator
	maxLength int
	logger    *zap.Logger
}

func NewRouter(responder *StaticResponder, generator *Generator, maxLength int, logger *zap.Logger) *Router {
	return &Router{
		responder: responder,
		generator: generator,
		maxLength: maxLength,
		logger:    logger,
	}
}

// Available reports whether the language-model path is configured.
func (r *Router) Available() bool {
	return r.generator != nil
}

// Answer validates the message and routes it: canned-topic keywords go to
// the static responder, everything else to the generator (grounded when a
// retriever is configured, conversational otherwise).
func (r *Router) Answer(ctx context.Context, message string, history []models.ChatMessage) (*models.ChatAnswer, error) {
	if err := ValidateMessage(message, r.maxLength); err != nil {
		return nil, err
	}

	if r.generator == nil || r.responder.HasKeyword(message) {
		answer, imageTerm := r.responder.Respond(message)
		return &models.ChatAnswer{
			Text:            answer,
			ImageSearchTerm: imageTerm,
			Provider:        ProviderStatic,
		}, nil
	}

	if r.generator.HasRetriever() {
		return r.generator.AnswerGrounded(ctx, message)
	}
	return r.generator.Converse(ctx, message, history)
}
