package chat

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/embedding"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/models"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/retrieval"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrGeneration is returned when the language-model backend fails.
var ErrGeneration = errors.New("generation failed")

// ChatCompleter is the slice of the OpenAI client the generators need.
// *openai.Client satisfies it.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// unknownAnswerPhrase is the verbatim phrase the model is instructed to use
// when the answer is not derivable from the retrieved context.
const unknownAnswerPhrase = "I don't know based on the provided information."

// chunkDelimiter separates retrieved chunks in the context block.
const chunkDelimiter = "\n\n---\n\n"

// deterministicTemperature stands in for a literal 0: the request field is
// tagged omitempty, so a zero would be dropped from the body and the API
// would fall back to its default temperature. The smallest non-zero float32
// survives serialization and still reads as temperature 0 server-side.
const deterministicTemperature = math.SmallestNonzeroFloat32

const groundedSystemPrompt = `You are a health information assistant. Answer the question using ONLY the context provided below. Do not use outside knowledge.

If the answer cannot be found in the context, reply exactly: "` + unknownAnswerPhrase + `"`

const conversationalSystemPrompt = `You are a friendly health information assistant. Give clear, practical wellness guidance in a few short paragraphs, and remind users to consult a healthcare professional for personal medical concerns. Never diagnose or prescribe.

When an illustrative image would help, append a tag on its own line at the end of your reply in the form [IMAGE_SUGGESTION: short search term].`

// imageSuggestionPattern matches the embedded image tag the conversational
// model may emit.
var imageSuggestionPattern = regexp.MustCompile(`\[IMAGE_SUGGESTION:\s*([^\]]+)\]`)

// GeneratorConfig carries the tunables of both generation paths.
type GeneratorConfig struct {
	Model               string
	MaxTokens           int
	Temperature         float64
	SimilarityThreshold float64
	TopK                int
	HistoryWindow       int
}

// Generator produces answers via the language-model backend: the grounded
// path embeds the question, retrieves context, and generates from it; the
// conversational path generates from the rolling history instead.
type Generator struct {
	embedder  embedding.Embedder
	retriever retrieval.Retriever
	llm       ChatCompleter
	config    GeneratorConfig
	logger    *zap.Logger
}

func NewGenerator(embedder embedding.Embedder, retriever retrieval.Retriever, llm ChatCompleter, config GeneratorConfig, logger *zap.Logger) *Generator {
	return &Generator{
		embedder:  embedder,
		retriever: retriever,
		llm:       llm,
		config:    config,
		logger:    logger,
	}
}

// HasRetriever reports whether the grounded path is available.
func (g *Generator) HasRetriever() bool {
	return g.retriever != nil
}

// AnswerGrounded runs the retrieval-augmented pipeline: embed, search,
// assemble context, generate. Stages run sequentially, each failure
// surfaces immediately, and nothing is cached between calls. Zero matches
// still generate, with an empty context.
func (g *Generator) AnswerGrounded(ctx context.Context, question string) (*models.ChatAnswer, error) {
	vector, err := g.embedder.Embed(ctx, question)
	if err != nil {
		g.logger.Error("Failed to embed question", zap.Error(err))
		return nil, err
	}

	matches, err := g.retriever.Search(ctx, vector, g.config.SimilarityThreshold, g.config.TopK)
	if err != nil {
		g.logger.Error("Failed to search documents", zap.Error(err))
		return nil, err
	}

	contents := make([]string, len(matches))
	for i, match := range matches {
		contents[i] = match.Content
	}
	contextBlock := strings.Join(contents, chunkDelimiter)

	resp, err := g.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: groundedSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextBlock, question),
			},
		},
		MaxTokens:   g.config.MaxTokens,
		Temperature: deterministicTemperature,
	})
	if err != nil {
		g.logger.Error("Failed to get completion", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrGeneration)
	}

	return &models.ChatAnswer{
		Text:     strings.TrimSpace(resp.Choices[0].Message.Content),
		Matches:  matches,
		Provider: ProviderOpenAI,
	}, nil
}

// Converse generates a reply from the rolling conversation window and
// extracts the optional image-suggestion tag from the visible text.
func (g *Generator) Converse(ctx context.Context, message string, history []models.ChatMessage) (*models.ChatAnswer, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: conversationalSystemPrompt,
	})
	for _, m := range TrimHistory(history, g.config.HistoryWindow) {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	temperature := float32(g.config.Temperature)
	if temperature == 0 {
		temperature = deterministicTemperature
	}
	resp, err := g.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.config.Model,
		Messages:    messages,
		MaxTokens:   g.config.MaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		g.logger.Error("Failed to get completion", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrGeneration)
	}

	text, imageTerm := ExtractImageSuggestion(resp.Choices[0].Message.Content)
	return &models.ChatAnswer{
		Text:            text,
		ImageSearchTerm: imageTerm,
		Provider:        ProviderOpenAI,
	}, nil
}

// ExtractImageSuggestion strips the [IMAGE_SUGGESTION: term] tag from the
// text and returns the cleaned text and the term. The term is empty when no
// tag is present.
func ExtractImageSuggestion(text string) (string, string) {
	match := imageSuggestionPattern.FindStringSubmatch(text)
	if match == nil {
		return strings.TrimSpace(text), ""
	}
	cleaned := imageSuggestionPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(cleaned), strings.TrimSpace(match[1])
}
