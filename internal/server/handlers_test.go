package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/auth"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/chat"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/embedding"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/retrieval"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/storage"
	"github.com/muhhylmi/chatbot-healthcare-assistant/pkg/config"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLLM struct {
	reply string
	err   error
}

func (s *stubLLM) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.reply}},
		},
	}, nil
}

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}

func newTestServer(generator *chat.Generator) *Server {
	return newTestServerWithIngestion(generator, nil, nil)
}

func newTestServerWithIngestion(generator *chat.Generator, embedder embedding.Embedder, retriever retrieval.Retriever) *Server {
	tokens := auth.NewTokenService("test-secret", 24*time.Hour)
	authService := auth.NewService(storage.NewMemoryStorage(), tokens, zap.NewNop())
	router := chat.NewRouter(chat.NewStaticResponder(), generator, chat.MaxMessageLength, zap.NewNop())
	return NewServer(authService, router, embedder, retriever, &config.ServerConfig{Host: "127.0.0.1", Port: 0}, zap.NewNop())
}

func signupToken(t *testing.T, handler http.Handler) string {
	t.Helper()
	w := doJSON(t, handler, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"fullName": "Jane Doe", "email": "jane@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	return decodeAuth(t, w).Token
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeAuth(t *testing.T, w *httptest.ResponseRecorder) authResponse {
	t.Helper()
	var resp authResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestSignupAndLogin(t *testing.T) {
	srv := newTestServer(nil)
	handler := srv.routes()

	w := doJSON(t, handler, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"fullName": "Jane Doe",
		"email":    "jane@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	signup := decodeAuth(t, w)
	assert.True(t, signup.Success)
	assert.NotEmpty(t, signup.Token)
	require.NotNil(t, signup.User)
	assert.Equal(t, "jane@example.com", signup.User.Email)

	w = doJSON(t, handler, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "jane@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	login := decodeAuth(t, w)
	assert.True(t, login.Success)
	assert.NotEmpty(t, login.Token)
}

func TestSignup_Errors(t *testing.T) {
	srv := newTestServer(nil)
	handler := srv.routes()

	// Short password
	w := doJSON(t, handler, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"fullName": "Jane Doe",
		"email":    "jane@example.com",
		"password": "abcde",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Duplicate email
	body := map[string]string{"fullName": "Jane Doe", "email": "jane@example.com", "password": "secret123"}
	w = doJSON(t, handler, http.MethodPost, "/api/auth/signup", "", body)
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, handler, http.MethodPost, "/api/auth/signup", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "email already registered")
}

func TestLogin_IdenticalFailures(t *testing.T) {
	srv := newTestServer(nil)
	handler := srv.routes()

	w := doJSON(t, handler, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"fullName": "Jane Doe", "email": "jane@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	wrongPassword := doJSON(t, handler, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "jane@example.com", "password": "wrong-password",
	})
	unknownEmail := doJSON(t, handler, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "secret123",
	})

	// Byte-identical body and status: no existence leak.
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestProfile(t *testing.T) {
	srv := newTestServer(nil)
	handler := srv.routes()

	w := doJSON(t, handler, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"fullName": "Jane Doe", "email": "jane@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	token := decodeAuth(t, w).Token

	w = doJSON(t, handler, http.MethodGet, "/api/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decodeAuth(t, w)
	require.NotNil(t, profile.User)
	assert.Equal(t, "Jane Doe", profile.User.FullName)
}

func TestProfile_Unauthorized(t *testing.T) {
	srv := newTestServer(nil)
	handler := srv.routes()

	// Missing header
	w := doJSON(t, handler, http.MethodGet, "/api/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Malformed header
	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token
	w = doJSON(t, handler, http.MethodGet, "/api/auth/profile", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token")
}

func TestProfile_ExpiredToken(t *testing.T) {
	srv := newTestServer(nil)
	handler := srv.routes()

	expiredTokens := auth.NewTokenService("test-secret", -time.Hour)
	token, err := expiredTokens.Issue("some-user")
	require.NoError(t, err)

	w := doJSON(t, handler, http.MethodGet, "/api/auth/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token expired")
}

func TestUpdateProfileAndPassword(t *testing.T) {
	srv := newTestServer(nil)
	handler := srv.routes()

	w := doJSON(t, handler, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"fullName": "Jane Doe", "email": "jane@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	token := decodeAuth(t, w).Token

	w = doJSON(t, handler, http.MethodPut, "/api/user/profile", token, map[string]string{
		"fullName": "Jane Smith", "email": "jane.smith@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeAuth(t, w)
	require.NotNil(t, updated.User)
	assert.Equal(t, "Jane Smith", updated.User.FullName)

	w = doJSON(t, handler, http.MethodPut, "/api/user/password", token, map[string]string{
		"currentPassword": "secret123", "newPassword": "newsecret",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Old password rejected, new accepted.
	w = doJSON(t, handler, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "jane.smith@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(t, handler, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "jane.smith@example.com", "password": "newsecret",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChat_StaticPath(t *testing.T) {
	srv := newTestServer(nil)
	handler := srv.routes()

	w := doJSON(t, handler, http.MethodPost, "/api/chat", "", map[string]any{
		"message": "I have a headache",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp chatResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "static", resp.AIProvider)
	assert.Equal(t, "headache relief techniques", resp.ImageSearchTerm)
}

func TestChat_Validation(t *testing.T) {
	srv := newTestServer(nil)
	handler := srv.routes()

	w := doJSON(t, handler, http.MethodPost, "/api/chat", "", map[string]any{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, handler, http.MethodPost, "/api/chat", "", map[string]any{
		"message": strings.Repeat("a", 1001),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "too long")
}

func TestChat_PipelineFailure(t *testing.T) {
	generator := chat.NewGenerator(nil, nil, &stubLLM{err: errors.New("backend down")}, chat.GeneratorConfig{
		Model:     "gpt-3.5-turbo",
		MaxTokens: 512,
	}, zap.NewNop())
	srv := newTestServer(generator)
	handler := srv.routes()

	w := doJSON(t, handler, http.MethodPost, "/api/chat", "", map[string]any{
		"message": "explain glycemic index",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp chatResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Success)
	// Generic message only; backend detail stays in the logs.
	assert.Equal(t, technicalDifficulties, resp.Message)
	assert.NotContains(t, w.Body.String(), "backend down")
}

func TestChatStatus(t *testing.T) {
	srv := newTestServer(nil)
	handler := srv.routes()

	w := doJSON(t, handler, http.MethodGet, "/api/chat/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, false, status["aiAvailable"])
	assert.Equal(t, "static", status["provider"])
	assert.Equal(t, "ok", status["status"])
}

func TestChatStatus_WithGenerator(t *testing.T) {
	generator := chat.NewGenerator(nil, nil, &stubLLM{reply: "hi"}, chat.GeneratorConfig{}, zap.NewNop())
	srv := newTestServer(generator)
	handler := srv.routes()

	w := doJSON(t, handler, http.MethodGet, "/api/chat/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, true, status["aiAvailable"])
	assert.Equal(t, "openai", status["provider"])
}

func TestAddDocument_NotEnabled(t *testing.T) {
	srv := newTestServer(nil)
	handler := srv.routes()
	token := signupToken(t, handler)

	w := doJSON(t, handler, http.MethodPost, "/api/documents", token, map[string]any{
		"content": "vitamin D supports bone health",
	})
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestAddDocument_Unauthorized(t *testing.T) {
	srv := newTestServerWithIngestion(nil, &stubEmbedder{vector: []float32{1, 0}}, retrieval.NewMemoryRetriever())
	handler := srv.routes()

	w := doJSON(t, handler, http.MethodPost, "/api/documents", "", map[string]any{
		"content": "vitamin D supports bone health",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAddDocument_Validation(t *testing.T) {
	srv := newTestServerWithIngestion(nil, &stubEmbedder{vector: []float32{1, 0}}, retrieval.NewMemoryRetriever())
	handler := srv.routes()
	token := signupToken(t, handler)

	w := doJSON(t, handler, http.MethodPost, "/api/documents", token, map[string]any{
		"content": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "content is required")
}

func TestAddDocumentThenGroundedChat(t *testing.T) {
	// In-memory demo mode: seed the in-process vector index, then ask a
	// non-canned question and get a grounded answer from it.
	embedder := &stubEmbedder{vector: []float32{1, 0}}
	memRetriever := retrieval.NewMemoryRetriever()
	generator := chat.NewGenerator(embedder, memRetriever, &stubLLM{reply: "grounded answer"}, chat.GeneratorConfig{
		Model:               "gpt-3.5-turbo",
		MaxTokens:           512,
		SimilarityThreshold: 0.68,
		TopK:                5,
	}, zap.NewNop())
	srv := newTestServerWithIngestion(generator, embedder, memRetriever)
	handler := srv.routes()
	token := signupToken(t, handler)

	w := doJSON(t, handler, http.MethodPost, "/api/documents", token, map[string]any{
		"content":  "vitamin D supports bone health",
		"metadata": map[string]any{"source": "faq.md"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, true, created["success"])
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, 1, memRetriever.Size())

	w = doJSON(t, handler, http.MethodPost, "/api/chat", "", map[string]any{
		"message": "why is vitamin d important?",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp chatResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "grounded answer", resp.Message)
	assert.Equal(t, "openai", resp.AIProvider)
}

func TestCORS_Preflight(t *testing.T) {
	srv := newTestServer(nil)
	handler := srv.routes()

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(nil)
	handler := srv.routes()

	w := doJSON(t, handler, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
