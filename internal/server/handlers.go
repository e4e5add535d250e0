package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/auth"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/chat"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/models"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/storage"
	"go.uber.org/zap"
)

// technicalDifficulties is the generic message returned when the answer
// pipeline fails; backend detail stays in the server logs.
const technicalDifficulties = "I'm having technical difficulties right now. Please try again in a moment."

type authResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	User    *models.PublicUser `json:"user,omitempty"`
	Token   string             `json:"token,omitempty"`
}

type chatResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	ImageSearchTerm string `json:"imageSearchTerm,omitempty"`
	AIProvider      string `json:"aiProvider"`
}

type signupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := s.auth.Signup(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		s.respondAuthError(w, err)
		return
	}

	public := user.Public()
	s.respondJSON(w, http.StatusCreated, authResponse{
		Success: true,
		Message: "account created successfully",
		User:    &public,
		Token:   token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondAuthError(w, err)
		return
	}

	public := user.Public()
	s.respondJSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: "login successful",
		User:    &public,
		Token:   token,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.GetProfile(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		s.respondAuthError(w, err)
		return
	}

	public := user.Public()
	s.respondJSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: "profile retrieved",
		User:    &public,
	})
}

type updateProfileRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.auth.UpdateProfile(r.Context(), userIDFromContext(r.Context()), req.FullName, req.Email)
	if err != nil {
		s.respondAuthError(w, err)
		return
	}

	public := user.Public()
	s.respondJSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: "profile updated",
		User:    &public,
	})
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.auth.UpdatePassword(r.Context(), userIDFromContext(r.Context()), req.CurrentPassword, req.NewPassword)
	if err != nil {
		s.respondAuthError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: "password updated",
	})
}

type chatRequest struct {
	Message             string               `json:"message"`
	ConversationHistory []models.ChatMessage `json:"conversationHistory,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := s.router.Answer(r.Context(), req.Message, req.ConversationHistory)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) || errors.Is(err, chat.ErrMessageTooLong) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Pipeline failure is a failed chat turn, not a crash. Detail
		// stays server-side.
		s.logger.Error("Chat pipeline failed", zap.Error(err))
		s.respondJSON(w, http.StatusInternalServerError, chatResponse{
			Success:    false,
			Message:    technicalDifficulties,
			AIProvider: chat.ProviderStatic,
		})
		return
	}

	s.respondJSON(w, http.StatusOK, chatResponse{
		Success:         true,
		Message:         answer.Text,
		ImageSearchTerm: answer.ImageSearchTerm,
		AIProvider:      answer.Provider,
	})
}

type addDocumentRequest struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// handleAddDocument embeds a document chunk and stores it in the vector
// store so operators can seed retrieval. Bulk ingestion stays out of scope.
func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	if s.embedder == nil || s.retriever == nil {
		s.respondError(w, http.StatusNotImplemented, "document ingestion not enabled")
		return
	}

	var req addDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		s.respondError(w, http.StatusBadRequest, "content is required")
		return
	}

	vector, err := s.embedder.Embed(r.Context(), req.Content)
	if err != nil {
		s.logger.Error("Failed to embed document", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "something went wrong, please try again")
		return
	}

	id, err := s.retriever.Add(r.Context(), req.Content, req.Metadata, vector)
	if err != nil {
		s.logger.Error("Failed to store document", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "something went wrong, please try again")
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"id":      id,
	})
}

func (s *Server) handleChatStatus(w http.ResponseWriter, r *http.Request) {
	provider := chat.ProviderStatic
	if s.router.Available() {
		provider = chat.ProviderOpenAI
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"aiAvailable": s.router.Available(),
		"provider":    provider,
		"status":      "ok",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondAuthError maps auth and storage errors to HTTP statuses. Unknown
// errors are logged with detail and reported generically.
func (s *Server) respondAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingFields), errors.Is(err, auth.ErrPasswordTooShort):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrDuplicateEmail):
		s.respondError(w, http.StatusBadRequest, "email already registered")
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, storage.ErrUserNotFound):
		s.respondError(w, http.StatusNotFound, "user not found")
	default:
		s.logger.Error("Request failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "something went wrong, please try again")
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}
