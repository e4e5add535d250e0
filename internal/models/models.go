package models

import "time"

// User represents a registered account as stored by the credential store.
// PasswordHash holds the salted digest in "<hexHash>:<hexSalt>" form and is
// never serialized to clients.
type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicUser is the client-facing view of a User.
type PublicUser struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Public returns the client-facing view of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
	}
}

// ChatMessage is a single turn of a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // user, assistant or system
	Content string `json:"content"`
}

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// DocumentMatch is a document chunk returned by the vector retriever.
type DocumentMatch struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Similarity float64        `json:"similarity"`
}

// ChatAnswer is the result of one chat turn: the visible answer text, an
// optional image search term extracted from it, and the matches that
// grounded it (empty on the static and conversational paths).
type ChatAnswer struct {
	Text            string
	ImageSearchTerm string
	Matches         []DocumentMatch
	Provider        string
}
