package chat

import "github.com/muhhylmi/chatbot-healthcare-assistant/internal/models"

// DefaultHistoryWindow bounds the rolling conversation window to the last
// 20 messages (10 exchanges).
const DefaultHistoryWindow = 20

// TrimHistory drops the oldest messages once the window is exceeded. Older
// entries are dropped, never summarized.
func TrimHistory(history []models.ChatMessage, window int) []models.ChatMessage {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	if len(history) <= window {
		return history
	}
	return history[len(history)-window:]
}
