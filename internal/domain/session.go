package domain

import "time"

// Roles posibles de un mensaje dentro de una sesión.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage es un turno individual dentro de una sesión de chat.
type ChatMessage struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Sources    []string  `json:"sources"`
	SearchUsed bool      `json:"search_used"`
}

// ChatSession es una conversación persistida con sus mensajes ordenados.
type ChatSession struct {
	SessionID string        `json:"session_id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Messages  []ChatMessage `json:"messages"`
}
