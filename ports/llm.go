package ports

import "context"

// ChatMessage is one turn of a chat-completion exchange
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// LLMClient sends a chat exchange to a text-generation model and returns the first completion
type LLMClient interface {
	ChatCompletion(ctx context.Context, messages []ChatMessage) (string, error)
}
