package models

// Message roles in a conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in a conversation session.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
