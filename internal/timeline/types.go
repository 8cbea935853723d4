package timeline

import (
	"time"

	"chat-widget/internal/content"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// RenderState tells whether a message is still being revealed.
type RenderState int

const (
	Final RenderState = iota
	Typing
)

func (s RenderState) String() string {
	if s == Typing {
		return "typing"
	}
	return "final"
}

// Message is one entry of the conversation.
type Message struct {
	ID        string
	Role      Role
	Content   content.Raw
	State     RenderState
	CreatedAt time.Time
}

// IsTyping reports whether the message is an assistant reply still being revealed.
func (m Message) IsTyping() bool {
	return m.Role == RoleAssistant && m.State == Typing
}
