// Package timeline holds the ordered messages of one conversation.
package timeline

import (
	"errors"
	"sync"
	"time"

	"chat-widget/internal/content"

	"github.com/google/uuid"
)

var (
	// ErrUserTyping is returned when a user message is appended in typing state.
	ErrUserTyping = errors.New("timeline: user messages cannot be typing")
	// ErrAlreadyTyping is returned when a second typing message is appended.
	ErrAlreadyTyping = errors.New("timeline: a message is already typing")
)

// Timeline is an append-only message list. The only in-place change allowed
// is finalizing the trailing typing message; the only removal is Clear.
type Timeline struct {
	mu       sync.RWMutex
	messages []Message
	now      func() time.Time
}

func New() *Timeline {
	return &Timeline{now: time.Now}
}

// Append adds msg to the end of the timeline, filling in its ID and
// creation time when unset.
func (t *Timeline) Append(msg Message) (Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if msg.State == Typing {
		if msg.Role != RoleAssistant {
			return Message{}, ErrUserTyping
		}
		if t.typingLocked() {
			return Message{}, ErrAlreadyTyping
		}
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = t.now()
	}
	t.messages = append(t.messages, msg)
	return msg, nil
}

// FinalizeLastTyping replaces the content of the trailing typing message and
// marks it final. It does nothing unless the last message is typing.
func (t *Timeline) FinalizeLastTyping(c content.Raw) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.messages)
	if n == 0 || !t.messages[n-1].IsTyping() {
		return false
	}
	t.messages[n-1].Content = c
	t.messages[n-1].State = Final
	return true
}

// Clear removes every message.
func (t *Timeline) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}

// Last returns the most recent message.
func (t *Timeline) Last() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Messages returns a copy of the timeline in order.
func (t *Timeline) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Message(nil), t.messages...)
}

func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Typing reports whether a message is currently being revealed.
func (t *Timeline) Typing() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.typingLocked()
}

// typingLocked must be called with the lock held.
func (t *Timeline) typingLocked() bool {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].IsTyping() {
			return true
		}
	}
	return false
}
