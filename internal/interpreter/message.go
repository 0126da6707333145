package interpreter

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Member is a chat participant as seen by feature actions
type Member struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Roles []string `json:"roles,omitempty"`
}

// Mention returns the chat mention markup for the member
func (m Member) Mention() string {
	return "<@" + m.ID + ">"
}

// HasRole reports whether the member carries the named role
func (m Member) HasRole(role string) bool {
	for _, r := range m.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// Message is one inbound chat message.
//
// The interpreter only reads Content and writes Tokens. Everything else is
// context for feature actions.
type Message struct {
	ID         string
	Content    string
	Tokens     []string
	Author     Member
	Mentions   []Member
	ChannelID  string
	Direct     bool
	ReceivedAt time.Time
}

// NewMessage creates a message with a fresh ID
func NewMessage(content string, author Member) *Message {
	return &Message{
		ID:         uuid.NewString(),
		Content:    content,
		Author:     author,
		ReceivedAt: time.Now(),
	}
}

// Tokenize lowercases text and splits it on single spaces.
// Empty input yields a single empty token.
func Tokenize(text string) []string {
	return strings.Split(strings.ToLower(text), " ")
}
