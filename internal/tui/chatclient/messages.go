// ============================================================================
// robbot - Classroom chat bot
// ============================================================================
//
// Package:     chatclient
// Description: Chat history entries and tea messages
// License:     MIT
// ============================================================================

package chatclient

import (
	"time"
)

// ChatMessage represents a message in the conversation
type ChatMessage struct {
	Role      string        // user, bot, system
	Content   string        // message content
	Timestamp time.Time     // when the message was sent/received
	Duration  time.Duration // time spent interpreting and responding (bot messages)

	// Interpretation details (bot messages)
	Pronouns    string
	Category    string
	Subcategory string
}

// Message types for tea.Cmd async operations

// interpretedMsg is sent when the processor has answered a message
type interpretedMsg struct {
	content     string
	pronouns    string
	category    string
	subcategory string
	duration    time.Duration
	err         error
}
