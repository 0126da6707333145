// ============================================================================
// robbot - Classroom chat bot
// ============================================================================
//
// Package:     gateway
// Description: Connected chat sessions and message fan-out
// License:     MIT
// ============================================================================

package gateway

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/msto63/robbot/internal/interpreter"
	"github.com/msto63/robbot/internal/scheduler"
	"github.com/msto63/robbot/pkg/core/logging"
)

// sendBuffer is the number of frames queued per session before frames are
// dropped
const sendBuffer = 64

// WSMessage represents an inbound WebSocket frame
type WSMessage struct {
	Type    string          `json:"type"`    // "message", "ping"
	Payload json.RawMessage `json:"payload"` // Message-specific payload
}

// WSChatPayload is the payload of an inbound "message" frame
type WSChatPayload struct {
	Content  string   `json:"content"`
	Channel  string   `json:"channel,omitempty"`
	Direct   bool     `json:"direct,omitempty"`
	Mentions []string `json:"mentions,omitempty"`
}

// WSResponse represents an outbound WebSocket frame
type WSResponse struct {
	Type    string      `json:"type"`    // "message", "error", "pong"
	Payload interface{} `json:"payload"` // Response-specific payload
}

// ChatMessage is the payload of an outbound "message" frame
type ChatMessage struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel,omitempty"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Direct    bool      `json:"direct,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// WSErrorPayload represents an error payload
type WSErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Session is one connected websocket client
type Session struct {
	id      string
	member  interpreter.Member
	channel string
	send    chan WSResponse
}

func newSession(member interpreter.Member, channel string) *Session {
	return &Session{
		id:      uuid.NewString(),
		member:  member,
		channel: channel,
		send:    make(chan WSResponse, sendBuffer),
	}
}

// ID returns the session ID
func (s *Session) ID() string { return s.id }

// Member returns the member behind the session
func (s *Session) Member() interpreter.Member { return s.member }

// enqueue queues a frame without blocking. Frames for a full session are
// dropped.
func (s *Session) enqueue(resp WSResponse) bool {
	select {
	case s.send <- resp:
		return true
	default:
		return false
	}
}

// Hub tracks connected sessions and routes outbound messages to them
type Hub struct {
	mu             sync.RWMutex
	sessions       map[string]*Session
	botName        string
	defaultChannel string
	logger         *logging.Logger
}

// NewHub creates an empty hub
func NewHub(botName, defaultChannel string, logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.New("gateway-hub")
	}
	return &Hub{
		sessions:       make(map[string]*Session),
		botName:        botName,
		defaultChannel: defaultChannel,
		logger:         logger,
	}
}

func (h *Hub) add(s *Session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	n := len(h.sessions)
	h.mu.Unlock()
	h.logger.Info("Session joined", "session", s.id, "member", s.member.Name, "channel", s.channel, "sessions", n)
}

// remove unregisters the session and closes its send queue. No frame is
// enqueued for s once remove returns.
func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s.id)
	n := len(h.sessions)
	close(s.send)
	h.mu.Unlock()
	h.logger.Info("Session left", "session", s.id, "member", s.member.Name, "sessions", n)
}

// Len returns the number of connected sessions
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Members returns the distinct connected members sorted by name
func (h *Hub) Members() []interpreter.Member {
	h.mu.RLock()
	seen := make(map[string]interpreter.Member, len(h.sessions))
	for _, s := range h.sessions {
		seen[s.member.ID] = s.member
	}
	h.mu.RUnlock()

	out := make([]interpreter.Member, 0, len(seen))
	for _, m := range seen {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Member looks up a connected member by ID or, case-insensitively, by name
func (h *Hub) Member(ref string) (interpreter.Member, bool) {
	ref = strings.TrimPrefix(strings.TrimSuffix(ref, ">"), "<@")
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		if s.member.ID == ref || strings.EqualFold(s.member.Name, ref) {
			return s.member, true
		}
	}
	return interpreter.Member{}, false
}

// resolve maps mention references to members. Unknown references become
// members carrying only the reference as ID and name.
func (h *Hub) resolve(refs []string) []interpreter.Member {
	if len(refs) == 0 {
		return nil
	}
	out := make([]interpreter.Member, 0, len(refs))
	for _, ref := range refs {
		if m, ok := h.Member(ref); ok {
			out = append(out, m)
			continue
		}
		out = append(out, interpreter.Member{ID: ref, Name: ref})
	}
	return out
}

func (h *Hub) botMessage(channel, text string, direct bool) WSResponse {
	return WSResponse{Type: "message", Payload: ChatMessage{
		ID:        uuid.NewString(),
		Channel:   channel,
		Author:    h.botName,
		Content:   text,
		Direct:    direct,
		Timestamp: time.Now(),
	}}
}

// broadcast sends resp to every session in channel and returns the number
// of sessions reached
func (h *Hub) broadcast(channel string, resp WSResponse) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, s := range h.sessions {
		if s.channel != channel {
			continue
		}
		if s.enqueue(resp) {
			n++
		} else {
			h.logger.Warn("Dropping frame for slow session", "session", s.id)
		}
	}
	return n
}

// SendToChannel posts text from the bot to every session in channel. An
// empty channel means the default channel.
func (h *Hub) SendToChannel(channel, text string) int {
	if channel == "" {
		channel = h.defaultChannel
	}
	return h.broadcast(channel, h.botMessage(channel, text, false))
}

// SendToMember posts text from the bot as a direct message to every session
// of the member with the given ID
func (h *Hub) SendToMember(id, text string) int {
	return h.sendDirect(func(m interpreter.Member) bool { return m.ID == id }, text)
}

// SendToRole posts text from the bot as a direct message to every member
// carrying role
func (h *Hub) SendToRole(role, text string) int {
	return h.sendDirect(func(m interpreter.Member) bool { return m.HasRole(role) }, text)
}

func (h *Hub) sendDirect(match func(interpreter.Member) bool, text string) int {
	resp := h.botMessage("", text, true)
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, s := range h.sessions {
		if match(s.member) && s.enqueue(resp) {
			n++
		}
	}
	return n
}

// Deliver posts a scheduled job result to its channel
func (h *Hub) Deliver(ctx context.Context, jobID string, result scheduler.Result) error {
	n := h.SendToChannel(result.Channel, result.Text)
	h.logger.Debug("Delivered job result", "job", jobID, "channel", result.Channel, "sessions", n)
	return nil
}

var _ scheduler.Deliverer = (*Hub)(nil)
