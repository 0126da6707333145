// ============================================================================
// robbot - Classroom chat bot
// ============================================================================
//
// Package:     gateway
// Description: Websocket chat sessions
// License:     MIT
// ============================================================================

package gateway

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/msto63/robbot/internal/interpreter"
)

const (
	readTimeout  = 120 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 50 * time.Second
	maxFrameSize = 64 * 1024
)

// serveWS upgrades the request and runs a chat session. The member is taken
// from the query parameters id, name, roles (comma separated) and channel.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return s.originAllowed(r.Header.Get("Origin"))
		},
	}

	q := r.URL.Query()
	member := interpreter.Member{
		ID:   q.Get("id"),
		Name: q.Get("name"),
	}
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	if member.Name == "" {
		member.Name = member.ID
	}
	for _, role := range strings.Split(q.Get("roles"), ",") {
		if role = strings.TrimSpace(role); role != "" {
			member.Roles = append(member.Roles, role)
		}
	}
	channel := q.Get("channel")
	if channel == "" {
		channel = s.config.DefaultChannel
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	sess := newSession(member, channel)
	s.hub.add(sess)
	if s.config.Greeting != "" {
		sess.enqueue(s.hub.botMessage("", s.config.Greeting, true))
	}

	go s.writeLoop(conn, sess)
	s.readLoop(conn, sess)
}

// writeLoop is the only writer on conn. It exits when the session's send
// queue is closed.
func (s *Server) writeLoop(conn *websocket.Conn, sess *Session) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case resp, ok := <-sess.send:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(resp); err != nil {
				s.logger.Error("WebSocket send error", "session", sess.id, "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) readLoop(conn *websocket.Conn, sess *Session) {
	var wg sync.WaitGroup
	defer func() {
		wg.Wait()
		s.hub.remove(sess)
	}()

	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Error("WebSocket read error", "session", sess.id, "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		switch msg.Type {
		case "ping":
			sess.enqueue(WSResponse{Type: "pong"})

		case "message":
			var payload WSChatPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				s.sendError(sess, "invalid_payload", "Invalid message payload")
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.handleChatMessage(sess, payload)
			}()

		default:
			s.sendError(sess, "unknown_type", "Unknown message type: "+msg.Type)
		}
	}
}

// handleChatMessage relays a member's message to the channel and, when it
// carries the command prefix, answers it
func (s *Server) handleChatMessage(sess *Session, payload WSChatPayload) {
	if strings.TrimSpace(payload.Content) == "" {
		return
	}
	channel := payload.Channel
	if channel == "" {
		channel = sess.channel
	}

	if !payload.Direct {
		s.hub.broadcast(channel, WSResponse{Type: "message", Payload: ChatMessage{
			ID:        uuid.NewString(),
			Channel:   channel,
			Author:    sess.member.Name,
			Content:   payload.Content,
			Timestamp: time.Now(),
		}})
	}

	if !strings.HasPrefix(strings.ToLower(payload.Content), strings.ToLower(s.config.CommandPrefix)) {
		return
	}

	msg := s.newMessage(payload.Content, sess.member, channel, payload.Direct, payload.Mentions)
	in := s.processor.Process(msg)
	text, err := in.Respond()
	if err != nil {
		s.logger.Error("Response failed", "message", msg.ID, "category", in.Category().String(), "error", err)
	}
	if text == "" {
		return
	}

	if payload.Direct {
		sess.enqueue(s.hub.botMessage("", text, true))
		return
	}
	s.hub.SendToChannel(channel, text)
}

// sendError sends an error frame to the session
func (s *Server) sendError(sess *Session, code, message string) {
	sess.enqueue(WSResponse{
		Type: "error",
		Payload: WSErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}
