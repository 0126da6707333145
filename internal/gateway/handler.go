// ============================================================================
// robbot - Classroom chat bot
// ============================================================================
//
// Package:     gateway
// Description: HTTP API handlers for interpretation, features and health
// License:     MIT
// ============================================================================

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/msto63/robbot/internal/interpreter"
)

// InterpretRequest is the body of POST /api/v1/interpret
type InterpretRequest struct {
	Content  string             `json:"content"`
	Author   interpreter.Member `json:"author"`
	Channel  string             `json:"channel,omitempty"`
	Direct   bool               `json:"direct,omitempty"`
	Mentions []string           `json:"mentions,omitempty"`
}

// InterpretResponse describes how a message was interpreted and what the
// bot answered
type InterpretResponse struct {
	MessageID   string   `json:"message_id"`
	Pronouns    []string `json:"pronouns"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Response    string   `json:"response,omitempty"`
	Error       string   `json:"error,omitempty"`
	ErrorCode   string   `json:"error_code,omitempty"`
	Duration    string   `json:"duration"`
}

// FeatureInfo describes one registered feature
type FeatureInfo struct {
	Category      string   `json:"category"`
	Pronouns      []string `json:"pronouns"`
	Keywords      []string `json:"keywords,omitempty"`
	Subcategories []string `json:"subcategories,omitempty"`
}

// matcherProvider is implemented by features built on BaseFeature
type matcherProvider interface {
	Matcher() *interpreter.Matcher
}

// DescribeFeatures lists the registered features in registration order
func DescribeFeatures(p *interpreter.Processor) []FeatureInfo {
	features := p.Features()
	out := make([]FeatureInfo, 0, len(features))
	for _, f := range features {
		info := FeatureInfo{
			Category: f.Category().String(),
			Pronouns: f.MappedPronouns().Strings(),
		}
		if mp, ok := f.(matcherProvider); ok && mp.Matcher() != nil {
			info.Keywords = mp.Matcher().Keywords()
			sort.Strings(info.Keywords)
			for _, sub := range mp.Matcher().Subcategories() {
				info.Subcategories = append(info.Subcategories, sub.String())
			}
		}
		out = append(out, info)
	}
	return out
}

func (s *Server) handleInterpret(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	var req InterpretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "Content required")
		return
	}

	msg := s.newMessage(req.Content, req.Author, req.Channel, req.Direct, req.Mentions)
	writeJSON(w, http.StatusOK, s.interpret(msg))
}

func (s *Server) interpret(msg *interpreter.Message) InterpretResponse {
	start := time.Now()
	in := s.processor.Process(msg)
	text, err := in.Respond()

	if err == nil {
		err = in.Err()
	}
	resp := InterpretResponse{
		MessageID:   msg.ID,
		Pronouns:    in.Pronouns().Strings(),
		Category:    in.Category().String(),
		Subcategory: in.Subcategory().String(),
		Response:    text,
		Duration:    time.Since(start).String(),
	}
	if err != nil {
		resp.Error = err.Error()
		var coded interface{ Code() interpreter.Code }
		if errors.As(err, &coded) {
			resp.ErrorCode = coded.Code().String()
		}
	}
	return resp
}

func (s *Server) newMessage(content string, author interpreter.Member, channel string, direct bool, mentions []string) *interpreter.Message {
	if channel == "" {
		channel = s.config.DefaultChannel
	}
	msg := interpreter.NewMessage(content, author)
	msg.ChannelID = channel
	msg.Direct = direct
	msg.Mentions = s.hub.resolve(mentions)
	return msg
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, DescribeFeatures(s.processor))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if !report.Serving() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}
