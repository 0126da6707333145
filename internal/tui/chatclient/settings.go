// ============================================================================
// robbot - Classroom chat bot
// ============================================================================
//
// Package:     chatclient
// Description: Persistent input history
// License:     MIT
// ============================================================================

package chatclient

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// maxHistory is the number of inputs kept on disk
const maxHistory = 100

// DefaultHistoryFile returns the input history location under the user's
// config directory
func DefaultHistoryFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".robbot", "chat_history.json")
	}
	return filepath.Join(dir, "robbot", "chat_history.json")
}

// LoadInputHistory loads the input history. A missing or unreadable file
// yields an empty history.
func LoadInputHistory(path string) []string {
	if path == "" {
		return []string{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{}
	}
	var history []string
	if err := json.Unmarshal(data, &history); err != nil {
		return []string{}
	}
	return history
}

// SaveInputHistory saves the last inputs to path
func SaveInputHistory(path string, history []string) error {
	if path == "" {
		return nil
	}
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
