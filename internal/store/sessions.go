// Package store persists sessions and system prompts as plain JSON
// files. Best-effort local writes only; there are no durability
// guarantees beyond what the filesystem gives us.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/exedev/conclave/internal/chat"
)

// SessionStore reads and writes ChatSession JSON files in one
// directory.
type SessionStore struct {
	Dir string
}

func NewSessionStore(dir string) (*SessionStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating sessions dir: %w", err)
	}
	return &SessionStore{Dir: dir}, nil
}

// Save writes the session and returns a human-readable status line.
// Empty sessions are not written.
func (s *SessionStore) Save(session *chat.ChatSession, filename string) (string, error) {
	if !session.HasContent() {
		return "Nothing to save - session is empty", nil
	}
	if !strings.HasSuffix(filename, ".json") {
		filename += ".json"
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding session: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("writing session: %w", err)
	}
	return fmt.Sprintf("Session saved to %s", filename), nil
}

// Load reads a session file. A file with empty or missing history, or
// one whose standard-mode history fails validation, degrades to a
// fresh empty session with an explanatory status instead of an error.
func (s *SessionStore) Load(filename string) (*chat.ChatSession, string, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, filename))
	if err != nil {
		return nil, "", fmt.Errorf("reading session: %w", err)
	}

	var session chat.ChatSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, "", fmt.Errorf("decoding session: %w", err)
	}
	if !session.HasContent() {
		return chat.NewSession(""), "Session file is empty or invalid", nil
	}
	if !chat.ValidateHistory(session.History) {
		return chat.NewSession(""), "Session history is malformed, starting fresh", nil
	}
	return &session, fmt.Sprintf("Session loaded from %s", filename), nil
}

// List returns session filenames newest-first by modification time.
func (s *SessionStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	type fileInfo struct {
		name string
		mod  time.Time
	}
	var files []fileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{name: e.Name(), mod: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.After(files[j].mod) })

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.name
	}
	return names, nil
}

// Autosave writes the session under a timestamped name.
func (s *SessionStore) Autosave(session *chat.ChatSession) (string, error) {
	filename := "autosave_" + time.Now().Format("20060102_150405") + ".json"
	return s.Save(session, filename)
}
