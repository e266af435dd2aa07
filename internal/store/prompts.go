package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultPromptFile is the prompt loaded at startup when present.
const DefaultPromptFile = "code_guru.json"

// promptFile is the persisted shape: one required field.
type promptFile struct {
	Prompt string `json:"prompt"`
}

// PromptStore reads reusable system prompts from JSON files.
type PromptStore struct {
	Dir string
}

func NewPromptStore(dir string) (*PromptStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating prompts dir: %w", err)
	}
	return &PromptStore{Dir: dir}, nil
}

// Load reads one prompt file and returns its prompt text.
func (p *PromptStore) Load(filename string) (string, error) {
	data, err := os.ReadFile(filepath.Join(p.Dir, filename))
	if err != nil {
		return "", fmt.Errorf("reading prompt: %w", err)
	}
	var pf promptFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return "", fmt.Errorf("decoding prompt: %w", err)
	}
	if pf.Prompt == "" {
		return "", fmt.Errorf("prompt file %s has no %q field", filename, "prompt")
	}
	return pf.Prompt, nil
}

// List returns available prompt filenames, sorted.
func (p *PromptStore) List() ([]string, error) {
	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		return nil, fmt.Errorf("listing prompts: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// LoadDefault returns the default prompt text, or "" when the default
// file does not exist. Only a malformed file is an error.
func (p *PromptStore) LoadDefault() (string, error) {
	if _, err := os.Stat(filepath.Join(p.Dir, DefaultPromptFile)); os.IsNotExist(err) {
		return "", nil
	}
	return p.Load(DefaultPromptFile)
}
