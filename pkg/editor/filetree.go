package editor

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrFileNotFound    = errors.New("file not found")
	ErrNoMatch         = errors.New("old_str not found")
	ErrMultipleMatches = errors.New("old_str matches more than once")
)

// FileTree is an in-memory file system keyed by absolute path
type FileTree struct {
	mu    sync.RWMutex
	files map[string]string
}

// NewFileTree creates an empty file tree
func NewFileTree() *FileTree {
	return &FileTree{files: make(map[string]string)}
}

// Apply runs cmd against the tree and returns the tool result text
func (t *FileTree) Apply(cmd Command) (string, error) {
	if err := cmd.Validate(); err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch cmd.Command {
	case CommandCreate:
		t.files[cmd.Path] = cmd.FileText
		return fmt.Sprintf("File created: %s", cmd.Path), nil

	case CommandStrReplace:
		content, ok := t.files[cmd.Path]
		if !ok {
			return "", fmt.Errorf("%s: %w", cmd.Path, ErrFileNotFound)
		}
		switch strings.Count(content, cmd.OldStr) {
		case 0:
			return "", fmt.Errorf("%s: %w", cmd.Path, ErrNoMatch)
		case 1:
			t.files[cmd.Path] = strings.Replace(content, cmd.OldStr, cmd.NewStr, 1)
			return fmt.Sprintf("Replaced text in %s", cmd.Path), nil
		default:
			return "", fmt.Errorf("%s: %w", cmd.Path, ErrMultipleMatches)
		}
	}

	return "", fmt.Errorf("unknown command %q", cmd.Command)
}

// Read returns the content of path
func (t *FileTree) Read(path string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	content, ok := t.files[path]
	return content, ok
}

// Paths returns every file path in lexical order
func (t *FileTree) Paths() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	paths := make([]string, 0, len(t.files))
	for path := range t.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
