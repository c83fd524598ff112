package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/stockease/client-go/core"
)

// FileStore persists the session as a JSON file, giving CLI-style callers a
// session that survives process restarts. Storage failures are treated as
// transient: writes degrade to no-ops, reads to the zero session. The file
// is written whole and renamed into place, so readers never observe a
// partial triple.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger core.Logger
}

// NewFileStore creates a file-backed session store at the given path.
// An empty path defaults to .stockease/session.json in the home directory.
func NewFileStore(path string) *FileStore {
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".stockease", "session.json")
		} else {
			path = filepath.Join(os.TempDir(), "stockease-session.json")
		}
	}
	return &FileStore{
		path:   path,
		logger: &core.NoOpLogger{},
	}
}

// SetLogger configures the logger for this store
func (f *FileStore) SetLogger(logger core.Logger) {
	if logger != nil {
		f.logger = logger
	}
}

// Get reads the stored session. Missing or unreadable files yield the zero
// session rather than an error.
func (f *FileStore) Get(ctx context.Context) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		return Session{}, nil
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		f.logger.Warn("Session file corrupt, treating as unauthenticated", map[string]interface{}{
			"operation": "session_get",
			"path":      f.path,
			"error":     err.Error(),
		})
		return Session{}, nil
	}
	return s, nil
}

// Set writes the session to disk with owner-only permissions
func (f *FileStore) Set(ctx context.Context, s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		f.logWriteFailure("session_set", err)
		return nil
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		f.logWriteFailure("session_set", err)
		return nil
	}
	if err := os.Rename(tmp, f.path); err != nil {
		f.logWriteFailure("session_set", err)
		return nil
	}
	return nil
}

// Clear removes the session file. Idempotent.
func (f *FileStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		f.logWriteFailure("session_clear", err)
	}
	return nil
}

func (f *FileStore) logWriteFailure(op string, err error) {
	f.logger.Warn("Session storage unavailable, write skipped", map[string]interface{}{
		"operation": op,
		"path":      f.path,
		"error":     err.Error(),
	})
}
