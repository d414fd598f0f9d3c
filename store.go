package speak

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenSlotName is the fixed name of the durable slot holding the session
// token.
const TokenSlotName = "speak_token"

// FileTokenStore keeps the raw session token in a single file, surviving
// process restarts. Save and Clear log failures instead of returning them,
// per the TokenStore contract.
type FileTokenStore struct {
	mu     sync.Mutex
	path   string
	logger Logger
}

var _ TokenStore = (*FileTokenStore)(nil)

// NewFileTokenStore returns a store writing to the given file path. An
// empty path resolves to TokenSlotName under the user config directory.
func NewFileTokenStore(path string) *FileTokenStore {
	if path == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			path = filepath.Join(dir, "speak", TokenSlotName)
		} else {
			path = TokenSlotName
		}
	}
	return &FileTokenStore{
		path:   path,
		logger: defLogger{},
	}
}

func (s *FileTokenStore) WithLogger(logger Logger) *FileTokenStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Load returns the stored token, reporting false when the slot is empty.
func (s *FileTokenStore) Load() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", false
	}
	return token, true
}

// Save writes the token to the slot.
func (s *FileTokenStore) Save(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		s.logger.Error("token store mkdir failed", "error", err)
		return
	}

	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		s.logger.Error("token store write failed", "error", err)
	}
}

// Clear empties the slot. Clearing an already empty slot is a no-op.
func (s *FileTokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.Error("token store clear failed", "error", err)
	}
}

// MemoryTokenStore is an in-process TokenStore, handy for tests and
// ephemeral sessions.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
	has   bool
}

var _ TokenStore = (*MemoryTokenStore)(nil)

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.has && s.token != ""
}

func (s *MemoryTokenStore) Save(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.has = true
}

func (s *MemoryTokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.has = false
}
