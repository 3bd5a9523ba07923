package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// UserKey is the local storage key holding the signed-in user
const UserKey = "user"

// Type is the role of the signed-in user
type Type string

const (
	TypeEmployee Type = "Employee"
	TypeAdmin    Type = "Admin"
)

// ErrNoUser is returned when no user is stored
var ErrNoUser = errors.New("no user in local storage")

// Session is the pre-authenticated user the client acts for
type Session struct {
	Type  Type   `json:"type"`
	Email string `json:"email"`
}

// IsEmployee reports whether the session belongs to an employee
func (s Session) IsEmployee() bool {
	return s.Type == TypeEmployee
}

// Storage defines the persisted key/value state shared with the page shell
type Storage interface {
	// GetItem returns the value stored under key
	GetItem(key string) (string, bool)

	// SetItem stores value under key
	SetItem(key, value string)
}

// MemoryStorage implements Storage in memory
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryStorage creates an empty MemoryStorage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

// GetItem returns the value stored under key
func (m *MemoryStorage) GetItem(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok
}

// SetItem stores value under key
func (m *MemoryStorage) SetItem(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
}

// Read loads the session stored under UserKey
func Read(storage Storage) (Session, error) {
	raw, ok := storage.GetItem(UserKey)
	if !ok || raw == "" {
		return Session{}, ErrNoUser
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Session{}, fmt.Errorf("decoding user: %w", err)
	}
	return s, nil
}

// Write stores s under UserKey. Only the process shell calls this.
func Write(storage Storage, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	storage.SetItem(UserKey, string(data))
	return nil
}
