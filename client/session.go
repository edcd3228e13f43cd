package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var ErrNoCredentials = errors.New("not logged in")

// Credentials is what a successful login leaves behind.
type Credentials struct {
	Token        string `json:"token"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	IsCustomer   bool   `json:"is_customer"`
	RestaurantID uint   `json:"restaurant_id"`
}

// TokenStore is the durable home of the credentials.
type TokenStore interface {
	Load() (*Credentials, error)
	Save(*Credentials) error
	Delete() error
}

type MemoryStore struct {
	mu    sync.Mutex
	creds *Credentials
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil, ErrNoCredentials
	}
	c := *s.creds
	return &c, nil
}

func (s *MemoryStore) Save(creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *creds
	s.creds = &c
	return nil
}

func (s *MemoryStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
	return nil
}

// FileStore keeps the credentials as JSON in a file readable only by the owner.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Load() (*Credentials, error) {
	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	if creds.Token == "" {
		return nil, ErrNoCredentials
	}
	return &creds, nil
}

func (s *FileStore) Save(creds *Credentials) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	if err := os.WriteFile(s.Path, raw, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func (s *FileStore) Delete() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// Session caches the stored credentials. The store stays authoritative: Save
// writes it before the cache and Clear invalidates the cache after deleting.
type Session struct {
	store TokenStore

	mu     sync.Mutex
	cached *Credentials
}

func NewSession(store TokenStore) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Session{store: store}
}

func (s *Session) Credentials() (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached == nil {
		creds, err := s.store.Load()
		if err != nil {
			return nil, err
		}
		s.cached = creds
	}
	c := *s.cached
	return &c, nil
}

// Token returns the bearer token, or "" when logged out.
func (s *Session) Token() string {
	creds, err := s.Credentials()
	if err != nil {
		return ""
	}
	return creds.Token
}

func (s *Session) Save(creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(creds); err != nil {
		return err
	}
	c := *creds
	s.cached = &c
	return nil
}

func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.Delete()
	s.cached = nil
	return err
}
