package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/and161185/appealkit/internal/errs"
	"github.com/golang-jwt/jwt/v5"
)

// TokenStore persists the bearer token across process runs.
type TokenStore interface {
	// Load returns the stored token or errs.ErrNoToken.
	Load() (string, error)
	// Save replaces the stored token.
	Save(token string) error
	// Clear removes the stored token; clearing an empty store is not an error.
	Clear() error
}

// TokenFileName is the fixed file name under the config dir.
const TokenFileName = "token.json"

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// FileTokenStore keeps the token in <dir>/token.json with mode 0600.
type FileTokenStore struct {
	dir string
	now func() time.Time
}

var _ TokenStore = (*FileTokenStore)(nil)

// NewFileTokenStore constructs a store rooted at dir.
func NewFileTokenStore(dir string) *FileTokenStore {
	return &FileTokenStore{dir: dir, now: time.Now}
}

// Path returns the token file location.
func (s *FileTokenStore) Path() string { return filepath.Join(s.dir, TokenFileName) }

// Save writes the token atomically. When the token is a JWT its exp claim is
// recorded so an expired token is never sent.
func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	b, err := json.MarshalIndent(tokenFile{AccessToken: token, ExpiresAt: expiry(token)}, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".token-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path())
}

// Load reads the token. Missing, empty, unreadable and expired records all
// yield errs.ErrNoToken; expired and corrupt files are purged.
func (s *FileTokenStore) Load() (string, error) {
	b, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", errs.ErrNoToken
		}
		return "", fmt.Errorf("%w: %v", errs.ErrNoToken, err)
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil || tf.AccessToken == "" {
		_ = s.Clear()
		return "", errs.ErrNoToken
	}
	if !tf.ExpiresAt.IsZero() && s.now().After(tf.ExpiresAt) {
		_ = s.Clear()
		return "", errs.ErrNoToken
	}
	return tf.AccessToken, nil
}

// Clear deletes the token file.
func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// expiry reads exp from a JWT without verifying it; opaque tokens get zero.
func expiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// MemoryTokenStore is an in-process TokenStore.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

var _ TokenStore = (*MemoryTokenStore)(nil)

// Load returns the held token.
func (m *MemoryTokenStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", errs.ErrNoToken
	}
	return m.token, nil
}

// Save stores token.
func (m *MemoryTokenStore) Save(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

// Clear forgets the token.
func (m *MemoryTokenStore) Clear() error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}
