// Package keystore persists opaque credential strings for the client.
// Values are sealed at rest with ChaCha20-Poly1305 under a key derived
// from a per-install random keyfile, so a copied credential file is
// useless without the keyfile next to it.
package keystore

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// Well-known keys. Absence of a key is not an error: Get returns "".
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyRole         = "role"

	// KeySeenNotifications holds a JSON-encoded array of notification
	// IDs already shown to the user. Versioned so a format change can
	// start from a clean slate.
	KeySeenNotifications = "seen_notifications.v1"
)

// Store is a string key-value store. Get returns an empty string for a
// missing key rather than an error.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

const (
	keyFileName  = "keyfile"
	dataFileName = "credentials"

	saltLen = 16

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// FileStore keeps the encrypted credential file and its keyfile under a
// single directory, created with owner-only permissions.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore opens (or initializes) a store rooted at dir. An empty
// dir places it under the user config directory.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		dir = filepath.Join(base, "seeforme")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.load()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.save(values)
}

// load reads and unseals the credential file on every call, so writers
// from the same process are always observed.
func (s *FileStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, dataFileName))
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credential file: %w", err)
	}
	if len(raw) < saltLen+chacha20poly1305.NonceSizeX {
		return nil, errors.New("credential file truncated")
	}

	salt := raw[:saltLen]
	nonce := raw[saltLen : saltLen+chacha20poly1305.NonceSizeX]
	sealed := raw[saltLen+chacha20poly1305.NonceSizeX:]

	aead, err := s.aead(salt)
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("unseal credential file: %w", err)
	}

	values := map[string]string{}
	if err := json.Unmarshal(plain, &values); err != nil {
		return nil, fmt.Errorf("decode credential file: %w", err)
	}
	return values, nil
}

func (s *FileStore) save(values map[string]string) error {
	plain, err := json.Marshal(values)
	if err != nil {
		return err
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return err
	}
	aead, err := s.aead(salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return err
	}

	out := append(salt, nonce...)
	out = aead.Seal(out, nonce, plain, nil)
	return os.WriteFile(filepath.Join(s.dir, dataFileName), out, 0o600)
}

func (s *FileStore) aead(salt []byte) (cipher.AEAD, error) {
	secret, err := s.keyfile()
	if err != nil {
		return nil, err
	}
	key, err := scrypt.Key(secret, salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return chacha20poly1305.NewX(key)
}

// keyfile returns the per-install secret, generating it on first use.
func (s *FileStore) keyfile() ([]byte, error) {
	path := filepath.Join(s.dir, keyFileName)
	secret, err := os.ReadFile(path)
	if err == nil && len(secret) > 0 {
		return secret, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read keyfile: %w", err)
	}

	secret = make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, secret, 0o600); err != nil {
		return nil, fmt.Errorf("write keyfile: %w", err)
	}
	return secret, nil
}
