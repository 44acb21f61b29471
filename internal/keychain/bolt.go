package keychain

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

var (
	bucketSecrets = []byte("secrets")
	bucketMeta    = []byte("meta")
	metaSalt      = []byte("salt")
)

const (
	secretSize = 32
	saltSize   = 16
)

// BoltStore keeps secrets in a bolt database. Values are sealed with
// XChaCha20-Poly1305 under a key derived with argon2id from a random secret
// kept next to the database with 0600 permissions.
type BoltStore struct {
	mu   sync.RWMutex
	db   *bolt.DB
	aead cipher.AEAD
}

// OpenBolt opens or creates the keychain database at path. The key file lives
// at path + ".key".
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create keychain dir: %w", err)
	}

	secret, err := loadOrCreateSecret(path + ".key")
	if err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open keychain: %w", err)
	}

	var salt []byte
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketSecrets); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucketSecrets, err)
		}
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return fmt.Errorf("create bucket %s: %w", bucketMeta, err)
		}
		if stored := meta.Get(metaSalt); stored != nil {
			salt = append([]byte(nil), stored...)
			return nil
		}
		salt = make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return fmt.Errorf("generate salt: %w", err)
		}
		return meta.Put(metaSalt, salt)
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(deriveKey(secret, salt))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &BoltStore{db: db, aead: aead}, nil
}

func deriveKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, chacha20poly1305.KeySize)
}

func loadOrCreateSecret(path string) ([]byte, error) {
	secret, err := os.ReadFile(path)
	if err == nil {
		if len(secret) != secretSize {
			return nil, fmt.Errorf("keychain key %s has unexpected size %d", path, len(secret))
		}
		return secret, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read keychain key: %w", err)
	}

	secret = make([]byte, secretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate keychain key: %w", err)
	}
	if err := os.WriteFile(path, secret, 0o600); err != nil {
		return nil, fmt.Errorf("write keychain key: %w", err)
	}
	return secret, nil
}

// Get decrypts the value stored under key.
func (s *BoltStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return "", false, ErrClosed
	}

	var sealed []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketSecrets).Get([]byte(key)); v != nil {
			sealed = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	if sealed == nil {
		return "", false, nil
	}

	plain, err := s.open(key, sealed)
	if err != nil {
		return "", false, err
	}
	return string(plain), true, nil
}

// Set encrypts value and stores it under key.
func (s *BoltStore) Set(key, value string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}

	sealed, err := s.seal(key, []byte(value))
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketSecrets).Put([]byte(key), sealed); err != nil {
			return fmt.Errorf("store %s: %w", key, err)
		}
		return nil
	})
}

// Delete removes key.
func (s *BoltStore) Delete(key string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSecrets).Delete([]byte(key))
	})
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// seal returns nonce||ciphertext. The key name is bound as additional data so
// a value copied under another key fails to open.
func (s *BoltStore) seal(key string, plain []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plain, []byte(key)), nil
}

func (s *BoltStore) open(key string, sealed []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n {
		return nil, fmt.Errorf("decrypt %s: value too short", key)
	}
	plain, err := s.aead.Open(nil, sealed[:n], sealed[n:], []byte(key))
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", key, err)
	}
	return plain, nil
}
