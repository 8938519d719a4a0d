// Package statestore persists the small amount of local state the sync
// engine owns: the cached OAuth credential and the auto-sync preference.
// The store survives restarts; the credential keys have a single
// designated writer, the token manager.
package statestore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	bolt "go.etcd.io/bbolt"
)

const (
	appDirName = "quicknotes"
	dbFileName = "sync-state.db"

	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyExpiry       = "expiry"
	keyAutoSync     = "auto_sync"
)

// Credential is the persisted shape of an OAuth grant.
type Credential struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Store wraps BoltDB with one bucket per principal so state from different
// signed-in accounts never collides.
type Store struct {
	db *bolt.DB
}

// DefaultPath returns the XDG data location of the state database.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, appDirName, dbFileName)
}

// Open initializes the BoltDB file, creating parent directories as needed.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func bucketName(principal string) []byte {
	return []byte("sync." + principal)
}

// SaveCredential stores the token and expiry for the given principal.
func (s *Store) SaveCredential(principal string, cred Credential) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName(principal))
		if err != nil {
			return err
		}
		if err := b.Put([]byte(keyAccessToken), []byte(cred.AccessToken)); err != nil {
			return err
		}
		if err := b.Put([]byte(keyRefreshToken), []byte(cred.RefreshToken)); err != nil {
			return err
		}
		return b.Put([]byte(keyExpiry), []byte(cred.Expiry.Format(time.RFC3339)))
	})
}

// Credential loads the stored grant for the principal. The second return
// value is false when no credential has been stored.
func (s *Store) Credential(principal string) (Credential, bool, error) {
	var cred Credential
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName(principal))
		if b == nil {
			return nil
		}
		access := b.Get([]byte(keyAccessToken))
		if access == nil {
			return nil
		}
		cred.AccessToken = string(access)
		cred.RefreshToken = string(b.Get([]byte(keyRefreshToken)))
		if raw := b.Get([]byte(keyExpiry)); raw != nil {
			t, err := time.Parse(time.RFC3339, string(raw))
			if err != nil {
				return fmt.Errorf("corrupt expiry in state store: %w", err)
			}
			cred.Expiry = t
		}
		found = true
		return nil
	})
	return cred, found, err
}

// ClearCredential removes the stored grant, keeping other preferences.
func (s *Store) ClearCredential(principal string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName(principal))
		if b == nil {
			return nil
		}
		for _, key := range []string{keyAccessToken, keyRefreshToken, keyExpiry} {
			if err := b.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetAutoSync persists the auto-sync preference.
func (s *Store) SetAutoSync(principal string, enabled bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName(principal))
		if err != nil {
			return err
		}
		val := "false"
		if enabled {
			val = "true"
		}
		return b.Put([]byte(keyAutoSync), []byte(val))
	})
}

// AutoSync reports the stored auto-sync preference, defaulting to off.
func (s *Store) AutoSync(principal string) (bool, error) {
	enabled := false
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName(principal))
		if b == nil {
			return nil
		}
		enabled = string(b.Get([]byte(keyAutoSync))) == "true"
		return nil
	})
	return enabled, err
}
