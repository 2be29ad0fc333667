package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketOverlay = []byte("session_overlay")
	keyOverlay    = []byte("state")
)

type BboltOverlayStore struct {
	db *bolt.DB
	mu sync.Mutex
}

func NewBboltOverlayStore(path string) (*BboltOverlayStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("overlay db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketOverlay)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BboltOverlayStore{db: db}, nil
}

func (s *BboltOverlayStore) Load() (Overlay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var file overlayFile
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketOverlay)
		if bucket == nil {
			return nil
		}
		data := bucket.Get(keyOverlay)
		if len(data) == 0 {
			return nil
		}
		// corrupt payloads degrade to empty
		if err := json.Unmarshal(data, &file); err != nil {
			file = overlayFile{}
		}
		return nil
	})
	if err != nil {
		return Overlay{}, err
	}
	return Overlay{
		Archived: sanitizeIDs(file.Archived),
		Saved:    sanitizeIDs(file.Saved),
	}, nil
}

func (s *BboltOverlayStore) Save(overlay Overlay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(overlayFile{
		Version:  overlaySchemaVersion,
		Archived: sanitizeIDs(overlay.Archived),
		Saved:    sanitizeIDs(overlay.Saved),
	})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketOverlay)
		if err != nil {
			return err
		}
		return bucket.Put(keyOverlay, data)
	})
}

func (s *BboltOverlayStore) Close() error {
	return s.db.Close()
}
