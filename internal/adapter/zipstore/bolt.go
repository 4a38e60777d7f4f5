package zipstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anyjiujitsu/openmat-service/internal/domain"
	bolt "go.etcd.io/bbolt"
)

var bucketZips = []byte("zips")

// BoltStore persists coordinates in a single-file bbolt database.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens or creates the database at path, creating parent
// directories as needed.
func OpenBolt(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create zip cache dir: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o644, nil)
	if err != nil {
		return nil, fmt.Errorf("open zip cache db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketZips)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create zips bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *BoltStore) Get(_ context.Context, zip string) (domain.Geo, bool, error) {
	var (
		g     domain.Geo
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketZips)
		if b == nil {
			return nil
		}
		data := b.Get([]byte(zip))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &g); err != nil {
			return fmt.Errorf("decode zip %s: %w", zip, err)
		}
		found = true
		return nil
	})
	if err != nil {
		return domain.Geo{}, false, err
	}
	return g, found, nil
}

func (s *BoltStore) Set(_ context.Context, zip string, g domain.Geo) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode zip %s: %w", zip, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketZips)
		if err != nil {
			return err
		}
		return b.Put([]byte(zip), data)
	})
}

// Count returns how many ZIP codes are stored.
func (s *BoltStore) Count() (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bucketZips); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n, err
}
