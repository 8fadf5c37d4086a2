// Package storage persists prediction records alongside the profile that
// produced them. It uses BoltDB as the underlying storage engine with a
// primary bucket keyed by record ID and a time-ordered index for listing.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	dbFile = "cardiorisk.db"

	predictionsBucket = "predictions"    // record ID -> Record JSON
	timeIndexBucket   = "predictions_ts" // created_at_id -> record ID
)

// ErrNotFound is returned when no record has the requested ID.
var ErrNotFound = errors.New("prediction not found")

// Store provides persistent storage for prediction records using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the database under dataPath.
func New(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dbPath := filepath.Join(dataPath, dbFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(timeIndexBucket)); err != nil {
			return fmt.Errorf("create index bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.db.Path() }

// timeKey sorts lexicographically in creation order.
func timeKey(createdAt time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%020d_%s", createdAt.UnixNano(), id))
}
