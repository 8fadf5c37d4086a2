package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"cardiorisk/internal/features"
	"cardiorisk/internal/predictor"
)

// Record is a stored prediction with the profile it was computed from
type Record struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	ModelType string           `json:"model_type"`
	Profile   features.Profile `json:"profile"`
	Result    predictor.Result `json:"result"`
}

// SavePrediction stores rec and returns its ID. A missing ID or creation
// time is filled in.
func (s *Store) SavePrediction(rec Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.ModelType == "" {
		rec.ModelType = string(rec.Result.ModelUsed)
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		idx := tx.Bucket([]byte(timeIndexBucket))

		if old := b.Get([]byte(rec.ID)); old != nil {
			var prev Record
			if err := json.Unmarshal(old, &prev); err == nil {
				if err := idx.Delete(timeKey(prev.CreatedAt, prev.ID)); err != nil {
					return err
				}
			}
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal prediction: %w", err)
		}
		if err := b.Put([]byte(rec.ID), data); err != nil {
			return err
		}
		return idx.Put(timeKey(rec.CreatedAt, rec.ID), []byte(rec.ID))
	})
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// GetPrediction returns the record with the given ID or ErrNotFound.
func (s *Store) GetPrediction(id string) (Record, error) {
	var rec Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(predictionsBucket)).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &rec)
	})
	return rec, err
}

// ListPredictions returns up to limit records, newest first. A limit of
// zero or less returns every record.
func (s *Store) ListPredictions(limit int) ([]Record, error) {
	records := make([]Record, 0)

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		c := tx.Bucket([]byte(timeIndexBucket)).Cursor()

		for k, id := c.Last(); k != nil; k, id = c.Prev() {
			if limit > 0 && len(records) >= limit {
				break
			}
			data := b.Get(id)
			if data == nil {
				continue
			}
			var rec Record
			if err := json.Unmarshal(data, &rec); err != nil {
				continue // Skip malformed records
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}

// DeletePrediction removes a record. Deleting an unknown ID returns ErrNotFound.
func (s *Store) DeletePrediction(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		data := b.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}

		var rec Record
		if err := json.Unmarshal(data, &rec); err == nil {
			if err := tx.Bucket([]byte(timeIndexBucket)).Delete(timeKey(rec.CreatedAt, rec.ID)); err != nil {
				return err
			}
		}
		return b.Delete([]byte(id))
	})
}

// CountPredictions returns the number of stored records.
func (s *Store) CountPredictions() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(predictionsBucket)).Stats().KeyN
		return nil
	})
	return n, err
}
