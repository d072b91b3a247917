// Package storage persists scored loan requests and their eventual
// outcomes so the service can retrain on real repayment data. BoltDB is
// the storage engine; one bucket keyed by loan id holds the full record
// lifecycle from scoring to outcome.
package storage

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/p2plend/riskengine/dataset"
	"github.com/p2plend/riskengine/pkg/errors"
	"github.com/p2plend/riskengine/schema"
)

const loansBucket = "loans"

// LoanRecord is one scored loan request, later updated with its outcome.
type LoanRecord struct {
	ID       string               `json:"loan_id"`
	Features schema.FeatureVector `json:"features"`

	Probability  float64 `json:"default_probability"`
	RiskCategory string  `json:"risk_category"`

	RecordedAt time.Time `json:"recorded_at"`

	// Defaulted is nil until the loan's outcome is known.
	Defaulted *bool      `json:"defaulted,omitempty"`
	OutcomeAt *time.Time `json:"outcome_at,omitempty"`
}

// Statistics summarizes the collected data for the statistics endpoint.
type Statistics struct {
	TotalRecords   int            `json:"total_records"`
	WithOutcome    int            `json:"with_outcome"`
	Defaults       int            `json:"defaults"`
	DefaultRate    float64        `json:"default_rate"`
	CategoryCounts map[string]int `json:"category_counts"`
	OldestRecord   *time.Time     `json:"oldest_record,omitempty"`
	NewestRecord   *time.Time     `json:"newest_record,omitempty"`
}

// Store wraps the BoltDB handle. All methods are safe for concurrent use.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the database file at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "storage: open database %s", path)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(loansBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "storage: create loans bucket")
	}
	return &Store{db: db}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRequest stores a scored loan request. An empty id is assigned a
// fresh UUID. The stored (possibly generated) id is returned.
func (s *Store) RecordRequest(id string, features schema.FeatureVector, probability float64, category string) (string, error) {
	if len(features) == 0 {
		return "", errors.NewInvalidFeatureInputError("storage.RecordRequest", "empty feature vector")
	}
	if id == "" {
		id = uuid.NewString()
	}

	rec := LoanRecord{
		ID:           id,
		Features:     features.Clone(),
		Probability:  probability,
		RiskCategory: category,
		RecordedAt:   time.Now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", errors.Wrap(err, "storage: marshal loan record")
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(loansBucket)).Put([]byte(id), data)
	})
	if err != nil {
		return "", errors.Wrap(err, "storage: store loan record")
	}
	return id, nil
}

// UpdateOutcome marks a previously recorded loan as defaulted or repaid.
// Unknown ids are an error; the outcome of an unscored loan carries no
// features and is useless for retraining.
func (s *Store) UpdateOutcome(id string, defaulted bool) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(loansBucket))
		raw := b.Get([]byte(id))
		if raw == nil {
			return errors.NewValueError("storage.UpdateOutcome", "unknown loan id "+id)
		}

		var rec LoanRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return errors.Wrap(err, "storage: unmarshal loan record")
		}
		now := time.Now().UTC()
		rec.Defaulted = &defaulted
		rec.OutcomeAt = &now

		data, err := json.Marshal(rec)
		if err != nil {
			return errors.Wrap(err, "storage: marshal loan record")
		}
		return b.Put([]byte(id), data)
	})
}

// Completed returns the loans with known outcomes as a labeled dataset
// over the base feature schema, ready for the retraining merge.
func (s *Store) Completed() (*dataset.Dataset, error) {
	ds := dataset.New(schema.BaseFeatures)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(loansBucket)).ForEach(func(_, v []byte) error {
			var rec LoanRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return errors.Wrap(err, "storage: unmarshal loan record")
			}
			if rec.Defaulted == nil {
				return nil
			}
			label := 0
			if *rec.Defaulted {
				label = 1
			}
			ds.Append(dataset.Sample{
				Features: rec.Features.Clone(),
				Label:    label,
				Labeled:  true,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// Statistics walks the bucket once and aggregates the counters.
func (s *Store) Statistics() (Statistics, error) {
	stats := Statistics{CategoryCounts: make(map[string]int)}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(loansBucket)).ForEach(func(_, v []byte) error {
			var rec LoanRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return errors.Wrap(err, "storage: unmarshal loan record")
			}
			stats.TotalRecords++
			if rec.RiskCategory != "" {
				stats.CategoryCounts[rec.RiskCategory]++
			}
			if rec.Defaulted != nil {
				stats.WithOutcome++
				if *rec.Defaulted {
					stats.Defaults++
				}
			}
			t := rec.RecordedAt
			if stats.OldestRecord == nil || t.Before(*stats.OldestRecord) {
				stats.OldestRecord = &t
			}
			if stats.NewestRecord == nil || t.After(*stats.NewestRecord) {
				stats.NewestRecord = &t
			}
			return nil
		})
	})
	if err != nil {
		return Statistics{}, err
	}
	if stats.WithOutcome > 0 {
		stats.DefaultRate = float64(stats.Defaults) / float64(stats.WithOutcome)
	}
	return stats, nil
}

// Get returns one record by id, or nil when absent.
func (s *Store) Get(id string) (*LoanRecord, error) {
	var rec *LoanRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(loansBucket)).Get([]byte(id))
		if raw == nil {
			return nil
		}
		var r LoanRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return errors.Wrap(err, "storage: unmarshal loan record")
		}
		rec = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}
