// Package store keeps rig state on disk: the last written calibration
// block (the simulated board's EEPROM) and recorded measurement
// sessions.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/Zubax/force-measurement-rig/pkg/rig"
)

var (
	bucketCalibration = []byte("calibration")
	bucketSessions    = []byte("sessions")
	keyCalibration    = []byte("current")
)

// Record is one recorded measurement.
type Record struct {
	Seq    uint64    `json:"seq"`
	Time   time.Time `json:"time"`
	Forces []float64 `json:"forces"`
	Total  float64   `json:"total"`
}

// Store is a bbolt-backed database.
type Store struct {
	db *bolt.DB
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening rig db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveCalibration stores cal as the current coefficient block.
func (s *Store) SaveCalibration(cal rig.Calibration) error {
	block := make([]byte, rig.CalibrationBlockSize)
	copy(block, cal.EncodePayload())
	copy(block[rig.CalibrationSize:], cal.Spare[:])
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketCalibration)
		if err != nil {
			return fmt.Errorf("creating bucket: %w", err)
		}
		return b.Put(keyCalibration, block)
	})
}

// LoadCalibration retrieves the stored block; ok is false when none
// was ever saved.
func (s *Store) LoadCalibration() (cal rig.Calibration, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCalibration)
		if b == nil {
			return nil
		}
		v := b.Get(keyCalibration)
		if len(v) < rig.CalibrationSize {
			return nil
		}
		c, decErr := rig.DecodeCalibration(v[:rig.CalibrationSize])
		if decErr != nil {
			return decErr
		}
		copy(c.Spare[:], v[rig.CalibrationSize:])
		cal, ok = c, true
		return nil
	})
	return
}

// Session appends records under one recording run.
type Session struct {
	ID string

	store *Store
	seq   uint64
}

// NewSession starts a recording run with a fresh identifier.
func (s *Store) NewSession() (*Session, error) {
	id := uuid.NewString()
	err := s.db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists(bucketSessions)
		if err != nil {
			return err
		}
		_, err = root.CreateBucket([]byte(id))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return &Session{ID: id, store: s}, nil
}

// Append stores one record. Records are keyed by insertion order so a
// scan replays them in sequence.
func (sn *Session) Append(rec Record) error {
	data, err := json.Marshal(&rec)
	if err != nil {
		return err
	}
	return sn.store.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions).Bucket([]byte(sn.ID))
		if b == nil {
			return fmt.Errorf("session %s vanished", sn.ID)
		}
		sn.seq++
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], sn.seq)
		return b.Put(key[:], data)
	})
}

// Sessions lists all recorded session IDs.
func (s *Store) Sessions() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketSessions)
		if root == nil {
			return nil
		}
		return root.ForEachBucket(func(k []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

// ReadSession replays a session's records in recording order.
func (s *Store) ReadSession(id string, fn func(Record) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketSessions)
		if root == nil {
			return fmt.Errorf("no sessions recorded")
		}
		b := root.Bucket([]byte(id))
		if b == nil {
			return fmt.Errorf("unknown session %s", id)
		}
		return b.ForEach(func(_, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			return fn(rec)
		})
	})
}
