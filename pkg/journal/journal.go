// Package journal persists upload session records in a local BadgerDB
// database so past and in-flight uploads can be inspected after the fact.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when no record exists for the requested ID.
var ErrNotFound = errors.New("journal: record not found")

const keyPrefix = "upload/"

// Record is one journaled upload session, keyed by the locally assigned ID.
// UploadID is filled in once the server issues a session token.
type Record struct {
	LocalID     string    `json:"local_id"`
	UploadID    string    `json:"upload_id,omitempty"`
	Path        string    `json:"path"`
	Filename    string    `json:"filename"`
	Guest       string    `json:"guest,omitempty"`
	Size        int64     `json:"size"`
	TotalChunks int       `json:"total_chunks"`
	ChunksDone  []bool    `json:"chunks_done,omitempty"`
	State       string    `json:"state"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CompletedChunks counts the chunks marked done.
func (r *Record) CompletedChunks() int {
	n := 0
	for _, done := range r.ChunksDone {
		if done {
			n++
		}
	}
	return n
}

// Journal is a BadgerDB-backed store of upload records. Safe for concurrent
// use.
type Journal struct {
	db *badger.DB
}

// Open opens (or creates) the journal database at dir.
func Open(dir string) (*Journal, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Put stores or replaces a record and stamps UpdatedAt.
func (j *Journal) Put(r *Record) error {
	if r.LocalID == "" {
		return errors.New("journal: record has no local ID")
	}
	r.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(r.LocalID), data)
	})
}

// Get returns the record with the given local ID.
func (j *Journal) Get(localID string) (*Record, error) {
	var rec *Record

	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(localID))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// List returns all records, newest first.
func (j *Journal) List() ([]*Record, error) {
	var records []*Record

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec Record
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				records = append(records, &rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list journal records: %w", err)
	}

	sort.Slice(records, func(i, k int) bool {
		return records[i].StartedAt.After(records[k].StartedAt)
	})
	return records, nil
}

// MarkChunk records that one chunk of a session landed. The record's
// ChunksDone slice grows on demand so sessions replanned by the server stay
// consistent.
func (j *Journal) MarkChunk(localID string, index int) error {
	if index < 0 {
		return fmt.Errorf("journal: invalid chunk index %d", index)
	}

	return j.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key(localID))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var rec Record
		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
		if err != nil {
			return err
		}

		for len(rec.ChunksDone) <= index {
			rec.ChunksDone = append(rec.ChunksDone, false)
		}
		rec.ChunksDone[index] = true
		rec.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(&rec)
		if err != nil {
			return err
		}
		return txn.Set(key(localID), data)
	})
}

// Delete removes a record. Deleting a missing record is not an error.
func (j *Journal) Delete(localID string) error {
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(localID))
	})
}

func key(localID string) []byte {
	return []byte(keyPrefix + localID)
}
