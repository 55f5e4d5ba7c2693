package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/core"
)

// badgerConflictRetries bounds retries of last-write-wins updates that lost a
// transaction conflict inside badger.
const badgerConflictRetries = 3

// markerRecord is the stored value of a map's marker list.
type markerRecord struct {
	Revision core.Revision `json:"revision"`
	Markers  []core.Marker `json:"markers"`
}

// Badger stores maps in an embedded badger database.
// Keys are "map:<id>" for marker lists and "opts:<id>" for options.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a database in dir.
func OpenBadger(dir string) (*Badger, error) {
	if dir == "" {
		return nil, errors.New("badger: directory is required")
	}
	opts := badger.DefaultOptions(dir)
	opts.NumVersionsToKeep = 1
	opts.CompactL0OnClose = true
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return &Badger{db: db}, nil
}

// OpenBadgerInMemory opens a database that lives only in memory.
func OpenBadgerInMemory() (*Badger, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger: %w", err)
	}
	return &Badger{db: db}, nil
}

// Close flushes and closes the database.
func (s *Badger) Close() error {
	return s.db.Close()
}

func markersKey(mapID string) []byte {
	return []byte("map:" + mapID)
}

func optionsKey(mapID string) []byte {
	return []byte("opts:" + mapID)
}

// getJSON decodes the value at key into out and reports whether it existed.
func getJSON(txn *badger.Txn, key []byte, out any) (bool, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(val, out)
}

func (s *Badger) GetMarkers(_ context.Context, mapID string) ([]core.Marker, core.Revision, error) {
	var rec markerRecord
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := getJSON(txn, markersKey(mapID), &rec)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	if rec.Markers == nil {
		rec.Markers = []core.Marker{}
	}
	return rec.Markers, rec.Revision, nil
}

// SetMarkers reads the current revision and writes the new list in a single
// transaction, so the revision check and the write are atomic.
func (s *Badger) SetMarkers(ctx context.Context, mapID string, markers []core.Marker, expect core.Revision) (core.Revision, error) {
	var newRev core.Revision
	update := func(txn *badger.Txn) error {
		var rec markerRecord
		if _, err := getJSON(txn, markersKey(mapID), &rec); err != nil {
			return err
		}
		if err := checkRevision(expect, rec.Revision); err != nil {
			return err
		}

		next := markerRecord{Revision: rec.Revision + 1, Markers: markers}
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}
		if err := txn.Set(markersKey(mapID), data); err != nil {
			return err
		}
		newRev = next.Revision
		return nil
	}

	for attempt := 0; ; attempt++ {
		err := s.db.Update(update)
		if !errors.Is(err, badger.ErrConflict) {
			return newRev, err
		}
		// Checked writes report the conflict; unchecked writes are retried.
		if expect != core.AnyRevision || attempt >= badgerConflictRetries {
			return 0, core.ErrRevisionConflict
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
}

func (s *Badger) GetOptions(_ context.Context, mapID string) (core.MapOptions, bool, error) {
	var (
		opts core.MapOptions
		ok   bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		ok, err = getJSON(txn, optionsKey(mapID), &opts)
		return err
	})
	if err != nil {
		return core.MapOptions{}, false, err
	}
	return opts, ok, nil
}

func (s *Badger) SetOptions(_ context.Context, mapID string, opts core.MapOptions) error {
	data, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(optionsKey(mapID), data)
	})
}
