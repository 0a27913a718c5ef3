// Package history keeps a record of completed downloads in a bbolt database.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

var Buckets = struct {
	Metadata  []byte
	Downloads []byte
}{
	Metadata:  []byte("__metadata__"),
	Downloads: []byte("downloads"),
}

var MetadataKeys = struct {
	Version []byte
}{
	Version: []byte("version"),
}

const currentVersion = 1

var (
	ErrUnsupportedVersion = errors.New("unsupported history database version")
	ErrNotFound           = errors.New("no such history entry")
)

type Entry struct {
	ID        string        `json:"id"`
	VideoID   string        `json:"video_id"`
	Title     string        `json:"title"`
	Itag      int           `json:"itag"`
	Container string        `json:"container"`
	Quality   string        `json:"quality"`
	Target    string        `json:"target"`
	Size      int64         `json:"size,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	SavedAt   time.Time     `json:"saved_at"`
}

type Store struct {
	db *bbolt.DB
}

// DefaultPath is the history database location under the user's configuration directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "streamdl", "history.db"), nil
}

// Open opens (creating if necessary) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) (err error) {
		// Ensure buckets exist
		var metadata *bbolt.Bucket
		if metadata, err = tx.CreateBucketIfNotExists(Buckets.Metadata); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(Buckets.Downloads); err != nil {
			return err
		}

		var version int
		if versionBytes := metadata.Get(MetadataKeys.Version); versionBytes == nil {
			version = currentVersion
		} else if err = json.Unmarshal(versionBytes, &version); err != nil {
			return err
		}
		if version != currentVersion {
			return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
		}

		if versionBytes, err := json.Marshal(currentVersion); err != nil {
			return err
		} else if err = metadata.Put(MetadataKeys.Version, versionBytes); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record adds an entry, filling in ID and SavedAt if they are empty.
func (s *Store) Record(entry *Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.SavedAt.IsZero() {
		entry.SavedAt = time.Now()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(Buckets.Downloads).Put([]byte(entry.ID), data)
	})
}

// List returns every entry, oldest first.
func (s *Store) List() (entries []Entry, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(Buckets.Downloads).ForEach(func(k, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("corrupt history entry %s: %w", k, err)
			}
			entries = append(entries, entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SavedAt.Before(entries[j].SavedAt)
	})
	return entries, nil
}

// Delete removes the entry with the given ID, or returns ErrNotFound if there isn't one.
func (s *Store) Delete(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(Buckets.Downloads)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		return b.Delete([]byte(id))
	})
}
