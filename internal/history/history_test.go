package history

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func TestRecordAndList(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)
	path := filepath.Join(t.TempDir(), "sub", "history.db")

	store, err := Open(path)
	require.NoError(err)

	first := &Entry{VideoID: "dQw4w9WgXcQ", Itag: 18, Target: "dQw4w9WgXcQ.mp4", SavedAt: time.Unix(1000, 0)}
	second := &Entry{VideoID: "jNQXAC9IVRw", Itag: 22, Target: "/tmp/zoo.mp4", SavedAt: time.Unix(2000, 0)}
	require.NoError(store.Record(second))
	require.NoError(store.Record(first))
	assert.NotEmpty(first.ID)
	assert.NotEqual(first.ID, second.ID)
	require.NoError(store.Close())

	// Entries survive reopening
	store, err = Open(path)
	require.NoError(err)
	defer store.Close()
	entries, err := store.List()
	require.NoError(err)
	require.Len(entries, 2)
	assert.Equal("dQw4w9WgXcQ", entries[0].VideoID)
	assert.Equal("jNQXAC9IVRw", entries[1].VideoID)
	assert.Equal(22, entries[1].Itag)

	require.NoError(store.Delete(first.ID))
	entries, err = store.List()
	require.NoError(err)
	assert.Len(entries, 1)
	assert.ErrorIs(store.Delete(first.ID), ErrNotFound)
}

func TestRecordDefaults(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require_.NoError(t, err)
	defer store.Close()

	entry := &Entry{VideoID: "dQw4w9WgXcQ"}
	require_.NoError(t, store.Record(entry))
	assert_.NotEmpty(t, entry.ID)
	assert_.WithinDuration(t, time.Now(), entry.SavedAt, time.Minute)
}

func TestUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := bbolt.Open(path, 0600, nil)
	require_.NoError(t, err)
	require_.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(Buckets.Metadata)
		if err != nil {
			return err
		}
		v, _ := json.Marshal(99)
		return b.Put(MetadataKeys.Version, v)
	}))
	require_.NoError(t, db.Close())

	_, err = Open(path)
	assert_.ErrorIs(t, err, ErrUnsupportedVersion)
}
