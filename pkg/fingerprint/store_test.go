package fingerprint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infohub/pkg/logger"
)

func newTestStore(t *testing.T) (*Store, *logger.TestLogger) {
	t.Helper()
	log := logger.NewTestLogger()
	store, err := NewStore(t.TempDir(), log)
	require.NoError(t, err)
	return store, log
}

func TestGetAbsent(t *testing.T) {
	store, _ := newTestStore(t)

	_, ok := store.Get(Key{Category: "graduation", Filename: "cohort.xlsx"})
	assert.False(t, ok)
}

func TestPutThenGet(t *testing.T) {
	store, _ := newTestStore(t)
	key := Key{Category: "attendance", Filename: "daily.xlsx"}

	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, store.Put(key, "abc123"))

	rec, ok := store.Get(key)
	require.True(t, ok)
	assert.Equal(t, "abc123", rec.Fingerprint)
	assert.True(t, rec.UpdatedAt.After(before))
}

func TestPutReplaces(t *testing.T) {
	store, _ := newTestStore(t)
	key := Key{Category: "demographics", Filename: "snapshot.xlsx"}

	require.NoError(t, store.Put(key, "old"))
	require.NoError(t, store.Put(key, "new"))

	rec, ok := store.Get(key)
	require.True(t, ok)
	assert.Equal(t, "new", rec.Fingerprint)
}

func TestCorruptRecordTreatedAsAbsent(t *testing.T) {
	log := logger.NewTestLogger()
	dir := t.TempDir()
	store, err := NewStore(dir, log)
	require.NoError(t, err)

	key := Key{Category: "graduation", Filename: "cohort.xlsx"}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "graduation"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graduation", "cohort.xlsx.json"), []byte("{not json"), 0644))

	_, ok := store.Get(key)
	assert.False(t, ok)
	assert.True(t, log.HasMessage("WARN", "fingerprint record corrupt, treating as absent"))

	// A corrupt record can still be overwritten.
	require.NoError(t, store.Put(key, "fresh"))
	rec, ok := store.Get(key)
	require.True(t, ok)
	assert.Equal(t, "fresh", rec.Fingerprint)
}

func TestKeysAreIndependent(t *testing.T) {
	store, _ := newTestStore(t)

	a := Key{Category: "graduation", Filename: "report.xlsx"}
	b := Key{Category: "attendance", Filename: "report.xlsx"}

	require.NoError(t, store.Put(a, "aaa"))
	require.NoError(t, store.Put(b, "bbb"))

	recA, ok := store.Get(a)
	require.True(t, ok)
	recB, ok := store.Get(b)
	require.True(t, ok)

	assert.Equal(t, "aaa", recA.Fingerprint)
	assert.Equal(t, "bbb", recB.Fingerprint)
}

func TestNoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, logger.NewTestLogger())
	require.NoError(t, err)

	key := Key{Category: "other_reports", Filename: "misc.xlsx"}
	require.NoError(t, store.Put(key, "fp"))

	entries, err := os.ReadDir(filepath.Join(dir, "other_reports"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "misc.xlsx.json", entries[0].Name())
}
