package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndResolve(t *testing.T) {
	reg := New(nil, BestEffort)

	assert.NoError(t, reg.Register("ticket-1", 42))

	tokenID, ok := reg.Resolve("ticket-1")
	assert.True(t, ok)
	assert.Equal(t, int64(42), tokenID)
	assert.True(t, reg.Exists("ticket-1"))
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	reg := New(nil, BestEffort)

	_, ok := reg.Resolve("never-registered")
	assert.False(t, ok)
	assert.False(t, reg.Exists("never-registered"))
}

func TestRegistry_RejectsDuplicate(t *testing.T) {
	reg := New(nil, BestEffort)

	require.NoError(t, reg.Register("ticket-1", 1))
	err := reg.Register("ticket-1", 2)
	assert.ErrorIs(t, err, ErrDuplicateTicket)

	// The original mapping survives the rejected re-registration.
	tokenID, ok := reg.Resolve("ticket-1")
	assert.True(t, ok)
	assert.Equal(t, int64(1), tokenID)
}

func TestRegistry_Clear(t *testing.T) {
	reg := New(nil, BestEffort)
	require.NoError(t, reg.Register("ticket-1", 1))
	require.NoError(t, reg.Register("ticket-2", 2))

	assert.NoError(t, reg.Clear())

	assert.False(t, reg.Exists("ticket-1"))
	assert.False(t, reg.Exists("ticket-2"))
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_FileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")

	reg := New(NewFileStore(path), Strict)
	require.NoError(t, reg.Register("ticket-1", 7))
	require.NoError(t, reg.Register("ticket-2", 8))

	// A fresh registry over the same file sees the persisted mappings.
	reloaded := New(NewFileStore(path), Strict)
	tokenID, ok := reloaded.Resolve("ticket-1")
	assert.True(t, ok)
	assert.Equal(t, int64(7), tokenID)
	assert.Equal(t, 2, reloaded.Len())
}

func TestRegistry_ClearPersistsEmptyState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")

	reg := New(NewFileStore(path), Strict)
	require.NoError(t, reg.Register("ticket-1", 7))
	require.NoError(t, reg.Clear())

	reloaded := New(NewFileStore(path), Strict)
	assert.Equal(t, 0, reloaded.Len())
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "does-not-exist.json"))

	entries, err := store.Load()
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path).Load()
	assert.Error(t, err)

	// The registry itself starts empty instead of refusing to boot.
	reg := New(NewFileStore(path), BestEffort)
	assert.Equal(t, 0, reg.Len())
}

type failingStore struct {
	saves int
}

func (f *failingStore) Load() (map[string]int64, error) { return map[string]int64{}, nil }
func (f *failingStore) Save(map[string]int64) error {
	f.saves++
	return errors.New("disk full")
}

func TestRegistry_BestEffortSwallowsSaveFailure(t *testing.T) {
	store := &failingStore{}
	reg := New(store, BestEffort)

	assert.NoError(t, reg.Register("ticket-1", 1))
	assert.Equal(t, 1, store.saves)

	// The in-memory mutation stands despite the failed write.
	assert.True(t, reg.Exists("ticket-1"))
}

func TestRegistry_StrictSurfacesSaveFailure(t *testing.T) {
	store := &failingStore{}
	reg := New(store, Strict)

	err := reg.Register("ticket-1", 1)
	assert.Error(t, err)

	// The mutation is not rolled back; only the failure is surfaced.
	assert.True(t, reg.Exists("ticket-1"))
}
