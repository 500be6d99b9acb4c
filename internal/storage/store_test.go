package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"scratchcard/internal/models"
)

func testStoreContract(t *testing.T, s Store) {
	ctx := context.Background()
	const key = "snackfly_scratch_game:client-1"

	_, err := s.Get(ctx, key)
	require.ErrorIs(t, err, models.ErrRecordNotFound)

	require.NoError(t, s.Put(ctx, key, []byte(`{"totalPlays":1}`)))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, `{"totalPlays":1}`, string(got))

	// Put fully overwrites.
	require.NoError(t, s.Put(ctx, key, []byte(`{"totalPlays":2}`)))
	got, err = s.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, `{"totalPlays":2}`, string(got))

	// Other keys are untouched.
	_, err = s.Get(ctx, key+"-other")
	require.ErrorIs(t, err, models.ErrRecordNotFound)

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	require.ErrorIs(t, err, models.ErrRecordNotFound)

	// Deleting again is not an error.
	require.NoError(t, s.Delete(ctx, key))
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	testStoreContract(t, s)

	// No temporary files are left behind.
	require.NoError(t, s.Put(context.Background(), "k", []byte("v")))
	matches, err := filepath.Glob(filepath.Join(dir, ".record-*"))
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "scratch.db"))
	require.NoError(t, err)
	defer s.Close()
	testStoreContract(t, s)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	s, err := Open(context.Background(), DriverRedis, addr)
	require.NoError(t, err)
	defer s.Close()
	testStoreContract(t, s)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	s, err := Open(context.Background(), DriverPostgres, dsn)
	require.NoError(t, err)
	defer s.Close()
	testStoreContract(t, s)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "etcd", "")
	require.Error(t, err)
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), DriverMemory, "")
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, s)
}
