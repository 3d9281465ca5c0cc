package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	data, err := s.Load(ctx, "contracts")
	require.NoError(t, err)
	require.Nil(t, data)

	blob := []byte(`[{"id":"c1"}]`)
	require.NoError(t, s.Save(ctx, "contracts", blob))
	blob[0] = 'x'

	data, err = s.Load(ctx, "contracts")
	require.NoError(t, err)
	require.Equal(t, `[{"id":"c1"}]`, string(data))
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	data, err := s.Load(ctx, "contracts")
	require.NoError(t, err)
	require.Nil(t, data)

	require.NoError(t, s.Save(ctx, "contracts", []byte(`[]`)))
	require.NoError(t, s.Save(ctx, "contracts", []byte(`[{"id":"c1"}]`)))

	data, err = s.Load(ctx, "contracts")
	require.NoError(t, err)
	require.Equal(t, `[{"id":"c1"}]`, string(data))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1, "temp files must not be left behind")
	require.Equal(t, "contracts.json", files[0].Name())
}

func TestFileStore_LockExcludesOtherHandles(t *testing.T) {
	dir := t.TempDir()
	a, err := NewFileStore(dir)
	require.NoError(t, err)
	b, err := NewFileStore(dir)
	require.NoError(t, err)

	unlock, err := a.Lock(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = b.Lock(ctx)
	require.Error(t, err, "second handle must wait while the first holds the lock")

	unlock()
	unlockB, err := b.Lock(context.Background())
	require.NoError(t, err)
	unlockB()
}

func TestMemoryStore_LockHonorsCancelledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Lock(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
