package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/GriffinCanCode/navcore/internal/infrastructure/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]BlobStore {
	t.Helper()

	b, err := NewBolt(filepath.Join(t.TempDir(), "nested", "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	return map[string]BlobStore{
		"memory": NewMemory(),
		"bolt":   b,
	}
}

func TestBlobStore(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get("missing")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, store.Delete("missing"), ErrNotFound)

			value := []byte("payload")
			require.NoError(t, store.Put("sessions/b", value))
			require.NoError(t, store.Put("sessions/a", []byte("other")))
			require.NoError(t, store.Put("settings/x", []byte("x")))
			value[0] = 'P'

			got, err := store.Get("sessions/b")
			require.NoError(t, err)
			assert.Equal(t, []byte("payload"), got, "stored value is a copy")

			keys, err := store.Keys("sessions/")
			require.NoError(t, err)
			assert.Equal(t, []string{"sessions/a", "sessions/b"}, keys)

			require.NoError(t, store.Put("sessions/b", []byte("replaced")))
			got, err = store.Get("sessions/b")
			require.NoError(t, err)
			assert.Equal(t, []byte("replaced"), got)

			require.NoError(t, store.Delete("sessions/b"))
			_, err = store.Get("sessions/b")
			assert.ErrorIs(t, err, ErrNotFound)

			keys, err = store.Keys("")
			require.NoError(t, err)
			assert.Equal(t, []string{"sessions/a", "settings/x"}, keys)
		})
	}
}

func TestBoltPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	s, err := NewBolt(path)
	require.NoError(t, err)
	require.NoError(t, s.Put("k", []byte("v")))
	assert.Equal(t, path, s.Path())
	require.NoError(t, s.Close())

	s, err = NewBolt(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

// failing is a BlobStore whose writes always fail
type failing struct {
	*Memory
	puts int
}

var errDisk = errors.New("disk full")

func (f *failing) Put(string, []byte) error {
	f.puts++
	return errDisk
}

func TestWithBreaker(t *testing.T) {
	backend := &failing{Memory: NewMemory()}
	breaker := resilience.New("storage", resilience.Settings{Failures: 2, IsFailure: IsBackendFailure})
	store := WithBreaker(backend, breaker)

	for i := 0; i < 5; i++ {
		_, err := store.Get("missing")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, resilience.StateClosed, breaker.State(), "missing keys are not failures")

	assert.ErrorIs(t, store.Put("k", nil), errDisk)
	assert.ErrorIs(t, store.Put("k", nil), errDisk)
	assert.ErrorIs(t, store.Put("k", nil), resilience.ErrCircuitOpen)
	assert.Equal(t, 2, backend.puts)

	_, err := store.Keys("")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.NoError(t, store.Close())
}
