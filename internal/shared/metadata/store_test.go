package metadata

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyGetSet(t *testing.T) {
	store := NewStore()
	flag := NewKey[bool]("flag")
	name := NewKey[string]("name")

	_, ok := flag.Get(store)
	assert.False(t, ok)
	assert.False(t, flag.Value(store))

	flag.Set(store, true)
	name.Set(store, "main")

	v, ok := flag.Get(store)
	require.True(t, ok)
	assert.True(t, v)
	assert.Equal(t, "main", name.Value(store))
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, []string{"flag", "name"}, store.Names())
}

func TestKeyTypeMismatch(t *testing.T) {
	store := NewStore()
	NewKey[string]("shared").Set(store, "text")

	asInt := NewKey[int]("shared")
	_, ok := asInt.Get(store)
	assert.False(t, ok, "value of another type must not be returned")
	assert.False(t, asInt.Has(store))
}

func TestKeyRemove(t *testing.T) {
	store := NewStore()
	key := NewKey[int]("count")
	key.Set(store, 3)

	assert.True(t, key.Remove(store))
	assert.False(t, key.Remove(store))
	assert.Equal(t, 0, store.Len())
}

func TestNilStoreReads(t *testing.T) {
	var store *Store
	key := NewKey[bool]("flag")

	assert.False(t, key.Value(store))
	assert.False(t, key.Remove(store))
	assert.Equal(t, 0, store.Len())
	assert.Nil(t, store.Names())
}

func TestFunctionValues(t *testing.T) {
	type handler func(string) string
	store := NewStore()
	key := NewKey[handler]("handler")
	key.Set(store, func(s string) string { return s + "!" })

	h, ok := key.Get(store)
	require.True(t, ok)
	assert.Equal(t, "hi!", h("hi"))
}

func TestConcurrentAccess(t *testing.T) {
	store := NewStore()
	key := NewKey[int]("n")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key.Set(store, i)
			_ = key.Value(store)
		}(i)
	}
	wg.Wait()

	assert.True(t, key.Has(store))
}
