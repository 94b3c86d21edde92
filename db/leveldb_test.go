package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelDB_PrefixAndBatch(t *testing.T) {
	l, err := NewMemLevelDB()
	require.NoError(t, err)
	defer l.Close()

	var b Batch
	b.Put([]byte("a:1"), []byte("one"))
	b.Put([]byte("a:2"), []byte("two"))
	b.Put([]byte("b:1"), []byte("other"))
	assert.Equal(t, 3, b.Len())
	require.NoError(t, l.Write(&b))

	iter := l.NewIterator([]byte("a:"))
	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	iter.Release()
	require.NoError(t, iter.Error())
	assert.Equal(t, []string{"a:1", "a:2"}, keys)

	iter = l.NewRangeIterator([]byte("a:2"), []byte("b:2"))
	keys = nil
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	iter.Release()
	assert.Equal(t, []string{"a:2", "b:1"}, keys)

	ok, err := l.Has([]byte("b:1"))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, l.Delete([]byte("b:1")))
	_, err = l.Get([]byte("b:1"))
	assert.ErrorIs(t, err, ErrNotFound)
}
