package db

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = leveldb.ErrNotFound

// LevelDB wraps the actual LevelDB connection
type LevelDB struct {
	conn *leveldb.DB
}

// NewLevelDB opens (or creates) a LevelDB instance at the given path
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{conn: db}, nil
}

// NewMemLevelDB opens a LevelDB instance backed by memory, used by tests.
func NewMemLevelDB() (*LevelDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{conn: db}, nil
}

// Close safely closes the LevelDB connection
func (l *LevelDB) Close() error {
	return l.conn.Close()
}

// Put inserts or updates a key-value pair
func (l *LevelDB) Put(key, value []byte) error {
	return l.conn.Put(key, value, nil)
}

// Get retrieves the value for a given key
func (l *LevelDB) Get(key []byte) ([]byte, error) {
	return l.conn.Get(key, nil)
}

// Has reports whether key exists.
func (l *LevelDB) Has(key []byte) (bool, error) {
	return l.conn.Has(key, nil)
}

// Delete removes key. Deleting a missing key is not an error.
func (l *LevelDB) Delete(key []byte) error {
	return l.conn.Delete(key, nil)
}

// Batch is a set of writes applied atomically by Write.
type Batch struct {
	b leveldb.Batch
}

// Put queues a write.
func (b *Batch) Put(key, value []byte) {
	b.b.Put(key, value)
}

// Delete queues a delete.
func (b *Batch) Delete(key []byte) {
	b.b.Delete(key)
}

// Len returns the number of queued records.
func (b *Batch) Len() int {
	return b.b.Len()
}

// Write applies the batch.
func (l *LevelDB) Write(b *Batch) error {
	return l.conn.Write(&b.b, nil)
}

// NewIterator returns an iterator over the keys that start with prefix, in
// key order. A nil prefix iterates everything.
func (l *LevelDB) NewIterator(prefix []byte) iterator.Iterator {
	if prefix == nil {
		return l.conn.NewIterator(nil, nil)
	}
	return l.conn.NewIterator(util.BytesPrefix(prefix), nil)
}

// NewRangeIterator returns an iterator over keys in [start, limit).
func (l *LevelDB) NewRangeIterator(start, limit []byte) iterator.Iterator {
	return l.conn.NewIterator(&util.Range{Start: start, Limit: limit}, nil)
}
