package common

//----------------------------------------------------------------------------
// generic abstraction interfaces of key/value storage

// KVReader is a key/value reader
type KVReader interface {
	// Get retrieves value by key. Returned nil means absence of the key
	Get(key []byte) []byte
	// Has checks presence of the key in the key/value store
	Has(key []byte) bool // for performance
}

// KVWriter is a key/value writer
type KVWriter interface {
	// Set writes new or updates existing key with the value.
	// value == nil means deletion of the key from the store
	Set(key, value []byte)
}

// KVIterator is an interface to iterate through a set of key/value pairs.
// Order of iteration is NON-DETERMINISTIC in general
type KVIterator interface {
	Iterate(func(k, v []byte) bool)
}

// KVStore is a compound interface
type KVStore interface {
	KVReader
	KVWriter
	KVIterator
}

// KVBatchedWriter collects mutations via Set-s and flushes them atomically with Commit
type KVBatchedWriter interface {
	KVWriter
	Commit() error
}

// CopyAll flushes KVIterator to KVWriter
func CopyAll(dst KVWriter, src KVIterator) {
	src.Iterate(func(k, v []byte) bool {
		dst.Set(k, v)
		return true
	})
}

type readerPartition struct {
	prefix byte
	r      KVReader
}

func (p *readerPartition) Get(key []byte) []byte {
	return p.r.Get(Concat(p.prefix, key))
}

func (p *readerPartition) Has(key []byte) bool {
	return p.r.Has(Concat(p.prefix, key))
}

// MakeReaderPartition returns a reader of the sub-store under the prefix
func MakeReaderPartition(r KVReader, prefix byte) KVReader {
	return &readerPartition{
		prefix: prefix,
		r:      r,
	}
}

type writerPartition struct {
	prefix byte
	w      KVWriter
}

func (w *writerPartition) Set(key, value []byte) {
	w.w.Set(Concat(w.prefix, key), value)
}

// MakeWriterPartition returns a writer into the sub-store under the prefix
func MakeWriterPartition(w KVWriter, prefix byte) KVWriter {
	return &writerPartition{
		prefix: prefix,
		w:      w,
	}
}

type iteratorPartition struct {
	prefix byte
	it     KVIterator
}

func (p *iteratorPartition) Iterate(fun func(k, v []byte) bool) {
	p.it.Iterate(func(k, v []byte) bool {
		if len(k) == 0 || k[0] != p.prefix {
			return true
		}
		return fun(k[1:], v)
	})
}

// MakeIteratorPartition iterates only the key/value pairs under the prefix,
// with the prefix stripped from the keys
func MakeIteratorPartition(it KVIterator, prefix byte) KVIterator {
	return &iteratorPartition{
		prefix: prefix,
		it:     it,
	}
}

//----------------------------------------------------------------------------
// simple in-memory KVStore, mostly for tests and examples

type inMemoryKVStore map[string][]byte

// NewInMemoryKVStore creates a new in-memory map-backed KVStore
func NewInMemoryKVStore() KVStore {
	return make(inMemoryKVStore)
}

func (im inMemoryKVStore) Get(k []byte) []byte {
	return im[string(k)]
}

func (im inMemoryKVStore) Has(k []byte) bool {
	_, ok := im[string(k)]
	return ok
}

func (im inMemoryKVStore) Iterate(f func(k []byte, v []byte) bool) {
	for k, v := range im {
		if !f([]byte(k), v) {
			return
		}
	}
}

func (im inMemoryKVStore) Set(k, v []byte) {
	if len(v) != 0 {
		im[string(k)] = v
	} else {
		delete(im, string(k))
	}
}
