// Package hive_adaptor contains adaptor interfaces between the key/value
// abstractions of the mtbdd library and the key/value store implementations
// of the `hive.go` repository, plus batched persistence of whole diagrams.
package hive_adaptor

import (
	"errors"

	"github.com/fsmkit/mtbdd.go/common"
	"github.com/fsmkit/mtbdd.go/mtbdd"
	"github.com/iotaledger/hive.go/core/kvstore"
)

// HiveKVStoreAdaptor maps a partition of the Hive KVStore to common.KVStore
type HiveKVStoreAdaptor struct {
	kvs    kvstore.KVStore
	prefix []byte
}

// NewHiveKVStoreAdaptor creates a new KVStore as a partition of hive.go KVStore
func NewHiveKVStoreAdaptor(kvs kvstore.KVStore, prefix []byte) *HiveKVStoreAdaptor {
	return &HiveKVStoreAdaptor{kvs: kvs, prefix: prefix}
}

func mustNoErr(err error) {
	if err != nil {
		panic(err)
	}
}

func makeKey(prefix, k []byte) []byte {
	if len(prefix) == 0 {
		return k
	}
	return common.Concat(prefix, k)
}

func (kvs *HiveKVStoreAdaptor) Get(key []byte) []byte {
	v, err := kvs.kvs.Get(makeKey(kvs.prefix, key))
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil
	}
	mustNoErr(err)
	return v
}

func (kvs *HiveKVStoreAdaptor) Has(key []byte) bool {
	v, err := kvs.kvs.Has(makeKey(kvs.prefix, key))
	mustNoErr(err)
	return v
}

func (kvs *HiveKVStoreAdaptor) Set(key, value []byte) {
	var err error
	if len(value) == 0 {
		err = kvs.kvs.Delete(makeKey(kvs.prefix, key))
	} else {
		err = kvs.kvs.Set(makeKey(kvs.prefix, key), value)
	}
	mustNoErr(err)
}

func (kvs *HiveKVStoreAdaptor) Iterate(fun func(k []byte, v []byte) bool) {
	err := kvs.kvs.Iterate(kvs.prefix, func(key kvstore.Key, value kvstore.Value) bool {
		return fun(key[len(kvs.prefix):], value)
	})
	mustNoErr(err)
}

// batchWriter implements common.KVWriter over the hive.go batch
type batchWriter struct {
	prefix []byte
	batch  kvstore.BatchedMutations
}

func newBatchWriter(b kvstore.BatchedMutations, prefix []byte) batchWriter {
	return batchWriter{
		prefix: prefix,
		batch:  b,
	}
}

func (b batchWriter) Set(key, value []byte) {
	var err error
	if len(value) > 0 {
		err = b.batch.Set(makeKey(b.prefix, key), value)
	} else {
		err = b.batch.Delete(makeKey(b.prefix, key))
	}
	mustNoErr(err)
}

// SaveDiagram persists the diagram under the prefix as one atomic batch
func SaveDiagram(kvs kvstore.KVStore, prefix []byte, d *mtbdd.MTBDD) error {
	batch, err := kvs.Batched()
	if err != nil {
		return err
	}
	d.WriteTo(newBatchWriter(batch, prefix))
	return batch.Commit()
}

// LoadDiagram reconstructs a diagram persisted under the prefix with SaveDiagram
func LoadDiagram(kvs kvstore.KVStore, prefix []byte) (*mtbdd.MTBDD, error) {
	return mtbdd.ReadDiagram(NewHiveKVStoreAdaptor(kvs, prefix))
}
