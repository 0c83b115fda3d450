package badgerdb

import (
	"time"

	"github.com/celer-network/optimistic-rollup/db"
	"github.com/dgraph-io/badger/v2"
)

type Transaction struct {
	db      *DB
	tx      *badger.Txn
	createT time.Time
}

func (transaction *Transaction) Set(namespace []byte, key []byte, value []byte) error {
	key = db.PrependNamespace(namespace, key)
	key = db.ConvNilToBytes(key)
	value = db.ConvNilToBytes(value)

	return transaction.tx.Set(key, value)
}

func (transaction *Transaction) Delete(namespace []byte, key []byte) error {
	key = db.PrependNamespace(namespace, key)
	key = db.ConvNilToBytes(key)

	return transaction.tx.Delete(key)
}

func (transaction *Transaction) Commit() error {
	return transaction.tx.Commit()
}

func (transaction *Transaction) Discard() {
	transaction.tx.Discard()
}
