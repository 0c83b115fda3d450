package rollupchain

import (
	"encoding/binary"
	"encoding/json"

	rollupdb "github.com/celer-network/optimistic-rollup/db"
)

// blockRecord is the persisted form of a committed block: a root hash and
// a transition count. A tombstoned (pruned) record has a zero RootHash;
// any inclusion check against it must fail.
type blockRecord struct {
	RootHash  [32]byte
	BlockSize int
}

func (b *blockRecord) isTombstone() bool {
	return b.RootHash == [32]byte{}
}

var lengthKey = []byte("length")

// ledger is the append-only, tombstone-prunable sequence of committed
// blocks, persisted through the same db.DB abstraction the state tree
// uses. Indices are dense and never reused: pruning zeroes entries in
// place rather than shrinking the sequence.
type ledger struct {
	db rollupdb.DB
}

func newLedger(db rollupdb.DB) *ledger {
	return &ledger{db: db}
}

func blockKey(blockNumber uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, blockNumber)
	return key
}

// Length returns the number of block slots ever appended, including
// tombstoned ones. The current block number is Length()-1.
func (l *ledger) Length() (uint64, error) {
	data, exists, err := l.db.Get(rollupdb.NamespaceRollupBlocks, lengthKey)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	return binary.BigEndian.Uint64(data), nil
}

func (l *ledger) setLength(n uint64) error {
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, n)
	return l.db.Set(rollupdb.NamespaceRollupBlocks, lengthKey, data)
}

// Append writes record as the next block and advances Length. Callers
// must have already checked that blockNumber == Length().
func (l *ledger) Append(blockNumber uint64, record *blockRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := l.db.Set(rollupdb.NamespaceRollupBlocks, blockKey(blockNumber), data); err != nil {
		return err
	}
	return l.setLength(blockNumber + 1)
}

// Get returns the record at blockNumber. exists is false if blockNumber
// is beyond Length(); a tombstoned record within range still "exists" —
// callers check isTombstone() to tell the two apart.
func (l *ledger) Get(blockNumber uint64) (*blockRecord, bool, error) {
	data, exists, err := l.db.Get(rollupdb.NamespaceRollupBlocks, blockKey(blockNumber))
	if err != nil || !exists {
		return nil, exists, err
	}
	var record blockRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, false, err
	}
	return &record, true, nil
}

// PruneFrom tombstones every block from n (inclusive) through Length()-1.
// Length is left unchanged: callers that relied on a block number staying
// stable across a prune still get a consistent answer from Length.
func (l *ledger) PruneFrom(n uint64) error {
	length, err := l.Length()
	if err != nil {
		return err
	}
	tombstone, err := json.Marshal(&blockRecord{})
	if err != nil {
		return err
	}
	for i := n; i < length; i++ {
		if err := l.db.Set(rollupdb.NamespaceRollupBlocks, blockKey(i), tombstone); err != nil {
			return err
		}
	}
	return nil
}
