// Package tokenregistry allocates small dense integer indices for the
// ERC-20 token addresses the rollup tracks, so transitions can reference a
// token by a uint256 index instead of repeating a 20-byte address in every
// leaf.
package tokenregistry

import (
	"encoding/binary"
	"errors"
	"math/big"
	"sync"

	rollupdb "github.com/celer-network/optimistic-rollup/db"
	"github.com/celer-network/optimistic-rollup/events"
	"github.com/ethereum/go-ethereum/common"
)

var ErrAlreadyRegistered = errors.New("tokenregistry: token already registered")
var ErrNotRegistered = errors.New("tokenregistry: token not registered")

// Registry maps token addresses to indices and back. Index 0 is
// deliberately ambiguous: it is both the sentinel this package's Index
// method returns for an unregistered token and a valid index for whichever
// token happens to register first. Callers that need to tell those two
// cases apart must use IsRegistered, not compare Index's result to zero.
type Registry struct {
	mu  sync.Mutex
	db  rollupdb.DB
	log *events.Log
}

// NewRegistry creates a Registry backed by db. log may be nil if the
// caller doesn't care to observe TokenRegistered events; when non-nil, it
// should be the same Log the rest of the deployment's components append
// to, since spec's event stream is one shared log across every on-chain
// collaborator.
func NewRegistry(db rollupdb.DB, log *events.Log) *Registry {
	return &Registry{db: db, log: log}
}

// RegisterToken assigns the next free index to token and returns it. It
// fails if token is already registered.
func (r *Registry) RegisterToken(token common.Address) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists, err := r.db.Get(rollupdb.NamespaceTokenAddressToIndex, token.Bytes()); err != nil {
		return 0, err
	} else if exists {
		return 0, ErrAlreadyRegistered
	}

	index, err := r.nextIndex()
	if err != nil {
		return 0, err
	}

	bulk := r.db.NewBulk()
	indexBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(indexBytes, index)
	if err := bulk.Set(rollupdb.NamespaceTokenAddressToIndex, token.Bytes(), indexBytes); err != nil {
		return 0, err
	}
	if err := bulk.Set(rollupdb.NamespaceTokenIndexToAddress, indexBytes, token.Bytes()); err != nil {
		return 0, err
	}
	if err := bulk.Flush(); err != nil {
		return 0, err
	}
	r.log.Append(events.TokenRegistered{TokenAddress: token, TokenIndex: index})
	return index, nil
}

// Index returns token's registered index, or 0 if it is unregistered.
// Because 0 is also a legitimate index, this alone cannot distinguish
// "unregistered" from "registered at index 0" — use IsRegistered for that.
func (r *Registry) Index(token common.Address) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, exists, err := r.db.Get(rollupdb.NamespaceTokenAddressToIndex, token.Bytes())
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	return binary.BigEndian.Uint64(data), nil
}

// IsRegistered reports whether token has been registered at all,
// disambiguating the index-zero collision Index cannot resolve alone.
func (r *Registry) IsRegistered(token common.Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists, err := r.db.Get(rollupdb.NamespaceTokenAddressToIndex, token.Bytes())
	return exists, err
}

// TokenAddress returns the address registered at index, or
// ErrNotRegistered if nothing has ever been registered there.
func (r *Registry) TokenAddress(index uint64) (common.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	indexBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(indexBytes, index)
	data, exists, err := r.db.Get(rollupdb.NamespaceTokenIndexToAddress, indexBytes)
	if err != nil {
		return common.Address{}, err
	}
	if !exists {
		return common.Address{}, ErrNotRegistered
	}
	return common.BytesToAddress(data), nil
}

var lastIndexKey = []byte("last")

func (r *Registry) nextIndex() (uint64, error) {
	data, exists, err := r.db.Get(rollupdb.NamespaceTokenIndexToAddress, lastIndexKey)
	if err != nil {
		return 0, err
	}
	var next uint64
	if exists {
		next = new(big.Int).SetBytes(data).Uint64() + 1
	}
	nextBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(nextBytes, next)
	if err := r.db.Set(rollupdb.NamespaceTokenIndexToAddress, lastIndexKey, nextBytes); err != nil {
		return 0, err
	}
	return next, nil
}
