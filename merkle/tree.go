// Package merkle implements the two Merkle structures the settlement core
// relies on: a stateful, DB-backed sparse Merkle tree used for account
// state, and a stateless tree used to bind a block's transitions to a
// single root.
package merkle

import (
	"errors"
	"hash"

	rollupdb "github.com/celer-network/optimistic-rollup/db"
)

var initMarker = []byte("init")

// defaultNodes returns, for every level of a full binary tree, the hash of
// an all-empty subtree rooted at that level. Index hasher.Size()*8 is the
// canonical all-zero leaf value itself, the index below it is that leaf's
// hash (the same digest updateWithSideNodes gives any leaf value), and
// every lower index hashes two copies of the node above it; index 0 is
// the root level.
func defaultNodes(hasher hash.Hash) [][]byte {
	size := hasher.Size()
	bits := size * 8
	nodes := make([][]byte, bits+1)
	nodes[bits] = make([]byte, size)
	hasher.Reset()
	hasher.Write(nodes[bits])
	nodes[bits-1] = hasher.Sum(nil)
	for i := bits - 2; i >= 0; i-- {
		hasher.Reset()
		hasher.Write(nodes[i+1])
		hasher.Write(nodes[i+1])
		nodes[i] = hasher.Sum(nil)
	}
	hasher.Reset()
	return nodes
}

// tree is a DB-backed sparse Merkle tree keyed by a fixed-width, unhashed
// path (callers pad their own integer indices). height counts levels
// including the leaf level, so a tree of height h addresses 2^(h-1) leaves.
type tree struct {
	hasher    hash.Hash
	db        rollupdb.DB
	namespace []byte
	root      []byte
	height    int
}

func newTree(db rollupdb.DB, namespace []byte, hasher hash.Hash, root []byte, height int) (*tree, error) {
	t := tree{
		hasher:    hasher,
		db:        db,
		namespace: namespace,
		height:    height,
	}

	hasherSizeBits := hasher.Size() * 8
	_, exists, err := db.Get(namespace, initMarker)
	if err != nil {
		return nil, err
	}
	if !exists {
		bulk := db.NewBulk()
		for i := hasherSizeBits - height; i < hasherSizeBits-1; i++ {
			if err := bulk.Set(namespace, t.defaultNode(i), append(append([]byte{}, t.defaultNode(i+1)...), t.defaultNode(i+1)...)); err != nil {
				return nil, err
			}
		}
		if err := bulk.Set(namespace, t.defaultNode(hasherSizeBits-1), make([]byte, t.keySize())); err != nil {
			return nil, err
		}
		if err := bulk.Set(namespace, initMarker, []byte{}); err != nil {
			return nil, err
		}
		if err := bulk.Flush(); err != nil {
			return nil, err
		}
	}

	if root != nil {
		t.SetRoot(root)
	} else {
		t.SetRoot(t.defaultNode(hasherSizeBits - height))
	}

	return &t, nil
}

func (t *tree) Root() []byte {
	return t.root
}

func (t *tree) SetRoot(root []byte) {
	t.root = root
}

func (t *tree) keySize() int {
	return t.hasher.Size()
}

func (t *tree) defaultNode(height int) []byte {
	return defaultNodes(t.hasher)[height]
}

func (t *tree) digest(data []byte) []byte {
	t.hasher.Reset()
	t.hasher.Write(data)
	sum := t.hasher.Sum(nil)
	t.hasher.Reset()
	return sum
}

func (t *tree) padKey(key []byte) ([]byte, error) {
	keyLength := len(key)
	requiredKeyLength := t.hasher.Size()
	if keyLength > requiredKeyLength {
		return nil, errors.New("merkle: key too long")
	}
	padded := make([]byte, requiredKeyLength)
	copy(padded[requiredKeyLength-keyLength:], key)
	return padded, nil
}

func (t *tree) Get(key []byte) ([]byte, error) {
	return t.GetForRoot(key, t.Root())
}

func (t *tree) GetForRoot(key []byte, root []byte) ([]byte, error) {
	path, err := t.padKey(key)
	if err != nil {
		return nil, err
	}
	currentHash := root
	for i := 0; i < t.height-1; i++ {
		currentValue, exists, err := t.db.Get(t.namespace, currentHash)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, errors.New("merkle: corrupt tree, missing node")
		}
		if !isLeft(path, i, t.height) {
			currentHash = currentValue[t.keySize():]
		} else {
			currentHash = currentValue[:t.keySize()]
		}
	}

	value, exists, err := t.db.Get(t.namespace, currentHash)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.New("merkle: corrupt tree, missing leaf")
	}
	return value, nil
}

func (t *tree) Update(key []byte, value []byte) ([]byte, error) {
	newRoot, err := t.UpdateForRoot(key, value, t.Root())
	if err == nil {
		t.SetRoot(newRoot)
	}
	return newRoot, err
}

func (t *tree) UpdateForRoot(key []byte, value []byte, root []byte) ([]byte, error) {
	path, err := t.padKey(key)
	if err != nil {
		return nil, err
	}
	sideNodes, err := t.sideNodesForRoot(path, root)
	if err != nil {
		return nil, err
	}
	return t.updateWithSideNodes(path, value, sideNodes)
}

func (t *tree) updateWithSideNodes(path []byte, value []byte, sideNodes [][]byte) ([]byte, error) {
	bulk := t.db.NewBulk()
	currentHash := t.digest(value)
	if err := bulk.Set(t.namespace, currentHash, value); err != nil {
		return nil, err
	}
	currentValue := currentHash

	for i := t.height - 2; i >= 0; i-- {
		sideNode := make([]byte, t.keySize())
		copy(sideNode, sideNodes[i])
		if !isLeft(path, i, t.height) {
			currentValue = append(append([]byte{}, sideNode...), currentValue...)
		} else {
			currentValue = append(append([]byte{}, currentValue...), sideNode...)
		}
		currentHash = t.digest(currentValue)
		if err := bulk.Set(t.namespace, currentHash, currentValue); err != nil {
			return nil, err
		}
		currentValue = currentHash
	}
	if err := bulk.Flush(); err != nil {
		return nil, err
	}
	return currentHash, nil
}

func (t *tree) sideNodesForRoot(path []byte, root []byte) ([][]byte, error) {
	currentValue, exists, err := t.db.Get(t.namespace, root)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.New("merkle: corrupt tree, missing root node")
	}

	sideNodes := make([][]byte, t.height-1)
	for i := 0; i < t.height-1; i++ {
		if !isLeft(path, i, t.height) {
			sideNodes[i] = currentValue[:t.keySize()]
			currentValue, exists, err = t.db.Get(t.namespace, currentValue[t.keySize():])
		} else {
			sideNodes[i] = currentValue[t.keySize():]
			currentValue, exists, err = t.db.Get(t.namespace, currentValue[:t.keySize()])
		}
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, errors.New("merkle: corrupt tree, missing node")
		}
	}
	return sideNodes, nil
}

func (t *tree) Prove(key []byte) ([][]byte, error) {
	return t.ProveForRoot(key, t.Root())
}

func (t *tree) ProveForRoot(key []byte, root []byte) ([][]byte, error) {
	path, err := t.padKey(key)
	if err != nil {
		return nil, err
	}
	sideNodes, err := t.sideNodesForRoot(path, root)
	if err != nil {
		return nil, err
	}
	return reverseProof(sideNodes), nil
}

func reverseProof(proof [][]byte) [][]byte {
	for i := len(proof)/2 - 1; i >= 0; i-- {
		opp := len(proof) - 1 - i
		proof[i], proof[opp] = proof[opp], proof[i]
	}
	return proof
}

// verifyProof checks a reversed (contract-ordered) sibling path against
// root for the leaf at key holding value.
func verifyProof(proof [][]byte, root []byte, key []byte, value []byte, hasher hash.Hash, height int) bool {
	padded := make([]byte, hasher.Size())
	copy(padded[hasher.Size()-len(key):], key)

	hasher.Reset()
	hasher.Write(value)
	currentHash := hasher.Sum(nil)
	hasher.Reset()

	if len(proof) != height-1 {
		return false
	}

	for i := height - 2; i >= 0; i-- {
		node := make([]byte, hasher.Size())
		copy(node, proof[height-2-i])
		if !isLeft(padded, i, height) {
			hasher.Write(node)
			hasher.Write(currentHash)
		} else {
			hasher.Write(currentHash)
			hasher.Write(node)
		}
		currentHash = hasher.Sum(nil)
		hasher.Reset()
	}

	if len(currentHash) != len(root) {
		return false
	}
	for i := range currentHash {
		if currentHash[i] != root[i] {
			return false
		}
	}
	return true
}
