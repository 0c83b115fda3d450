package merkle

import (
	"encoding/binary"
	"math/big"

	rollupdb "github.com/celer-network/optimistic-rollup/db"
	"github.com/celer-network/optimistic-rollup/db/memorydb"
	"golang.org/x/crypto/sha3"
)

// transitionsTreeHeight returns the height (levels including leaves) of
// the smallest tree that can hold numLeaves leaves, with a minimum of one
// level above the leaves so single-transition blocks still produce a
// defined sibling path.
func transitionsTreeHeight(numLeaves int) int {
	if numLeaves <= 1 {
		return 2
	}
	bits := 0
	for (1 << bits) < numLeaves {
		bits++
	}
	return bits + 1
}

func leafKey(index int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(index))
	return b
}

// TransitionsRoot builds the ephemeral per-block transitions tree over the
// block's encoded transitions and returns its root. The tree's backing
// store is torn down once this call returns: only the root is retained by
// a committed block.
func TransitionsRoot(encodedTransitions [][]byte) ([32]byte, error) {
	var root [32]byte
	height := transitionsTreeHeight(len(encodedTransitions))
	t, err := newTree(memorydb.NewDB(), rollupdb.NamespaceTransitionsTree, sha3.NewLegacyKeccak256(), nil, height)
	if err != nil {
		return root, err
	}
	for i, encoded := range encodedTransitions {
		if _, err := t.Update(leafKey(i), encoded); err != nil {
			return root, err
		}
	}
	copy(root[:], t.Root())
	return root, nil
}

// TransitionInclusionProof returns the sibling path (leaf-to-root order)
// proving that encodedTransitions[transitionIndex] sits at that index in
// the tree rooted at TransitionsRoot(encodedTransitions).
func TransitionInclusionProof(encodedTransitions [][]byte, transitionIndex int) ([][32]byte, error) {
	height := transitionsTreeHeight(len(encodedTransitions))
	t, err := newTree(memorydb.NewDB(), rollupdb.NamespaceTransitionsTree, sha3.NewLegacyKeccak256(), nil, height)
	if err != nil {
		return nil, err
	}
	for i, encoded := range encodedTransitions {
		if _, err := t.Update(leafKey(i), encoded); err != nil {
			return nil, err
		}
	}
	proof, err := t.Prove(leafKey(transitionIndex))
	if err != nil {
		return nil, err
	}
	out := make([][32]byte, len(proof))
	for i, p := range proof {
		copy(out[i][:], p)
	}
	return out, nil
}

// VerifyTransition checks that leaf sits at transitionIndex (out of
// numTransitions total) under root, given its sibling path.
func VerifyTransition(root [32]byte, transitionIndex int, numTransitions int, leaf []byte, siblings [][32]byte) bool {
	height := transitionsTreeHeight(numTransitions)
	proof := make([][]byte, len(siblings))
	for i, s := range siblings {
		sib := s
		proof[i] = sib[:]
	}
	return verifyProof(proof, root[:], leafKey(transitionIndex), leaf, sha3.NewLegacyKeccak256(), height)
}

// TransitionIndexFromBigInt converts the *big.Int transition index carried
// by the wire-format TransitionInclusionProof to the int this package's
// functions take.
func TransitionIndexFromBigInt(i *big.Int) int {
	return int(i.Int64())
}
