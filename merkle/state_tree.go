package merkle

import (
	"math/big"

	rollupdb "github.com/celer-network/optimistic-rollup/db"
	"github.com/ethereum/go-ethereum/common/math"
	"golang.org/x/crypto/sha3"
)

// StateTree is the sparse Merkle tree of account slots, addressed over
// the full 32-bit slot-index domain.
// It is stateful: VerifyAndStore checks a claimed slot against the
// current root and, on success, imports the verified path into the
// tree's backing store, so a later UpdateLeaf — at this slot or any
// other previously-verified slot, even one sharing ancestors with a slot
// updated in between — can recompute the root straight from the store
// without the caller re-supplying any sibling path.
type StateTree struct {
	db rollupdb.DB
	t  *tree
}

// StateTreeHeight is the number of levels (including the leaf level) in
// the account state tree. tree's walk only ever consults bits
// [0, height-2] of the padded key, so addressing the full spec'd
// [0, 2^32) slot-index domain without the top and bottom halves of that
// range aliasing to the same leaf requires one more level than the 32
// significant bits alone would suggest.
const StateTreeHeight = 33

// NewStateTree creates a state tree backed by db, with no root set yet.
// Callers must call SetRootAndHeight before using it.
func NewStateTree(db rollupdb.DB) *StateTree {
	return &StateTree{db: db}
}

// SetRootAndHeight resets the tree to root at the given height. A fraud
// proof's adjudicator calls this once per challenge, anchored to the
// disputed transition's claimed pre-state root.
func (st *StateTree) SetRootAndHeight(root []byte, height int) error {
	t, err := newTree(st.db, rollupdb.NamespaceStateTree, sha3.NewLegacyKeccak256(), root, height)
	if err != nil {
		return err
	}
	st.t = t
	return nil
}

func (st *StateTree) Root() []byte {
	return st.t.Root()
}

// VerifyAndStore checks that leaf occupies slotIndex under the tree's
// current root given the supplied sibling path (in the order a proof
// Verify expects: leaf's immediate sibling first, root's last). On
// success it replays the path through the same node-writing logic a real
// update uses, without changing the root: this imports every node along
// slotIndex's path into the tree's backing store, which is what lets a
// subsequent UpdateLeaf for a different, overlapping slot find the
// correct, up-to-date siblings instead of the ones this call verified
// against.
func (st *StateTree) VerifyAndStore(slotIndex *big.Int, leaf []byte, siblings [][32]byte) (bool, error) {
	key := math.PaddedBigBytes(slotIndex, st.t.keySize())
	proof := make([][]byte, len(siblings))
	for i, s := range siblings {
		sib := s
		proof[i] = sib[:]
	}
	if !verifyProof(proof, st.t.Root(), key, leaf, sha3.NewLegacyKeccak256(), st.t.height) {
		return false, nil
	}
	sideNodes := make([][]byte, len(proof))
	copy(sideNodes, proof)
	reverseProof(sideNodes)
	if _, err := st.t.updateWithSideNodes(key, leaf, sideNodes); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateLeaf writes newLeaf at slotIndex and returns the new root. The
// slot, and every other slot sharing ancestors with it that the caller
// intends to also update in this session, must already have been
// verified in this tree via VerifyAndStore.
func (st *StateTree) UpdateLeaf(slotIndex *big.Int, newLeaf []byte) ([]byte, error) {
	key := math.PaddedBigBytes(slotIndex, st.t.keySize())
	return st.t.Update(key, newLeaf)
}

// ProveStateSlot builds the sibling path proving slotIndex's current leaf
// under root, reading the same DB-backed tree a StateTree over db would
// use. This is the witness-construction half of the state tree contract:
// an off-chain party (an operator building a block, or a challenger
// assembling a fraud proof) holds its own copy of the tree and uses this
// to produce the siblings VerifyAndStore expects; the on-chain side never
// calls it.
func ProveStateSlot(db rollupdb.DB, root []byte, slotIndex *big.Int) ([][32]byte, error) {
	t, err := newTree(db, rollupdb.NamespaceStateTree, sha3.NewLegacyKeccak256(), root, StateTreeHeight)
	if err != nil {
		return nil, err
	}
	key := math.PaddedBigBytes(slotIndex, t.keySize())
	proof, err := t.ProveForRoot(key, root)
	if err != nil {
		return nil, err
	}
	out := make([][32]byte, len(proof))
	for i, p := range proof {
		copy(out[i][:], p)
	}
	return out, nil
}
