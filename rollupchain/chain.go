// Package rollupchain implements the on-chain settlement core: the
// append-only block ledger, the commit pipeline that accepts an
// operator's batches, and the proveTransitionInvalid fraud-proof
// adjudicator that can prune a block and everything after it.
package rollupchain

import (
	"context"
	"sync"

	rollupdb "github.com/celer-network/optimistic-rollup/db"
	"github.com/celer-network/optimistic-rollup/evaluator"
	"github.com/celer-network/optimistic-rollup/events"
	"github.com/celer-network/optimistic-rollup/log"
	"github.com/celer-network/optimistic-rollup/merkle"
	"github.com/celer-network/optimistic-rollup/types"
	"github.com/celer-network/optimistic-rollup/validator"
	"github.com/ethereum/go-ethereum/common"
)

var logger = log.NewLogger("rollupchain")

// Chain is the settlement core: a block ledger plus the adjudicator that
// can replay a single disputed transition against supplied witnesses.
// Every exported method runs under a single mutex: execution is
// single-threaded and transactional, a call either completes and commits
// its effects, or returns an error having changed nothing.
type Chain struct {
	mu sync.Mutex

	db         rollupdb.DB
	serializer *types.Serializer
	evaluator  *evaluator.Evaluator
	ledger     *ledger
	stateTree  *merkle.StateTree

	registry *validator.Registry
	binding  *validator.Binding

	events *events.Log
}

func NewChain(db rollupdb.DB, serializer *types.Serializer, eval *evaluator.Evaluator) *Chain {
	return &Chain{
		db:         db,
		serializer: serializer,
		evaluator:  eval,
		ledger:     newLedger(db),
		stateTree:  merkle.NewStateTree(db),
		events:     events.NewLog(),
	}
}

// BindValidatorRegistry establishes the one cyclic link between the chain
// and its validator registry: this chain asks the registry for the single
// committer-rotation capability it ever hands out. A second call, or any
// call to CommitBlock before this one succeeds, fails with ErrAlreadyBound
// / ErrNotBound respectively.
func (c *Chain) BindValidatorRegistry(registry *validator.Registry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.registry != nil {
		return ErrAlreadyBound
	}
	binding, err := registry.BindRollupChain()
	if err != nil {
		return err
	}
	c.registry = registry
	c.binding = binding
	return nil
}

// CurrentBlockNumber returns length-1 of the ledger, or nil if no block
// has ever been committed.
func (c *Chain) CurrentBlockNumber() (*uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	length, err := c.ledger.Length()
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, nil
	}
	n := length - 1
	return &n, nil
}

func (c *Chain) Events() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events.Events()
}

func commitMessage(blockNumber uint64, encodedTransitions [][]byte) []byte {
	msg := blockKey(blockNumber)
	for _, t := range encodedTransitions {
		msg = append(msg, t...)
	}
	return msg
}

// CommitBlock runs the commit path: only the current committer may call
// it, block numbers must be dense, and the validator signature threshold
// must be met before the transitions tree root is computed and appended
// to the ledger.
func (c *Chain) CommitBlock(ctx context.Context, committer common.Address, blockNumber uint64, encodedTransitions [][]byte, signatures [][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.registry == nil {
		return ErrNotBound
	}

	currentCommitter, err := c.registry.CurrentCommitter()
	if err != nil {
		return err
	}
	if committer != currentCommitter {
		return ErrWrongCommitter
	}

	length, err := c.ledger.Length()
	if err != nil {
		return err
	}
	if blockNumber != length {
		return ErrWrongBlockNumber
	}

	ok, err := c.registry.CheckSignatures(commitMessage(blockNumber, encodedTransitions), signatures)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSignatureThresholdNotMet
	}

	for _, encoded := range encodedTransitions {
		c.events.Append(Transition{Data: encoded})
	}

	root, err := merkle.TransitionsRoot(encodedTransitions)
	if err != nil {
		return err
	}

	if err := c.ledger.Append(blockNumber, &blockRecord{RootHash: root, BlockSize: len(encodedTransitions)}); err != nil {
		return err
	}
	c.events.Append(RollupBlockCommitted{BlockNumber: blockNumber, Transitions: encodedTransitions})
	logger.Info().Uint64("blockNumber", blockNumber).Int("numTransitions", len(encodedTransitions)).Msg("committed block")

	newCommitter, err := c.binding.PickNextCommitter()
	if err != nil {
		return err
	}
	c.events.Append(CommitterChanged{NewCommitter: newCommitter})
	return nil
}

// ProveResult reports the outcome of a ProveTransitionInvalid call. A
// nil error with Pruned true is the "detected fraud" silent success; a
// nil error with Pruned false cannot happen — every path that reaches a
// verdict either prunes or returns ErrNoFraudDetected.
type ProveResult struct {
	Pruned     bool
	PrunedFrom uint64
}

func (c *Chain) blockOf(blockNumber uint64) (*blockRecord, error) {
	record, exists, err := c.ledger.Get(blockNumber)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrBlockNotFound
	}
	if record.isTombstone() {
		return nil, ErrBlockPruned
	}
	return record, nil
}

// verifySequentialTransitions checks that pre and invalid are each
// genuinely included where they claim, and sit at block-adjacent
// positions.
func (c *Chain) verifySequentialTransitions(pre, invalid *types.IncludedTransition) error {
	preProof := pre.InclusionProof
	invalidProof := invalid.InclusionProof

	preBlock, err := c.blockOf(preProof.BlockNumber.Uint64())
	if err != nil {
		return err
	}
	invalidBlock, err := c.blockOf(invalidProof.BlockNumber.Uint64())
	if err != nil {
		return err
	}

	preIndex := merkle.TransitionIndexFromBigInt(preProof.TransitionIndex)
	invalidIndex := merkle.TransitionIndexFromBigInt(invalidProof.TransitionIndex)

	if !merkle.VerifyTransition(preBlock.RootHash, preIndex, preBlock.BlockSize, pre.Transition, preProof.Siblings) {
		return ErrNotSequential
	}
	if !merkle.VerifyTransition(invalidBlock.RootHash, invalidIndex, invalidBlock.BlockSize, invalid.Transition, invalidProof.Siblings) {
		return ErrNotSequential
	}

	sameBlockAdjacent := preProof.BlockNumber.Cmp(invalidProof.BlockNumber) == 0 && invalidIndex == preIndex+1
	crossBlockAdjacent := invalidProof.BlockNumber.Uint64() == preProof.BlockNumber.Uint64()+1 &&
		preIndex == preBlock.BlockSize-1 && invalidIndex == 0
	if !sameBlockAdjacent && !crossBlockAdjacent {
		return ErrNotSequential
	}
	return nil
}

// ProveTransitionInvalid runs the seven-step fraud adjudicator.
func (c *Chain) ProveTransitionInvalid(ctx context.Context, pre, invalid *types.IncludedTransition, slots []*types.IncludedStorageSlot) (*ProveResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// Step 1: sequentiality.
	if err := c.verifySequentialTransitions(pre, invalid); err != nil {
		return nil, err
	}

	// Step 2: decode both sides. A pre-transition that fails to decode
	// means the challenger picked the wrong anchor — challenge it
	// directly instead of using it as a pre-state witness.
	preTransition, err := c.evaluator.Decode(pre.Transition)
	if err != nil {
		return nil, ErrPreTransitionUndecodable
	}
	invalidTransition, err := c.evaluator.Decode(invalid.Transition)
	if err != nil {
		return c.pruneFrom(invalid.InclusionProof.BlockNumber.Uint64())
	}

	// Step 3: access-list check.
	accessList, err := c.evaluator.AccessList(invalidTransition)
	if err != nil {
		return c.pruneFrom(invalid.InclusionProof.BlockNumber.Uint64())
	}
	if len(slots) != len(accessList) {
		return nil, ErrAccessListMismatch
	}
	for i, entry := range accessList {
		if slots[i].StorageSlot.SlotIndex.Cmp(entry.SlotIndex) != 0 {
			return nil, ErrAccessListMismatch
		}
	}

	// Step 4: storage inclusion against the pre-state root.
	preStateRoot := preTransition.GetStateRoot()
	if err := c.stateTree.SetRootAndHeight(preStateRoot[:], merkle.StateTreeHeight); err != nil {
		return nil, err
	}
	inputs := make([]*types.AccountInfo, len(slots))
	for i, slot := range slots {
		leaf, err := encodeAccountInfoLeaf(c.serializer, slot.StorageSlot.AccountInfo)
		if err != nil {
			return nil, err
		}
		ok, err := c.stateTree.VerifyAndStore(slot.StorageSlot.SlotIndex, leaf, slot.Siblings)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrBadStorageWitness
		}
		inputs[i] = slot.StorageSlot.AccountInfo
	}

	// Step 5: evaluate. A semantic rule violation is fraud.
	outputs, err := c.evaluator.EvaluateTransition(invalidTransition, inputs)
	if err != nil {
		c.events.Append(DecodedTransition{Success: false})
		return c.pruneFrom(invalid.InclusionProof.BlockNumber.Uint64())
	}

	// Step 6: apply outputs.
	var newRoot []byte
	for i, output := range outputs {
		leaf, err := encodeAccountInfoLeaf(c.serializer, output)
		if err != nil {
			return nil, err
		}
		newRoot, err = c.stateTree.UpdateLeaf(slots[i].StorageSlot.SlotIndex, leaf)
		if err != nil {
			return nil, err
		}
	}

	// Step 7: compare roots.
	claimedRoot := invalidTransition.GetStateRoot()
	var gotRoot [32]byte
	copy(gotRoot[:], newRoot)
	if gotRoot != claimedRoot {
		c.events.Append(DecodedTransition{Success: true})
		return c.pruneFrom(invalid.InclusionProof.BlockNumber.Uint64())
	}
	return nil, ErrNoFraudDetected
}

func (c *Chain) pruneFrom(blockNumber uint64) (*ProveResult, error) {
	if err := c.ledger.PruneFrom(blockNumber); err != nil {
		return nil, err
	}
	logger.Warn().Uint64("fromBlock", blockNumber).Msg("pruned blocks after detecting fraud")
	return &ProveResult{Pruned: true, PrunedFrom: blockNumber}, nil
}

// encodeAccountInfoLeaf produces the canonical AccountInfo leaf encoding:
// the 32-byte zero word for an uninhabited slot, or the ABI tuple encoding
// otherwise. Witnesses and evaluator outputs must use this exact function
// so leaves hash identically everywhere they're referenced.
func encodeAccountInfoLeaf(s *types.Serializer, info *types.AccountInfo) ([]byte, error) {
	if info.IsEmpty() {
		return types.EmptyAccountInfoSlot, nil
	}
	return info.Serialize(s)
}
