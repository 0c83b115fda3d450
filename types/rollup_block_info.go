package types

import (
	"math/big"

	"github.com/celer-network/optimistic-rollup/merkle"
)

// RollupBlockInfo wraps a committed block's encoded transitions with the
// transitions-tree root and inclusion proofs needed to answer fraud-proof
// queries against it, without keeping the ephemeral tree itself around.
type RollupBlockInfo struct {
	blockNumber        *big.Int
	encodedTransitions [][]byte
	root               [32]byte
}

func NewRollupBlockInfo(serializer *Serializer, rollupBlock *RollupBlock) (*RollupBlockInfo, error) {
	transitions := rollupBlock.Transitions
	encodedTransitions := make([][]byte, len(transitions))
	for i, transition := range transitions {
		encodedTransition, err := transition.Serialize(serializer)
		if err != nil {
			return nil, err
		}
		encodedTransitions[i] = encodedTransition
	}
	root, err := merkle.TransitionsRoot(encodedTransitions)
	if err != nil {
		return nil, err
	}
	return &RollupBlockInfo{
		blockNumber:        big.NewInt(int64(rollupBlock.BlockNumber)),
		encodedTransitions: encodedTransitions,
		root:               root,
	}, nil
}

func (info *RollupBlockInfo) GetNumTransitions() int {
	return len(info.encodedTransitions)
}

func (info *RollupBlockInfo) Root() [32]byte {
	return info.root
}

func (info *RollupBlockInfo) GetIncludedTransition(transitionIndex int) (*IncludedTransition, error) {
	inclusionProof, err := info.GetTransitionInclusionProof(transitionIndex)
	if err != nil {
		return nil, err
	}
	return &IncludedTransition{
		Transition:     info.encodedTransitions[transitionIndex],
		InclusionProof: inclusionProof,
	}, nil
}

func (info *RollupBlockInfo) GetTransitionInclusionProof(transitionIndex int) (*TransitionInclusionProof, error) {
	siblings, err := merkle.TransitionInclusionProof(info.encodedTransitions, transitionIndex)
	if err != nil {
		return nil, err
	}
	return &TransitionInclusionProof{
		BlockNumber:     info.blockNumber,
		TransitionIndex: big.NewInt(int64(transitionIndex)),
		Siblings:        siblings,
	}, nil
}
