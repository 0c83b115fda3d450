package rollupchain

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/celer-network/optimistic-rollup/db/memorydb"
	"github.com/celer-network/optimistic-rollup/evaluator"
	"github.com/celer-network/optimistic-rollup/merkle"
	"github.com/celer-network/optimistic-rollup/sig"
	"github.com/celer-network/optimistic-rollup/types"
	"github.com/celer-network/optimistic-rollup/validator"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func mustKeys(t *testing.T, n int) []*ecdsa.PrivateKey {
	keys := make([]*ecdsa.PrivateKey, n)
	for i := range keys {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		keys[i] = key
	}
	return keys
}

func addresses(keys []*ecdsa.PrivateKey) []common.Address {
	addrs := make([]common.Address, len(keys))
	for i, key := range keys {
		addrs[i] = crypto.PubkeyToAddress(key.PublicKey)
	}
	return addrs
}

func signAll(t *testing.T, keys []*ecdsa.PrivateKey, msg []byte) [][]byte {
	sigs := make([][]byte, len(keys))
	for i, key := range keys {
		s, err := sig.SignData(key, msg)
		require.NoError(t, err)
		sigs[i] = s
	}
	return sigs
}

type testChain struct {
	chain        *Chain
	registry     *validator.Registry
	serializer   *types.Serializer
	keys         []*ecdsa.PrivateKey
	validators   []common.Address
	contractAddr common.Address
}

func newTestChain(t *testing.T) *testChain {
	serializer, err := types.NewSerializer()
	require.NoError(t, err)
	contractAddr := common.HexToAddress("0xcccc")
	eval := evaluator.NewEvaluator(serializer, contractAddr)
	chain := NewChain(memorydb.NewDB(), serializer, eval)

	registry, err := validator.NewRegistry(validator.ModeFixed)
	require.NoError(t, err)
	keys := mustKeys(t, 3)
	validators := addresses(keys)
	require.NoError(t, registry.SetValidators(validators))
	require.NoError(t, chain.BindValidatorRegistry(registry))

	return &testChain{chain: chain, registry: registry, serializer: serializer, keys: keys, validators: validators, contractAddr: contractAddr}
}

func (tc *testChain) commit(t *testing.T, blockNumber uint64, encoded [][]byte) error {
	committer, err := tc.registry.CurrentCommitter()
	require.NoError(t, err)
	msg := commitMessage(blockNumber, encoded)
	return tc.chain.CommitBlock(context.Background(), committer, blockNumber, encoded, signAll(t, tc.keys, msg))
}

func TestHappyCommitRotatesCommitter(t *testing.T) {
	tc := newTestChain(t)
	t0 := &types.CreateAndDepositTransition{
		TransitionType:   big.NewInt(int64(types.TransitionTypeCreateAndDeposit)),
		AccountSlotIndex: big.NewInt(0),
		Account:          common.HexToAddress("0xaaaa"),
		TokenIndex:       big.NewInt(0),
		Amount:           big.NewInt(100),
		Signature:        []byte{},
	}
	encoded, err := t0.Serialize(tc.serializer)
	require.NoError(t, err)

	require.NoError(t, tc.commit(t, 0, [][]byte{encoded}))

	n, err := tc.chain.CurrentBlockNumber()
	require.NoError(t, err)
	require.NotNil(t, n)
	require.Equal(t, uint64(0), *n)

	committer, err := tc.registry.CurrentCommitter()
	require.NoError(t, err)
	require.Equal(t, tc.validators[1], committer)
}

func TestWrongBlockNumberRejected(t *testing.T) {
	tc := newTestChain(t)
	t0 := &types.CreateAndDepositTransition{
		TransitionType:   big.NewInt(int64(types.TransitionTypeCreateAndDeposit)),
		AccountSlotIndex: big.NewInt(0),
		Amount:           big.NewInt(1),
		TokenIndex:       big.NewInt(0),
		Signature:        []byte{},
	}
	encoded, err := t0.Serialize(tc.serializer)
	require.NoError(t, err)
	require.NoError(t, tc.commit(t, 0, [][]byte{encoded}))

	err = tc.commit(t, 0, [][]byte{encoded})
	require.ErrorIs(t, err, ErrWrongBlockNumber)
}

func TestNonCommitterRejected(t *testing.T) {
	tc := newTestChain(t)
	t0 := &types.CreateAndDepositTransition{
		TransitionType:   big.NewInt(int64(types.TransitionTypeCreateAndDeposit)),
		AccountSlotIndex: big.NewInt(0),
		Amount:           big.NewInt(1),
		TokenIndex:       big.NewInt(0),
		Signature:        []byte{},
	}
	encoded, err := t0.Serialize(tc.serializer)
	require.NoError(t, err)
	require.NoError(t, tc.commit(t, 0, [][]byte{encoded}))

	// The committer rotated away from validators[0] after block 0.
	msg := commitMessage(1, [][]byte{encoded})
	err = tc.chain.CommitBlock(context.Background(), tc.validators[0], 1, [][]byte{encoded}, signAll(t, tc.keys, msg))
	require.ErrorIs(t, err, ErrWrongCommitter)
}

// fraudFixture holds the transitions of a single block containing a
// CreateAndDeposit (slot0, account A, balance 100) followed by a
// CreateAndTransfer moving 40 from slot0 to a newly created slot1
// (account B), and everything a ProveTransitionInvalid call needs to
// challenge the second transition. commitAndProofFor commits the block
// and supplies the inclusion proofs.
type fraudFixture struct {
	tc         *testChain
	pre        *types.IncludedTransition
	correctInv *types.IncludedTransition
	wrongInv   *types.IncludedTransition
	slots      []*types.IncludedStorageSlot
}

func buildFraudFixture(t *testing.T) *fraudFixture {
	tc := newTestChain(t)
	operatorDB := memorydb.NewDB()
	tree := merkle.NewStateTree(operatorDB)
	require.NoError(t, tree.SetRootAndHeight(nil, merkle.StateTreeHeight))
	emptyRoot := append([]byte{}, tree.Root()...)

	slot0 := big.NewInt(0)
	slot1 := big.NewInt(1)

	senderKey := tc.keys[0]
	senderAddr := crypto.PubkeyToAddress(senderKey.PublicKey)
	recipientAddr := common.HexToAddress("0xbbbb")

	// Deposit creates slot0.
	siblings0Empty, err := merkle.ProveStateSlot(operatorDB, emptyRoot, slot0)
	require.NoError(t, err)
	ok, err := tree.VerifyAndStore(slot0, types.EmptyAccountInfoSlot, siblings0Empty)
	require.NoError(t, err)
	require.True(t, ok)

	senderInfo := &types.AccountInfo{
		Account:        senderAddr,
		Balances:       []*uint256.Int{uint256.NewInt(100)},
		TransferNonces: []*uint256.Int{uint256.NewInt(0)},
		WithdrawNonces: []*uint256.Int{uint256.NewInt(0)},
	}
	senderLeaf, err := senderInfo.Serialize(tc.serializer)
	require.NoError(t, err)
	preStateRootBytes, err := tree.UpdateLeaf(slot0, senderLeaf)
	require.NoError(t, err)
	var preStateRoot [32]byte
	copy(preStateRoot[:], preStateRootBytes)

	pre := &types.CreateAndDepositTransition{
		TransitionType:   big.NewInt(int64(types.TransitionTypeCreateAndDeposit)),
		AccountSlotIndex: slot0,
		Account:          senderAddr,
		TokenIndex:       big.NewInt(0),
		Amount:           big.NewInt(100),
		StateRoot:        preStateRoot,
		Signature:        []byte{},
	}

	// Witnesses for the transfer, taken against preStateRoot.
	siblings0, err := merkle.ProveStateSlot(operatorDB, preStateRootBytes, slot0)
	require.NoError(t, err)
	siblings1, err := merkle.ProveStateSlot(operatorDB, preStateRootBytes, slot1)
	require.NoError(t, err)

	msg := sig.TransferMessage(tc.contractAddr, recipientAddr, big.NewInt(0), big.NewInt(40), big.NewInt(1))
	transferSig, err := sig.SignData(senderKey, msg)
	require.NoError(t, err)

	invalidCorrect := &types.CreateAndTransferTransition{
		TransitionType:     big.NewInt(int64(types.TransitionTypeCreateAndTransfer)),
		SenderSlotIndex:    slot0,
		RecipientSlotIndex: slot1,
		Account:            recipientAddr,
		TokenIndex:         big.NewInt(0),
		Amount:             big.NewInt(40),
		Nonce:              big.NewInt(1),
		Signature:          transferSig,
	}

	// Recompute the honest post-state root the same way the adjudicator
	// will, by applying the transfer on a second copy of the tree rooted
	// at preStateRoot.
	verifyTree := merkle.NewStateTree(operatorDB)
	require.NoError(t, verifyTree.SetRootAndHeight(preStateRootBytes, merkle.StateTreeHeight))
	ok, err = verifyTree.VerifyAndStore(slot0, senderLeaf, siblings0)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = verifyTree.VerifyAndStore(slot1, types.EmptyAccountInfoSlot, siblings1)
	require.NoError(t, err)
	require.True(t, ok)

	updatedSenderInfo := &types.AccountInfo{
		Account:        senderAddr,
		Balances:       []*uint256.Int{uint256.NewInt(60)},
		TransferNonces: []*uint256.Int{uint256.NewInt(1)},
		WithdrawNonces: []*uint256.Int{uint256.NewInt(0)},
	}
	updatedSenderLeaf, err := updatedSenderInfo.Serialize(tc.serializer)
	require.NoError(t, err)
	_, err = verifyTree.UpdateLeaf(slot0, updatedSenderLeaf)
	require.NoError(t, err)

	newRecipientInfo := &types.AccountInfo{
		Account:        recipientAddr,
		Balances:       []*uint256.Int{uint256.NewInt(40)},
		TransferNonces: []*uint256.Int{uint256.NewInt(0)},
		WithdrawNonces: []*uint256.Int{uint256.NewInt(0)},
	}
	newRecipientLeaf, err := newRecipientInfo.Serialize(tc.serializer)
	require.NoError(t, err)
	correctRootBytes, err := verifyTree.UpdateLeaf(slot1, newRecipientLeaf)
	require.NoError(t, err)
	var correctRoot [32]byte
	copy(correctRoot[:], correctRootBytes)

	invalidCorrect.StateRoot = correctRoot
	invalidWrong := *invalidCorrect
	invalidWrong.StateRoot = [32]byte{0xde, 0xad, 0xbe, 0xef}

	preEncoded, err := pre.Serialize(tc.serializer)
	require.NoError(t, err)
	correctEncoded, err := invalidCorrect.Serialize(tc.serializer)
	require.NoError(t, err)
	wrongEncoded, err := (&invalidWrong).Serialize(tc.serializer)
	require.NoError(t, err)

	slots := []*types.IncludedStorageSlot{
		{StorageSlot: &types.StorageSlot{SlotIndex: slot0, AccountInfo: senderInfo}, Siblings: siblings0},
		{StorageSlot: &types.StorageSlot{SlotIndex: slot1, AccountInfo: &types.AccountInfo{}}, Siblings: siblings1},
	}

	return &fraudFixture{
		tc:    tc,
		slots: slots,
		pre:   &types.IncludedTransition{Transition: preEncoded, InclusionProof: nil},
		correctInv: &types.IncludedTransition{Transition: correctEncoded, InclusionProof: nil},
		wrongInv:   &types.IncludedTransition{Transition: wrongEncoded, InclusionProof: nil},
	}
}

// commitAndProofFor commits a block containing pre followed by inv, and
// fills in both transitions' InclusionProofs against that committed
// block.
func commitAndProofFor(t *testing.T, tc *testChain, preEncoded, invEncoded []byte) (*types.TransitionInclusionProof, *types.TransitionInclusionProof) {
	encoded := [][]byte{preEncoded, invEncoded}
	require.NoError(t, tc.commit(t, 0, encoded))

	preSiblings, err := merkle.TransitionInclusionProof(encoded, 0)
	require.NoError(t, err)
	invSiblings, err := merkle.TransitionInclusionProof(encoded, 1)
	require.NoError(t, err)

	return &types.TransitionInclusionProof{BlockNumber: big.NewInt(0), TransitionIndex: big.NewInt(0), Siblings: preSiblings},
		&types.TransitionInclusionProof{BlockNumber: big.NewInt(0), TransitionIndex: big.NewInt(1), Siblings: invSiblings}
}

func TestProveTransitionInvalidDetectsRootMismatch(t *testing.T) {
	f := buildFraudFixture(t)
	preProof, invProof := commitAndProofFor(t, f.tc, f.pre.Transition, f.wrongInv.Transition)
	f.pre.InclusionProof = preProof
	f.wrongInv.InclusionProof = invProof

	result, err := f.tc.chain.ProveTransitionInvalid(context.Background(), f.pre, f.wrongInv, f.slots)
	require.NoError(t, err)
	require.True(t, result.Pruned)
	require.Equal(t, uint64(0), result.PrunedFrom)

	n, err := f.tc.chain.CurrentBlockNumber()
	require.NoError(t, err)
	require.NotNil(t, n)
}

func TestProveTransitionInvalidRejectsCorrectClaim(t *testing.T) {
	f := buildFraudFixture(t)
	preProof, invProof := commitAndProofFor(t, f.tc, f.pre.Transition, f.correctInv.Transition)
	f.pre.InclusionProof = preProof
	f.correctInv.InclusionProof = invProof

	_, err := f.tc.chain.ProveTransitionInvalid(context.Background(), f.pre, f.correctInv, f.slots)
	require.ErrorIs(t, err, ErrNoFraudDetected)
}

func TestProveTransitionInvalidRejectsAccessListMismatch(t *testing.T) {
	f := buildFraudFixture(t)
	preProof, invProof := commitAndProofFor(t, f.tc, f.pre.Transition, f.wrongInv.Transition)
	f.pre.InclusionProof = preProof
	f.wrongInv.InclusionProof = invProof

	badSlots := []*types.IncludedStorageSlot{f.slots[0]}
	_, err := f.tc.chain.ProveTransitionInvalid(context.Background(), f.pre, f.wrongInv, badSlots)
	require.ErrorIs(t, err, ErrAccessListMismatch)
}
