package evaluator

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/celer-network/optimistic-rollup/sig"
	"github.com/celer-network/optimistic-rollup/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var testContractAddr = common.HexToAddress("0xcccc")

func newTestEvaluator(t *testing.T) *Evaluator {
	serializer, err := types.NewSerializer()
	require.NoError(t, err)
	return NewEvaluator(serializer, testContractAddr)
}

func TestEvaluateCreateAndDeposit(t *testing.T) {
	e := newTestEvaluator(t)
	transition := &types.CreateAndDepositTransition{
		AccountSlotIndex: big.NewInt(0),
		Account:          crypto.PubkeyToAddress((mustKey(t).PublicKey)),
		TokenIndex:       big.NewInt(0),
		Amount:           big.NewInt(100),
	}
	outputs, err := e.EvaluateTransition(transition, []*types.AccountInfo{nil})
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	require.Equal(t, uint256.NewInt(100), outputs[0].Balances[0])
}

func TestEvaluateCreateAndDepositRejectsOccupiedSlot(t *testing.T) {
	e := newTestEvaluator(t)
	transition := &types.CreateAndDepositTransition{
		AccountSlotIndex: big.NewInt(0),
		Account:          crypto.PubkeyToAddress((mustKey(t).PublicKey)),
		TokenIndex:       big.NewInt(0),
		Amount:           big.NewInt(100),
	}
	occupied := &types.AccountInfo{
		Account:        crypto.PubkeyToAddress((mustKey(t).PublicKey)),
		Balances:       []*uint256.Int{uint256.NewInt(1)},
		TransferNonces: []*uint256.Int{uint256.NewInt(0)},
		WithdrawNonces: []*uint256.Int{uint256.NewInt(0)},
	}
	_, err := e.EvaluateTransition(transition, []*types.AccountInfo{occupied})
	require.Error(t, err)
}

func TestEvaluateDepositRejectsEmptySlot(t *testing.T) {
	e := newTestEvaluator(t)
	deposit := &types.DepositTransition{
		AccountSlotIndex: big.NewInt(0),
		TokenIndex:       big.NewInt(0),
		Amount:           big.NewInt(100),
	}
	_, err := e.EvaluateTransition(deposit, []*types.AccountInfo{{}})
	require.Error(t, err)
}

func TestEvaluateWithdrawChecksSignatureAndBalance(t *testing.T) {
	e := newTestEvaluator(t)
	key := mustKey(t)
	addr := crypto.PubkeyToAddress(key.PublicKey)
	account := &types.AccountInfo{
		Account:        addr,
		Balances:       []*uint256.Int{uint256.NewInt(50)},
		TransferNonces: []*uint256.Int{uint256.NewInt(0)},
		WithdrawNonces: []*uint256.Int{uint256.NewInt(0)},
	}
	withdraw := &types.WithdrawTransition{
		AccountSlotIndex: big.NewInt(0),
		TokenIndex:       big.NewInt(0),
		Amount:           big.NewInt(20),
		Nonce:            big.NewInt(1),
	}
	msg := sig.WithdrawMessage(testContractAddr, withdraw.TokenIndex, withdraw.Amount, withdraw.Nonce)
	signature, err := sig.SignData(key, msg)
	require.NoError(t, err)
	withdraw.Signature = signature

	outputs, err := e.EvaluateTransition(withdraw, []*types.AccountInfo{account})
	require.NoError(t, err)
	require.True(t, outputs[0].Balances[0].Eq(uint256.NewInt(30)))

	// Replaying the same signed withdrawal against the already-updated
	// account must fail the nonce check.
	_, err = e.EvaluateTransition(withdraw, []*types.AccountInfo{outputs[0]})
	require.Error(t, err)
}

func TestEvaluateWithdrawRejectsInsufficientBalance(t *testing.T) {
	e := newTestEvaluator(t)
	key := mustKey(t)
	addr := crypto.PubkeyToAddress(key.PublicKey)
	account := &types.AccountInfo{
		Account:        addr,
		Balances:       []*uint256.Int{uint256.NewInt(5)},
		TransferNonces: []*uint256.Int{uint256.NewInt(0)},
		WithdrawNonces: []*uint256.Int{uint256.NewInt(0)},
	}
	withdraw := &types.WithdrawTransition{
		AccountSlotIndex: big.NewInt(0),
		TokenIndex:       big.NewInt(0),
		Amount:           big.NewInt(20),
		Nonce:            big.NewInt(1),
	}
	signature, err := sig.SignData(key, sig.WithdrawMessage(testContractAddr, withdraw.TokenIndex, withdraw.Amount, withdraw.Nonce))
	require.NoError(t, err)
	withdraw.Signature = signature

	_, err = e.EvaluateTransition(withdraw, []*types.AccountInfo{account})
	require.Error(t, err)
}

func TestEvaluateTransferMovesBalance(t *testing.T) {
	e := newTestEvaluator(t)
	senderKey := mustKey(t)
	senderAddr := crypto.PubkeyToAddress(senderKey.PublicKey)
	recipientAddr := crypto.PubkeyToAddress(mustKey(t).PublicKey)
	sender := &types.AccountInfo{
		Account:        senderAddr,
		Balances:       []*uint256.Int{uint256.NewInt(100)},
		TransferNonces: []*uint256.Int{uint256.NewInt(0)},
		WithdrawNonces: []*uint256.Int{uint256.NewInt(0)},
	}
	recipient := &types.AccountInfo{
		Account:        recipientAddr,
		Balances:       []*uint256.Int{uint256.NewInt(5)},
		TransferNonces: []*uint256.Int{uint256.NewInt(0)},
		WithdrawNonces: []*uint256.Int{uint256.NewInt(0)},
	}
	transfer := &types.TransferTransition{
		SenderSlotIndex:    big.NewInt(0),
		RecipientSlotIndex: big.NewInt(1),
		RecipientAccount:   recipientAddr,
		TokenIndex:         big.NewInt(0),
		Amount:             big.NewInt(40),
		Nonce:              big.NewInt(1),
	}
	msg := sig.TransferMessage(testContractAddr, transfer.RecipientAccount, transfer.TokenIndex, transfer.Amount, transfer.Nonce)
	signature, err := sig.SignData(senderKey, msg)
	require.NoError(t, err)
	transfer.Signature = signature

	outputs, err := e.EvaluateTransition(transfer, []*types.AccountInfo{sender, recipient})
	require.NoError(t, err)
	require.True(t, outputs[0].Balances[0].Eq(uint256.NewInt(60)))
	require.True(t, outputs[1].Balances[0].Eq(uint256.NewInt(45)))
}

func TestEvaluateTransferRejectsRecipientMismatch(t *testing.T) {
	e := newTestEvaluator(t)
	senderKey := mustKey(t)
	senderAddr := crypto.PubkeyToAddress(senderKey.PublicKey)
	recipientAddr := crypto.PubkeyToAddress(mustKey(t).PublicKey)
	impostorAddr := crypto.PubkeyToAddress(mustKey(t).PublicKey)
	sender := &types.AccountInfo{
		Account:        senderAddr,
		Balances:       []*uint256.Int{uint256.NewInt(100)},
		TransferNonces: []*uint256.Int{uint256.NewInt(0)},
		WithdrawNonces: []*uint256.Int{uint256.NewInt(0)},
	}
	recipient := &types.AccountInfo{
		Account:        recipientAddr,
		Balances:       []*uint256.Int{uint256.NewInt(5)},
		TransferNonces: []*uint256.Int{uint256.NewInt(0)},
		WithdrawNonces: []*uint256.Int{uint256.NewInt(0)},
	}
	transfer := &types.TransferTransition{
		SenderSlotIndex:    big.NewInt(0),
		RecipientSlotIndex: big.NewInt(1),
		RecipientAccount:   impostorAddr,
		TokenIndex:         big.NewInt(0),
		Amount:             big.NewInt(40),
		Nonce:              big.NewInt(1),
	}
	msg := sig.TransferMessage(testContractAddr, transfer.RecipientAccount, transfer.TokenIndex, transfer.Amount, transfer.Nonce)
	signature, err := sig.SignData(senderKey, msg)
	require.NoError(t, err)
	transfer.Signature = signature

	_, err = e.EvaluateTransition(transfer, []*types.AccountInfo{sender, recipient})
	require.Error(t, err)
}

func TestEvaluateCreateAndTransferRejectsOccupiedRecipientSlot(t *testing.T) {
	e := newTestEvaluator(t)
	senderKey := mustKey(t)
	senderAddr := crypto.PubkeyToAddress(senderKey.PublicKey)
	newRecipientAddr := crypto.PubkeyToAddress(mustKey(t).PublicKey)
	sender := &types.AccountInfo{
		Account:        senderAddr,
		Balances:       []*uint256.Int{uint256.NewInt(100)},
		TransferNonces: []*uint256.Int{uint256.NewInt(0)},
		WithdrawNonces: []*uint256.Int{uint256.NewInt(0)},
	}
	occupiedRecipientSlot := &types.AccountInfo{
		Account:        crypto.PubkeyToAddress(mustKey(t).PublicKey),
		Balances:       []*uint256.Int{uint256.NewInt(1)},
		TransferNonces: []*uint256.Int{uint256.NewInt(0)},
		WithdrawNonces: []*uint256.Int{uint256.NewInt(0)},
	}
	transition := &types.CreateAndTransferTransition{
		SenderSlotIndex:    big.NewInt(0),
		RecipientSlotIndex: big.NewInt(1),
		Account:            newRecipientAddr,
		TokenIndex:         big.NewInt(0),
		Amount:             big.NewInt(40),
		Nonce:              big.NewInt(1),
	}
	msg := sig.TransferMessage(testContractAddr, transition.Account, transition.TokenIndex, transition.Amount, transition.Nonce)
	signature, err := sig.SignData(senderKey, msg)
	require.NoError(t, err)
	transition.Signature = signature

	_, err = e.EvaluateTransition(transition, []*types.AccountInfo{sender, occupiedRecipientSlot})
	require.Error(t, err)
}

func mustKey(t *testing.T) *ecdsa.PrivateKey {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key
}
