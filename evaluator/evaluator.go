// Package evaluator implements the stateless semantic checks and state
// transforms for the five transition variants. It never talks to a
// database or a Merkle tree: callers hand it the exact AccountInfo
// snapshots a transition claims to read, and get back either the updated
// snapshots or a typed error explaining why the transition is invalid.
//
// Keeping this pure is what lets the same code run both when an operator
// builds a block and when a challenger replays a disputed transition
// inside proveTransitionInvalid: there is nothing here that depends on
// having the full chain state around.
package evaluator

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/celer-network/optimistic-rollup/sig"
	"github.com/celer-network/optimistic-rollup/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// DecodeError wraps a failure to even parse a transition's bytes. A
// challenger presenting a transition that fails to decode has, by
// definition, found fraud: the operator committed garbage.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode error: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// EvalError wraps a semantic rule violation (insufficient balance, bad
// nonce, bad signature, and so on). Like DecodeError, encountering one
// while adjudicating a fraud proof means the operator is provably wrong.
type EvalError struct {
	Err error
}

func (e *EvalError) Error() string { return fmt.Sprintf("evaluation error: %v", e.Err) }
func (e *EvalError) Unwrap() error { return e.Err }

var (
	errNegativeAmount    = errors.New("amount must be non-negative")
	errInsufficientFunds = errors.New("insufficient balance")
	errBadNonce          = errors.New("nonce mismatch")
	errBadSignature      = errors.New("invalid signature")
	errUnknownTransition = errors.New("unknown transition type")
	errSlotNotEmpty      = errors.New("slot-creation target is not empty")
	errSlotEmpty         = errors.New("target account slot does not exist")
	errRecipientMismatch = errors.New("recipient account does not match the witnessed slot")
)

// Evaluator decodes and semantically evaluates transitions. It is safe
// for concurrent use: it holds no mutable state. contractAddr domain-
// separates this deployment's signed messages (withdraw, transfer) from
// any other rollup instance a validator's key might also sign for.
type Evaluator struct {
	serializer   *types.Serializer
	contractAddr common.Address
}

func NewEvaluator(serializer *types.Serializer, contractAddr common.Address) *Evaluator {
	return &Evaluator{serializer: serializer, contractAddr: contractAddr}
}

// AccessListEntry names one account slot a transition reads or writes.
type AccessListEntry struct {
	SlotIndex *big.Int
	IsNew     bool
}

// Decode parses the encoded transition, returning a DecodeError on
// failure rather than panicking: a malicious operator can always submit
// malformed bytes, and that is itself the fraud a challenger is proving.
func (e *Evaluator) Decode(encoded []byte) (types.Transition, error) {
	transition, err := e.serializer.DeserializeTransition(encoded)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return transition, nil
}

// AccessList returns the account slots a transition touches, in the
// fixed order EvaluateTransition expects its inputs to be supplied in.
func (e *Evaluator) AccessList(transition types.Transition) ([]AccessListEntry, error) {
	switch t := transition.(type) {
	case *types.CreateAndDepositTransition:
		return []AccessListEntry{{SlotIndex: t.AccountSlotIndex, IsNew: true}}, nil
	case *types.DepositTransition:
		return []AccessListEntry{{SlotIndex: t.AccountSlotIndex, IsNew: false}}, nil
	case *types.WithdrawTransition:
		return []AccessListEntry{{SlotIndex: t.AccountSlotIndex, IsNew: false}}, nil
	case *types.CreateAndTransferTransition:
		return []AccessListEntry{
			{SlotIndex: t.SenderSlotIndex, IsNew: false},
			{SlotIndex: t.RecipientSlotIndex, IsNew: true},
		}, nil
	case *types.TransferTransition:
		return []AccessListEntry{
			{SlotIndex: t.SenderSlotIndex, IsNew: false},
			{SlotIndex: t.RecipientSlotIndex, IsNew: false},
		}, nil
	}
	return nil, &DecodeError{Err: errUnknownTransition}
}

// EvaluateTransition applies transition to the AccountInfo snapshots named
// by AccessList, in that same order, and returns the updated snapshots in
// that order. inputs[i] may be nil exactly where the corresponding
// AccessListEntry.IsNew is true.
func (e *Evaluator) EvaluateTransition(transition types.Transition, inputs []*types.AccountInfo) ([]*types.AccountInfo, error) {
	switch t := transition.(type) {
	case *types.CreateAndDepositTransition:
		if len(inputs) != 1 {
			return nil, &EvalError{Err: errors.New("createAndDeposit requires one slot witness")}
		}
		return evalCreateAndDeposit(t, inputs[0])
	case *types.DepositTransition:
		if len(inputs) != 1 || inputs[0] == nil {
			return nil, &EvalError{Err: errors.New("deposit requires one existing account")}
		}
		return evalDeposit(t, inputs[0])
	case *types.WithdrawTransition:
		if len(inputs) != 1 || inputs[0] == nil {
			return nil, &EvalError{Err: errors.New("withdraw requires one existing account")}
		}
		return evalWithdraw(e.contractAddr, t, inputs[0])
	case *types.CreateAndTransferTransition:
		if len(inputs) != 2 || inputs[0] == nil {
			return nil, &EvalError{Err: errors.New("createAndTransfer requires an existing sender")}
		}
		return evalCreateAndTransfer(e.contractAddr, t, inputs[0], inputs[1])
	case *types.TransferTransition:
		if len(inputs) != 2 || inputs[0] == nil || inputs[1] == nil {
			return nil, &EvalError{Err: errors.New("transfer requires two existing accounts")}
		}
		return evalTransfer(e.contractAddr, t, inputs[0], inputs[1])
	}
	return nil, &DecodeError{Err: errUnknownTransition}
}

func expandTo(vals []*uint256.Int, size int) []*uint256.Int {
	for len(vals) < size {
		vals = append(vals, uint256.NewInt(0))
	}
	return vals
}

func tokenIndexInt(tokenIndex *big.Int) int {
	return int(tokenIndex.Int64())
}

func evalCreateAndDeposit(t *types.CreateAndDepositTransition, existing *types.AccountInfo) ([]*types.AccountInfo, error) {
	if t.Amount.Sign() < 0 {
		return nil, &EvalError{Err: errNegativeAmount}
	}
	if !existing.IsEmpty() {
		return nil, &EvalError{Err: errSlotNotEmpty}
	}
	idx := tokenIndexInt(t.TokenIndex)
	balances := expandTo(nil, idx+1)
	amount, overflow := uint256.FromBig(t.Amount)
	if overflow {
		return nil, &EvalError{Err: errors.New("amount overflows uint256")}
	}
	balances[idx] = amount
	return []*types.AccountInfo{{
		Account:        t.Account,
		Balances:       balances,
		TransferNonces: expandTo(nil, idx+1),
		WithdrawNonces: expandTo(nil, idx+1),
	}}, nil
}

func evalDeposit(t *types.DepositTransition, account *types.AccountInfo) ([]*types.AccountInfo, error) {
	if account.IsEmpty() {
		return nil, &EvalError{Err: errSlotEmpty}
	}
	if t.Amount.Sign() < 0 {
		return nil, &EvalError{Err: errNegativeAmount}
	}
	idx := tokenIndexInt(t.TokenIndex)
	balances := expandTo(append([]*uint256.Int{}, account.Balances...), idx+1)
	amount, overflow := uint256.FromBig(t.Amount)
	if overflow {
		return nil, &EvalError{Err: errors.New("amount overflows uint256")}
	}
	newBalance, overflow := new(uint256.Int).AddOverflow(balances[idx], amount)
	if overflow {
		return nil, &EvalError{Err: errors.New("balance overflows uint256")}
	}
	balances[idx] = newBalance
	return []*types.AccountInfo{{
		Account:        account.Account,
		Balances:       balances,
		TransferNonces: expandTo(append([]*uint256.Int{}, account.TransferNonces...), idx+1),
		WithdrawNonces: expandTo(append([]*uint256.Int{}, account.WithdrawNonces...), idx+1),
	}}, nil
}

func evalWithdraw(contractAddr common.Address, t *types.WithdrawTransition, account *types.AccountInfo) ([]*types.AccountInfo, error) {
	if t.Amount.Sign() < 0 {
		return nil, &EvalError{Err: errNegativeAmount}
	}
	idx := tokenIndexInt(t.TokenIndex)
	if idx >= len(account.Balances) {
		return nil, &EvalError{Err: errInsufficientFunds}
	}
	msg := sig.WithdrawMessage(contractAddr, t.TokenIndex, t.Amount, t.Nonce)
	if !sig.IsValid(account.Account, msg, t.Signature) {
		return nil, &EvalError{Err: errBadSignature}
	}
	withdrawNonces := expandTo(append([]*uint256.Int{}, account.WithdrawNonces...), idx+1)
	expectedNonce := new(uint256.Int).AddUint64(withdrawNonces[idx], 1)
	nonce, overflow := uint256.FromBig(t.Nonce)
	if overflow || !expectedNonce.Eq(nonce) {
		return nil, &EvalError{Err: errBadNonce}
	}
	amount, overflow := uint256.FromBig(t.Amount)
	if overflow {
		return nil, &EvalError{Err: errors.New("amount overflows uint256")}
	}
	balances := append([]*uint256.Int{}, account.Balances...)
	if balances[idx].Lt(amount) {
		return nil, &EvalError{Err: errInsufficientFunds}
	}
	balances[idx] = new(uint256.Int).Sub(balances[idx], amount)
	withdrawNonces[idx] = expectedNonce
	return []*types.AccountInfo{{
		Account:        account.Account,
		Balances:       balances,
		TransferNonces: account.TransferNonces,
		WithdrawNonces: withdrawNonces,
	}}, nil
}

func evalCreateAndTransfer(contractAddr common.Address, t *types.CreateAndTransferTransition, sender, recipient *types.AccountInfo) ([]*types.AccountInfo, error) {
	if t.Amount.Sign() < 0 {
		return nil, &EvalError{Err: errNegativeAmount}
	}
	if !recipient.IsEmpty() {
		return nil, &EvalError{Err: errSlotNotEmpty}
	}
	idx := tokenIndexInt(t.TokenIndex)
	if idx >= len(sender.Balances) {
		return nil, &EvalError{Err: errInsufficientFunds}
	}
	msg := sig.TransferMessage(contractAddr, t.Account, t.TokenIndex, t.Amount, t.Nonce)
	if !sig.IsValid(sender.Account, msg, t.Signature) {
		return nil, &EvalError{Err: errBadSignature}
	}
	transferNonces := expandTo(append([]*uint256.Int{}, sender.TransferNonces...), idx+1)
	expectedNonce := new(uint256.Int).AddUint64(transferNonces[idx], 1)
	nonce, overflow := uint256.FromBig(t.Nonce)
	if overflow || !expectedNonce.Eq(nonce) {
		return nil, &EvalError{Err: errBadNonce}
	}
	amount, overflow := uint256.FromBig(t.Amount)
	if overflow {
		return nil, &EvalError{Err: errors.New("amount overflows uint256")}
	}
	senderBalances := append([]*uint256.Int{}, sender.Balances...)
	if senderBalances[idx].Lt(amount) {
		return nil, &EvalError{Err: errInsufficientFunds}
	}
	senderBalances[idx] = new(uint256.Int).Sub(senderBalances[idx], amount)
	transferNonces[idx] = expectedNonce

	recipientBalances := expandTo(nil, idx+1)
	recipientBalances[idx] = amount
	updatedSender := &types.AccountInfo{
		Account:        sender.Account,
		Balances:       senderBalances,
		TransferNonces: transferNonces,
		WithdrawNonces: sender.WithdrawNonces,
	}
	newRecipient := &types.AccountInfo{
		Account:        t.Account,
		Balances:       recipientBalances,
		TransferNonces: expandTo(nil, idx+1),
		WithdrawNonces: expandTo(nil, idx+1),
	}
	return []*types.AccountInfo{updatedSender, newRecipient}, nil
}

func evalTransfer(contractAddr common.Address, t *types.TransferTransition, sender *types.AccountInfo, recipient *types.AccountInfo) ([]*types.AccountInfo, error) {
	if t.Amount.Sign() < 0 {
		return nil, &EvalError{Err: errNegativeAmount}
	}
	if recipient.Account != t.RecipientAccount {
		return nil, &EvalError{Err: errRecipientMismatch}
	}
	idx := tokenIndexInt(t.TokenIndex)
	if idx >= len(sender.Balances) {
		return nil, &EvalError{Err: errInsufficientFunds}
	}
	msg := sig.TransferMessage(contractAddr, t.RecipientAccount, t.TokenIndex, t.Amount, t.Nonce)
	if !sig.IsValid(sender.Account, msg, t.Signature) {
		return nil, &EvalError{Err: errBadSignature}
	}
	transferNonces := expandTo(append([]*uint256.Int{}, sender.TransferNonces...), idx+1)
	expectedNonce := new(uint256.Int).AddUint64(transferNonces[idx], 1)
	nonce, overflow := uint256.FromBig(t.Nonce)
	if overflow || !expectedNonce.Eq(nonce) {
		return nil, &EvalError{Err: errBadNonce}
	}
	amount, overflow := uint256.FromBig(t.Amount)
	if overflow {
		return nil, &EvalError{Err: errors.New("amount overflows uint256")}
	}
	senderBalances := append([]*uint256.Int{}, sender.Balances...)
	if senderBalances[idx].Lt(amount) {
		return nil, &EvalError{Err: errInsufficientFunds}
	}
	senderBalances[idx] = new(uint256.Int).Sub(senderBalances[idx], amount)
	transferNonces[idx] = expectedNonce

	recipientBalances := expandTo(append([]*uint256.Int{}, recipient.Balances...), idx+1)
	recipientBalances[idx] = new(uint256.Int).Add(recipientBalances[idx], amount)

	updatedSender := &types.AccountInfo{
		Account:        sender.Account,
		Balances:       senderBalances,
		TransferNonces: transferNonces,
		WithdrawNonces: sender.WithdrawNonces,
	}
	updatedRecipient := &types.AccountInfo{
		Account:        recipient.Account,
		Balances:       recipientBalances,
		TransferNonces: expandTo(append([]*uint256.Int{}, recipient.TransferNonces...), idx+1),
		WithdrawNonces: expandTo(append([]*uint256.Int{}, recipient.WithdrawNonces...), idx+1),
	}
	return []*types.AccountInfo{updatedSender, updatedRecipient}, nil
}
