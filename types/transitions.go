package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

type TransitionType int

const (
	TransitionTypeCreateAndDeposit TransitionType = iota
	TransitionTypeDeposit
	TransitionTypeWithdraw
	TransitionTypeCreateAndTransfer
	TransitionTypeTransfer
)

// Transition is any of the five leaf entries a committed block may contain.
type Transition interface {
	GetTransitionType() TransitionType
	GetSignature() []byte
	GetStateRoot() [32]byte
	Serialize(*Serializer) ([]byte, error)
}

// CreateAndDepositTransition allocates a new state-tree slot for Account
// and credits it with the chain's first deposit of TokenIndex. Unsigned:
// the depositor authorizes by virtue of having locked funds on the base
// chain, so there is no off-chain signature to check.
type CreateAndDepositTransition struct {
	TransitionType   *big.Int
	StateRoot        [32]byte
	AccountSlotIndex *big.Int
	Account          common.Address
	TokenIndex       *big.Int
	Amount           *big.Int
	Signature        []byte
}

func (*CreateAndDepositTransition) GetTransitionType() TransitionType {
	return TransitionTypeCreateAndDeposit
}

func (t *CreateAndDepositTransition) GetSignature() []byte {
	return t.Signature
}

func (t *CreateAndDepositTransition) GetStateRoot() [32]byte {
	return t.StateRoot
}

func createCreateAndDepositTransitionArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "transitionType", Type: r.uint256Ty, Indexed: false},
		{Name: "stateRoot", Type: r.bytes32Ty, Indexed: false},
		{Name: "accountSlotIndex", Type: r.uint256Ty, Indexed: false},
		{Name: "account", Type: r.addressTy, Indexed: false},
		{Name: "tokenIndex", Type: r.uint256Ty, Indexed: false},
		{Name: "amount", Type: r.uint256Ty, Indexed: false},
		{Name: "signature", Type: r.bytesTy, Indexed: false},
	})
}

func (transition *CreateAndDepositTransition) Serialize(s *Serializer) ([]byte, error) {
	data, err := s.createAndDepositTransitionArguments.Pack(
		transition.TransitionType,
		transition.StateRoot,
		transition.AccountSlotIndex,
		transition.Account,
		transition.TokenIndex,
		transition.Amount,
		transition.Signature,
	)
	if err != nil {
		return nil, fmt.Errorf("Serialize CreateAndDepositTransition %v: %w", transition, err)
	}
	return data, nil
}

func (s *Serializer) DeserializeCreateAndDepositTransition(data []byte) (*CreateAndDepositTransition, error) {
	var transition CreateAndDepositTransition
	err := s.createAndDepositTransitionArguments.Unpack(&transition, data)
	if err != nil {
		return nil, fmt.Errorf("Deserialize CreateAndDepositTransition, data %x: %w", data, err)
	}
	return &transition, nil
}

// DepositTransition credits an existing account slot with more of
// TokenIndex.
type DepositTransition struct {
	TransitionType   *big.Int
	StateRoot        [32]byte
	AccountSlotIndex *big.Int
	TokenIndex       *big.Int
	Amount           *big.Int
	Signature        []byte
}

func (*DepositTransition) GetTransitionType() TransitionType {
	return TransitionTypeDeposit
}

func (t *DepositTransition) GetSignature() []byte {
	return t.Signature
}

func (t *DepositTransition) GetStateRoot() [32]byte {
	return t.StateRoot
}

func createDepositTransitionArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "transitionType", Type: r.uint256Ty, Indexed: false},
		{Name: "stateRoot", Type: r.bytes32Ty, Indexed: false},
		{Name: "accountSlotIndex", Type: r.uint256Ty, Indexed: false},
		{Name: "tokenIndex", Type: r.uint256Ty, Indexed: false},
		{Name: "amount", Type: r.uint256Ty, Indexed: false},
		{Name: "signature", Type: r.bytesTy, Indexed: false},
	})
}

func (transition *DepositTransition) Serialize(s *Serializer) ([]byte, error) {
	return s.depositTransitionArguments.Pack(
		transition.TransitionType,
		transition.StateRoot,
		transition.AccountSlotIndex,
		transition.TokenIndex,
		transition.Amount,
		transition.Signature,
	)
}

func (s *Serializer) DeserializeDepositTransition(data []byte) (*DepositTransition, error) {
	var transition DepositTransition
	err := s.depositTransitionArguments.Unpack(&transition, data)
	if err != nil {
		return nil, fmt.Errorf("Deserialize DepositTransition, data %x: %w", data, err)
	}
	return &transition, nil
}

// WithdrawTransition debits an account slot and burns the amount against
// WithdrawNonces[TokenIndex], authorized by the account owner's signature.
type WithdrawTransition struct {
	TransitionType   *big.Int
	StateRoot        [32]byte
	AccountSlotIndex *big.Int
	TokenIndex       *big.Int
	Amount           *big.Int
	Nonce            *big.Int
	Signature        []byte
}

func (*WithdrawTransition) GetTransitionType() TransitionType {
	return TransitionTypeWithdraw
}

func (t *WithdrawTransition) GetSignature() []byte {
	return t.Signature
}

func (t *WithdrawTransition) GetStateRoot() [32]byte {
	return t.StateRoot
}

func createWithdrawTransitionArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "transitionType", Type: r.uint256Ty, Indexed: false},
		{Name: "stateRoot", Type: r.bytes32Ty, Indexed: false},
		{Name: "accountSlotIndex", Type: r.uint256Ty, Indexed: false},
		{Name: "tokenIndex", Type: r.uint256Ty, Indexed: false},
		{Name: "amount", Type: r.uint256Ty, Indexed: false},
		{Name: "nonce", Type: r.uint256Ty, Indexed: false},
		{Name: "signature", Type: r.bytesTy, Indexed: false},
	})
}

func (transition *WithdrawTransition) Serialize(s *Serializer) ([]byte, error) {
	return s.withdrawTransitionArguments.Pack(
		transition.TransitionType,
		transition.StateRoot,
		transition.AccountSlotIndex,
		transition.TokenIndex,
		transition.Amount,
		transition.Nonce,
		transition.Signature,
	)
}

func (s *Serializer) DeserializeWithdrawTransition(data []byte) (*WithdrawTransition, error) {
	var transition WithdrawTransition
	err := s.withdrawTransitionArguments.Unpack(&transition, data)
	if err != nil {
		return nil, fmt.Errorf("Deserialize WithdrawTransition, data %x: %w", data, err)
	}
	return &transition, nil
}

// CreateAndTransferTransition allocates a new recipient slot for Account
// and moves funds into it from an existing sender slot, authorized by the
// sender's signature over (contractAddr, Account, TokenIndex, Amount,
// Nonce), where Nonce must be one more than the sender's
// TransferNonces[TokenIndex].
type CreateAndTransferTransition struct {
	TransitionType     *big.Int
	StateRoot          [32]byte
	SenderSlotIndex    *big.Int
	RecipientSlotIndex *big.Int
	Account            common.Address
	TokenIndex         *big.Int
	Amount             *big.Int
	Nonce              *big.Int
	Signature          []byte
}

func (*CreateAndTransferTransition) GetTransitionType() TransitionType {
	return TransitionTypeCreateAndTransfer
}

func (t *CreateAndTransferTransition) GetSignature() []byte {
	return t.Signature
}

func (t *CreateAndTransferTransition) GetStateRoot() [32]byte {
	return t.StateRoot
}

func createCreateAndTransferTransitionArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "transitionType", Type: r.uint256Ty, Indexed: false},
		{Name: "stateRoot", Type: r.bytes32Ty, Indexed: false},
		{Name: "senderSlotIndex", Type: r.uint256Ty, Indexed: false},
		{Name: "recipientSlotIndex", Type: r.uint256Ty, Indexed: false},
		{Name: "account", Type: r.addressTy, Indexed: false},
		{Name: "tokenIndex", Type: r.uint256Ty, Indexed: false},
		{Name: "amount", Type: r.uint256Ty, Indexed: false},
		{Name: "nonce", Type: r.uint256Ty, Indexed: false},
		{Name: "signature", Type: r.bytesTy, Indexed: false},
	})
}

func (transition *CreateAndTransferTransition) Serialize(s *Serializer) ([]byte, error) {
	return s.createAndTransferTransitionArguments.Pack(
		transition.TransitionType,
		transition.StateRoot,
		transition.SenderSlotIndex,
		transition.RecipientSlotIndex,
		transition.Account,
		transition.TokenIndex,
		transition.Amount,
		transition.Nonce,
		transition.Signature,
	)
}

func (s *Serializer) DeserializeCreateAndTransferTransition(data []byte) (*CreateAndTransferTransition, error) {
	var transition CreateAndTransferTransition
	err := s.createAndTransferTransitionArguments.Unpack(&transition, data)
	if err != nil {
		return nil, fmt.Errorf("Deserialize CreateAndTransferTransition, data %x: %w", data, err)
	}
	return &transition, nil
}

// TransferTransition moves funds between two existing account slots,
// authorized by the sender's signature over
// (contractAddr, RecipientAccount, TokenIndex, Amount, Nonce). RecipientAccount
// binds the signature to the specific account the sender meant to pay, not
// just whatever AccountInfo happens to live at RecipientSlotIndex.
type TransferTransition struct {
	TransitionType     *big.Int
	StateRoot          [32]byte
	SenderSlotIndex    *big.Int
	RecipientSlotIndex *big.Int
	RecipientAccount   common.Address
	TokenIndex         *big.Int
	Amount             *big.Int
	Nonce              *big.Int
	Signature          []byte
}

func (*TransferTransition) GetTransitionType() TransitionType {
	return TransitionTypeTransfer
}

func (t *TransferTransition) GetSignature() []byte {
	return t.Signature
}

func (t *TransferTransition) GetStateRoot() [32]byte {
	return t.StateRoot
}

func createTransferTransitionArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "transitionType", Type: r.uint256Ty, Indexed: false},
		{Name: "stateRoot", Type: r.bytes32Ty, Indexed: false},
		{Name: "senderSlotIndex", Type: r.uint256Ty, Indexed: false},
		{Name: "recipientSlotIndex", Type: r.uint256Ty, Indexed: false},
		{Name: "recipientAccount", Type: r.addressTy, Indexed: false},
		{Name: "tokenIndex", Type: r.uint256Ty, Indexed: false},
		{Name: "amount", Type: r.uint256Ty, Indexed: false},
		{Name: "nonce", Type: r.uint256Ty, Indexed: false},
		{Name: "signature", Type: r.bytesTy, Indexed: false},
	})
}

func (transition *TransferTransition) Serialize(s *Serializer) ([]byte, error) {
	return s.transferTransitionArguments.Pack(
		transition.TransitionType,
		transition.StateRoot,
		transition.SenderSlotIndex,
		transition.RecipientSlotIndex,
		transition.RecipientAccount,
		transition.TokenIndex,
		transition.Amount,
		transition.Nonce,
		transition.Signature,
	)
}

func (s *Serializer) DeserializeTransferTransition(data []byte) (*TransferTransition, error) {
	var transition TransferTransition
	err := s.transferTransitionArguments.Unpack(&transition, data)
	if err != nil {
		return nil, fmt.Errorf("Deserialize TransferTransition, data %x: %w", data, err)
	}
	return &transition, nil
}

// DeserializeTransition inspects the leading uint256 tag and dispatches to
// the matching variant decoder. A decode failure here is a DecodeError
// signal to callers, not a panic: a malicious operator can always submit
// garbage bytes as a transition.
func (s *Serializer) DeserializeTransition(data []byte) (Transition, error) {
	if len(data) < 32 {
		return nil, fmt.Errorf("transition data too short: %d bytes", len(data))
	}
	transitionType := new(big.Int).SetBytes(data[0:32]).Uint64()
	switch TransitionType(transitionType) {
	case TransitionTypeCreateAndDeposit:
		return s.DeserializeCreateAndDepositTransition(data)
	case TransitionTypeDeposit:
		return s.DeserializeDepositTransition(data)
	case TransitionTypeWithdraw:
		return s.DeserializeWithdrawTransition(data)
	case TransitionTypeCreateAndTransfer:
		return s.DeserializeCreateAndTransferTransition(data)
	case TransitionTypeTransfer:
		return s.DeserializeTransferTransition(data)
	}
	return nil, fmt.Errorf("unknown transition type %d", transitionType)
}
