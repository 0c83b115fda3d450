package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// StorageSlot pairs a state-tree index with the account occupying it.
type StorageSlot struct {
	SlotIndex   *big.Int
	AccountInfo *AccountInfo
}

func createStorageSlotArguments(r *typeRegistry) (abi.Arguments, error) {
	accountInfoType, err := createAccountInfoType(r)
	if err != nil {
		return nil, err
	}
	return abi.Arguments([]abi.Argument{
		{Name: "slotIndex", Type: r.uint256Ty, Indexed: false},
		{Name: "accountInfo", Type: accountInfoType, Indexed: false},
	}), nil
}

func createStorageSlotType(r *typeRegistry) (abi.Type, error) {
	return abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "slotIndex", Type: "uint256"},
		{Name: "accountInfo", Type: "tuple", Components: createAccountInfoArgumentMarshaling()},
	})
}

func (slot *StorageSlot) Serialize(s *Serializer) ([]byte, error) {
	data, err := s.storageSlotArguments.Pack(
		slot.SlotIndex,
		slot.AccountInfo,
	)
	if err != nil {
		return nil, fmt.Errorf("Serialize StorageSlot %v: %w", slot, err)
	}
	return data, nil
}

func (s *Serializer) DeserializeStorageSlot(data []byte) (*StorageSlot, error) {
	var raw struct {
		SlotIndex   *big.Int
		AccountInfo struct {
			Account        [20]byte
			Balances       []*big.Int
			TransferNonces []*big.Int
			WithdrawNonces []*big.Int
		}
	}
	if err := s.storageSlotArguments.Unpack(&raw, data); err != nil {
		return nil, fmt.Errorf("Deserialize StorageSlot, data %x: %w", data, err)
	}
	accountInfoData, err := s.accountInfoArguments.Pack(
		raw.AccountInfo.Account,
		raw.AccountInfo.Balances,
		raw.AccountInfo.TransferNonces,
		raw.AccountInfo.WithdrawNonces,
	)
	if err != nil {
		return nil, fmt.Errorf("Deserialize StorageSlot, re-pack accountInfo: %w", err)
	}
	accountInfo, err := s.DeserializeAccountInfo(accountInfoData)
	if err != nil {
		return nil, err
	}
	return &StorageSlot{SlotIndex: raw.SlotIndex, AccountInfo: accountInfo}, nil
}

// IncludedStorageSlot is a StorageSlot plus its Merkle inclusion path
// against the state tree root referenced by a pre-state transition.
type IncludedStorageSlot struct {
	StorageSlot *StorageSlot
	Siblings    InclusionProof
}

func createIncludedStorageSlotArguments(r *typeRegistry) (abi.Arguments, error) {
	storageSlotType, err := createStorageSlotType(r)
	if err != nil {
		return nil, err
	}
	return abi.Arguments([]abi.Argument{
		{Name: "storageSlot", Type: storageSlotType, Indexed: false},
		{Name: "siblings", Type: r.bytes32SliceTy, Indexed: false},
	}), nil
}

// TransitionInclusionProof locates a transition within a committed block's
// transitions tree.
type TransitionInclusionProof struct {
	BlockNumber     *big.Int
	TransitionIndex *big.Int
	Siblings        InclusionProof
}

func createTransitionInclusionProofArgumentMarshaling() []abi.ArgumentMarshaling {
	return []abi.ArgumentMarshaling{
		{Name: "blockNumber", Type: "uint256"},
		{Name: "transitionIndex", Type: "uint256"},
		{Name: "siblings", Type: "bytes32[]"},
	}
}

func createTransitionInclusionProofType(r *typeRegistry) (abi.Type, error) {
	return abi.NewType("tuple", "", createTransitionInclusionProofArgumentMarshaling())
}

// IncludedTransition is the raw encoded transition plus the proof that it
// sits at InclusionProof.TransitionIndex within block InclusionProof.BlockNumber.
type IncludedTransition struct {
	Transition     []byte
	InclusionProof *TransitionInclusionProof
}

func createIncludedTransitionType(r *typeRegistry) (abi.Type, error) {
	return abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "transition", Type: "bytes"},
		{Name: "inclusionProof", Type: "tuple", Components: createTransitionInclusionProofArgumentMarshaling()},
	})
}

// ConvertToInclusionProof adapts a flat sibling list into the fixed-width
// [32]byte form the Merkle engine operates on.
func ConvertToInclusionProof(data [][]byte) InclusionProof {
	proof := make([][32]byte, len(data))
	for i, sibling := range data {
		var arr [32]byte
		copy(arr[:], sibling)
		proof[i] = arr
	}
	return proof
}
