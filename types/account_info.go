package types

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// EmptyAccountInfoSlot is the canonical encoding of an uninhabited state
// slot: a single 32-byte zero word, distinct from the ABI tuple encoding of
// a zero-valued AccountInfo. The state tree's default leaf must use this
// value so an empty slot hashes identically everywhere it is referenced.
var EmptyAccountInfoSlot = make([]byte, 32)

// IsEmptyAccountInfoSlot reports whether data is the canonical empty-slot
// encoding rather than a serialized AccountInfo.
func IsEmptyAccountInfoSlot(data []byte) bool {
	return bytes.Equal(data, EmptyAccountInfoSlot)
}

// AccountInfo is one state-tree leaf: a token holder's balance and the two
// independent per-token nonce sequences that guard withdraw and transfer
// transitions against replay.
type AccountInfo struct {
	Account        common.Address
	Balances       []*uint256.Int
	TransferNonces []*uint256.Int
	WithdrawNonces []*uint256.Int
}

// IsEmpty reports whether info represents an uninhabited state slot: a nil
// pointer, or the zero-valued struct DeserializeAccountInfo returns for the
// canonical empty-slot encoding. Slot-creation transitions (CreateAndDeposit,
// the recipient half of CreateAndTransfer) must check this against their
// witnessed input before writing, or an operator can create over an
// already-occupied slot and clobber its balance.
func (info *AccountInfo) IsEmpty() bool {
	if info == nil {
		return true
	}
	return info.Account == (common.Address{}) && len(info.Balances) == 0 &&
		len(info.TransferNonces) == 0 && len(info.WithdrawNonces) == 0
}

func createAccountInfoArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "account", Type: r.addressTy, Indexed: false},
		{Name: "balances", Type: r.uint256SliceTy, Indexed: false},
		{Name: "transferNonces", Type: r.uint256SliceTy, Indexed: false},
		{Name: "withdrawNonces", Type: r.uint256SliceTy, Indexed: false},
	})
}

func createAccountInfoArgumentMarshaling() []abi.ArgumentMarshaling {
	return []abi.ArgumentMarshaling{
		{Name: "account", Type: "address"},
		{Name: "balances", Type: "uint256[]"},
		{Name: "transferNonces", Type: "uint256[]"},
		{Name: "withdrawNonces", Type: "uint256[]"},
	}
}

func createAccountInfoType(r *typeRegistry) (abi.Type, error) {
	return abi.NewType("tuple", "", createAccountInfoArgumentMarshaling())
}

func uint256SliceToBig(vals []*uint256.Int) []*big.Int {
	out := make([]*big.Int, len(vals))
	for i, v := range vals {
		if v == nil {
			out[i] = new(big.Int)
			continue
		}
		out[i] = v.ToBig()
	}
	return out
}

func bigSliceToUint256(vals []*big.Int) ([]*uint256.Int, error) {
	out := make([]*uint256.Int, len(vals))
	for i, v := range vals {
		u, overflow := uint256.FromBig(v)
		if overflow {
			return nil, fmt.Errorf("value %v overflows uint256", v)
		}
		out[i] = u
	}
	return out, nil
}

func (info *AccountInfo) Serialize(s *Serializer) ([]byte, error) {
	data, err := s.accountInfoArguments.Pack(
		info.Account,
		uint256SliceToBig(info.Balances),
		uint256SliceToBig(info.TransferNonces),
		uint256SliceToBig(info.WithdrawNonces),
	)
	if err != nil {
		return nil, fmt.Errorf("Serialize AccountInfo %v: %w", info, err)
	}
	return data, nil
}

func (s *Serializer) DeserializeAccountInfo(data []byte) (*AccountInfo, error) {
	if IsEmptyAccountInfoSlot(data) {
		return &AccountInfo{}, nil
	}
	var raw struct {
		Account        common.Address
		Balances       []*big.Int
		TransferNonces []*big.Int
		WithdrawNonces []*big.Int
	}
	err := s.accountInfoArguments.Unpack(&raw, data)
	if err != nil {
		return nil, fmt.Errorf("Deserialize AccountInfo, data %x: %w", data, err)
	}
	balances, err := bigSliceToUint256(raw.Balances)
	if err != nil {
		return nil, fmt.Errorf("Deserialize AccountInfo balances: %w", err)
	}
	transferNonces, err := bigSliceToUint256(raw.TransferNonces)
	if err != nil {
		return nil, fmt.Errorf("Deserialize AccountInfo transferNonces: %w", err)
	}
	withdrawNonces, err := bigSliceToUint256(raw.WithdrawNonces)
	if err != nil {
		return nil, fmt.Errorf("Deserialize AccountInfo withdrawNonces: %w", err)
	}
	return &AccountInfo{
		Account:        raw.Account,
		Balances:       balances,
		TransferNonces: transferNonces,
		WithdrawNonces: withdrawNonces,
	}, nil
}
