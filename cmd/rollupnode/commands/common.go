// Package commands implements the rollupnode subcommands: commit, which
// drives a block through Chain.CommitBlock; challenge, which drives a
// disputed transition through Chain.ProveTransitionInvalid; witness, which
// builds an IncludedTransition from a block's transitions; and
// register-token, which drives the token registry's admin-gated
// RegisterToken.
package commands

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/celer-network/optimistic-rollup/config"
	"github.com/celer-network/optimistic-rollup/evaluator"
	"github.com/celer-network/optimistic-rollup/rollupchain"
	"github.com/celer-network/optimistic-rollup/types"
	"github.com/celer-network/optimistic-rollup/validator"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const flagConfig = "config"

// bootstrapChain loads a RollupConfig from configPath and wires up a Chain
// with a freshly bound validator registry, the way a rollupnode process
// does on every invocation. The ledger and state tree persist across
// invocations when the config names the badger backend; the committer
// rotation does not, since validator.Registry keeps no state in the db —
// callers driving a multi-block demo against memory or a fresh badger
// directory should name the committer in each block file explicitly
// rather than rely on rotation surviving a process restart.
func bootstrapChain(configPath string) (*rollupchain.Chain, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	db, err := cfg.OpenStorage()
	if err != nil {
		return nil, err
	}

	serializer, err := types.NewSerializer()
	if err != nil {
		return nil, err
	}
	contractAddr, err := cfg.ParseContractAddress()
	if err != nil {
		return nil, err
	}
	eval := evaluator.NewEvaluator(serializer, contractAddr)
	chain := rollupchain.NewChain(db, serializer, eval)

	mode, err := cfg.ParseSignatureMode()
	if err != nil {
		return nil, err
	}
	registry, err := validator.NewRegistry(mode)
	if err != nil {
		return nil, err
	}
	validators, err := cfg.ValidatorAddresses()
	if err != nil {
		return nil, err
	}
	if err := registry.SetValidators(validators); err != nil {
		return nil, err
	}
	if err := chain.BindValidatorRegistry(registry); err != nil {
		return nil, err
	}

	return chain, nil
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

func decodeHexSlice(ss []string) ([][]byte, error) {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		b, err := decodeHex(s)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}

func decodeSiblings(ss []string) ([][32]byte, error) {
	out := make([][32]byte, len(ss))
	for i, s := range ss {
		b, err := decodeHex(s)
		if err != nil {
			return nil, fmt.Errorf("sibling %d: %w", i, err)
		}
		if len(b) != 32 {
			return nil, fmt.Errorf("sibling %d: want 32 bytes, got %d", i, len(b))
		}
		copy(out[i][:], b)
	}
	return out, nil
}

func parseBigInt(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not a base-10 integer", s)
	}
	return n, nil
}

func parseUint256Slice(ss []string) ([]*uint256.Int, error) {
	out := make([]*uint256.Int, len(ss))
	for i, s := range ss {
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("entry %d: %q is not a base-10 integer", i, s)
		}
		v, overflow := uint256.FromBig(n)
		if overflow {
			return nil, fmt.Errorf("entry %d: %q overflows uint256", i, s)
		}
		out[i] = v
	}
	return out, nil
}

// accountInfoFile is the JSON shape an AccountInfo is read as, matching
// the teacher's choice of base-10 decimal strings for the large integers
// the real type stores as *uint256.Int.
type accountInfoFile struct {
	Account        string   `json:"account"`
	Balances       []string `json:"balances"`
	TransferNonces []string `json:"transferNonces"`
	WithdrawNonces []string `json:"withdrawNonces"`
}

func (f *accountInfoFile) toAccountInfo() (*types.AccountInfo, error) {
	if !common.IsHexAddress(f.Account) {
		return nil, fmt.Errorf("account %q is not a hex address", f.Account)
	}
	balances, err := parseUint256Slice(f.Balances)
	if err != nil {
		return nil, fmt.Errorf("balances: %w", err)
	}
	transferNonces, err := parseUint256Slice(f.TransferNonces)
	if err != nil {
		return nil, fmt.Errorf("transferNonces: %w", err)
	}
	withdrawNonces, err := parseUint256Slice(f.WithdrawNonces)
	if err != nil {
		return nil, fmt.Errorf("withdrawNonces: %w", err)
	}
	return &types.AccountInfo{
		Account:        common.HexToAddress(f.Account),
		Balances:       balances,
		TransferNonces: transferNonces,
		WithdrawNonces: withdrawNonces,
	}, nil
}

// transitionInclusionProofFile is the JSON shape a
// types.TransitionInclusionProof is read as.
type transitionInclusionProofFile struct {
	BlockNumber     string   `json:"blockNumber"`
	TransitionIndex string   `json:"transitionIndex"`
	Siblings        []string `json:"siblings"`
}

func (f *transitionInclusionProofFile) toProof() (*types.TransitionInclusionProof, error) {
	blockNumber, err := parseBigInt(f.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("blockNumber: %w", err)
	}
	transitionIndex, err := parseBigInt(f.TransitionIndex)
	if err != nil {
		return nil, fmt.Errorf("transitionIndex: %w", err)
	}
	siblings, err := decodeSiblings(f.Siblings)
	if err != nil {
		return nil, fmt.Errorf("siblings: %w", err)
	}
	return &types.TransitionInclusionProof{
		BlockNumber:     blockNumber,
		TransitionIndex: transitionIndex,
		Siblings:        siblings,
	}, nil
}

// includedTransitionFile is the JSON shape a types.IncludedTransition is
// read as: the transition's already-encoded bytes, plus the proof that it
// sits where it claims.
type includedTransitionFile struct {
	Transition     string                       `json:"transition"`
	InclusionProof transitionInclusionProofFile `json:"inclusionProof"`
}

func (f *includedTransitionFile) toIncludedTransition() (*types.IncludedTransition, error) {
	encoded, err := decodeHex(f.Transition)
	if err != nil {
		return nil, fmt.Errorf("transition: %w", err)
	}
	proof, err := f.InclusionProof.toProof()
	if err != nil {
		return nil, fmt.Errorf("inclusionProof: %w", err)
	}
	return &types.IncludedTransition{Transition: encoded, InclusionProof: proof}, nil
}

// includedStorageSlotFile is the JSON shape a types.IncludedStorageSlot is
// read as: the account a slot claims to hold, plus the sibling path
// proving that claim against the pre-state root.
type includedStorageSlotFile struct {
	SlotIndex   string          `json:"slotIndex"`
	AccountInfo accountInfoFile `json:"accountInfo"`
	Siblings    []string        `json:"siblings"`
}

func (f *includedStorageSlotFile) toIncludedStorageSlot() (*types.IncludedStorageSlot, error) {
	slotIndex, err := parseBigInt(f.SlotIndex)
	if err != nil {
		return nil, fmt.Errorf("slotIndex: %w", err)
	}
	accountInfo, err := f.AccountInfo.toAccountInfo()
	if err != nil {
		return nil, fmt.Errorf("accountInfo: %w", err)
	}
	siblings, err := decodeSiblings(f.Siblings)
	if err != nil {
		return nil, fmt.Errorf("siblings: %w", err)
	}
	return &types.IncludedStorageSlot{
		StorageSlot: &types.StorageSlot{SlotIndex: slotIndex, AccountInfo: accountInfo},
		Siblings:    siblings,
	}, nil
}
