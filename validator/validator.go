// Package validator manages the rollup's validator set: who may commit
// blocks, in what rotation, and how many of their signatures a committed
// block's transitions must carry.
package validator

import (
	"errors"
	"sync"

	"github.com/celer-network/optimistic-rollup/sig"
	"github.com/ethereum/go-ethereum/common"
)

// SignatureMode selects which of the two historically-observed threshold
// rules CheckSignatures enforces. There is no default: callers must pick
// one explicitly so a deployment never silently ends up on the weaker
// compat behavior.
type SignatureMode int

const (
	ModeUnset SignatureMode = iota
	// ModeCompat reproduces the original checker's bug: it demands a
	// valid signature from every validator, at every index, regardless
	// of the nominal threshold, which this mode never consults.
	ModeCompat
	// ModeFixed enforces the documented threshold: unanimity when there
	// are fewer than four validators, otherwise more than two-thirds.
	ModeFixed
)

var (
	ErrNoValidators        = errors.New("validator: empty validator set")
	ErrSignatureModeUnset  = errors.New("validator: signature mode must be ModeCompat or ModeFixed")
	ErrSignatureCountMismatch = errors.New("validator: signatures slice must be the same length as the validator set")
	ErrAlreadyBound        = errors.New("validator: rollup chain already bound")
	ErrNotBound            = errors.New("validator: no rollup chain bound yet")
)

// Binding is the capability a Registry hands out exactly once, to the one
// RollupChain that is allowed to call its committer-rotation methods. The
// link runs one way: the chain holds the Registry and this Binding, while
// the Registry keeps no reference to the chain, only a record that its one
// Binding has been issued.
type Binding struct {
	registry *Registry
}

// Registry holds the current validator set and committer rotation
// pointer. All mutating methods run under a single lock: like the rest of
// this settlement core, a Registry call runs to completion atomically and
// never partially applies a validator-set change.
type Registry struct {
	mu            sync.Mutex
	mode          SignatureMode
	validators    []common.Address
	committerIdx  int
	bound         bool
}

func NewRegistry(mode SignatureMode) (*Registry, error) {
	if mode != ModeCompat && mode != ModeFixed {
		return nil, ErrSignatureModeUnset
	}
	return &Registry{mode: mode}, nil
}

// BindRollupChain grants the single Binding capability this Registry will
// ever issue. A second call fails: the wiring is one-shot, not shared
// mutable ownership.
func (r *Registry) BindRollupChain() (*Binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bound {
		return nil, ErrAlreadyBound
	}
	r.bound = true
	return &Binding{registry: r}, nil
}

// SetValidators replaces the validator set and resets the committer
// rotation to the first validator.
func (r *Registry) SetValidators(validators []common.Address) error {
	if len(validators) == 0 {
		return ErrNoValidators
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators = append([]common.Address{}, validators...)
	r.committerIdx = 0
	return nil
}

// Validators returns a copy of the current validator set.
func (r *Registry) Validators() []common.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]common.Address{}, r.validators...)
}

// CurrentCommitter returns the validator whose turn it is to commit the
// next block.
func (r *Registry) CurrentCommitter() (common.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.validators) == 0 {
		return common.Address{}, ErrNoValidators
	}
	return r.validators[r.committerIdx], nil
}

// PickNextCommitter advances the rotation to the next validator in
// round-robin order. Only the bound RollupChain may call this, since it
// happens exactly once per committed block.
func (b *Binding) PickNextCommitter() (common.Address, error) {
	r := b.registry
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.bound {
		return common.Address{}, ErrNotBound
	}
	if len(r.validators) == 0 {
		return common.Address{}, ErrNoValidators
	}
	r.committerIdx = (r.committerIdx + 1) % len(r.validators)
	return r.validators[r.committerIdx], nil
}

// CheckSignatures verifies that signatures (ordered the same as the
// current validator set; a missing signature is a nil or empty slice at
// that index) meet this Registry's threshold over message.
func (r *Registry) CheckSignatures(message []byte, signatures [][]byte) (bool, error) {
	r.mu.Lock()
	validators := append([]common.Address{}, r.validators...)
	mode := r.mode
	r.mu.Unlock()

	if len(validators) == 0 {
		return false, ErrNoValidators
	}
	if len(signatures) != len(validators) {
		return false, ErrSignatureCountMismatch
	}

	switch mode {
	case ModeCompat:
		for i, validator := range validators {
			if len(signatures[i]) == 0 || !sig.IsValid(validator, message, signatures[i]) {
				return false, nil
			}
		}
		return true, nil
	case ModeFixed:
		validCount := 0
		for i, validator := range validators {
			if len(signatures[i]) != 0 && sig.IsValid(validator, message, signatures[i]) {
				validCount++
			}
		}
		n := len(validators)
		if n < 4 {
			return validCount == n, nil
		}
		return 3*validCount > 2*n, nil
	}
	return false, ErrSignatureModeUnset
}
