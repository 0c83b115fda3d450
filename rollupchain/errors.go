package rollupchain

import "errors"

var (
	// ErrNotBound is returned by any method that needs a validator
	// registry before one has been bound via BindValidatorRegistry.
	ErrNotBound = errors.New("rollupchain: no validator registry bound yet")
	// ErrAlreadyBound is returned by a second BindValidatorRegistry call.
	ErrAlreadyBound = errors.New("rollupchain: validator registry already bound")

	// ErrWrongCommitter is the caller-misuse abort when the caller is not
	// the current committer.
	ErrWrongCommitter = errors.New("rollupchain: only the current committer may commit a block")
	// ErrWrongBlockNumber is the caller-misuse abort for a block number
	// that does not match the chain's current length.
	ErrWrongBlockNumber = errors.New("rollupchain: wrong block number")
	// ErrSignatureThresholdNotMet is the caller-misuse abort when the
	// supplied signatures do not clear the validator set's threshold.
	ErrSignatureThresholdNotMet = errors.New("rollupchain: signature threshold not met")

	// ErrNoFraudDetected is the sentinel "no fraud" outcome of a full
	// adjudication: reaching the end without detecting fraud means the
	// caller was wrong, and the call must fail so the caller pays for the
	// attempt.
	ErrNoFraudDetected = errors.New("rollupchain: no fraud detected")

	// ErrNotSequential is the caller-misuse abort when the pre- and
	// invalid-transition inclusion proofs don't describe adjacent
	// transitions.
	ErrNotSequential = errors.New("rollupchain: transitions are not sequential")
	// ErrPreTransitionUndecodable aborts a fraud proof that tries to use an
	// already-broken prior transition as its pre-state anchor; the caller
	// should challenge the prior transition directly instead.
	ErrPreTransitionUndecodable = errors.New("rollupchain: pre-transition failed to decode, challenge it directly instead")
	// ErrAccessListMismatch is the caller-misuse abort when the supplied
	// storage slots don't match the transition's declared access list.
	ErrAccessListMismatch = errors.New("rollupchain: supplied storage slots do not match the transition's access list")
	// ErrBadStorageWitness is the caller-misuse abort when a storage slot
	// witness fails to verify against the pre-state root.
	ErrBadStorageWitness = errors.New("rollupchain: storage slot witness failed to verify against the pre-state root")
	// ErrBlockPruned marks an inclusion proof against a tombstoned block.
	ErrBlockPruned = errors.New("rollupchain: block is pruned")
	// ErrBlockNotFound marks an inclusion proof against a block number at
	// or beyond the ledger's length.
	ErrBlockNotFound = errors.New("rollupchain: block number out of range")
)
