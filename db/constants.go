package db

var (
	// NamespaceStateTree stores the sparse Merkle tree of account slots,
	// addressed over the full 32-bit slot-index domain.
	NamespaceStateTree = []byte("st")
	// NamespaceTransitionsTree stores the per-block transitions tree used
	// only while computing/verifying a block's root; callers throw the
	// backing store away once a block is committed.
	NamespaceTransitionsTree = []byte("tt")
	// NamespaceTokenAddressToIndex and NamespaceTokenIndexToAddress back
	// the token registry's bidirectional allocation table.
	NamespaceTokenAddressToIndex = []byte("tati")
	NamespaceTokenIndexToAddress = []byte("tita")
	// NamespaceRollupBlocks stores committed (or tombstoned) blocks keyed
	// by block number.
	NamespaceRollupBlocks = []byte("rb")
	// NamespaceValidatorSet is reserved for the validator set and committer
	// rotation pointer. Nothing in this module reads or writes it:
	// validator.Registry keeps both in memory.
	NamespaceValidatorSet = []byte("vs")

	EmptyKey  = []byte{}
	Separator = []byte("|")
)

// PrependNamespace joins a namespace and key the way every backend's key
// layout expects: namespace, separator, key.
func PrependNamespace(namespace []byte, key []byte) []byte {
	if namespace != nil {
		return append(append(append([]byte{}, namespace...), Separator...), key...)
	}
	return key
}

// ConvNilToBytes normalizes a nil slice to an empty, non-nil one so callers
// can compare/serialize it safely.
func ConvNilToBytes(byteArray []byte) []byte {
	if byteArray == nil {
		return []byte{}
	}
	return byteArray
}
