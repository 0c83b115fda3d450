package types

// InclusionProof is a sibling path from a leaf up to a tree root, ordered
// from the leaf's immediate sibling to the root's.
type InclusionProof [][32]byte
