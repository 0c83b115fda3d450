package merkle

import "testing"

func TestTransitionsRootVerifyRoundTrip(t *testing.T) {
	leaves := [][]byte{
		[]byte("transition-0"),
		[]byte("transition-1"),
		[]byte("transition-2"),
	}
	root, err := TransitionsRoot(leaves)
	if err != nil {
		t.Fatalf("TransitionsRoot: %v", err)
	}

	for i, leaf := range leaves {
		proof, err := TransitionInclusionProof(leaves, i)
		if err != nil {
			t.Fatalf("TransitionInclusionProof(%d): %v", i, err)
		}
		if !VerifyTransition(root, i, len(leaves), leaf, proof) {
			t.Fatalf("VerifyTransition failed for index %d", i)
		}
	}
}

func TestVerifyTransitionRejectsWrongLeaf(t *testing.T) {
	leaves := [][]byte{[]byte("a"), []byte("b")}
	root, err := TransitionsRoot(leaves)
	if err != nil {
		t.Fatalf("TransitionsRoot: %v", err)
	}
	proof, err := TransitionInclusionProof(leaves, 0)
	if err != nil {
		t.Fatalf("TransitionInclusionProof: %v", err)
	}
	if VerifyTransition(root, 0, len(leaves), []byte("not-a"), proof) {
		t.Fatal("expected verification to fail for a tampered leaf")
	}
}

func TestTransitionsRootSingleLeaf(t *testing.T) {
	leaves := [][]byte{[]byte("only")}
	root, err := TransitionsRoot(leaves)
	if err != nil {
		t.Fatalf("TransitionsRoot: %v", err)
	}
	proof, err := TransitionInclusionProof(leaves, 0)
	if err != nil {
		t.Fatalf("TransitionInclusionProof: %v", err)
	}
	if !VerifyTransition(root, 0, len(leaves), leaves[0], proof) {
		t.Fatal("single-transition block should still verify")
	}
}
