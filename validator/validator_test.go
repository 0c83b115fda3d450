package validator

import (
	"crypto/ecdsa"
	"testing"

	"github.com/celer-network/optimistic-rollup/sig"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func mustKeys(t *testing.T, n int) []*ecdsa.PrivateKey {
	keys := make([]*ecdsa.PrivateKey, n)
	for i := range keys {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		keys[i] = key
	}
	return keys
}

func addresses(keys []*ecdsa.PrivateKey) []common.Address {
	addrs := make([]common.Address, len(keys))
	for i, key := range keys {
		addrs[i] = crypto.PubkeyToAddress(key.PublicKey)
	}
	return addrs
}

func sign(t *testing.T, key *ecdsa.PrivateKey, msg []byte) []byte {
	s, err := sig.SignData(key, msg)
	require.NoError(t, err)
	return s
}

func TestNewRegistryRejectsUnsetMode(t *testing.T) {
	_, err := NewRegistry(ModeUnset)
	require.ErrorIs(t, err, ErrSignatureModeUnset)
}

func TestCommitterRotationRequiresBinding(t *testing.T) {
	r, err := NewRegistry(ModeFixed)
	require.NoError(t, err)
	keys := mustKeys(t, 3)
	require.NoError(t, r.SetValidators(addresses(keys)))

	binding, err := r.BindRollupChain()
	require.NoError(t, err)

	_, err = r.BindRollupChain()
	require.ErrorIs(t, err, ErrAlreadyBound)

	first, err := r.CurrentCommitter()
	require.NoError(t, err)
	require.Equal(t, addresses(keys)[0], first)

	second, err := binding.PickNextCommitter()
	require.NoError(t, err)
	require.Equal(t, addresses(keys)[1], second)

	third, err := binding.PickNextCommitter()
	require.NoError(t, err)
	require.Equal(t, addresses(keys)[2], third)

	wrapped, err := binding.PickNextCommitter()
	require.NoError(t, err)
	require.Equal(t, addresses(keys)[0], wrapped)
}

func TestCheckSignaturesModeCompatRequiresUnanimity(t *testing.T) {
	r, err := NewRegistry(ModeCompat)
	require.NoError(t, err)
	keys := mustKeys(t, 5)
	require.NoError(t, r.SetValidators(addresses(keys)))

	msg := []byte("block digest")
	sigs := make([][]byte, len(keys))
	for i, key := range keys {
		sigs[i] = sign(t, key, msg)
	}
	ok, err := r.CheckSignatures(msg, sigs)
	require.NoError(t, err)
	require.True(t, ok)

	// Even with only one missing signature out of five, well above a
	// nominal two-thirds threshold, compat mode still rejects.
	sigs[len(sigs)-1] = nil
	ok, err = r.CheckSignatures(msg, sigs)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCheckSignaturesModeFixedUnanimityBelowFour(t *testing.T) {
	r, err := NewRegistry(ModeFixed)
	require.NoError(t, err)
	keys := mustKeys(t, 3)
	require.NoError(t, r.SetValidators(addresses(keys)))

	msg := []byte("block digest")
	sigs := [][]byte{sign(t, keys[0], msg), sign(t, keys[1], msg), nil}
	ok, err := r.CheckSignatures(msg, sigs)
	require.NoError(t, err)
	require.False(t, ok, "fewer than four validators still requires unanimity")

	sigs[2] = sign(t, keys[2], msg)
	ok, err = r.CheckSignatures(msg, sigs)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCheckSignaturesModeFixedSupermajorityAtFourOrMore(t *testing.T) {
	r, err := NewRegistry(ModeFixed)
	require.NoError(t, err)
	keys := mustKeys(t, 4)
	require.NoError(t, r.SetValidators(addresses(keys)))

	msg := []byte("block digest")
	sigs := [][]byte{sign(t, keys[0], msg), sign(t, keys[1], msg), sign(t, keys[2], msg), nil}
	ok, err := r.CheckSignatures(msg, sigs)
	require.NoError(t, err)
	require.True(t, ok, "3 of 4 valid signatures clears 3*count > 2*n")

	sigs = [][]byte{sign(t, keys[0], msg), sign(t, keys[1], msg), nil, nil}
	ok, err = r.CheckSignatures(msg, sigs)
	require.NoError(t, err)
	require.False(t, ok, "2 of 4 does not clear 3*count > 2*n")
}

func TestCheckSignaturesRejectsWrongSigner(t *testing.T) {
	r, err := NewRegistry(ModeFixed)
	require.NoError(t, err)
	keys := mustKeys(t, 3)
	impostor := mustKeys(t, 1)[0]
	require.NoError(t, r.SetValidators(addresses(keys)))

	msg := []byte("block digest")
	sigs := [][]byte{sign(t, impostor, msg), sign(t, keys[1], msg), sign(t, keys[2], msg)}
	ok, err := r.CheckSignatures(msg, sigs)
	require.NoError(t, err)
	require.False(t, ok)
}
