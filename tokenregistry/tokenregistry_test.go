package tokenregistry

import (
	"testing"

	"github.com/celer-network/optimistic-rollup/db/memorydb"
	"github.com/celer-network/optimistic-rollup/events"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry(memorydb.NewDB(), nil)
	tokenA := common.HexToAddress("0x1111111111111111111111111111111111111111")
	tokenB := common.HexToAddress("0x2222222222222222222222222222222222222222")

	idxA, err := r.RegisterToken(tokenA)
	require.NoError(t, err)
	require.Equal(t, uint64(0), idxA)

	idxB, err := r.RegisterToken(tokenB)
	require.NoError(t, err)
	require.Equal(t, uint64(1), idxB)

	_, err = r.RegisterToken(tokenA)
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	addr, err := r.TokenAddress(1)
	require.NoError(t, err)
	require.Equal(t, tokenB, addr)
}

func TestIndexZeroAmbiguityResolvedByIsRegistered(t *testing.T) {
	r := NewRegistry(memorydb.NewDB(), nil)
	unregistered := common.HexToAddress("0x3333333333333333333333333333333333333333")
	registeredAtZero := common.HexToAddress("0x4444444444444444444444444444444444444444")

	idx, err := r.RegisterToken(registeredAtZero)
	require.NoError(t, err)
	require.Equal(t, uint64(0), idx)

	unregisteredIdx, err := r.Index(unregistered)
	require.NoError(t, err)
	require.Equal(t, uint64(0), unregisteredIdx)

	registeredIdx, err := r.Index(registeredAtZero)
	require.NoError(t, err)
	require.Equal(t, uint64(0), registeredIdx)

	isRegistered, err := r.IsRegistered(unregistered)
	require.NoError(t, err)
	require.False(t, isRegistered)

	isRegistered, err = r.IsRegistered(registeredAtZero)
	require.NoError(t, err)
	require.True(t, isRegistered)
}

func TestRegisterTokenEmitsTokenRegistered(t *testing.T) {
	log := events.NewLog()
	r := NewRegistry(memorydb.NewDB(), log)
	token := common.HexToAddress("0x5555555555555555555555555555555555555555")

	idx, err := r.RegisterToken(token)
	require.NoError(t, err)

	emitted := log.Events()
	require.Len(t, emitted, 1)
	require.Equal(t, events.TokenRegistered{TokenAddress: token, TokenIndex: idx}, emitted[0])
}
