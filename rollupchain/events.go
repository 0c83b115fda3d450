package rollupchain

import (
	"github.com/celer-network/optimistic-rollup/events"
)

// Event type aliases so callers outside this package can keep writing
// rollupchain.CommitterChanged etc. while the underlying definitions and
// the shared Log live in the events package alongside TokenRegistered,
// which tokenregistry.Registry also emits into the same stream.
type (
	CommitterChanged     = events.CommitterChanged
	TokenRegistered      = events.TokenRegistered
	AccountRegistered    = events.AccountRegistered
	RollupBlockCommitted = events.RollupBlockCommitted
	Transition           = events.Transition
	DecodedTransition    = events.DecodedTransition
)
