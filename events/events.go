// Package events defines the observable log stream spec §6 names and a
// minimal in-memory sink for it. The real system's collaborators
// (Validator Registry, Token Registry, Rollup Chain) are separate
// Solidity contracts deployed on one base chain, so every event any of
// them emits lands in that chain's single log; here they're separate Go
// packages, so a shared Log is passed to whichever of them needs to emit
// one of these, keeping the stream unified the same way.
package events

import (
	"github.com/ethereum/go-ethereum/common"
)

type CommitterChanged struct {
	NewCommitter common.Address
}

type TokenRegistered struct {
	TokenAddress common.Address
	TokenIndex   uint64
}

type AccountRegistered struct {
	Account common.Address
}

type RollupBlockCommitted struct {
	BlockNumber uint64
	Transitions [][]byte
}

type Transition struct {
	Data []byte
}

type DecodedTransition struct {
	Success    bool
	ReturnData []byte
}

// Log is the in-memory observable log stream this module emits. A real
// base chain would index these by topic; here they're just appended in
// emission order.
type Log struct {
	events []interface{}
}

// NewLog returns an empty Log.
func NewLog() *Log {
	return &Log{}
}

// Append records event as the next entry in the stream. Safe to call
// with a nil *Log, as a no-op, so callers that don't care about the log
// stream (e.g. a TokenRegistry wired without one) don't need a sentinel.
func (l *Log) Append(event interface{}) {
	if l == nil {
		return
	}
	l.events = append(l.events, event)
}

// Events returns every event appended so far, oldest first.
func (l *Log) Events() []interface{} {
	if l == nil {
		return nil
	}
	return append([]interface{}{}, l.events...)
}
