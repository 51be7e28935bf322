package launcher

import (
	"github.com/ethereum/go-ethereum/common"
)

// StateKind is the phase of a submission.
type StateKind int

const (
	StateIdle StateKind = iota
	StatePending
	StateSuccess
	StateFailed
)

func (k StateKind) String() string {
	switch k {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state only changes when the submission is re-triggered.
func (k StateKind) Terminal() bool {
	return k == StateSuccess || k == StateFailed
}

// State is a snapshot of the transaction state owned by an Orchestrator.
type State struct {
	Kind StateKind
	// TxHash is set once the transaction was sent, including when confirmation later fails.
	TxHash common.Hash
	// Block is the block the transaction was mined in. Zero when the chain has no confirm function.
	Block uint64
	// Failure is set in StateFailed.
	Failure *Failure
}

// Observer is notified of every state transition, in order.
type Observer func(State)
