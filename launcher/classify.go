package launcher

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/cogni-dao/proposal-launcher/proposal"
)

// Stage names the pipeline step an error came from.
type Stage string

const (
	StageEncode   Stage = "encode"
	StageEstimate Stage = "estimate"
	StageSubmit   Stage = "submit"
	StageConfirm  Stage = "confirm"
)

// StageError attaches the failing stage to a pipeline error.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Category groups failures by what the user can do about them.
type Category string

const (
	CategoryRejected          Category = "rejected"
	CategoryInsufficientFunds Category = "insufficient-funds"
	CategoryFaucet            Category = "faucet"
	CategoryEncoding          Category = "encoding"
	CategoryEstimation        Category = "estimation"
	CategoryReverted          Category = "reverted"
	CategoryUnknown           Category = "unknown"
)

const (
	MsgRejected          = "Transaction was cancelled by user"
	MsgInsufficientFunds = "Insufficient funds for transaction"
	MsgUnknown           = "Unknown error occurred"
)

// faucetErrors are the faucet's custom error names in match order.
var faucetErrors = []string{"AlreadyClaimed", "FaucetPaused", "GlobalCapExceeded"}

// faucetMessages are the user facing messages of the faucet's custom errors.
var faucetMessages = map[string]string{
	"AlreadyClaimed":    "You have already claimed your tokens.",
	"FaucetPaused":      "The faucet is temporarily unavailable.",
	"GlobalCapExceeded": "The faucet has no tokens remaining.",
}

// Failure is a classified submission error.
type Failure struct {
	Category Category
	// Message is safe to show to the user.
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Classify turns a pipeline error into a Failure by matching the known error shapes. Faucet custom
// errors are recognized by their revert selector or their name. Errors that match nothing are
// reported with a generic message; the detail stays in Err.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}

	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	msg := err.Error()

	if name, ok := faucetError(err); ok {
		return &Failure{Category: CategoryFaucet, Message: faucetMessages[name], Err: err}
	}

	switch {
	case strings.Contains(msg, "User rejected") || strings.Contains(msg, "user rejected"):
		return &Failure{Category: CategoryRejected, Message: MsgRejected, Err: err}
	case strings.Contains(msg, "insufficient funds"):
		return &Failure{Category: CategoryInsufficientFunds, Message: MsgInsufficientFunds, Err: err}
	}

	var se *StageError
	if errors.As(err, &se) {
		switch se.Stage {
		case StageEncode:
			return &Failure{Category: CategoryEncoding, Message: "Failed to encode transaction: " + se.Err.Error(), Err: err}
		case StageEstimate:
			return &Failure{Category: CategoryEstimation, Message: "Gas estimation failed: " + se.Err.Error(), Err: err}
		case StageConfirm:
			if strings.Contains(msg, "reverted") {
				return &Failure{Category: CategoryReverted, Message: "Transaction reverted: " + se.Err.Error(), Err: err}
			}
		}
	}

	return &Failure{Category: CategoryUnknown, Message: MsgUnknown, Err: err}
}

// faucetError returns the name of the faucet custom error carried by err, decoded from its revert
// data or else found in its message.
func faucetError(err error) (string, bool) {
	var de rpc.DataError
	if errors.As(err, &de) {
		if data, ok := de.ErrorData().(string); ok {
			if raw, derr := hexutil.Decode(data); derr == nil && len(raw) >= 4 {
				for name, e := range proposal.FaucetMinterABI.Errors {
					if [4]byte(raw[:4]) == [4]byte(e.ID[:4]) {
						return name, true
					}
				}
			}
		}
	}

	// The earliest name in the message wins.
	msg := err.Error()
	found, at := "", -1
	for _, name := range faucetErrors {
		if i := strings.Index(msg, name); i >= 0 && (at < 0 || i < at) {
			found, at = name, i
		}
	}

	return found, at >= 0
}
