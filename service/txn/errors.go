package txn

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// Kind classifies a failure so callers can decide whether to surface it,
// retry it, or rebuild the transaction.
type Kind int

const (
	// KindValidation means the caller supplied unusable inputs.
	KindValidation Kind = iota
	// KindDerivation means an address could not be derived.
	KindDerivation
	// KindDecode means account data did not match the expected layout.
	KindDecode
	// KindNetwork means an RPC call failed; retrying may help.
	KindNetwork
	// KindUserRejected means the signer declined to sign.
	KindUserRejected
	// KindExpired means the transaction outlived its blockhash without
	// confirming. It may still land; callers must rebuild, not blindly
	// resubmit.
	KindExpired
	// KindSimulation means the program rejected the transaction during
	// preflight or execution.
	KindSimulation
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDerivation:
		return "derivation"
	case KindDecode:
		return "decode"
	case KindNetwork:
		return "network"
	case KindUserRejected:
		return "user_rejected"
	case KindExpired:
		return "expired"
	case KindSimulation:
		return "simulation"
	default:
		return "unknown"
	}
}

// Error is a classified failure. The Detail field preserves any program
// diagnostic verbatim so it reaches the user unaltered.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// ErrUserRejected is returned by signers when the user declines.
var ErrUserRejected = errors.New("signing rejected")

// NewValidationError reports unusable caller input.
func NewValidationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Detail: fmt.Sprintf(format, args...)}
}

// WrapDerivation classifies an address derivation failure.
func WrapDerivation(err error) *Error {
	return &Error{Kind: KindDerivation, Err: err}
}

// WrapDecode classifies an account decoding failure.
func WrapDecode(err error) *Error {
	return &Error{Kind: KindDecode, Err: err}
}

// ClassifyRPCError maps a transport failure to the taxonomy. JSON-RPC
// errors carrying program logs are simulation failures and keep the node's
// message verbatim; everything else is a network failure.
func ClassifyRPCError(err error) *Error {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		detail := rpcErr.Message
		if rpcErr.Data != nil {
			detail = fmt.Sprintf("%s: %v", rpcErr.Message, rpcErr.Data)
		}
		return &Error{Kind: KindSimulation, Detail: detail, Err: err}
	}
	return &Error{Kind: KindNetwork, Err: err}
}

// IsKind reports whether err is a classified error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
