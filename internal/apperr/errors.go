// Package apperr defines the error kinds shared by the store and the MCP layer.
//
// Domain errors are sentinels matched with errors.Is. Protocol faults are
// *Fault values carrying a kind that maps to a JSON-RPC error code.
package apperr

import (
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrIO            = errors.New("i/o failure")
	ErrInvalid       = errors.New("invalid input")
)

// FaultKind classifies a protocol-level fault.
type FaultKind int

const (
	MethodNotFound FaultKind = iota + 1
	InvalidRequest
	InternalError
)

// String returns the kind name.
func (k FaultKind) String() string {
	switch k {
	case MethodNotFound:
		return "method-not-found"
	case InvalidRequest:
		return "invalid-request"
	case InternalError:
		return "internal-error"
	default:
		return "unknown"
	}
}

// Fault is a structured protocol-level error that propagates to the transport.
type Fault struct {
	Kind    FaultKind
	Message string
	Err     error
}

// NewFault creates a Fault with a formatted message.
func NewFault(kind FaultKind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapFault creates a Fault that keeps err as its cause.
func WrapFault(kind FaultKind, err error, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Fault) Unwrap() error { return f.Err }

// Code returns the JSON-RPC error code for the fault kind.
func (f *Fault) Code() int {
	switch f.Kind {
	case MethodNotFound:
		return mcp.METHOD_NOT_FOUND
	case InvalidRequest:
		return mcp.INVALID_REQUEST
	default:
		return mcp.INTERNAL_ERROR
	}
}

// AsFault returns the *Fault in err's chain, if any.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
