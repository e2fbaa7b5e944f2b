// Package pgerr defines the four error kinds pulsegen surfaces at its outer
// entry point: InvalidInput, LayoutError, OutOfRange, and
// InternalInvariant. Every core package returns plain Go errors internally;
// internal/pulsegen classifies and wraps them with enough context (channel,
// schedule node) to be actionable, the way mml.Parser wraps parse failures
// with line/column context before returning them.
package pgerr

import "fmt"

// Kind identifies which of the four error categories an Error belongs to.
type Kind int

const (
	// InvalidInput covers NaN/Inf parameters, negative width/plateau,
	// unknown channel/shape ids, and mismatched crosstalk matrix shapes.
	InvalidInput Kind = iota
	// LayoutError covers arrange-before-measure, final_duration less than
	// desired_duration, and cyclic element references.
	LayoutError
	// OutOfRange covers a pulse writing outside [0, length) when
	// allow_oversize is false.
	OutOfRange
	// InternalInvariant covers debug-only assertion failures that indicate
	// a bug in pulsegen itself, not a caller error.
	InternalInvariant
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case LayoutError:
		return "LayoutError"
	case OutOfRange:
		return "OutOfRange"
	case InternalInvariant:
		return "InternalInvariant"
	default:
		return "Unknown"
	}
}

// Error is the wrapped error type pulsegen returns to callers.
type Error struct {
	Kind    Kind
	Channel string // offending channel name, if known
	Node    string // offending schedule node description, if known
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Channel != "" && e.Node != "":
		return fmt.Sprintf("pulsegen: %s: channel %q, node %s: %v", e.Kind, e.Channel, e.Node, e.Err)
	case e.Channel != "":
		return fmt.Sprintf("pulsegen: %s: channel %q: %v", e.Kind, e.Channel, e.Err)
	case e.Node != "":
		return fmt.Sprintf("pulsegen: %s: node %s: %v", e.Kind, e.Node, e.Err)
	default:
		return fmt.Sprintf("pulsegen: %s: %v", e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with no channel/node context attached.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf("%s", msg)}
}

// Wrap attaches kind/channel/node context to an existing error.
func Wrap(kind Kind, channel, node string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Channel: channel, Node: node, Err: err}
}
