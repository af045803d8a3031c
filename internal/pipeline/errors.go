package pipeline

import "fmt"

// ErrorKind classifies failures raised before the canonical tree is touched.
type ErrorKind int

const (
	// KindDiscovery: the variant directory is unreadable or malformed.
	KindDiscovery ErrorKind = iota
	// KindPrecondition: the canonical tree is not in a state to be overlaid.
	KindPrecondition
)

func (k ErrorKind) String() string {
	switch k {
	case KindDiscovery:
		return "discovery"
	case KindPrecondition:
		return "precondition"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a failure that aborted the pipeline before any mutation.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Exit codes of one invocation. ExitRestore takes precedence over the others.
const (
	ExitOK      = 0
	ExitBuild   = 1
	ExitFatal   = 2
	ExitRestore = 3
)
