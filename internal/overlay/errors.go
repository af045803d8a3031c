package overlay

import (
	"fmt"

	"github.com/genprog/varbuild/internal/variant"
)

// Kind classifies a failure of the overlay transaction.
type Kind int

const (
	// KindBackup: an existing canonical file could not be staged.
	KindBackup Kind = iota + 1
	// KindOverlay: a variant file could not be written into the canonical tree.
	KindOverlay
	// KindInvalidate: a stale compiled artifact could not be deleted.
	KindInvalidate
	// KindExtension: the extension subtree could not be applied.
	KindExtension
	// KindRestore: a staged backup could not be copied back.
	KindRestore
	// KindCleanup: the staging area or extension overlay could not be removed.
	KindCleanup
	// KindJournal: the staging journal could not be written.
	KindJournal
)

func (k Kind) String() string {
	switch k {
	case KindBackup:
		return "backup"
	case KindOverlay:
		return "overlay"
	case KindInvalidate:
		return "invalidate"
	case KindExtension:
		return "extension"
	case KindRestore:
		return "restore"
	case KindCleanup:
		return "cleanup"
	case KindJournal:
		return "journal"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error records a failed step for one identity, or for the transaction as a
// whole when Identity is empty.
type Error struct {
	Kind     Kind
	Identity variant.Identity
	Path     string
	Err      error
}

func (e *Error) Error() string {
	if e.Identity != "" {
		return fmt.Sprintf("%s %s: %v", e.Kind, e.Identity, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
