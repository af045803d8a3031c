package pipeline

import (
	"github.com/genprog/varbuild/internal/build"
	"github.com/genprog/varbuild/internal/harvest"
	"github.com/genprog/varbuild/internal/overlay"
	"github.com/genprog/varbuild/internal/variant"
)

// Result is everything one invocation did.
type Result struct {
	ID      string
	Variant string
	Profile string

	// Identities are all scanned identities, extension subtree included.
	Identities []variant.Identity
	// Entries are the overlay entries, in staging order.
	Entries []overlay.Entry
	// Left are the new identities that stay in the canonical tree.
	Left []variant.Identity
	// Extension is the canonical path the extension subtree was copied to.
	Extension string

	// Outcome is nil when the build was never reached.
	Outcome *build.Outcome
	// Harvest is nil unless the build succeeded.
	Harvest *harvest.Result

	// Fatal is a discovery, precondition, overlay or harvest copy error.
	Fatal error
	// Restore is set when the canonical tree may not be back to its
	// pre-run state.
	Restore error
	// Cleanup is a non-fatal failure to remove the staging area or the
	// extension subtree.
	Cleanup error
	// StagingKept is the staging area left behind for repair.
	StagingKept string
}

// Succeeded reports whether the build succeeded and nothing went wrong
// around it. Harvest gaps do not count.
func (r *Result) Succeeded() bool {
	return r.ExitCode() == ExitOK
}

// ExitCode maps the result to the process exit status.
func (r *Result) ExitCode() int {
	switch {
	case r.Restore != nil:
		return ExitRestore
	case r.Fatal != nil:
		return ExitFatal
	case r.Outcome == nil:
		return ExitFatal
	case !r.Outcome.Success():
		return ExitBuild
	}
	return ExitOK
}
