package overlay

import (
	"io/fs"
	"os"

	"github.com/genprog/varbuild/internal/fsutil"
)

// ApplyExtension copies the extension subtree src wholesale into the
// canonical tree. The destination must not exist; there is nothing to back
// up, and Close removes it entirely.
func (t *Txn) ApplyExtension(src string) error {
	target := t.layout.ExtensionTarget()
	if target == "" {
		return nil
	}
	exists, err := fsutil.Exists(target)
	if err != nil {
		return &Error{Kind: KindExtension, Path: target, Err: err}
	}
	if exists {
		return &Error{Kind: KindExtension, Path: target, Err: fs.ErrExist}
	}

	t.journal.ExtensionTarget = target
	if err := t.save(); err != nil {
		t.journal.ExtensionTarget = ""
		return &Error{Kind: KindJournal, Path: target, Err: err}
	}
	// A failed copy may leave part of the tree behind; the target stays
	// recorded so Close removes it.
	if err := fsutil.CopyTree(src, target); err != nil {
		return &Error{Kind: KindExtension, Path: target, Err: err}
	}
	t.log.Debug().Str("target", target).Msg("extension applied")
	return nil
}

// ExtensionApplied reports whether an extension overlay is recorded.
func (t *Txn) ExtensionApplied() bool {
	return t.journal.ExtensionTarget != ""
}

func (t *Txn) removeExtension() error {
	target := t.journal.ExtensionTarget
	if target == "" {
		return nil
	}
	if err := os.RemoveAll(target); err != nil {
		return &Error{Kind: KindCleanup, Path: target, Err: err}
	}
	t.journal.ExtensionTarget = ""
	t.log.Debug().Str("target", target).Msg("extension removed")
	return nil
}
