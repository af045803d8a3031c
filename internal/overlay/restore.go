package overlay

import (
	"os"

	"github.com/genprog/varbuild/internal/fsutil"
	"github.com/qiniu/x/errors"
)

// Restore copies every staged backup back over its canonical location and
// recreates canonical symlinks. A failure on one identity does not stop the
// others; all failures are returned together as *Error values of
// KindRestore. Identities without a canonical counterpart are left in place.
func (t *Txn) Restore() error {
	var errs errors.List
	for i := range t.journal.Entries {
		e := &t.journal.Entries[i]
		if !e.HadCanonical || e.Restored {
			continue
		}
		var err error
		if e.Link != "" {
			err = fsutil.Symlink(e.Link, t.layout.Source(e.Identity))
		} else {
			err = fsutil.CopyFile(t.backup(e.Identity), t.layout.Source(e.Identity))
		}
		if err != nil {
			t.log.Error().Err(err).Str("identity", e.Identity.String()).Msg("restore failed")
			errs.Add(&Error{Kind: KindRestore, Identity: e.Identity, Err: err})
			continue
		}
		e.Restored = true
	}
	if len(errs) > 0 {
		t.keep = true
	}
	if err := t.save(); err != nil {
		t.log.Warn().Err(err).Msg("failed to update staging journal")
	}
	return errs.ToError()
}

// Keep marks the canonical tree as not restored although Restore reported
// no error, e.g. because its content failed verification. Close then keeps
// the staging area, and every entry is restored again by a later Restore.
func (t *Txn) Keep() {
	t.keep = true
	for i := range t.journal.Entries {
		t.journal.Entries[i].Restored = false
	}
}

// Left returns the overlaid identities that had no canonical counterpart and
// therefore stay in the canonical tree after Restore.
func (t *Txn) Left() []Entry {
	var left []Entry
	for _, e := range t.journal.Entries {
		if e.Overlaid && !e.HadCanonical {
			left = append(left, e)
		}
	}
	return left
}

// Close removes the extension overlay and the staging area. The staging
// area is kept when Restore reported failures so that the backups remain
// available for repair. Failures are *Error values of KindCleanup.
func (t *Txn) Close() error {
	var errs errors.List
	if err := t.removeExtension(); err != nil {
		errs.Add(err)
	}
	if t.keep {
		if err := t.save(); err != nil {
			errs.Add(&Error{Kind: KindCleanup, Path: t.dir, Err: err})
		}
		t.log.Warn().Str("staging", t.dir).Msg("staging area kept for repair")
		return errs.ToError()
	}
	if err := os.RemoveAll(t.dir); err != nil {
		errs.Add(&Error{Kind: KindCleanup, Path: t.dir, Err: err})
	}
	return errs.ToError()
}

// Kept reports whether Close left the staging area in place.
func (t *Txn) Kept() bool { return t.keep }
