// Package overlay substitutes a variant's files into the canonical tree and
// puts the tree back afterwards.
//
// A Txn owns one invocation's staging area. Stage backs up and overlays
// identities one at a time, failing fast; Restore copies every backup back
// regardless of what happened in between, collecting errors instead of
// stopping; Close removes the extension overlay and the staging area.
//
// A Txn assumes exclusive use of the canonical tree. Callers serialize
// transactions against the same tree.
package overlay

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/genprog/varbuild/internal/fsutil"
	"github.com/genprog/varbuild/internal/variant"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options describe the invocation a Txn belongs to.
type Options struct {
	// ID names the staging area; a random UUID when empty.
	ID      string
	Variant string
	Profile string
	Logger  zerolog.Logger
}

// Txn is the overlay transaction of one invocation.
type Txn struct {
	dir     string
	layout  *variant.Layout
	journal *Journal
	log     zerolog.Logger

	// keep is set when restoration failed: the backups are then the only
	// copy of the original files and must survive Close.
	keep bool
}

// Begin creates a staging area under stagingDir and records its journal.
func Begin(stagingDir string, layout *variant.Layout, opts Options) (*Txn, error) {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	dir := filepath.Join(stagingDir, id)
	if err := os.MkdirAll(filepath.Join(dir, filesDir), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create staging area: %w", err)
	}
	t := &Txn{
		dir:    dir,
		layout: layout,
		journal: &Journal{
			ID:        id,
			Variant:   opts.Variant,
			Profile:   opts.Profile,
			Layout:    *layout,
			StartTime: time.Now(),
			PID:       os.Getpid(),
		},
		log: opts.Logger,
	}
	if err := t.save(); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to write staging journal: %w", err)
	}
	return t, nil
}

// Resume reopens the staging area dir left by an interrupted invocation.
func Resume(dir string, logger zerolog.Logger) (*Txn, error) {
	j, err := loadJournal(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load staging journal: %w", err)
	}
	layout := j.Layout
	return &Txn{dir: dir, layout: &layout, journal: j, log: logger}, nil
}

// ID returns the invocation id naming the staging area.
func (t *Txn) ID() string { return t.journal.ID }

// Dir returns the staging area.
func (t *Txn) Dir() string { return t.dir }

// Journal returns the transaction's journal. The caller must not modify it.
func (t *Txn) Journal() *Journal { return t.journal }

// Entries returns the identities staged so far, in staging order.
func (t *Txn) Entries() []Entry {
	return append([]Entry(nil), t.journal.Entries...)
}

// SetDigest records the pre-overlay digest of the touched canonical files.
func (t *Txn) SetDigest(digest string) error {
	t.journal.Digest = digest
	if err := t.save(); err != nil {
		return &Error{Kind: KindJournal, Path: t.dir, Err: err}
	}
	return nil
}

// Stage backs up, overlays and invalidates each identity in order. It stops
// at the first failure; identities after it are left untouched.
func (t *Txn) Stage(variantDir string, ids []variant.Identity) error {
	for _, id := range ids {
		if err := t.stage(variantDir, id); err != nil {
			return err
		}
	}
	if err := t.save(); err != nil {
		return &Error{Kind: KindJournal, Path: t.dir, Err: err}
	}
	return nil
}

func (t *Txn) stage(variantDir string, id variant.Identity) error {
	canonical := t.layout.Source(id)
	entry := Entry{Identity: id}

	info, err := os.Lstat(canonical)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return &Error{Kind: KindBackup, Identity: id, Err: err}
	case info.Mode()&fs.ModeSymlink != 0:
		// The overlay replaces the link itself; its target is never written.
		target, err := os.Readlink(canonical)
		if err != nil {
			return &Error{Kind: KindBackup, Identity: id, Err: err}
		}
		entry.HadCanonical = true
		entry.Link = target
	default:
		if err := fsutil.CopyFile(canonical, t.backup(id)); err != nil {
			return &Error{Kind: KindBackup, Identity: id, Err: err}
		}
		entry.HadCanonical = true
	}

	// The journal must know about the identity before the canonical tree does.
	t.journal.Entries = append(t.journal.Entries, entry)
	last := &t.journal.Entries[len(t.journal.Entries)-1]
	if err := t.save(); err != nil {
		return &Error{Kind: KindJournal, Identity: id, Err: err}
	}

	if err := fsutil.CopyFile(t.layout.Variant(variantDir, id), canonical); err != nil {
		return &Error{Kind: KindOverlay, Identity: id, Err: err}
	}
	last.Overlaid = true

	if err := t.invalidate(id); err != nil {
		return err
	}
	t.log.Debug().
		Str("identity", id.String()).
		Bool("new", !entry.HadCanonical).
		Msg("overlaid")
	return nil
}

// invalidate deletes the compiled artifacts of id so that a stale artifact
// cannot stand in for a failed compile.
func (t *Txn) invalidate(id variant.Identity) error {
	if err := fsutil.RemoveFile(t.layout.Artifact(id)); err != nil {
		return &Error{Kind: KindInvalidate, Identity: id, Err: err}
	}
	companions, err := t.layout.Companions(id)
	if err != nil {
		return &Error{Kind: KindInvalidate, Identity: id, Err: err}
	}
	for _, c := range companions {
		if err := fsutil.RemoveFile(c); err != nil {
			return &Error{Kind: KindInvalidate, Identity: id, Err: err}
		}
	}
	return nil
}

func (t *Txn) backup(id variant.Identity) string {
	return filepath.Join(t.dir, filesDir, id.Path())
}

func (t *Txn) save() error {
	return saveJournal(t.dir, t.journal)
}
