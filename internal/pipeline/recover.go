package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/genprog/varbuild/internal/overlay"
)

// Recovered describes one staging area replayed by Recover.
type Recovered struct {
	ID      string
	Variant string
	// Restored counts the identities copied back in this pass.
	Restored int
	Err      error
}

// Recover restores the canonical tree from staging areas left behind by
// invocations that died before restoration, oldest first. A staging area is
// removed once all its backups are back in place.
func (p *Pipeline) Recover() ([]Recovered, error) {
	unlock, err := p.lock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock canonical tree: %w", err)
	}
	defer unlock()

	pending, err := overlay.Pending(p.stagingDir())
	if err != nil {
		return nil, err
	}
	var (
		out  []Recovered
		errs []error
	)
	for _, dir := range pending {
		txn, err := overlay.Resume(dir, p.log)
		if errors.Is(err, fs.ErrNotExist) {
			// No journal means nothing was mutated.
			p.log.Info().Str("staging", dir).Msg("removing empty staging area")
			if err := os.RemoveAll(dir); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", dir, err))
			out = append(out, Recovered{ID: dir, Err: err})
			continue
		}
		rec := Recovered{ID: txn.ID(), Variant: txn.Journal().Variant}
		before := restoredCount(txn.Entries())
		err = txn.Restore()
		rec.Restored = restoredCount(txn.Entries()) - before
		if cerr := txn.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", txn.ID(), err))
			rec.Err = err
		}
		p.log.Info().
			Str("invocation", rec.ID).
			Str("variant", rec.Variant).
			Int("restored", rec.Restored).
			Msg("staging area recovered")
		out = append(out, rec)
	}
	return out, errors.Join(errs...)
}

func restoredCount(entries []overlay.Entry) int {
	n := 0
	for _, e := range entries {
		if e.Restored {
			n++
		}
	}
	return n
}
