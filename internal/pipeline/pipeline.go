// Package pipeline compiles one variant against the canonical tree.
//
// Run scans the variant, overlays it onto the canonical tree, invokes the
// build tool, harvests the artifacts of the overlaid identities and restores
// the tree. Restoration runs on every path once the tree has been touched.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/genprog/varbuild/internal/build"
	"github.com/genprog/varbuild/internal/env"
	"github.com/genprog/varbuild/internal/fsutil"
	"github.com/genprog/varbuild/internal/harvest"
	"github.com/genprog/varbuild/internal/overlay"
	"github.com/genprog/varbuild/internal/variant"
	"github.com/google/uuid"
	"github.com/rogpeppe/go-internal/lockedfile"
	"github.com/rs/zerolog"
)

// Options configure a Pipeline.
type Options struct {
	Profile string
	Layout  *variant.Layout
	Scanner *variant.Scanner
	Invoker build.Invoker
	// Target is passed to the build tool.
	Target string
	// StateDir holds the staging areas and lock files.
	StateDir string
	// NoLock skips the per-root lock; the caller serializes invocations.
	NoLock bool
	// Jobs bounds parallel artifact copies.
	Jobs   int
	Logger zerolog.Logger
}

// Pipeline runs variants against one canonical tree.
type Pipeline struct {
	opts Options
	log  zerolog.Logger
}

// New returns a Pipeline for opts.
func New(opts Options) (*Pipeline, error) {
	if opts.Layout == nil {
		return nil, errors.New("pipeline: no layout")
	}
	if err := opts.Layout.Validate(); err != nil {
		return nil, err
	}
	if opts.Scanner == nil {
		return nil, errors.New("pipeline: no scanner")
	}
	if opts.Invoker == nil {
		return nil, errors.New("pipeline: no build invoker")
	}
	if opts.StateDir == "" {
		return nil, errors.New("pipeline: no state directory")
	}
	return &Pipeline{opts: opts, log: opts.Logger}, nil
}

func (p *Pipeline) stagingDir() string {
	return env.StagingDir(p.opts.StateDir, p.opts.Layout.Root)
}

// lock takes the per-root lock. It blocks while another invocation holds it.
func (p *Pipeline) lock() (func(), error) {
	if p.opts.NoLock {
		return func() {}, nil
	}
	file := env.LockFile(p.opts.StateDir, p.opts.Layout.Root)
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, err
	}
	return lockedfile.MutexAt(file).Lock()
}

// Run compiles the variant at variantDir. It never panics on I/O failure;
// every error is reported in the Result.
func (p *Pipeline) Run(ctx context.Context, variantDir string) *Result {
	id := uuid.NewString()
	res := &Result{ID: id, Variant: variantDir, Profile: p.opts.Profile}
	log := p.log.With().Str("invocation", id).Str("variant", variantDir).Logger()
	layout := p.opts.Layout

	dir, err := filepath.Abs(variantDir)
	if err != nil {
		res.Fatal = &Error{Kind: KindDiscovery, Err: err}
		return res
	}
	ids, err := p.opts.Scanner.List(dir)
	if err != nil {
		res.Fatal = &Error{Kind: KindDiscovery, Err: err}
		return res
	}
	res.Identities = ids
	regular, extension := layout.Split(ids)
	extSrc, err := p.extensionSource(dir)
	if err != nil {
		res.Fatal = &Error{Kind: KindDiscovery, Err: err}
		return res
	}
	log.Info().
		Int("identities", len(ids)).
		Int("extension", len(extension)).
		Str("root", layout.Root).
		Msg("variant scanned")

	unlock, err := p.lock()
	if err != nil {
		res.Fatal = &Error{Kind: KindPrecondition, Err: fmt.Errorf("failed to lock canonical tree: %w", err)}
		return res
	}
	defer unlock()

	if err := p.precondition(extSrc != ""); err != nil {
		res.Fatal = &Error{Kind: KindPrecondition, Err: err}
		return res
	}

	digestFiles, digest, err := snapshot(layout, regular)
	if err != nil {
		res.Fatal = &Error{Kind: KindPrecondition, Err: fmt.Errorf("failed to digest canonical files: %w", err)}
		return res
	}

	txn, err := overlay.Begin(p.stagingDir(), layout, overlay.Options{
		ID:      id,
		Variant: dir,
		Profile: p.opts.Profile,
		Logger:  log,
	})
	if err != nil {
		res.Fatal = err
		return res
	}
	defer p.restore(txn, res, digestFiles, digest, log)

	if err := txn.SetDigest(digest); err != nil {
		res.Fatal = err
		return res
	}
	if err := txn.Stage(dir, regular); err != nil {
		log.Error().Err(err).Msg("overlay aborted")
		res.Fatal = err
		return res
	}
	if extSrc != "" {
		err := txn.ApplyExtension(extSrc)
		if txn.ExtensionApplied() {
			res.Extension = layout.ExtensionTarget()
		}
		if err != nil {
			log.Error().Err(err).Msg("extension overlay failed")
			res.Fatal = err
			return res
		}
	}

	log.Info().Str("target", p.opts.Target).Msg("build started")
	outcome := p.opts.Invoker.Invoke(ctx, layout.Root, p.opts.Target)
	res.Outcome = &outcome
	log.Info().
		Bool("success", outcome.Success()).
		Int("exit", outcome.ExitCode).
		Dur("duration", outcome.Duration).
		Msg("build finished")
	if !outcome.Success() {
		return res
	}

	h := harvest.New(layout, harvest.WithJobs(p.opts.Jobs), harvest.WithLogger(log))
	hres, err := h.Harvest(context.WithoutCancel(ctx), dir, ids)
	res.Harvest = hres
	if err != nil {
		log.Error().Err(err).Msg("harvest failed")
		res.Fatal = fmt.Errorf("harvest: %w", err)
	}
	return res
}

// restore puts the canonical tree back and releases the staging area.
func (p *Pipeline) restore(txn *overlay.Txn, res *Result, files []string, digest string, log zerolog.Logger) {
	err := txn.Restore()
	if err == nil {
		if err = verify(p.opts.Layout, files, digest); err != nil {
			txn.Keep()
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("canonical tree not restored")
		res.Restore = err
	}
	res.Entries = txn.Entries()
	for _, e := range txn.Left() {
		res.Left = append(res.Left, e.Identity)
	}
	if err := txn.Close(); err != nil {
		log.Warn().Err(err).Msg("cleanup failed")
		res.Cleanup = err
	}
	if txn.Kept() {
		res.StagingKept = txn.Dir()
	}
	log.Debug().Int("entries", len(res.Entries)).Int("left", len(res.Left)).Msg("restored")
}

// extensionSource returns the variant's extension subtree, or "" if it ships none.
func (p *Pipeline) extensionSource(dir string) (string, error) {
	src := p.opts.Layout.ExtensionSource(dir)
	if src == "" {
		return "", nil
	}
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: extension is not a directory", src)
	}
	return src, nil
}

// precondition checks that no earlier invocation left the tree overlaid.
func (p *Pipeline) precondition(extension bool) error {
	pending, err := overlay.Pending(p.stagingDir())
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return fmt.Errorf("%d unrestored staging area(s) under %s; run 'varbuild recover'", len(pending), p.stagingDir())
	}
	if target := p.opts.Layout.ExtensionTarget(); extension && target != "" {
		exists, err := fsutil.Exists(target)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("extension destination %s already exists", target)
		}
	}
	return nil
}
