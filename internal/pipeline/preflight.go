package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/genprog/varbuild/internal/fsutil"
	"github.com/genprog/varbuild/internal/overlay"
	"github.com/qiniu/x/errors"
)

// Checker is implemented by invokers that can tell whether the build tool
// is runnable.
type Checker interface {
	Check() error
}

// Preflight reports every reason a run would fail before building: the
// canonical source directory, the build tool, leftover staging areas, an
// existing extension destination and, when variantDir is not empty, the
// variant itself.
func (p *Pipeline) Preflight(variantDir string) error {
	var errs errors.List
	layout := p.opts.Layout

	src := filepath.Join(layout.Root, filepath.FromSlash(layout.SourceDir))
	if info, err := os.Stat(src); err != nil {
		errs.Add(fmt.Errorf("canonical source directory: %w", err))
	} else if !info.IsDir() {
		errs.Add(fmt.Errorf("canonical source directory %s is not a directory", src))
	}

	if c, ok := p.opts.Invoker.(Checker); ok {
		if err := c.Check(); err != nil {
			errs.Add(err)
		}
	}

	pending, err := overlay.Pending(p.stagingDir())
	if err != nil {
		errs.Add(err)
	}
	for _, dir := range pending {
		errs.Add(&Error{Kind: KindPrecondition, Err: fmt.Errorf("unrestored staging area %s", dir)})
	}

	if target := layout.ExtensionTarget(); target != "" {
		exists, err := fsutil.Exists(target)
		if err != nil {
			errs.Add(err)
		} else if exists {
			errs.Add(&Error{Kind: KindPrecondition, Err: fmt.Errorf("extension destination %s already exists", target)})
		}
	}

	if variantDir != "" {
		dir, err := filepath.Abs(variantDir)
		if err == nil {
			_, err = p.opts.Scanner.List(dir)
		}
		if err != nil {
			errs.Add(&Error{Kind: KindDiscovery, Err: err})
		}
	}
	return errs.ToError()
}
