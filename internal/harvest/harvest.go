// Package harvest copies the compiled artifacts of a variant's identities
// from the build tool's output directory back into the variant directory.
package harvest

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/genprog/varbuild/internal/fsutil"
	"github.com/genprog/varbuild/internal/variant"
	"github.com/qiniu/x/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Gap records an identity whose artifact the build did not produce. Gaps are
// not failures: consumers check artifact presence themselves.
type Gap struct {
	Identity variant.Identity
	Artifact string
}

func (g Gap) String() string {
	return fmt.Sprintf("%s: no artifact at %s", g.Identity, g.Artifact)
}

// Result is the outcome of one harvest.
type Result struct {
	// Copied lists the variant-relative paths written, sorted.
	Copied []string
	// Gaps lists identities without a primary artifact, sorted by identity.
	Gaps []Gap
}

// Harvester copies artifacts of a layout into variant directories.
type Harvester struct {
	layout *variant.Layout
	jobs   int
	log    zerolog.Logger
}

// Option configures a Harvester.
type Option func(*Harvester)

// WithJobs sets how many identities are harvested concurrently.
func WithJobs(n int) Option {
	return func(h *Harvester) {
		if n > 0 {
			h.jobs = n
		}
	}
}

// WithLogger sets the harvester's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(h *Harvester) {
		h.log = log
	}
}

// New returns a Harvester for layout.
func New(layout *variant.Layout, opts ...Option) *Harvester {
	h := &Harvester{layout: layout, jobs: 1, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Harvest copies the primary artifact and any companion artifacts of each
// identity into variantDir. A missing primary artifact is recorded as a Gap.
// Copy failures do not stop the other identities and are returned together
// once every identity has been attempted.
func (h *Harvester) Harvest(ctx context.Context, variantDir string, ids []variant.Identity) (*Result, error) {
	var (
		mu   sync.Mutex
		res  Result
		errs errors.List
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.jobs)
	for _, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			copied, gap, err := h.harvest(variantDir, id)
			mu.Lock()
			defer mu.Unlock()
			res.Copied = append(res.Copied, copied...)
			if gap != nil {
				res.Gaps = append(res.Gaps, *gap)
			}
			if err != nil {
				errs.Add(fmt.Errorf("harvest %s: %w", id, err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs.Add(err)
	}

	slices.Sort(res.Copied)
	slices.SortFunc(res.Gaps, func(a, b Gap) int { return strings.Compare(string(a.Identity), string(b.Identity)) })
	for _, gap := range res.Gaps {
		h.log.Warn().Str("identity", gap.Identity.String()).Str("artifact", gap.Artifact).Msg("harvest gap")
	}
	return &res, errs.ToError()
}

func (h *Harvester) harvest(variantDir string, id variant.Identity) (copied []string, gap *Gap, err error) {
	primary := h.layout.Artifact(id)
	ok, err := fsutil.Exists(primary)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, &Gap{Identity: id, Artifact: primary}, nil
	}

	rel := h.layout.ArtifactIdentity(id)
	dst := h.layout.Variant(variantDir, rel)
	if err := fsutil.CopyFile(primary, dst); err != nil {
		return nil, nil, err
	}
	copied = append(copied, rel.String())

	companions, err := h.layout.Companions(id)
	if err != nil {
		return copied, nil, err
	}
	dstDir := filepath.Dir(dst)
	for _, c := range companions {
		if err := fsutil.CopyFile(c, filepath.Join(dstDir, filepath.Base(c))); err != nil {
			return copied, nil, err
		}
		copied = append(copied, path.Join(rel.Dir(), filepath.Base(c)))
	}
	h.log.Debug().Str("identity", id.String()).Int("artifacts", 1+len(companions)).Msg("harvested")
	return copied, nil, nil
}
