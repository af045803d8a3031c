package variant

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Layout resolves identities against the canonical tree.
//
// Workspace layout:
//
//	Root/
//	  SourceDir/<identity>                  # canonical source
//	  SourceDir/ExtensionDest/...           # extension overlay target
//	  OutputDir/<identity with ArtifactSuffix>  # compiled artifact
type Layout struct {
	Root           string `json:"root"`
	SourceDir      string `json:"source_dir"`
	OutputDir      string `json:"output_dir"`
	SourceSuffix   string `json:"source_suffix"`
	ArtifactSuffix string `json:"artifact_suffix"`

	// CompanionGlob matches extra artifacts emitted for one source, relative
	// to the artifact stem (e.g. "$*" for Foo$Inner.class). Empty disables.
	CompanionGlob string `json:"companion_glob,omitempty"`

	// ExtensionDir is the slash-separated subtree of a variant copied
	// wholesale into SourceDir/ExtensionDest. Empty disables.
	ExtensionDir  string `json:"extension_dir,omitempty"`
	ExtensionDest string `json:"extension_dest,omitempty"`
}

// Validate checks that l is usable.
func (l *Layout) Validate() error {
	if !filepath.IsAbs(l.Root) {
		return fmt.Errorf("layout root %q is not absolute", l.Root)
	}
	if l.SourceSuffix == "" || l.ArtifactSuffix == "" {
		return fmt.Errorf("layout requires both source and artifact suffix")
	}
	for _, rel := range []string{l.SourceDir, l.OutputDir, l.ExtensionDir, l.ExtensionDest} {
		if rel == "" {
			continue
		}
		if _, err := ParseIdentity(rel); err != nil && rel != "." {
			return fmt.Errorf("layout directory: %w", err)
		}
	}
	if l.CompanionGlob != "" {
		if _, err := glob.Compile("x" + l.CompanionGlob); err != nil {
			return fmt.Errorf("companion glob %q: %w", l.CompanionGlob, err)
		}
	}
	return nil
}

// IsExtension reports whether id belongs to the extension subtree.
func (l *Layout) IsExtension(id Identity) bool {
	return l.ExtensionDir != "" && id.Within(l.ExtensionDir)
}

// canonical returns the identity of id inside the canonical source directory.
func (l *Layout) canonical(id Identity) Identity {
	if l.IsExtension(id) {
		return id.Rebase(l.ExtensionDir, l.extensionDest())
	}
	return id
}

func (l *Layout) extensionDest() string {
	if l.ExtensionDest == "" {
		return l.ExtensionDir
	}
	return l.ExtensionDest
}

// Source returns the canonical location of id.
func (l *Layout) Source(id Identity) string {
	return filepath.Join(l.Root, filepath.FromSlash(l.SourceDir), l.canonical(id).Path())
}

// ArtifactIdentity returns the variant-relative path of id's compiled artifact.
func (l *Layout) ArtifactIdentity(id Identity) Identity {
	return id.WithSuffix(l.SourceSuffix, l.ArtifactSuffix)
}

// Artifact returns the location of id's compiled artifact in the build
// tool's output directory.
func (l *Layout) Artifact(id Identity) string {
	rel := l.canonical(id).WithSuffix(l.SourceSuffix, l.ArtifactSuffix)
	return filepath.Join(l.Root, filepath.FromSlash(l.OutputDir), rel.Path())
}

// Companions returns the existing companion artifacts of id, sorted.
func (l *Layout) Companions(id Identity) ([]string, error) {
	if l.CompanionGlob == "" {
		return nil, nil
	}
	primary := l.Artifact(id)
	stem := strings.TrimSuffix(filepath.Base(primary), l.ArtifactSuffix)
	g, err := glob.Compile(glob.QuoteMeta(stem) + l.CompanionGlob + glob.QuoteMeta(l.ArtifactSuffix))
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Dir(primary))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && g.Match(e.Name()) {
			out = append(out, filepath.Join(filepath.Dir(primary), e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// Variant returns the location of rel inside the variant directory dir.
func (l *Layout) Variant(dir string, rel Identity) string {
	return filepath.Join(dir, rel.Path())
}

// ExtensionSource returns the extension subtree of the variant at dir, or
// "" if the layout has no extension.
func (l *Layout) ExtensionSource(dir string) string {
	if l.ExtensionDir == "" {
		return ""
	}
	return filepath.Join(dir, filepath.FromSlash(l.ExtensionDir))
}

// ExtensionTarget returns where the extension subtree is copied in the
// canonical tree, or "" if the layout has no extension.
func (l *Layout) ExtensionTarget() string {
	if l.ExtensionDir == "" {
		return ""
	}
	return filepath.Join(l.Root, filepath.FromSlash(l.SourceDir), filepath.FromSlash(path.Clean(l.extensionDest())))
}
