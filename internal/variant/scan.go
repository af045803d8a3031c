package variant

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// ErrEscape is reported for a symlink resolving outside the variant root.
var ErrEscape = errors.New("symlink escapes the variant root")

// Scanner enumerates the compilable files of a variant directory.
type Scanner struct {
	suffix  string
	exclude []glob.Glob
}

// NewScanner returns a Scanner selecting files whose name ends in suffix and
// whose identity matches none of the exclude patterns. Patterns use '/' as
// separator, so "*" stays within one directory and "**" crosses them.
func NewScanner(suffix string, exclude []string) (*Scanner, error) {
	if suffix == "" {
		return nil, errors.New("scanner: empty suffix")
	}
	s := &Scanner{suffix: suffix}
	for _, pattern := range exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("scanner: exclude pattern %q: %w", pattern, err)
		}
		s.exclude = append(s.exclude, g)
	}
	return s, nil
}

// All walks root in lexical order and yields the identity of every
// compilable file. Walking stops at the first error, which is yielded with an
// empty identity. Symlinked directories are not followed; a symlinked file is
// accepted only if it resolves to a regular file inside root.
func (s *Scanner) All(root string) iter.Seq2[Identity, error] {
	return func(yield func(Identity, error) bool) {
		realRoot, err := filepath.EvalSymlinks(root)
		if err != nil {
			yield("", err)
			return
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), s.suffix) {
				return nil
			}
			if d.Type()&fs.ModeSymlink != 0 {
				ok, err := containedFile(realRoot, p)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			} else if !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			id, err := ParseIdentity(rel)
			if err != nil {
				return err
			}
			if s.excluded(id) {
				return nil
			}
			if !yield(id, nil) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			yield("", err)
		}
	}
}

// List returns every identity under root, sorted and deduplicated.
func (s *Scanner) List(root string) ([]Identity, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}
	var ids []Identity
	for id, err := range s.All(root) {
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

func (s *Scanner) excluded(id Identity) bool {
	for _, g := range s.exclude {
		if g.Match(string(id)) {
			return true
		}
	}
	return false
}

// containedFile reports whether the symlink at p resolves to a regular file
// inside realRoot. A link resolving outside realRoot is an error; a link to
// a directory is skipped.
func containedFile(realRoot, p string) (bool, error) {
	target, err := filepath.EvalSymlinks(p)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(realRoot, target)
	if err != nil {
		return false, err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, fmt.Errorf("%s: %w", p, ErrEscape)
	}
	info, err := os.Stat(target)
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Split partitions ids into identities overlaid file by file and identities
// shipped inside the extension subtree.
func (l *Layout) Split(ids []Identity) (regular, extension []Identity) {
	for _, id := range ids {
		if l.IsExtension(id) {
			extension = append(extension, id)
		} else {
			regular = append(regular, id)
		}
	}
	return regular, extension
}
