// Package variant maps a variant's files onto the canonical source tree.
//
// A variant is a directory of replacement source files laid out with the
// same relative paths as the canonical source directory. The relative path of
// a file is its Identity: the join key between the variant, the canonical
// tree, the staging area and the build tool's output directory.
package variant

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Identity is a slash-separated path, relative to a variant root, naming one
// compilable file.
type Identity string

// ParseIdentity validates rel and returns it as an Identity. rel may use
// either slash form or the OS separator.
func ParseIdentity(rel string) (Identity, error) {
	s := filepath.ToSlash(rel)
	switch {
	case s == "" || s == ".":
		return "", fmt.Errorf("invalid identity %q: empty", rel)
	case path.IsAbs(s) || filepath.IsAbs(rel):
		return "", fmt.Errorf("invalid identity %q: absolute path", rel)
	case path.Clean(s) != s:
		return "", fmt.Errorf("invalid identity %q: not clean", rel)
	case s == ".." || strings.HasPrefix(s, "../"):
		return "", fmt.Errorf("invalid identity %q: escapes the variant root", rel)
	}
	return Identity(s), nil
}

func (id Identity) String() string { return string(id) }

// Path returns id in OS path form.
func (id Identity) Path() string { return filepath.FromSlash(string(id)) }

// Dir returns the slash-separated directory part of id.
func (id Identity) Dir() string { return path.Dir(string(id)) }

// Within reports whether id lies inside the slash-separated directory dir.
func (id Identity) Within(dir string) bool {
	if dir == "" || dir == "." {
		return false
	}
	return strings.HasPrefix(string(id), strings.TrimSuffix(dir, "/")+"/")
}

// Rebase replaces the directory prefix from of id with to.
func (id Identity) Rebase(from, to string) Identity {
	rest := strings.TrimPrefix(string(id), strings.TrimSuffix(from, "/")+"/")
	if to == "" || to == "." {
		return Identity(rest)
	}
	return Identity(path.Join(to, rest))
}

// WithSuffix replaces the trailing suffix old of id with repl.
func (id Identity) WithSuffix(old, repl string) Identity {
	return Identity(strings.TrimSuffix(string(id), old) + repl)
}
