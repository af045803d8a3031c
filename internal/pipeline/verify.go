package pipeline

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/genprog/varbuild/internal/variant"
	"golang.org/x/mod/sumdb/dirhash"
)

// snapshot digests the canonical files that ids are about to replace.
// Regular files and symlinks take part; new identities have nothing to
// restore.
func snapshot(layout *variant.Layout, ids []variant.Identity) (files []string, digest string, err error) {
	for _, id := range ids {
		info, err := os.Lstat(layout.Source(id))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, "", err
		}
		if info.Mode().IsRegular() || info.Mode()&fs.ModeSymlink != 0 {
			files = append(files, id.String())
		}
	}
	digest, err = hash(layout, files)
	return files, digest, err
}

// verify recomputes the digest of files and compares it with want.
func verify(layout *variant.Layout, files []string, want string) error {
	got, err := hash(layout, files)
	if err != nil {
		return fmt.Errorf("failed to verify restored files: %w", err)
	}
	if got != want {
		return fmt.Errorf("restored files differ from their pre-run content (%s != %s)", got, want)
	}
	return nil
}

func hash(layout *variant.Layout, files []string) (string, error) {
	return dirhash.Hash1(files, func(name string) (io.ReadCloser, error) {
		p := layout.Source(variant.Identity(name))
		info, err := os.Lstat(p)
		if err != nil {
			return nil, err
		}
		// A link hashes as its target path, so replacing it with a copy of
		// the target changes the digest.
		if info.Mode()&fs.ModeSymlink != 0 {
			target, err := os.Readlink(p)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(strings.NewReader("symlink " + target)), nil
		}
		return os.Open(p)
	})
}
