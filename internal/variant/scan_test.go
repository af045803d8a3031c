package variant

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScannerList(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"org/b/Zeta.java":           "",
		"org/a/Alpha.java":          "",
		"org/a/Alpha.class":         "",
		"org/a/package-info.java":   "",
		"varexc/GlobalOptions.java": "",
		"README.md":                 "",
		"Top.java":                  "",
	})

	s, err := NewScanner(".java", []string{"**/package-info.java"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.List(root)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []Identity{"Top.java", "org/a/Alpha.java", "org/b/Zeta.java", "varexc/GlobalOptions.java"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestScannerEmptyVariant(t *testing.T) {
	s, err := NewScanner(".java", nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.List(t.TempDir())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List(empty) = %v, want none", got)
	}
}

func TestScannerMissingRoot(t *testing.T) {
	s, _ := NewScanner(".java", nil)
	if _, err := s.List(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("List(missing) = nil error, want error")
	}

	file := filepath.Join(t.TempDir(), "Foo.java")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.List(file); err == nil {
		t.Error("List(file) = nil error, want error")
	}
}

func TestScannerStopsEarly(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a/A.java": "", "b/B.java": "", "c/C.java": ""})
	s, _ := NewScanner(".java", nil)

	var seen []Identity
	for id, err := range s.All(root) {
		if err != nil {
			t.Fatal(err)
		}
		seen = append(seen, id)
		if len(seen) == 2 {
			break
		}
	}
	if diff := cmp.Diff([]Identity{"a/A.java", "b/B.java"}, seen); diff != "" {
		t.Errorf("All mismatch (-want +got):\n%s", diff)
	}
}

func TestScannerSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	outside := t.TempDir()
	writeFiles(t, root, map[string]string{"pkg/Real.java": ""})
	writeFiles(t, outside, map[string]string{"Secret.java": "", "dir/Deep.java": ""})

	if err := os.Symlink(filepath.Join(root, "pkg", "Real.java"), filepath.Join(root, "pkg", "Alias.java")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(outside, "dir"), filepath.Join(root, "linked")); err != nil {
		t.Fatal(err)
	}

	s, _ := NewScanner(".java", nil)
	got, err := s.List(root)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]Identity{"pkg/Alias.java", "pkg/Real.java"}, got); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}

	if err := os.Symlink(filepath.Join(outside, "Secret.java"), filepath.Join(root, "pkg", "Escape.java")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.List(root); !errors.Is(err, ErrEscape) {
		t.Errorf("List with escaping symlink: err = %v, want ErrEscape", err)
	}
}

func TestNewScannerErrors(t *testing.T) {
	if _, err := NewScanner("", nil); err == nil {
		t.Error("NewScanner(empty suffix) = nil error")
	}
	if _, err := NewScanner(".java", []string{"[unclosed"}); err == nil {
		t.Error("NewScanner(bad pattern) = nil error")
	}
}
