package env

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWorkDir(t *testing.T) {
	t.Setenv(HomeEnv, "")

	workDir, err := WorkDir()
	if err != nil {
		t.Fatalf("WorkDir() returned error: %v", err)
	}

	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		t.Fatalf("os.UserCacheDir() returned error: %v", err)
	}
	expectedDir := filepath.Join(userCacheDir, ".varbuild")
	if workDir != expectedDir {
		t.Errorf("WorkDir() = %q, want %q", workDir, expectedDir)
	}
}

func TestWorkDirOverride(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv(HomeEnv, tempDir)

	workDir, err := WorkDir()
	if err != nil {
		t.Fatalf("WorkDir() returned error: %v", err)
	}
	if workDir != tempDir {
		t.Errorf("WorkDir() = %q, want %q", workDir, tempDir)
	}
}

func TestRootKey(t *testing.T) {
	a := RootKey("/src/math")
	if a != RootKey("/src/math/") {
		t.Errorf("RootKey not stable under trailing slash: %q vs %q", a, RootKey("/src/math/"))
	}
	if a == RootKey("/src/lang") {
		t.Errorf("RootKey collision for distinct roots: %q", a)
	}
	if len(a) != 16 {
		t.Errorf("len(RootKey) = %d, want 16", len(a))
	}
}

func TestStateLayout(t *testing.T) {
	workDir := t.TempDir()
	root := "/src/math"

	staging := StagingDir(workDir, root)
	if !strings.HasPrefix(staging, filepath.Join(workDir, "staging")) {
		t.Errorf("StagingDir() = %q, want it under %q", staging, workDir)
	}
	lock := LockFile(workDir, root)
	if filepath.Base(lock) != RootKey(root)+".lock" {
		t.Errorf("LockFile() = %q, want basename %q", lock, RootKey(root)+".lock")
	}
}
