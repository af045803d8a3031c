package env

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

// HomeEnv overrides the state directory returned by WorkDir.
const HomeEnv = "VARBUILD_HOME"

// WorkDir returns the directory holding staging areas and lock files.
func WorkDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return filepath.Abs(dir)
	}
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, ".varbuild"), nil
}

// RootKey returns a short stable key naming the canonical tree at root.
// root is expected to be absolute and clean.
func RootKey(root string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(root)))
	return hex.EncodeToString(sum[:8])
}

// StagingDir returns the directory under workDir that holds the staging
// areas of every invocation against root.
func StagingDir(workDir, root string) string {
	return filepath.Join(workDir, "staging", RootKey(root))
}

// LockFile returns the advisory lock file guarding root.
func LockFile(workDir, root string) string {
	return filepath.Join(workDir, "locks", RootKey(root)+".lock")
}
