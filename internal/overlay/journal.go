package overlay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/genprog/varbuild/internal/variant"
)

// Staging directory layout:
//
//	<staging>/<invocation id>/
//	  journal.json    # the Journal below, rewritten before each mutation
//	  files/          # one backup per identity with a canonical counterpart
const (
	journalFile = "journal.json"
	filesDir    = "files"
)

// Entry is the overlay state of one identity.
type Entry struct {
	Identity variant.Identity `json:"identity"`
	// HadCanonical is set when the canonical tree held the identity before
	// the overlay; only such entries have a backup and are restored.
	HadCanonical bool `json:"had_canonical"`
	// Link is the target of a canonical symlink. Such entries have no
	// backup; restoring recreates the link.
	Link     string `json:"link,omitempty"`
	Overlaid bool   `json:"overlaid"`
	Restored bool   `json:"restored,omitempty"`
}

// Journal describes one invocation's staging area. It is enough to restore
// the canonical tree if the invocation dies before restoration.
type Journal struct {
	ID        string         `json:"id"`
	Variant   string         `json:"variant"`
	Profile   string         `json:"profile,omitempty"`
	Layout    variant.Layout `json:"layout"`
	StartTime time.Time      `json:"start_time"`
	PID       int            `json:"pid"`

	// ExtensionTarget is recorded before the extension subtree is copied.
	ExtensionTarget string `json:"extension_target,omitempty"`
	// Digest is the dirhash of the touched canonical files before overlay.
	Digest string `json:"digest,omitempty"`

	Entries []Entry `json:"entries"`
}

func loadJournal(dir string) (*Journal, error) {
	data, err := os.ReadFile(filepath.Join(dir, journalFile))
	if err != nil {
		return nil, err
	}
	var j Journal
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// saveJournal writes j to dir, replacing the previous journal atomically.
func saveJournal(dir string, j *Journal) error {
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return err
	}
	tmp := filepath.Join(dir, journalFile+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, journalFile))
}

// Pending returns the staging areas left under stagingDir by invocations
// that never completed restoration, oldest first.
func Pending(stagingDir string) ([]string, error) {
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	type pending struct {
		dir   string
		start time.Time
	}
	var found []pending
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(stagingDir, e.Name())
		start := time.Time{}
		if j, err := loadJournal(dir); err == nil {
			start = j.StartTime
		}
		found = append(found, pending{dir, start})
	}
	// ReadDir order is by name; keep it for equal start times.
	slices.SortStableFunc(found, func(a, b pending) int { return a.start.Compare(b.start) })
	dirs := make([]string, len(found))
	for i, p := range found {
		dirs[i] = p.dir
	}
	return dirs, nil
}
