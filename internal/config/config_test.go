package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/genprog/varbuild/internal/variant"
	"github.com/google/go-cmp/cmp"
)

func TestDefault(t *testing.T) {
	c := Default()
	if got, want := c.Names(), []string{ProfileLegacy, ProfileMaven}; !cmp.Equal(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for _, name := range c.Names() {
		p, err := c.Profile(name)
		if err != nil {
			t.Fatal(err)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("built-in %s: %v", name, err)
		}
		if got := strings.Join(p.Build.Command, " ") + " " + p.Build.Target; got != "ant compile.tests" {
			t.Errorf("built-in %s build = %q", name, got)
		}
	}
	p, err := c.Profile("")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != ProfileMaven {
		t.Errorf("default profile = %s, want %s", p.Name, ProfileMaven)
	}
}

func TestProfileLayout(t *testing.T) {
	root := t.TempDir()
	p, err := Default().Profile(ProfileLegacy)
	if err != nil {
		t.Fatal(err)
	}
	l, err := p.Layout(root)
	if err != nil {
		t.Fatal(err)
	}
	want := &variant.Layout{
		Root:           root,
		SourceDir:      "src/java",
		OutputDir:      "target/classes",
		SourceSuffix:   ".java",
		ArtifactSuffix: ".class",
		CompanionGlob:  "$*",
		ExtensionDir:   "varexc",
	}
	if diff := cmp.Diff(want, l); diff != "" {
		t.Errorf("Layout() mismatch (-want +got):\n%s", diff)
	}
	if got, want := l.ExtensionTarget(), filepath.Join(root, "src", "java", "varexc"); got != want {
		t.Errorf("ExtensionTarget() = %s, want %s", got, want)
	}
}

func TestProfileIsCopy(t *testing.T) {
	c := Default()
	p, err := c.Profile(ProfileMaven)
	if err != nil {
		t.Fatal(err)
	}
	p.Build.Command[0] = "make"
	p.SourceDir = "elsewhere"
	again, _ := c.Profile(ProfileMaven)
	if again.Build.Command[0] != "ant" || again.SourceDir != "src/main/java" {
		t.Errorf("Profile() returned shared state: %+v", again)
	}
}

func TestUnknownProfile(t *testing.T) {
	if _, err := Default().Profile("gradle"); err == nil {
		t.Fatal("Profile(gradle) should fail")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "varbuild.yaml")
	data := `default_profile: fast
profiles:
  fast:
    root: /srv/project
    source_dir: src
    output_dir: build/classes
    source_suffix: .java
    artifact_suffix: .class
    exclude: ["**/package-info.java"]
    build:
      command: [make, -j4]
      target: classes
      timeout: 90s
      env:
        JAVA_HOME: /opt/jdk
  maven:
    source_dir: src/main/java
    output_dir: out
    source_suffix: .java
    artifact_suffix: .class
    build:
      command: [mvn]
`
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(file)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := c.Names(), []string{"fast", ProfileLegacy, ProfileMaven}; !cmp.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	p, err := c.Profile("")
	if err != nil {
		t.Fatal(err)
	}
	want := &Profile{
		Name:           "fast",
		Root:           "/srv/project",
		SourceDir:      "src",
		OutputDir:      "build/classes",
		SourceSuffix:   ".java",
		ArtifactSuffix: ".class",
		Exclude:        []string{"**/package-info.java"},
		Build: Build{
			Command: []string{"make", "-j4"},
			Target:  "classes",
			Timeout: Duration(90 * time.Second),
			Env:     map[string]string{"JAVA_HOME": "/opt/jdk"},
		},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("Profile() mismatch (-want +got):\n%s", diff)
	}
	m, _ := c.Profile(ProfileMaven)
	if m.OutputDir != "out" || m.Build.Command[0] != "mvn" {
		t.Errorf("file profile did not override built-in maven: %+v", m)
	}
}

func TestLoadEmpty(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), c); diff != "" {
		t.Errorf("Load(\"\") mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"unknown key", "profiles:\n  x:\n    sauce_dir: src\n", "sauce_dir"},
		{"missing command", "profiles:\n  x:\n    source_suffix: .java\n    artifact_suffix: .class\n", "build.command"},
		{"bad timeout", "profiles:\n  x:\n    source_suffix: .java\n    artifact_suffix: .class\n    build: {command: [ant], timeout: soon}\n", "soon"},
		{"undefined default", "default_profile: nope\n", "nope"},
		{"empty extension", "profiles:\n  x:\n    source_suffix: .java\n    artifact_suffix: .class\n    extension: {dest: x}\n    build: {command: [ant]}\n", "extension.dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "c.yaml")
			if err := os.WriteFile(file, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(file)
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatal("Load() of a missing file should fail")
	}
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(FileEnv, "")

	if got := Locate(""); got != "" {
		t.Errorf("Locate() with nothing = %q, want empty", got)
	}
	if err := os.WriteFile(DefaultFile, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Locate(""); got != DefaultFile {
		t.Errorf("Locate() = %q, want %q", got, DefaultFile)
	}
	t.Setenv(FileEnv, "/etc/varbuild.yaml")
	if got := Locate(""); got != "/etc/varbuild.yaml" {
		t.Errorf("Locate() = %q, want env value", got)
	}
	if got := Locate("mine.yaml"); got != "mine.yaml" {
		t.Errorf("Locate(explicit) = %q", got)
	}
}
