// Package config loads build profiles.
//
// A profile describes one canonical tree layout and the build tool that
// compiles it. Two profiles are built in; a YAML file can override them or
// add more:
//
//	default_profile: legacy
//	profiles:
//	  legacy:
//	    source_dir: src/java
//	    output_dir: target/classes
//	    source_suffix: .java
//	    artifact_suffix: .class
//	    companion_glob: "$*"
//	    exclude: ["**/package-info.java"]
//	    extension: {dir: varexc}
//	    build:
//	      command: [ant]
//	      target: compile.tests
//	      timeout: 30m
//	      env: {ANT_OPTS: -Xmx2g}
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/genprog/varbuild/internal/variant"
	"github.com/goccy/go-yaml"
)

// FileEnv names the config file when --config is not given.
const FileEnv = "VARBUILD_CONFIG"

// DefaultFile is read from the working directory when present.
const DefaultFile = "varbuild.yaml"

// Duration is a time.Duration written as a Go duration string.
type Duration time.Duration

// UnmarshalYAML implements yaml.BytesUnmarshaler.
func (d *Duration) UnmarshalYAML(bs []byte) error {
	var s string
	if err := yaml.Unmarshal(bs, &s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.InterfaceMarshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Build describes how the build tool is run.
type Build struct {
	Command []string          `yaml:"command"`
	Target  string            `yaml:"target,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
}

// Extension names the optional subtree copied wholesale into the tree.
type Extension struct {
	// Dir is the subtree's path inside a variant.
	Dir string `yaml:"dir"`
	// Dest is its destination relative to the source directory; Dir when empty.
	Dest string `yaml:"dest,omitempty"`
}

// Profile is one canonical tree layout and its build tool.
type Profile struct {
	Name string `yaml:"-"`

	// Root is the canonical tree; the working directory when empty.
	Root           string     `yaml:"root,omitempty"`
	SourceDir      string     `yaml:"source_dir"`
	OutputDir      string     `yaml:"output_dir"`
	SourceSuffix   string     `yaml:"source_suffix"`
	ArtifactSuffix string     `yaml:"artifact_suffix"`
	CompanionGlob  string     `yaml:"companion_glob,omitempty"`
	Exclude        []string   `yaml:"exclude,omitempty"`
	Extension      *Extension `yaml:"extension,omitempty"`
	Build          Build      `yaml:"build"`
}

// Config is the top-level configuration.
type Config struct {
	DefaultProfile string              `yaml:"default_profile,omitempty"`
	Profiles       map[string]*Profile `yaml:"profiles,omitempty"`
}

// Locate returns the config file to load: explicit if set, then $VARBUILD_CONFIG,
// then ./varbuild.yaml if it exists. It returns "" when there is none.
func Locate(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(FileEnv); env != "" {
		return env
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile
	}
	return ""
}

// Load returns the built-in configuration overlaid with the file at path.
// An empty path yields the built-ins alone.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	fc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if fc.DefaultProfile != "" {
		c.DefaultProfile = fc.DefaultProfile
	}
	maps.Copy(c.Profiles, fc.Profiles)
	if _, ok := c.Profiles[c.DefaultProfile]; !ok {
		return nil, fmt.Errorf("%s: default profile %q is not defined", path, c.DefaultProfile)
	}
	return c, nil
}

// Parse decodes a config document. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.UnmarshalWithOptions(data, &c, yaml.DisallowUnknownField()); err != nil {
		return nil, err
	}
	for name, p := range c.Profiles {
		if p == nil {
			return nil, fmt.Errorf("profile %q is empty", name)
		}
		p.Name = name
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// Names returns the profile names, sorted.
func (c *Config) Names() []string {
	return slices.Sorted(maps.Keys(c.Profiles))
}

// Profile returns a copy of the named profile, or of the default profile
// when name is empty.
func (c *Config) Profile(name string) (*Profile, error) {
	if name == "" {
		name = c.DefaultProfile
	}
	p, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q (have %v)", name, c.Names())
	}
	cp := *p
	cp.Name = name
	cp.Exclude = slices.Clone(p.Exclude)
	cp.Build.Command = slices.Clone(p.Build.Command)
	cp.Build.Env = maps.Clone(p.Build.Env)
	if p.Extension != nil {
		ext := *p.Extension
		cp.Extension = &ext
	}
	return &cp, nil
}

// Validate checks the fields that do not depend on the canonical root.
func (p *Profile) Validate() error {
	var errs []error
	if p.SourceSuffix == "" {
		errs = append(errs, errors.New("source_suffix is required"))
	}
	if p.ArtifactSuffix == "" {
		errs = append(errs, errors.New("artifact_suffix is required"))
	}
	if len(p.Build.Command) == 0 || p.Build.Command[0] == "" {
		errs = append(errs, errors.New("build.command is required"))
	}
	if p.Build.Timeout < 0 {
		errs = append(errs, errors.New("build.timeout must not be negative"))
	}
	if p.Extension != nil && p.Extension.Dir == "" {
		errs = append(errs, errors.New("extension.dir is required when extension is set"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return nil
}

// Layout resolves the profile against the canonical root. An empty root
// falls back to the profile's root and then to the working directory.
func (p *Profile) Layout(root string) (*variant.Layout, error) {
	if root == "" {
		root = p.Root
	}
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	l := &variant.Layout{
		Root:           abs,
		SourceDir:      filepath.ToSlash(p.SourceDir),
		OutputDir:      filepath.ToSlash(p.OutputDir),
		SourceSuffix:   p.SourceSuffix,
		ArtifactSuffix: p.ArtifactSuffix,
		CompanionGlob:  p.CompanionGlob,
	}
	if p.Extension != nil {
		l.ExtensionDir = filepath.ToSlash(p.Extension.Dir)
		l.ExtensionDest = filepath.ToSlash(p.Extension.Dest)
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return l, nil
}

// Scanner returns the variant scanner for the profile.
func (p *Profile) Scanner() (*variant.Scanner, error) {
	return variant.NewScanner(p.SourceSuffix, p.Exclude)
}
