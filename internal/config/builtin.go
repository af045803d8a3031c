package config

// Built-in profiles for Ant-built Java trees. Both compile with
// "ant compile.tests"; they differ in source layout and in whether a variant
// may ship the varexc extension package.
const (
	ProfileMaven  = "maven"
	ProfileLegacy = "legacy"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DefaultProfile: ProfileMaven,
		Profiles: map[string]*Profile{
			ProfileMaven: {
				Name:           ProfileMaven,
				SourceDir:      "src/main/java",
				OutputDir:      "target/classes",
				SourceSuffix:   ".java",
				ArtifactSuffix: ".class",
				CompanionGlob:  "$*",
				Build: Build{
					Command: []string{"ant"},
					Target:  "compile.tests",
				},
			},
			ProfileLegacy: {
				Name:           ProfileLegacy,
				SourceDir:      "src/java",
				OutputDir:      "target/classes",
				SourceSuffix:   ".java",
				ArtifactSuffix: ".class",
				CompanionGlob:  "$*",
				Extension:      &Extension{Dir: "varexc"},
				Build: Build{
					Command: []string{"ant"},
					Target:  "compile.tests",
				},
			},
		},
	}
}
