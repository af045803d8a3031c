package internal

import (
	"fmt"
	"io"
	"time"

	"github.com/genprog/varbuild/internal/build"
	"github.com/genprog/varbuild/internal/config"
	"github.com/genprog/varbuild/internal/env"
	"github.com/genprog/varbuild/internal/logging"
	"github.com/genprog/varbuild/internal/pipeline"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// loadConfig loads the configuration selected by --config.
func loadConfig() (*config.Config, error) {
	return config.Load(config.Locate(flagConfig))
}

func newLogger(cmd *cobra.Command) zerolog.Logger {
	return logging.New(cmd.ErrOrStderr(), flagLogLevel, flagLogFormat)
}

// newPipeline builds the pipeline for the selected profile. Flags override
// the profile.
func newPipeline(cmd *cobra.Command) (*pipeline.Pipeline, *config.Profile, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	profile, err := cfg.Profile(flagProfile)
	if err != nil {
		return nil, nil, err
	}
	layout, err := profile.Layout(flagRoot)
	if err != nil {
		return nil, nil, err
	}
	scanner, err := profile.Scanner()
	if err != nil {
		return nil, nil, fmt.Errorf("profile %q: %w", profile.Name, err)
	}

	timeout := profile.Build.Timeout
	if flagTimeout > 0 {
		timeout = config.Duration(flagTimeout)
	}
	var out io.Writer = io.Discard
	if flagVerbose {
		out = cmd.ErrOrStderr()
	}
	invoker, err := build.NewExec(profile.Build.Command,
		build.WithEnv(profile.Build.Env),
		build.WithTimeout(time.Duration(timeout)),
		build.WithOutput(out, out),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("profile %q: %w", profile.Name, err)
	}

	stateDir, err := env.WorkDir()
	if err != nil {
		return nil, nil, err
	}
	log := newLogger(cmd).With().Str("profile", profile.Name).Logger()
	p, err := pipeline.New(pipeline.Options{
		Profile:  profile.Name,
		Layout:   layout,
		Scanner:  scanner,
		Invoker:  invoker,
		Target:   profile.Build.Target,
		StateDir: stateDir,
		NoLock:   flagNoLock,
		Jobs:     flagJobs,
		Logger:   log,
	})
	if err != nil {
		return nil, nil, err
	}
	return p, profile, nil
}
