package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/genprog/varbuild/internal/logging"
	"github.com/genprog/varbuild/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	flagConfig    string
	flagProfile   string
	flagRoot      string
	flagLogLevel  logging.Level
	flagLogFormat logging.Format
	flagVerbose   bool
	flagTimeout   time.Duration
	flagJobs      int
	flagNoLock    bool
	flagDetails   bool
)

var rootCmd = &cobra.Command{
	Use:   "varbuild [flags] VARIANT_DIR",
	Short: "varbuild compiles a source variant against a shared canonical tree",
	Long: `varbuild overlays the source files of one variant directory onto the canonical
tree, runs the build tool, copies the compiled artifacts of the overlaid files back
into the variant directory and restores the canonical tree.

Exit status is 0 on success, 1 when the build fails, 2 on any other error and 3
when the canonical tree could not be restored. A variant directory named like a
subcommand must be given as a path, e.g. ./check.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCompile,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default $VARBUILD_CONFIG or ./varbuild.yaml)")
	pf.StringVarP(&flagProfile, "profile", "p", "", "build profile (default from config)")
	pf.StringVar(&flagRoot, "root", "", "canonical tree (default from profile, else the working directory)")
	pf.Var(logging.LevelFlag(&flagLogLevel), "log-level", "log level: debug, info, warn or error")
	pf.Var(logging.FormatFlag(&flagLogFormat), "log-format", "log format: console or json")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "stream build tool output to stderr")
	pf.DurationVar(&flagTimeout, "timeout", 0, "build timeout, overrides the profile")
	pf.IntVarP(&flagJobs, "jobs", "j", runtime.NumCPU(), "parallel artifact copies")
	pf.BoolVar(&flagNoLock, "no-lock", false, "do not lock the canonical tree; the caller serializes runs")
	pf.BoolVar(&flagDetails, "details", false, "print a per-file table after the summary")
}

// exitError carries a non-zero exit status whose cause was already reported.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Execute runs the command line and returns the process exit status.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return pipeline.ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(os.Stderr, "varbuild:", err)
	return pipeline.ExitFatal
}
