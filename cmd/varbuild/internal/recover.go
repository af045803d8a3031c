package internal

import (
	"fmt"

	"github.com/genprog/varbuild/internal/pipeline"
	"github.com/spf13/cobra"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Restore the canonical tree after an interrupted run",
	Long: `Recover replays the staging areas left behind by runs that were killed, or whose
restoration failed, copying every backup back into the canonical tree. Fix the
cause of a failed restoration first.`,
	Args: cobra.NoArgs,
	RunE: runRecover,
}

func init() {
	rootCmd.AddCommand(recoverCmd)
}

func runRecover(cmd *cobra.Command, args []string) error {
	p, _, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	recovered, err := p.Recover()
	out := cmd.OutOrStdout()
	if len(recovered) == 0 && err == nil {
		fmt.Fprintln(out, "nothing to recover")
		return nil
	}
	for _, r := range recovered {
		if r.Err != nil {
			fmt.Fprintf(out, "failed to recover %s (%s): %v\n", r.ID, r.Variant, r.Err)
			continue
		}
		fmt.Fprintf(out, "recovered %s (%s): %d file(s) restored\n", r.ID, r.Variant, r.Restored)
	}
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "varbuild:", err)
		return &exitError{code: pipeline.ExitRestore}
	}
	return nil
}
