package internal

import (
	"github.com/genprog/varbuild/internal/report"
	"github.com/spf13/cobra"
)

func runCompile(cmd *cobra.Command, args []string) error {
	p, _, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	res := p.Run(cmd.Context(), args[0])
	if err := report.Write(cmd.OutOrStdout(), res, flagDetails); err != nil {
		return err
	}
	if code := res.ExitCode(); code != 0 {
		return &exitError{code: code}
	}
	return nil
}
