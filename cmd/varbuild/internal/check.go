package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [VARIANT_DIR]",
	Short: "Check that a run could start",
	Long: `Check validates the configuration, looks up the build command and verifies that
the canonical tree holds no unrestored staging area and no extension subtree.
Given a variant directory, it also scans it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	p, profile, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	var variantDir string
	if len(args) > 0 {
		variantDir = args[0]
	}
	if err := p.Preflight(variantDir); err != nil {
		return fmt.Errorf("profile %q is not ready:\n%w", profile.Name, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "profile %q is ready\n", profile.Name)
	return nil
}
