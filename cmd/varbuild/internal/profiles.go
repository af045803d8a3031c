package internal

import (
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List build profiles",
	Long:  `Profiles lists the built-in and configured build profiles. The default is marked with *.`,
	Args:  cobra.NoArgs,
	RunE:  runProfiles,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}

func runProfiles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	t := tablewriter.NewTable(cmd.OutOrStdout())
	t.Header("Profile", "Sources", "Output", "Extension", "Build")
	for _, name := range cfg.Names() {
		p, err := cfg.Profile(name)
		if err != nil {
			return err
		}
		if name == cfg.DefaultProfile {
			name += " *"
		}
		ext := "-"
		if p.Extension != nil {
			ext = p.Extension.Dir
			if p.Extension.Dest != "" {
				ext += " -> " + p.Extension.Dest
			}
		}
		build := strings.Join(append(p.Build.Command, p.Build.Target), " ")
		if err := t.Append([]string{name, p.SourceDir, p.OutputDir, ext, strings.TrimSpace(build)}); err != nil {
			return err
		}
	}
	return t.Render()
}
