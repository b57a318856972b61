// Package cli wires the import wizard and its supporting commands into a
// cobra command tree. The commands are thin drivers over the session API.
package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "catmap",
		Short: "catmap - catalog import and framework mapping pipeline",
		Long: `catmap imports a metrics catalog, maps each metric onto a compliance
framework taxonomy with AI-suggested, human-confirmed mappings, and swaps
the organization's active catalog once coverage looks right.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(NewImportCmd())
	rootCmd.AddCommand(NewCoverageCmd())
	rootCmd.AddCommand(NewSessionsCmd())

	return rootCmd
}
