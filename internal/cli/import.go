package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// ImportOptions are the flags of "catmap import run".
type ImportOptions struct {
	File          string
	Table         string
	OrderBy       string
	CatalogName   string
	Description   string
	ActorID       string
	FrameworkCode string
	BatchSize     int
	SkipFields    bool
}

func NewImportCmd() *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Catalog import operations",
	}

	run := &cobra.Command{
		Use:   "run",
		Short: "Run a full import session: upload, map, enhance, activate",
		RunE: func(c *cobra.Command, args []string) error {
			return runImport(c.Context(), opts)
		},
	}

	run.Flags().StringVarP(&opts.File, "file", "f", "", "Path to the catalog CSV file")
	run.Flags().StringVar(&opts.Table, "table", "", "SQL Server table to import from (instead of --file)")
	run.Flags().StringVar(&opts.OrderBy, "order-by", "id", "Order column for SQL paging")
	run.Flags().StringVarP(&opts.CatalogName, "name", "n", "", "Catalog name")
	run.Flags().StringVar(&opts.Description, "description", "", "Catalog description")
	run.Flags().StringVar(&opts.ActorID, "actor", "", "Actor id recorded with the upload")
	run.Flags().StringVar(&opts.FrameworkCode, "framework", "", "Framework code to map against")
	run.Flags().IntVarP(&opts.BatchSize, "batch-size", "b", 100, "Upload batch size")
	run.Flags().BoolVar(&opts.SkipFields, "skip-fields", false, "Skip the field-mapping stage (well-formed files only)")
	run.MarkFlagRequired("name")
	run.MarkFlagRequired("framework")

	cmd.AddCommand(run)
	return cmd
}

func NewSessionsCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Import session housekeeping",
	}

	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete abandoned import sessions",
		RunE: func(c *cobra.Command, args []string) error {
			return runPurge(c.Context(), olderThan)
		},
	}
	purge.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "Purge sessions idle longer than this")

	cmd.AddCommand(purge)
	return cmd
}

func NewCoverageCmd() *cobra.Command {
	var catalogID string

	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Print the coverage snapshot for a catalog's confirmed mappings",
		RunE: func(c *cobra.Command, args []string) error {
			return runCoverage(c.Context(), catalogID)
		},
	}
	cmd.Flags().StringVar(&catalogID, "catalog", "", "Catalog id")
	cmd.MarkFlagRequired("catalog")

	return cmd
}
