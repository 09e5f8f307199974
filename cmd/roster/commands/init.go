package commands

import (
	"github.com/spf13/cobra"

	"github.com/dyluth/roster/internal/printer"
	"github.com/dyluth/roster/internal/scaffold"
)

var (
	forceInit bool
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write editable schema, labels and environment files",
	Long: `Write editable copies of the configuration roster reads, into dir
(default: the current directory).

Creates:
  • entry.v1.yaml - The entry schema definition (ROSTER_SCHEMA_FILE)
  • labels.yaml   - Display labels for table output (ROSTER_LABELS_FILE)
  • roster.env    - Every ROSTER_* variable with its default

Use --force to overwrite existing files.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	paths, err := scaffold.Initialize(dir, forceInit)
	if err != nil {
		return printer.Error("initialization failed", err.Error(), nil)
	}

	printer.Success("Initialized roster configuration\n")
	printer.Info("\nCreated:\n")
	for _, p := range paths {
		printer.Info("  ✓ %s\n", p)
	}
	printer.Info("\nNext steps:\n")
	printer.Info("  1. Edit %s to evolve the entry shape\n", scaffold.SchemaFile)
	printer.Info("  2. Run 'roster audit --schema %s' against existing data before rolling it out\n", scaffold.SchemaFile)
	printer.Info("  3. Load %s into your environment and run 'roster serve'\n", scaffold.EnvFile)
	return nil
}
