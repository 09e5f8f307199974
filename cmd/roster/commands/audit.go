package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dyluth/roster/internal/audit"
	"github.com/dyluth/roster/internal/printer"
	"github.com/dyluth/roster/internal/schema"
)

var auditDataPath string

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Validate a whole registry collection against the schema",
	Long: `Validate every entry of a registry collection and print one line per
violation:

  <path> <message>

The collection is read from a JSON dump (--data, "-" for stdin) such as the
one written by 'roster export', or directly from Redis when --data is omitted.

Exit codes:
  0  every entry is valid
  1  one or more violations were found
  2  the collection could not be read

Examples:
  # Audit a dump against the embedded schema
  roster audit --data registry.json

  # Audit against a newer schema before rolling it out
  roster audit --data registry.json --schema entry.v1.yaml

  # Audit what is stored right now
  roster audit --redis-url redis://localhost:6379 --instance prod`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&auditDataPath, "data", "", "JSON dump to audit (\"-\" for stdin); audits Redis when omitted")

	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return &ExitError{Code: ExitOperational, Err: err}
	}

	def, err := schema.LoadOrDefault(cfg.SchemaFile)
	if err != nil {
		return &ExitError{Code: ExitOperational, Err: printer.Error(
			"failed to load schema",
			err.Error(),
			[]string{"Check the --schema path, or omit it to use the embedded definition"},
		)}
	}

	auditor := audit.New(def, cmd.OutOrStdout())

	var report *audit.Report
	source := auditDataPath
	if auditDataPath != "" {
		report, err = auditFile(cmd, auditor, auditDataPath)
	} else {
		client, cerr := connect(cmd, cfg)
		if cerr != nil {
			return &ExitError{Code: ExitOperational, Err: cerr}
		}
		defer closeQuietly(client)

		source = fmt.Sprintf("redis instance '%s'", cfg.Instance)
		report, err = auditor.RunStore(cmd.Context(), client)
	}
	if err != nil {
		return &ExitError{Code: ExitOperational, Err: printer.Error(
			"audit could not run",
			err.Error(),
			nil,
		)}
	}

	if !report.OK() {
		printer.Warning("%d violation(s) in %d entries from %s (run %s)\n",
			len(report.Violations), report.Entries, source, report.RunID)
		return &ExitError{Code: ExitViolations, Err: fmt.Errorf("%d schema violations", len(report.Violations))}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "✓ %d entries valid (run %s)\n", report.Entries, report.RunID)
	return nil
}

func auditFile(cmd *cobra.Command, auditor *audit.Auditor, path string) (*audit.Report, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open dump: %w", err)
		}
		defer f.Close()
		r = f
	}
	return auditor.Run(r)
}
