package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dyluth/roster/internal/printer"
	"github.com/dyluth/roster/internal/query"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the unredacted registry as a JSON array",
	Long: `Write every stored entry, unredacted and in position order, as a JSON
array of {position, name, status} objects. The output is the dump format
'roster audit --data' reads.

The export contains the names of redacted entries. Treat it as private.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "f", "-", "File to write (\"-\" for stdout)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	client, err := connect(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeQuietly(client)

	entries, err := query.NewService(client).FetchRegistry(cmd.Context())
	if err != nil {
		return printerError("failed to read registry", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries: %w", err)
	}

	if exportOut == "-" {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		return nil
	}

	f, err := os.OpenFile(exportOut, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return printerError("failed to create export file", err)
	}
	if err := writeAndClose(f, data); err != nil {
		return printerError("failed to write export file", err)
	}

	printer.Success("Exported %d entries to %s\n", len(entries), exportOut)
	return nil
}

// writeAndClose writes data followed by a newline and closes w, returning
// the close error when the write succeeded.
func writeAndClose(w io.WriteCloser, data []byte) error {
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
