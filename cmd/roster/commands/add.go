package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dyluth/roster/internal/admin"
	"github.com/dyluth/roster/internal/printer"
	"github.com/dyluth/roster/internal/schema"
	"github.com/dyluth/roster/pkg/roster"
)

var (
	addPosition int
	addName     string
	addStatus   string
	addJSON     string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Append one entry to the registry",
	Long: `Append one entry to the registry. The entry is validated against the
schema exactly as the HTTP write path does; a rejected entry prints one
"<path> <message>" line per violation and nothing is stored.

Examples:
  roster add --position 2 --name Raymond --status active
  roster add --position 5 --status redacted
  roster add --json '{"guide": 3, "name": "Dembe", "status": "captured"}'`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().IntVar(&addPosition, "position", 0, "Sequence position (unique)")
	addCmd.Flags().StringVar(&addName, "name", "", "Display name (may be empty when status is redacted)")
	addCmd.Flags().StringVar(&addStatus, "status", "", "Status: "+statusList())
	addCmd.Flags().StringVar(&addJSON, "json", "", "Entry as a JSON object; replaces the other flags")
	addCmd.MarkFlagsMutuallyExclusive("json", "position")
	addCmd.MarkFlagsMutuallyExclusive("json", "name")
	addCmd.MarkFlagsMutuallyExclusive("json", "status")

	rootCmd.AddCommand(addCmd)
}

func statusList() string {
	names := make([]string, 0, len(roster.Statuses()))
	for _, s := range roster.Statuses() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

// addCandidate builds the candidate object from flags. Only flags the user
// set are included so the validator reports missing fields.
func addCandidate(cmd *cobra.Command) (map[string]any, error) {
	if cmd.Flags().Changed("json") {
		dec := json.NewDecoder(strings.NewReader(addJSON))
		dec.UseNumber()
		var candidate map[string]any
		if err := dec.Decode(&candidate); err != nil {
			return nil, fmt.Errorf("--json must be a JSON object: %w", err)
		}
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			return nil, errors.New("--json must contain a single JSON object")
		}
		if candidate == nil {
			return nil, errors.New("--json must be a JSON object")
		}
		return candidate, nil
	}

	candidate := map[string]any{}
	if cmd.Flags().Changed("position") {
		candidate["position"] = addPosition
	}
	if cmd.Flags().Changed("name") {
		candidate["name"] = addName
	}
	if cmd.Flags().Changed("status") {
		candidate["status"] = addStatus
	}
	return candidate, nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	candidate, err := addCandidate(cmd)
	if err != nil {
		return printer.Error("invalid entry", err.Error(), nil)
	}

	def, err := schema.LoadOrDefault(cfg.SchemaFile)
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}

	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	client, err := connect(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeQuietly(client)

	entry, err := admin.NewService(def, client, log).Append(cmd.Context(), candidate)
	if err != nil {
		var verr *schema.ViolationError
		switch {
		case errors.As(err, &verr):
			for _, v := range verr.Violations {
				fmt.Fprintln(cmd.OutOrStdout(), v.String())
			}
			return &ExitError{Code: ExitViolations, Err: printer.Error(
				"entry rejected",
				fmt.Sprintf("%d schema violation(s); nothing was stored.", len(verr.Violations)),
				nil,
			)}
		case errors.Is(err, roster.ErrPositionTaken):
			return printer.Error(
				"position already taken",
				err.Error(),
				[]string{"List the registry to find a free position:\n  roster list"},
			)
		default:
			return printer.Error("append failed", err.Error(), nil)
		}
	}

	printer.Success("Appended %s\n", entry)
	return nil
}
