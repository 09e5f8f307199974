package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dyluth/roster/internal/config"
	"github.com/dyluth/roster/internal/filter"
	"github.com/dyluth/roster/internal/listing"
	"github.com/dyluth/roster/internal/printer"
	"github.com/dyluth/roster/internal/query"
	"github.com/dyluth/roster/internal/render"
	"github.com/dyluth/roster/pkg/roster"
)

var (
	listProtocol string
	listOutput   string
	listStatus   string
	listFrom     int
	listTo       int
	listNameGlob string
	listLabels   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the rendered registry",
	Long: `Show the registry in position order, rendered exactly as a client of the
chosen protocol version receives it. Redacted entries never show their name
or status.

Output Formats:
  default - Table with display labels
  json    - The JSON array served by GET /api/registry
  jsonl   - One rendered item per line

Filters:
  --status  - Comma-separated statuses ("active,captured")
  --from    - Lowest position to include
  --to      - Highest position to include
  --match   - Glob on name ("R*"); redacted entries never match

Examples:
  roster list
  roster list --protocol legacy --output json
  roster list --status captured --from 10 --to 20`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	addRenderFlags(listCmd, &listProtocol, &listOutput)
	addFilterFlags(listCmd, &listStatus, &listNameGlob)
	listCmd.Flags().IntVar(&listFrom, "from", 0, "Lowest position to include")
	listCmd.Flags().IntVar(&listTo, "to", 0, "Highest position to include")
	listCmd.Flags().StringVar(&listLabels, "labels", "", "Labels YAML for table output (env ROSTER_LABELS_FILE)")

	rootCmd.AddCommand(listCmd)
}

func addRenderFlags(cmd *cobra.Command, protocol, output *string) {
	cmd.Flags().StringVar(protocol, "protocol", string(render.DefaultVersion()), "Protocol version to render: legacy or current")
	cmd.Flags().StringVarP(output, "output", "o", string(listing.OutputFormatDefault), "Output format: default, json or jsonl")
}

func addFilterFlags(cmd *cobra.Command, status, nameGlob *string) {
	cmd.Flags().StringVar(status, "status", "", "Only entries with these statuses (comma-separated)")
	cmd.Flags().StringVar(nameGlob, "match", "", "Only entries whose name matches this glob")
}

// buildCriteria turns filter flags into criteria. Range bounds apply only
// when their flags were set.
func buildCriteria(cmd *cobra.Command, status, nameGlob string, from, to *int) (*filter.Criteria, error) {
	c := &filter.Criteria{NameGlob: nameGlob}
	if status != "" {
		for _, s := range strings.Split(status, ",") {
			c.Statuses = append(c.Statuses, roster.Status(strings.TrimSpace(s)))
		}
	}
	if from != nil && cmd.Flags().Changed("from") {
		c.MinPosition = from
	}
	if to != nil && cmd.Flags().Changed("to") {
		c.MaxPosition = to
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseRenderFlags(protocol, output string) (render.ProtocolVersion, listing.OutputFormat, error) {
	version, err := render.ParseProtocolVersion(protocol)
	if err != nil {
		return "", "", err
	}
	format, err := listing.ParseOutputFormat(output)
	if err != nil {
		return "", "", err
	}
	return version, format, nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	version, format, err := parseRenderFlags(listProtocol, listOutput)
	if err != nil {
		return printerError("invalid output options", err)
	}

	criteria, err := buildCriteria(cmd, listStatus, listNameGlob, &listFrom, &listTo)
	if err != nil {
		return printerError("invalid filter", err)
	}

	labelsPath := cfg.LabelsFile
	if cmd.Flags().Changed("labels") {
		labelsPath = listLabels
	}
	labels, err := config.LoadLabels(labelsPath)
	if err != nil {
		return printerError("invalid labels file", err)
	}

	client, err := connect(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeQuietly(client)

	err = listing.List(cmd.Context(), query.NewService(client), listing.Options{
		Version:  version,
		Format:   format,
		Filters:  criteria,
		Labels:   labels,
		Instance: cfg.Instance,
	}, cmd.OutOrStdout())
	if err != nil {
		return printerError("failed to list registry", err)
	}
	return nil
}

func printerError(title string, err error) error {
	return printer.Error(title, fmt.Sprintf("Error: %v", err), nil)
}
