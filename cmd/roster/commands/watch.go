package commands

import (
	"github.com/spf13/cobra"

	"github.com/dyluth/roster/internal/printer"
	"github.com/dyluth/roster/internal/watch"
)

var (
	watchProtocol string
	watchOutput   string
	watchStatus   string
	watchNameGlob string
	watchLimit    int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream registry changes as they happen",
	Long: `Stream appended and updated entries, rendered for a protocol version.
Runs until interrupted, or until --limit events have been shown.

Redis Pub/Sub delivers at most once: changes made while not watching are
not replayed. Use 'roster list' for the current state.

Examples:
  roster watch
  roster watch --protocol legacy --output jsonl | jq .
  roster watch --status captured --limit 1`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	addRenderFlags(watchCmd, &watchProtocol, &watchOutput)
	addFilterFlags(watchCmd, &watchStatus, &watchNameGlob)
	watchCmd.Flags().IntVar(&watchLimit, "limit", 0, "Stop after this many events (0 = no limit)")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	version, format, err := parseRenderFlags(watchProtocol, watchOutput)
	if err != nil {
		return printerError("invalid output options", err)
	}

	criteria, err := buildCriteria(cmd, watchStatus, watchNameGlob, nil, nil)
	if err != nil {
		return printerError("invalid filter", err)
	}

	client, err := connect(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeQuietly(client)

	ctx, stop := signalContext(cmd)
	defer stop()

	err = watch.Stream(ctx, client, watch.Options{
		Version: version,
		Format:  format,
		Filters: criteria,
		Limit:   watchLimit,
		OnError: func(err error) {
			printer.Warning("skipped event: %v\n", err)
		},
	}, cmd.OutOrStdout())
	if err != nil {
		return printerError("watch failed", err)
	}
	return nil
}
