package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dyluth/roster/internal/config"
	"github.com/dyluth/roster/internal/platform/logger"
	"github.com/dyluth/roster/internal/printer"
	"github.com/dyluth/roster/pkg/roster"
)

var (
	version string
	commit  string
	date    string
)

// Global flags. Each overrides its ROSTER_* variable when set.
var (
	rootRedisURL  string
	rootInstance  string
	rootLogLevel  string
	rootLogFormat string
	rootSchema    string
)

// Exit codes.
const (
	ExitViolations  = 1
	ExitOperational = 2
)

// ExitError carries a process exit code out of a command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "roster",
	Short: "Roster - ordered registry service with schema-gated writes",
	Long: `Roster maintains a public, ordered registry of named entries and serves
it to client renderers of two protocol generations, enforcing a uniform
redaction rule: redacted entries never expose their name or status.

Configuration is read from ROSTER_* environment variables; flags override them.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		printer.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	// Enable strict flag parsing - unknown flags will cause an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootRedisURL, "redis-url", "", "Redis URL (env ROSTER_REDIS_URL)")
	pf.StringVarP(&rootInstance, "instance", "i", "", "Instance name namespacing the Redis keys (env ROSTER_INSTANCE)")
	pf.StringVar(&rootLogLevel, "log-level", "", "Log level: debug, info, warn, error (env ROSTER_LOG_LEVEL)")
	pf.StringVar(&rootLogFormat, "log-format", "", "Log format: text or json (env ROSTER_LOG_FORMAT)")
	pf.StringVar(&rootSchema, "schema", "", "Schema definition file; the embedded definition is used when omitted (env ROSTER_SCHEMA_FILE)")
}

// loadConfig reads the environment, applies global flags and validates.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("redis-url") {
		cfg.RedisURL = rootRedisURL
	}
	if flags.Changed("instance") {
		cfg.Instance = rootInstance
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = rootLogLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = rootLogFormat
	}
	if flags.Changed("schema") {
		cfg.SchemaFile = rootSchema
	}

	if err := cfg.Validate(); err != nil {
		return nil, printer.Error("invalid configuration", err.Error(), []string{
			"Check the ROSTER_* environment variables and command flags",
		})
	}
	return cfg, nil
}

// newLogger builds the slog logger on the command's error stream.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	return logger.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
}

// connect opens the registry store and checks it answers.
func connect(cmd *cobra.Command, cfg *config.Config) (*roster.Client, error) {
	client, err := roster.NewClientFromURL(cfg.RedisURL, cfg.Instance)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry client: %w", err)
	}

	if err := client.Ping(cmd.Context()); err != nil {
		client.Close()
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", cfg.RedisURL),
			map[string]string{"Instance": cfg.Instance, "Error": err.Error()},
			[]string{"Check that Redis is running and ROSTER_REDIS_URL (or --redis-url) points at it"},
		)
	}
	return client, nil
}

// closeQuietly closes c, ignoring the error. Used in defers.
func closeQuietly(c io.Closer) {
	_ = c.Close()
}

// signalContext returns the command context, cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}
