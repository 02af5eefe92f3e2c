package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/integrations/pkg/logging"
)

// Execute runs the integrations CLI with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "integrations",
		Short:   "Integration template catalog CLI",
		Version: a.version,
		Long: `Integrations manages a catalog of versioned observability integration
templates and the instances installed from them.

Templates are read from uploaded bundles in the object store, an optional
filesystem catalog and the catalog bundled into the binary. Instances and
their saved objects live in the object store (SQLite, PostgreSQL or
BadgerDB).`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "management", Title: "Management Commands:"})

	// Flags are read in setupCommand rather than bound to the config, so
	// their zero defaults do not clobber config file values.
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/"+configFileName+")")
	flags.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.Bool("no-color", false, "disable colored output")
	flags.StringP("format", "o", "", "output format: table, json, yaml, wide")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.String("repository", "", "filesystem catalog directory")
	flags.String("store", "", "object store DSN: memory, sqlite://path, postgres://..., badger://path")
	flags.Bool("no-embedded", false, "do not serve the bundled catalog")

	rootCmd.SetVersionTemplate("integrations {{.Version}}\n")

	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand applies global flags before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if path := mustGetString(cmd, "config"); path != "" {
		config, err := loadConfig(path)
		if err != nil {
			return err
		}
		a.config = config
	}

	a.config.UpdateFromFlags(
		mustGetBool(cmd, "verbose"),
		mustGetBool(cmd, "quiet"),
		mustGetBool(cmd, "no-color"),
		mustGetString(cmd, "format"),
		mustGetString(cmd, "log-level"),
	)
	if repo := mustGetString(cmd, "repository"); repo != "" {
		a.config.RepositoryPath = repo
	}
	if dsn := mustGetString(cmd, "store"); dsn != "" {
		a.config.Store = dsn
	}
	if mustGetBool(cmd, "no-embedded") {
		a.config.UseEmbeddedCatalog = false
	}

	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)
	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(a.CreateListCommand())
	rootCmd.AddCommand(a.CreateShowCommand())
	rootCmd.AddCommand(a.CreateInstancesCommand())
	rootCmd.AddCommand(a.CreateServeCommand())

	// Management commands
	rootCmd.AddCommand(a.CreateValidateCommand())
	rootCmd.AddCommand(a.CreateSerializeCommand())
	rootCmd.AddCommand(a.CreateUploadCommand())

	// Utility commands
	rootCmd.AddCommand(a.CreateVersionCommand())
}

// ExitOnError prints err and exits with status 1. It is a no-op for nil.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a persistent flag defined in createRootCommand.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a persistent flag defined in createRootCommand.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
