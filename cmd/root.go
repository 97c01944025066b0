package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/sqldelete/config"
	"github.com/ridoystarlord/sqldelete/database"
	"github.com/ridoystarlord/sqldelete/dialect"
	"github.com/ridoystarlord/sqldelete/logging"
)

const usage = `Usage: sqldelete [database] [table] "[condition]"`

var errUsage = errors.New("wrong number of arguments")

var (
	configFile  string
	dialectName string
	server      string
	allowRemote bool
	maxDepth    int
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   `sqldelete [database] [table] "[condition]"`,
	Short: "Delete rows, clearing the foreign keys that block them",
	Long: `sqldelete deletes the rows of a table matching a condition. When the delete
is rejected by a foreign key, the referencing rows are nulled out (nullable
column) or deleted (non-nullable column) first, recursively, and the delete
is retried until it succeeds.

Every executed statement is echoed to stdout.

Only local servers are allowed unless --allow-remote is given.

Examples:
  sqldelete Payroll dbo.Employee "Id=5"
  sqldelete --dialect postgres payroll employee "id IN (5, 6)"
`,
	Args:          exactArgs(3),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDelete,
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errUsage
		}
		return nil
	}
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if errors.Is(err, errUsage) {
		fmt.Println(usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("❌ %+v\n", err)
		os.Exit(1)
	}
}

// Register subcommands
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", config.DefaultFile, "Config file to load if present")
	flags.StringVar(&dialectName, "dialect", "", "Database engine: mssql or postgres (overrides config)")
	flags.StringVar(&server, "server", "", `Server to connect to, e.g. localhost\sqlexpress (overrides config)`)
	flags.BoolVar(&allowRemote, "allow-remote", false, "Allow connecting to a non-local server")
	flags.IntVar(&maxDepth, "max-depth", 0, "Maximum nesting of blocking references, 0 for unlimited (overrides config)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log every attempt")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(initCmd)
}

// loadConfig layers command line flags over the config file and environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("dialect") {
		d, err := dialect.Parse(dialectName)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Connection.Dialect = d
	}
	if flags.Changed("server") {
		cfg.Connection.Server = server
		cfg.Connection.URL = ""
	}
	if flags.Changed("allow-remote") {
		cfg.Connection.AllowRemote = allowRemote
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth = maxDepth
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func setup(cmd *cobra.Command) (config.Config, database.Engine, *slog.Logger, error) {
	envErr := config.LoadEnv()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	logger := logging.New(cmd.ErrOrStderr(), cfg.Level())
	if envErr != nil {
		logger.Warn("ignoring .env", slog.Any("error", envErr))
	}

	engine, err := database.NewEngine(cfg.Connection, logger)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, engine, logger, nil
}
