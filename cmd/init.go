package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/sqldelete/config"
	"github.com/ridoystarlord/sqldelete/dialect"
)

var initDialect string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter sqldelete.yaml",
	Long: `Write a config file with the default connection settings to the path given
by --config.

Examples:
  sqldelete init
  sqldelete init --for postgres
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		d, err := dialect.Parse(initDialect)
		if err != nil {
			return err
		}
		cfg.Connection.Dialect = d
		if d == dialect.Postgres {
			cfg.Connection.Server = "localhost"
			cfg.Connection.User = "postgres"
		}

		if err := config.Write(configFile, cfg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ Created", configFile)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initDialect, "for", "mssql", "Dialect to write settings for: mssql or postgres")
}
