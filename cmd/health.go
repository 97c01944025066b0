package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var healthTimeout time.Duration

var healthCmd = &cobra.Command{
	Use:   "health [database]",
	Short: "Check connectivity to a database",
	Long: `Check that the configured server accepts a connection to the given database.

Examples:
  sqldelete health Payroll
  sqldelete health Payroll --timeout 10s
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, engine, _, err := setup(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
		defer cancel()

		if err := engine.Ping(ctx, args[0]); err != nil {
			return errors.Wrap(err, "database health check failed")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is reachable (%s)\n", args[0], engine.Dialect())
		return nil
	},
}

func init() {
	healthCmd.Flags().DurationVarP(&healthTimeout, "timeout", "t", 5*time.Second, "Timeout for health check")
}
