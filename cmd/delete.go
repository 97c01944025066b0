package cmd

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/sqldelete/directive"
	"github.com/ridoystarlord/sqldelete/runner"
)

func runDelete(cmd *cobra.Command, args []string) error {
	cfg, engine, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	original := directive.NewDelete(args[0], args[1], args[2])
	logger.Debug("starting",
		slog.String("dialect", engine.Dialect().String()),
		slog.String("directive", original.String()),
	)

	r := runner.New(engine, engine,
		runner.WithDialect(engine.Dialect()),
		runner.WithOutput(cmd.OutOrStdout()),
		runner.WithLogger(logger),
		runner.WithMaxDepth(cfg.MaxDepth),
	)
	summary, err := r.Run(cmd.Context(), original)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen, color.Bold)
	green.Fprintf(cmd.ErrOrStderr(), "✅ Deleted from %s.%s", original.Database(), original.Table())
	fmt.Fprintln(cmd.ErrOrStderr(), describe(summary))
	return nil
}

func describe(s runner.Summary) string {
	return fmt.Sprintf(" (%d statement(s), %d blocking reference(s) resolved, nested %d deep)", s.Statements, s.Conflicts, s.MaxDepth)
}
