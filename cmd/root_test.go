package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/sqldelete/config"
	"github.com/ridoystarlord/sqldelete/dialect"
	"github.com/ridoystarlord/sqldelete/runner"
)

func TestExactArgs(t *testing.T) {
	check := exactArgs(3)

	require.NoError(t, check(rootCmd, []string{"Payroll", "Employee", "Id=5"}))
	for _, args := range [][]string{nil, {"Payroll"}, {"Payroll", "Employee"}, {"a", "b", "c", "d"}} {
		assert.ErrorIs(t, check(rootCmd, args), errUsage)
	}
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultFile)
	require.NoError(t, config.Write(path, config.Default()))

	require.NoError(t, rootCmd.ParseFlags([]string{
		"--config", path,
		"--dialect", "postgres",
		"--server", "127.0.0.1",
		"--max-depth", "3",
		"-v",
	}))
	t.Cleanup(func() {
		configFile, dialectName, server, maxDepth, verbose = config.DefaultFile, "", "", 0, false
	})

	cfg, err := loadConfig(rootCmd)
	require.NoError(t, err)

	assert.Equal(t, dialect.Postgres, cfg.Connection.Dialect)
	assert.Equal(t, "127.0.0.1", cfg.Connection.Server)
	assert.Equal(t, 3, cfg.MaxDepth)
	assert.Equal(t, "debug", cfg.LogLevel)
	require.NoError(t, cfg.Connection.Validate())
}

func TestInitWritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultFile)
	configFile, initDialect = path, "postgres"
	t.Cleanup(func() { configFile, initDialect = config.DefaultFile, "mssql" })

	var out bytes.Buffer
	initCmd.SetOut(&out)
	require.NoError(t, initCmd.RunE(initCmd, nil))
	assert.Contains(t, out.String(), path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, dialect.Postgres, cfg.Connection.Dialect)
	assert.Equal(t, "localhost", cfg.Connection.Server)

	require.Error(t, initCmd.RunE(initCmd, nil), "second init must not overwrite")
}

func TestDescribeSummary(t *testing.T) {
	assert.Equal(t,
		" (3 statement(s), 2 blocking reference(s) resolved, nested 2 deep)",
		describe(runner.Summary{Statements: 3, Conflicts: 2, MaxDepth: 2}),
	)
	assert.Equal(t,
		" (1 statement(s), 0 blocking reference(s) resolved, nested 0 deep)",
		describe(runner.Summary{Statements: 1}),
	)
}
