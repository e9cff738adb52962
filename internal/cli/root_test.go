package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noEnv ignores the process environment.
func noEnv(string) string { return "" }

// testRootOptions returns options for a database under a temp dir.
func testRootOptions(t *testing.T, format string) *RootOptions {
	t.Helper()
	return &RootOptions{
		Format:   format,
		Database: filepath.Join(t.TempDir(), "strata.db"),
		Getenv:   noEnv,
	}
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "strata", cmd.Use)
	assert.Contains(t, cmd.Long, "triples")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"add", "import", "fetch", "remove", "compile", "validate", "query", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "db", "debug"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing --%s", name)
	}
}

func TestCompileCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	compileCmd, _, err := cmd.Find([]string{"compile"})
	require.NoError(t, err)

	outputFlag := compileCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)

	dialectFlag := compileCmd.Flags().Lookup("dialect")
	require.NotNil(t, dialectFlag)
	assert.Contains(t, dialectFlag.Usage, "mysql")
}

func TestPatternCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"fetch", "remove"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		for _, flag := range []string{"subject", "predicate", "object", "graph"} {
			assert.NotNil(t, sub.Flags().Lookup(flag), "%s is missing --%s", name, flag)
		}
	}
}

func TestFormatValidation(t *testing.T) {
	// Test valid formats
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	// Test invalid formats
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "compile", "q.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strata.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: from-file.db
default_graph: file-graph
log:
  level: warn
`), 0644))

	env := map[string]string{"STRATA_DEFAULT_GRAPH": "env-graph"}
	opts := &RootOptions{
		ConfigPath: path,
		Database:   "from-flag.db",
		Debug:      true,
		Verbose:    true,
		Getenv:     func(k string) string { return env[k] },
	}

	cfg, err := opts.loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "from-flag.db", cfg.Database.Path)
	assert.Equal(t, "env-graph", cfg.DefaultGraph)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_Invalid(t *testing.T) {
	opts := &RootOptions{Getenv: func(k string) string {
		if k == "STRATA_DIALECT" {
			return "oracle"
		}
		return ""
	}}

	_, err := opts.loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestOpenSession_CompileOnlyDialect(t *testing.T) {
	opts := testRootOptions(t, "text")
	opts.Getenv = func(k string) string {
		if k == "STRATA_DIALECT" {
			return "mysql"
		}
		return ""
	}

	cmd := NewFetchCommand(opts)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E201]")
	assert.Contains(t, buf.String(), "dialect mysql can only be compiled")
}
