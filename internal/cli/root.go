package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/omerida/dokuwiki-strata/internal/config"
	"github.com/omerida/dokuwiki-strata/internal/graphid"
	"github.com/omerida/dokuwiki-strata/internal/store"
	"github.com/omerida/dokuwiki-strata/internal/triples"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string
	Debug      bool

	// Getenv reads environment overrides. Defaults to os.Getenv.
	Getenv func(string) string

	// Graphs names the graph of new triples when neither a flag nor the
	// config names one. Defaults to graphid.UUIDv7.
	Graphs graphid.Generator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the strata CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Getenv: os.Getenv, Graphs: graphid.UUIDv7{}}

	cmd := &cobra.Command{
		Use:   "strata",
		Short: "strata - structured data over a triple store",
		Long:  "Store subject/predicate/object triples and query them with graph patterns compiled to SQL.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "log SQL and literals of failed statements")

	// Add subcommands
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewFetchCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// loadConfig resolves configuration: defaults, then the config file, then
// environment variables, then flags.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if o.ConfigPath != "" {
		loaded, err := config.LoadFromFile(o.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	getenv := o.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}

	if o.Database != "" {
		cfg.Database.Path = o.Database
	}
	if o.Debug {
		cfg.Debug = true
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// logger builds the configured logger writing to w.
func (o *RootOptions) logger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	return cfg.NewLogger(w)
}

// session is an open store plus the service over it.
type session struct {
	cfg     *config.Config
	store   *store.Store
	service *triples.Service
	logger  *slog.Logger
}

func (s *session) Close() error {
	return s.store.Close()
}

// openSession loads configuration and opens the configured store. Command
// errors are returned as ExitErrors.
func (o *RootOptions) openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeConfig+": failed to load config", err)
	}

	logger, err := o.logger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeConfig+": failed to build logger", err)
	}

	d, err := cfg.Dialect()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeConfig+": invalid dialect", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeStoreOpen+": failed to open database", err)
	}
	if st.Dialect().Name() != d.Name() {
		st.Close()
		return nil, NewExitError(ExitCommandError,
			fmt.Sprintf("%s: dialect %s can only be compiled; the store speaks %s", ErrCodeConfig, d.Name(), st.Dialect().Name()))
	}

	logger.Debug("opened database", "path", cfg.Database.Path, "dialect", d.Name())

	return &session{
		cfg:     cfg,
		store:   st,
		service: triples.New(st, triples.Options{Debug: cfg.Debug, Logger: logger}),
		logger:  logger,
	}, nil
}

// newGraph returns a fresh graph name.
func (o *RootOptions) newGraph() string {
	if o.Graphs == nil {
		return graphid.UUIDv7{}.Generate()
	}
	return o.Graphs.Generate()
}

// newFormatter returns the formatter for cmd's output streams.
func (o *RootOptions) newFormatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}
