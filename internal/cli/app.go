// Package cli implements rosterctl, the operator command line for running
// imports and managing the audit log without the web portal.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/lanes/internal/config"
	"github.com/JonMunkholm/lanes/internal/core"
	"github.com/JonMunkholm/lanes/internal/database"
	"github.com/JonMunkholm/lanes/internal/logging"
)

// Backend is the storage the commands run against.
type Backend interface {
	Roster() core.RosterReader
	Audit() core.AuditRepository
	InTx(ctx context.Context, fn func(core.Store) error) error
	Purger() core.AuditPurger
}

// Opener connects to storage. The returned func releases it.
type Opener func(ctx context.Context, cfg *config.Config) (Backend, func(), error)

// Migrator runs schema migrations against a database URL.
type Migrator struct {
	Up      func(url string) error
	Down    func(url string) error
	Version func(url string) (uint, bool, error)
}

// App holds the state shared by every command.
type App struct {
	out    io.Writer
	errOut io.Writer

	open     Opener
	migrator Migrator
	loadCfg  func() (*config.Config, error)

	logLevel   string
	logFormat  string
	policyFile string
	format     string

	cfg     *config.Config
	backend Backend
	release func()
}

// Option configures an App.
type Option func(*App)

// WithOutput redirects command output and logs.
func WithOutput(out, errOut io.Writer) Option {
	return func(a *App) { a.out, a.errOut = out, errOut }
}

// WithOpener replaces the database connection.
func WithOpener(open Opener) Option {
	return func(a *App) { a.open = open }
}

// WithConfigLoader replaces config.Load.
func WithConfigLoader(fn func() (*config.Config, error)) Option {
	return func(a *App) { a.loadCfg = fn }
}

// WithMigrator replaces the migration functions.
func WithMigrator(m Migrator) Option {
	return func(a *App) { a.migrator = m }
}

func New(opts ...Option) *App {
	a := &App{
		out:     os.Stdout,
		errOut:  os.Stderr,
		open:    openDatabase,
		loadCfg: config.Load,
		migrator: Migrator{
			Up:      database.Migrate,
			Down:    database.MigrateDown,
			Version: database.MigrationVersion,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Execute runs the command line in args.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	defer a.close()
	return root.ExecuteContext(ctx)
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "rosterctl",
		Short: "Run roster imports and inspect the change log",
		Long: `rosterctl previews and commits roster CSV imports against the
tournament database and reads, exports or clears the audit log.

Connection settings come from the same environment variables as the server.`,
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	root.AddGroup(
		&cobra.Group{ID: "import", Title: "Import Commands:"},
		&cobra.Group{ID: "admin", Title: "Administration Commands:"},
	)

	flags := root.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: text, json (default from LOG_FORMAT)")
	flags.StringVar(&a.policyFile, "policy", "", "import policy YAML file (default from IMPORT_POLICY_FILE)")
	flags.StringVarP(&a.format, "format", "o", "text", "output format: text, json")

	root.AddCommand(
		a.previewCommand(),
		a.commitCommand(),
		a.importCommand(),
		a.profilesCommand(),
		a.auditCommand(),
		a.migrateCommand(),
	)
	return root
}

// setup loads configuration and sends logs to stderr so stdout carries
// only command output.
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	if a.format != "text" && a.format != "json" {
		return fmt.Errorf("unknown output format %q", a.format)
	}

	cfg, err := a.loadCfg()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	level, format := cfg.Logging.Level, cfg.Logging.Format
	if a.logLevel != "" {
		level = a.logLevel
	}
	if a.logFormat != "" {
		format = a.logFormat
	}
	logging.SetupWriter(a.errOut, level, format)

	if a.policyFile == "" {
		a.policyFile = cfg.Import.PolicyFile
	}
	a.cfg = cfg
	return nil
}

// connect opens the backend once per invocation.
func (a *App) connect(ctx context.Context) (Backend, error) {
	if a.backend != nil {
		return a.backend, nil
	}
	b, release, err := a.open(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	a.backend, a.release = b, release
	return b, nil
}

func (a *App) close() {
	if a.release != nil {
		a.release()
		a.release = nil
	}
	a.backend = nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (Backend, func(), error) {
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return database.NewStore(pool), pool.Close, nil
}
