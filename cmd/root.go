// Package cmd wires configuration, logging, identity storage and the
// backend client into the chat-widget commands.
package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"chat-widget/internal/backend"
	"chat-widget/internal/config"
	"chat-widget/internal/identity"
	"chat-widget/internal/logging"
	"chat-widget/internal/terminal"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath    string
	baseURL       string
	logLevel      string
	logFile       string
	identityStore string
	identityPath  string
}

// env is everything a command needs once flags are parsed.
type env struct {
	cfg     *config.Config
	ids     *identity.Store
	client  *backend.Client
	closers []io.Closer
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			log.Debug().Err(err).Msg("close failed")
		}
	}
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		terminal.NewDisplay(os.Stdout, os.Stderr, config.DefaultGlamourStyle).PrintError(err)
		stop()
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "chat-widget",
		Short:         "Chat with the assistant from your terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts, false)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.chat-widget/config.yaml)")
	flags.StringVar(&opts.baseURL, "base-url", "", "chat backend base URL")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&opts.logFile, "log-file", "", "log file used by the interactive widget")
	flags.StringVar(&opts.identityStore, "identity-store", "", "identity storage: file, sqlite or memory")
	flags.StringVar(&opts.identityPath, "identity-path", "", "identity file or database path")

	root.AddCommand(
		newChatCommand(opts),
		newAskCommand(opts),
		newClearCommand(opts),
		newWhoamiCommand(opts),
	)
	return root
}

// setup loads configuration in order defaults, file, environment, flags,
// then initializes logging and the shared services. console selects stderr
// logging instead of the log file.
func (o *rootOptions) setup(cmd *cobra.Command, console bool) (*env, error) {
	cfg := config.NewConfig()
	if err := cfg.LoadFile(o.configPath); err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, errors.Wrap(err, "failed to read environment")
	}
	o.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	e := &env{cfg: cfg}
	logCloser, err := logging.Init(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: console,
		Stderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize logging")
	}
	e.closers = append(e.closers, logCloser)

	storage, closer, err := openStorage(cfg)
	if err != nil {
		e.Close()
		return nil, err
	}
	if closer != nil {
		e.closers = append(e.closers, closer)
	}
	e.ids = identity.NewStore(storage, identity.WithKey(cfg.IdentityKey))
	e.client = backend.NewClient(cfg.BaseURL, cfg.RequestTimeout, backend.WithPaths(cfg.QueryPath, cfg.ClearPath))

	log.Debug().
		Str("base_url", cfg.BaseURL).
		Str("identity_store", cfg.IdentityStore).
		Msg("configuration loaded")
	return e, nil
}

func (o *rootOptions) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = o.baseURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = o.logFile
	}
	if flags.Changed("identity-store") {
		cfg.IdentityStore = o.identityStore
	}
	if flags.Changed("identity-path") {
		cfg.IdentityPath = o.identityPath
	}
}

func openStorage(cfg *config.Config) (identity.Storage, io.Closer, error) {
	switch cfg.IdentityStore {
	case config.StoreMemory:
		return identity.NewMemoryStorage(), nil, nil
	case config.StoreSQLite:
		s, err := identity.NewSQLiteStorage(cfg.IdentityPath)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to open identity database")
		}
		return s, s, nil
	default:
		return identity.NewFileStorage(cfg.IdentityPath), nil, nil
	}
}
