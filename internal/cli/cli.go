// Package cli implements the velo command line: the editor itself plus
// export, document listing and the read-only HTTP API.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"velo/internal/config"
	"velo/internal/store"
)

const appName = "velo"

// CLI holds state shared by every command.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	stderr     io.Writer
	configPath string
	dataDir    string
	backend    string
	verbose    bool
}

func New(stderr io.Writer) *CLI {
	return &CLI{
		Logger: newLogger(stderr, log.InfoLevel),
		stderr: stderr,
	}
}

// RootCommand builds the command tree. Running the root command opens the
// editor.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "velo is a terminal diagramming canvas",
		Long:         `velo draws boxes, images and arrows on tabbed canvases, keeps a short undo history per tab and saves documents to disk or Redis.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEditor(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.StringVar(&c.dataDir, "data-dir", "", "directory for saved documents")
	flags.StringVar(&c.backend, "backend", "", "storage backend: file, redis or memory")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.exportCommand())
	root.AddCommand(c.docsCommand())
	root.AddCommand(c.serveCommand())
	return root
}

// setup loads the config and applies flag overrides.
func (c *CLI) setup() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
	}
	if c.backend != "" {
		cfg.Backend = c.backend
	}
	if c.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.SetLevel(level)
	return nil
}

func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, c.Config.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", c.Config.Backend, err)
	}
	c.Logger.Debug("opened store", "backend", c.Config.Backend, "dir", c.Config.DataDir)
	return st, nil
}

// Execute runs the command line with ctx.
func Execute(ctx context.Context) error {
	return New(os.Stderr).RootCommand().ExecuteContext(ctx)
}
