// Package cli implements the keygraph command-line interface.
//
// # Commands
//
//   - save: build a catalog from a TOML model and write its document
//   - load: read a document and print its containment tree
//   - deps: print the dependency order of a model or document
//   - browse: explore a document's tree interactively
//   - docs: list, fetch and delete documents in the configured store
//   - serve: run the HTTP API
//
// Inputs ending in .toml are models; anything else is a document. With
// --store, a document argument names an entry of the configured store
// instead of a file.
//
// # Configuration
//
// The --config flag names a TOML file (default keygraph.toml, optional).
// See the config package for its sections.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/keygraph/internal/config"
	"github.com/matzehuels/keygraph/pkg/buildinfo"
	"github.com/matzehuels/keygraph/pkg/catalog"
	"github.com/matzehuels/keygraph/pkg/serial"
	"github.com/matzehuels/keygraph/pkg/store"
)

const appName = "keygraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out        io.Writer
	configPath string
	verbose    bool
	cfg        *config.Config
}

// New creates a CLI that logs to w at level and prints to stdout.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command output.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Keygraph serializes object graphs with stable identities",
		Long:         `Keygraph writes hierarchical object graphs to versioned XML documents, reads them back into linked objects, and orders objects by their dependencies.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "configuration file (default "+config.DefaultPath+")")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.saveCommand())
	root.AddCommand(c.loadCommand())
	root.AddCommand(c.depsCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.docsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads the configuration once. Its log level applies unless
// --verbose was given.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if !c.verbose {
		c.SetLogLevel(cfg.LogLevel())
	}
	c.Logger.Debug("config loaded", "path", c.configPath, "store", cfg.Store.Driver)
	c.cfg = cfg
	return cfg, nil
}

// serializer returns the catalog serializer with configured options.
func (c *CLI) serializer() (*serial.Serializer, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.SerializerOptions(c.Logger)
	if err != nil {
		return nil, err
	}
	return catalog.NewSerializer(opts...), nil
}

// openStore connects the configured document store.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return cfg.Store.OpenStore(ctx, c.Logger)
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			c.println(buildinfo.String())
		},
	}
}
