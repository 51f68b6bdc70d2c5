// Command commander-decks imports Commander deck lists: it serves the
// import API and runs the same pipeline from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ramonehamilton/commander-decks/internal/config"
	"github.com/ramonehamilton/commander-decks/internal/logging"
)

// cli carries state shared by every subcommand.
type cli struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "commander-decks",
		Short: "Import Commander deck lists",
		Long: `commander-decks turns pasted deck lists and deck URLs (Archidekt,
Moxfield, MTGGoldfish) into categorized, catalog-resolved import previews.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ~/.commander-decks/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newServeCmd(c),
		newPreviewCmd(c),
		newLandsCmd(c),
		newMigrateCmd(c),
		newCacheCmd(c),
		newVersionCmd(),
	)

	return root
}

// init loads the configuration and builds the logger.
func (c *cli) init() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	logCfg := logging.Config{Level: cfg.Log.Level, Development: cfg.Log.Development}
	if c.verbose {
		logCfg.Level = "debug"
	}
	logger, _, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.logger = logger
	return nil
}
