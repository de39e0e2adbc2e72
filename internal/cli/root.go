// Package cli implements the notly command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/noureldenadel/notly/internal/asset"
	"github.com/noureldenadel/notly/internal/config"
	"github.com/noureldenadel/notly/internal/storage"
	"github.com/noureldenadel/notly/internal/workspace"
)

var (
	cfgFile string
	verbose bool
	jsonOut bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notly",
	Short: "Note-taking and visual-canvas workspace",
	Long: `notly manages a workspace of projects, canvas boards, and note cards.

Quick start:
  notly init                       Initialize the app data directory
  notly project create "Research"  Create a project
  notly board create <project-id>  Add a board to a project
  notly export <project-id>        Export a project as a portable bundle
  notly import research.notly      Import a bundle as a new project`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and prints any resulting error.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		PrintError(err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.notly/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON")

	// Add subcommands
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newProjectCmd())
	rootCmd.AddCommand(newBoardCmd())
	rootCmd.AddCommand(newCardCmd())
	rootCmd.AddCommand(newTagCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("$HOME/.notly")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("NOTLY")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// loadConfig loads the effective configuration and wires the default
// logger to its level.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return cfg, nil
}

// openWorkspace builds the full service stack from configuration. The
// returned cleanup flushes pending snapshot writes and closes the
// storage backend.
func openWorkspace() (*workspace.Service, *config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	if cfg.Storage.Backend == "sqlite" || cfg.Assets.Mode == "fs" {
		if err := cfg.EnsureDirectoryStructure(); err != nil {
			return nil, nil, nil, err
		}
	}

	gw, err := storage.Open(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	var store asset.Store
	if cfg.Assets.Mode == "data-url" {
		store = asset.NewDataURLStore()
	} else {
		store = asset.NewFSStore(cfg.AssetsDir())
	}

	svc := workspace.NewService(gw, store, cfg.Autosave.Debounce)
	if err := svc.Load(); err != nil {
		svc.Close()
		_ = gw.Close()
		return nil, nil, nil, err
	}

	cleanup := func() {
		svc.Close()
		_ = gw.Close()
	}
	return svc, cfg, cleanup, nil
}
