package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/noureldenadel/notly/internal/config"
	"github.com/noureldenadel/notly/internal/storage"
)

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the notly data directory",
		Long: `Initialize the notly app data directory.

Creates the directory layout (projects/, backups/, temp/, assets/),
writes a default config file if none exists, and opens the database
once so the schema is migrated.

Examples:
  notly init
  notly init --data-dir /srv/notly`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			if err := cfg.EnsureDirectoryStructure(); err != nil {
				return err
			}

			configPath := filepath.Join(cfg.DataDir, config.ConfigFileName)
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				data, merr := yaml.Marshal(cfg)
				if merr != nil {
					return fmt.Errorf("marshal config: %w", merr)
				}
				if werr := os.WriteFile(configPath, data, 0644); werr != nil {
					return fmt.Errorf("write config: %w", werr)
				}
				fmt.Printf("Wrote %s\n", configPath)
			}

			// Open once so the schema migrates up front rather than on
			// first use.
			gw, err := storage.Open(cfg)
			if err != nil {
				return err
			}
			if err := gw.Close(); err != nil {
				return err
			}

			fmt.Printf("Initialized notly in %s\n", cfg.DataDir)
			return nil
		},
	}

	cmd.Flags().String("data-dir", "", "app data directory (default ~/.notly)")
	return cmd
}
