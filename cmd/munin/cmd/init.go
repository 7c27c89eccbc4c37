package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/munindb/munin/pkg/config"
)

var initForce bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Write a configuration file with a freshly generated store ID.

The config path comes from --config, falling back to the per-user
default. An existing file is left alone unless --force is given.

Examples:
  munin init
  munin init --config ./munin.yaml --data-file ./munin.data`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		if config.ConfigExists(configPath) && !initForce {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", configPath)
		}

		dataFile, _ := cmd.Flags().GetString("data-file")
		cfg, err := config.BootstrapConfig(configPath, dataFile)
		if err != nil {
			return err
		}

		cmd.Printf("Wrote %s\n", configPath)
		cmd.Printf("store_id:  %s\n", cfg.StoreID)
		cmd.Printf("data_file: %s\n", cfg.DataFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}
