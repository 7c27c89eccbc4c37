package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/munindb/munin/pkg/config"
	"github.com/munindb/munin/pkg/store"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "munin",
	Short: "Munin - single-file append-only KV store",
	Long: `Munin is a log-structured key-value store in the Bitcask style:
all writes append to one data file, every record carries a checksum, and
an in-memory index rebuilt at load time gives constant-time lookups.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	rootCmd.PersistentFlags().StringP("data-file", "f", "", "Path to the data file (overrides config)")
	rootCmd.PersistentFlags().Duration("fsync-interval", 0, "Fsync interval, 0 fsyncs every append (overrides config)")
}

// resolveConfig merges the config file, if any, with command-line
// overrides. Flags win; without a config file the defaults apply.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if dataFile, _ := cmd.Flags().GetString("data-file"); dataFile != "" {
		cfg.DataFile = dataFile
	}
	if cmd.Flags().Changed("fsync-interval") {
		interval, _ := cmd.Flags().GetDuration("fsync-interval")
		cfg.FsyncInterval = interval
	}

	return cfg, nil
}

// openStore opens and loads a store for a CLI command. With persist_index
// enabled the load is seeded from the latest index snapshot when one
// validates; otherwise it is a full scan.
func openStore(cmd *cobra.Command) (*store.Store, *config.Config, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	kv, err := store.NewStore(store.Config{
		DataFile:      cfg.DataFile,
		FsyncInterval: cfg.FsyncInterval,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := kv.Open(); err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	if cfg.PersistIndex {
		if _, err := kv.LoadCached(); err != nil {
			kv.Close()
			return nil, nil, fmt.Errorf("failed to load store: %w", err)
		}
	} else {
		if err := kv.Load(); err != nil {
			kv.Close()
			return nil, nil, fmt.Errorf("failed to load store: %w", err)
		}
	}

	return kv, cfg, nil
}

// maybeSnapshot persists the index after a mutation when the config asks
// for it. Best effort: the scan at next load is the ground truth either
// way.
func maybeSnapshot(cmd *cobra.Command, kv *store.Store, cfg *config.Config) {
	if !cfg.PersistIndex {
		return
	}
	if err := kv.SaveIndexSnapshot(); err != nil {
		cmd.PrintErrf("Warning: failed to persist index snapshot: %v\n", err)
	}
}
