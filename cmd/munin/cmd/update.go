package cmd

import (
	"github.com/spf13/cobra"
)

// updateCmd represents the update command. The log format has no in-place
// update, so this appends a superseding record exactly like insert; both
// verbs exist to mirror the store API.
var updateCmd = &cobra.Command{
	Use:   "update <key> <value>",
	Short: "Update the value for a key",
	Long: `Append a superseding record for the key.

Example:
  munin update name bob`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kv, cfg, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer kv.Close()

		if err := kv.Update([]byte(args[0]), []byte(args[1])); err != nil {
			return err
		}

		maybeSnapshot(cmd, kv, cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
