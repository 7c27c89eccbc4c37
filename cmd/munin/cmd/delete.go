package cmd

import (
	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a key",
	Long: `Append an empty-value record for the key. The log keeps all
history; a later get prints an empty value.

Example:
  munin delete mykey`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kv, cfg, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer kv.Close()

		if err := kv.Delete([]byte(args[0])); err != nil {
			return err
		}

		maybeSnapshot(cmd, kv, cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
