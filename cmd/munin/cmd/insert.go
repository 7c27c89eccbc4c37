package cmd

import (
	"github.com/spf13/cobra"
)

// insertCmd represents the insert command
var insertCmd = &cobra.Command{
	Use:   "insert <key> <value>",
	Short: "Insert a key-value pair",
	Long: `Append a record for the key-value pair. An existing value for the
same key is superseded, not overwritten in place.

Example:
  munin insert name alice`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kv, cfg, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer kv.Close()

		if err := kv.Insert([]byte(args[0]), []byte(args[1])); err != nil {
			return err
		}

		maybeSnapshot(cmd, kv, cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(insertCmd)
}
