package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/munindb/munin/pkg/store"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get the value for a key",
	Long: `Get the most recently written value for a key.

A deleted key prints an empty value; only a key that was never written
reports "key not found".

Example:
  munin get mykey`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kv, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer kv.Close()

		value, err := kv.Get([]byte(args[0]))
		if err != nil {
			if errors.Is(err, store.ErrKeyNotFound) {
				cmd.PrintErrf("Key not found: %s\n", args[0])
				return nil
			}
			return err
		}

		cmd.Printf("%s\n", string(value))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
