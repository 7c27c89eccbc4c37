package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/munindb/munin/pkg/store"
)

// findCmd represents the find command
var findCmd = &cobra.Command{
	Use:   "find <key>",
	Short: "Find a key by scanning the whole log",
	Long: `Scan the log from the beginning and report the offset and value of
the last record written for the key. This never uses the in-memory index,
which makes it a slow but independent cross-check of get.

Example:
  munin find mykey`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kv, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer kv.Close()

		offset, value, err := kv.Find([]byte(args[0]))
		if err != nil {
			if errors.Is(err, store.ErrKeyNotFound) {
				cmd.PrintErrf("Key not found: %s\n", args[0])
				return nil
			}
			return err
		}

		cmd.Printf("offset=%d value=%s\n", offset, string(value))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(findCmd)
}
