package cmd

import (
	"sort"

	"github.com/spf13/cobra"
)

// keysCmd represents the keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List all keys in the index",
	Long: `List every key known to the index, one per line. Deleted keys are
still listed since deletion only appends an empty value.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kv, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer kv.Close()

		keys, err := kv.Keys()
		if err != nil {
			return err
		}

		sort.Strings(keys)
		for _, key := range keys {
			cmd.Printf("%s\n", key)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
}
