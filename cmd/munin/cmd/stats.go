package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

var statsMetrics bool

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store statistics",
	Long: `Show key count and log size. With --metrics, also dump the
process metrics registry in Prometheus text exposition format.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kv, cfg, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer kv.Close()

		stats := kv.Stats()
		cmd.Printf("data_file:  %s\n", cfg.DataFile)
		cmd.Printf("keys:       %d\n", stats.Keys)
		cmd.Printf("log_size:   %d bytes\n", stats.DataSize)
		cmd.Printf("loaded:     %t\n", stats.Loaded)

		if !statsMetrics {
			return nil
		}

		families, err := prometheus.DefaultGatherer.Gather()
		if err != nil {
			return err
		}

		cmd.Printf("\n")
		encoder := expfmt.NewEncoder(cmd.OutOrStdout(), expfmt.NewFormat(expfmt.TypeTextPlain))
		for _, family := range families {
			if err := encoder.Encode(family); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsMetrics, "metrics", false, "Dump Prometheus metrics after the summary")
}
