package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/store"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print store statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st := openStore(cfg, logger).Stats()

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(st); err != nil {
				return err
			}
		} else {
			printStats(cmd.OutOrStdout(), st)
		}

		if notify, _ := cmd.Flags().GetBool("notify"); notify {
			bot := newReporter(cfg, logger)
			if bot == nil {
				return eris.New("telegram is not configured")
			}
			return bot.SendStats(st)
		}
		return nil
	},
}

func printStats(out io.Writer, st store.Stats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Raw jobs:\t%d\n", st.TotalRaw)
	fmt.Fprintf(w, "Processed jobs:\t%d\n", st.TotalProcessed)
	fmt.Fprintf(w, "Pending:\t%d\n", st.Pending)
	fmt.Fprintf(w, "Processing rate:\t%.1f%%\n", st.ProcessingRate)
	fmt.Fprintf(w, "Last scraped:\t%s\n", orNone(st.LastScraped))
	fmt.Fprintf(w, "Last processed:\t%s\n", orNone(st.LastProcessed))
	_ = w.Flush()
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	statsCmd.Flags().Bool("json", false, "print statistics as JSON")
	statsCmd.Flags().Bool("notify", false, "also send the statistics to Telegram")
	rootCmd.AddCommand(statsCmd)
}
