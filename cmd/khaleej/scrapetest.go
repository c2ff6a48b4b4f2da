package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var scrapeTestCmd = &cobra.Command{
	Use:   "scrape-test",
	Short: "Fetch a few new listings and print them without saving",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			limit = cfg.Pipeline.TestLimit
		}

		jobs, err := buildScrapeOnly(cfg, logger).ScrapeTest(cmd.Context(), limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(jobs) == 0 {
			fmt.Fprintln(out, "No new jobs found.")
			return nil
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(jobs)
	},
}

func init() {
	scrapeTestCmd.Flags().Int("limit", 0, "number of new listings to fetch (default from config)")
	rootCmd.AddCommand(scrapeTestCmd)
}
