package main

import (
	"fmt"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/pipeline"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/scheduler"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run the pipeline a single time",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := buildPipeline(cfg, logger)
		if err != nil {
			return err
		}

		res := p.Run(cmd.Context())
		if bot := newReporter(cfg, logger); bot != nil {
			bot.Reporter()(res)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.String())
		return nil
	},
}

func runScheduled(cmd *cobra.Command, _ []string) error {
	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	var onResult func(pipeline.Result)
	if bot := newReporter(cfg, logger); bot != nil {
		onResult = bot.Reporter()
	}

	logger.Info("🚀 Starting scheduled pipeline", zap.Duration("interval", cfg.Schedule.Interval))
	return scheduler.New(p, cfg.Schedule.Interval, onResult, logger).Run(cmd.Context())
}

func init() {
	rootCmd.AddCommand(onceCmd)
}
