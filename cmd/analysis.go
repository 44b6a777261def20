package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sentrywatch/sentrywatch/internal/executor"
	"github.com/sentrywatch/sentrywatch/internal/parser"
	"github.com/sentrywatch/sentrywatch/internal/ruleset"
)

var (
	analysisLogFile          string
	analysisRulesFile        string
	analysisParsingRulesFile string
	analysisWorkers          int
	analysisMode             string
)

var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Run one of the three analysis strategies over a log file",
	Args:  cobra.NoArgs,
	RunE:  runAnalysis,
}

func init() {
	analysisCmd.Flags().StringVar(&analysisLogFile, "log-file", "", "path to the log file to analyze (required)")
	analysisCmd.Flags().StringVar(&analysisRulesFile, "rules-file", "rules.json", "path to the rules catalogue")
	analysisCmd.Flags().StringVar(&analysisParsingRulesFile, "parsing-rules-file", "parsing_rules.json", "path to the line-parsing rules")
	analysisCmd.Flags().IntVar(&analysisWorkers, "workers", 4, "worker count for the parallel/distributed strategies")
	analysisCmd.Flags().StringVar(&analysisMode, "mode", "sequential", "analysis strategy: sequential, parallel, or distributed")
	_ = analysisCmd.MarkFlagRequired("log-file")
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	rulesFile := analysisRulesFile
	parsingRulesFile := analysisParsingRulesFile
	workers := analysisWorkers
	mode := analysisMode
	if loadedConfig != nil {
		rulesFile = stringFlagOrConfig(cmd, "rules-file", analysisRulesFile, loadedConfig.RulesFile)
		parsingRulesFile = stringFlagOrConfig(cmd, "parsing-rules-file", analysisParsingRulesFile, loadedConfig.ParsingRulesFile)
		workers = intFlagOrConfig(cmd, "workers", analysisWorkers, loadedConfig.Workers)
		mode = stringFlagOrConfig(cmd, "mode", analysisMode, loadedConfig.Mode)
	}

	rawLog, err := os.ReadFile(analysisLogFile)
	if err != nil {
		return fmt.Errorf("read log file: %w", err)
	}

	parsingRules, err := parser.LoadParsingRules(parsingRulesFile)
	if err != nil {
		logger.Warn("no parsing rules loaded, treating every line as raw", "error", err.Error())
	}
	p := parser.New(logger, parsingRules)
	records := p.ParseLines(string(rawLog))

	rs, err := ruleset.Load(rulesFile)
	if err != nil {
		return fmt.Errorf("load rules file: %w", err)
	}

	var exec executor.Executor
	switch mode {
	case "sequential":
		exec = executor.Sequential{Logger: logger}
	case "parallel":
		exec = executor.Parallel{Logger: logger, Workers: workers}
	case "distributed":
		exec = executor.DistributedMaster{Workers: workers, Logger: logger}
	default:
		return fmt.Errorf("unknown mode %q: must be sequential, parallel, or distributed", mode)
	}

	metrics, err := exec.Run(context.Background(), records, rs)
	if err != nil {
		return fmt.Errorf("run analysis: %w", err)
	}

	bold := color.New(color.Bold)
	bold.Printf("Analyzed %d records in %.2fms (%.1f records/sec)\n",
		metrics.TotalRecords, metrics.ExecutionMS, metrics.RecordsPerSecond)
	fmt.Printf("%d alerts raised:\n\n", len(metrics.Alerts))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(metrics.Alerts)
}
