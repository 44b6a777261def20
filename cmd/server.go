package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/sentrywatch/sentrywatch/internal/httpapi"
	"github.com/sentrywatch/sentrywatch/internal/parser"
	"github.com/sentrywatch/sentrywatch/internal/ruleset"
)

var (
	serverAddr             string
	serverRulesFile        string
	serverParsingRulesFile string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServer,
}

func init() {
	serverCmd.Flags().StringVar(&serverAddr, "addr", "127.0.0.1:8080", "address to listen on")
	serverCmd.Flags().StringVar(&serverRulesFile, "rules-file", "rules.json", "path to the rules catalogue")
	serverCmd.Flags().StringVar(&serverParsingRulesFile, "parsing-rules-file", "parsing_rules.json", "path to the line-parsing rules")
}

func runServer(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	addr := serverAddr
	rulesFile := serverRulesFile
	parsingRulesFile := serverParsingRulesFile
	if loadedConfig != nil {
		addr = stringFlagOrConfig(cmd, "addr", serverAddr, loadedConfig.ServerAddr)
		rulesFile = stringFlagOrConfig(cmd, "rules-file", serverRulesFile, loadedConfig.RulesFile)
		parsingRulesFile = stringFlagOrConfig(cmd, "parsing-rules-file", serverParsingRulesFile, loadedConfig.ParsingRulesFile)
	}

	rs, err := ruleset.Load(rulesFile)
	if err != nil {
		return fmt.Errorf("load rules file: %w", err)
	}

	var p *parser.Parser
	if parsingRules, err := parser.LoadParsingRules(parsingRulesFile); err == nil {
		p = parser.New(logger, parsingRules)
	} else {
		logger.Warn("no parsing rules loaded, /api/logs/upload will treat lines as raw", "error", err.Error())
	}

	srv := httpapi.NewServer(logger, rs, p)
	if loadedConfig != nil {
		if loadedConfig.DistributedAddr != "" {
			srv.DistributedAddr = loadedConfig.DistributedAddr
		}
		if loadedConfig.DistributedWorkers > 0 {
			srv.DistributedWorkers = loadedConfig.DistributedWorkers
		}
		if loadedConfig.AIExplainScriptPath != "" {
			srv.Helper.ExplainScriptPath = loadedConfig.AIExplainScriptPath
		}
		if loadedConfig.AIGenerateScriptPath != "" {
			srv.Helper.GenerateScriptPath = loadedConfig.AIGenerateScriptPath
		}
		if loadedConfig.PythonInterpreterPath != "" {
			srv.Helper.InterpreterPath = loadedConfig.PythonInterpreterPath
		}
	}

	logger.Info("starting HTTP API", "addr", addr)
	return http.ListenAndServe(addr, srv.Router())
}
