package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sentrywatch/sentrywatch/internal/model"
	"github.com/sentrywatch/sentrywatch/internal/ruleset"
)

var rulesFilePath string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage the on-disk rules catalogue",
	Args:  cobra.NoArgs,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every rule in the catalogue",
	Args:  cobra.NoArgs,
	RunE:  runRulesList,
}

var rulesAddFile string

var rulesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a rule, reading JSON from stdin or --file",
	Args:  cobra.NoArgs,
	RunE:  runRulesAdd,
}

var rulesReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Re-read the rules file from disk without restarting",
	Args:  cobra.NoArgs,
	RunE:  runRulesReload,
}

func init() {
	rulesCmd.PersistentFlags().StringVar(&rulesFilePath, "rules-file", "rules.json", "path to the rules catalogue")
	rulesAddCmd.Flags().StringVar(&rulesAddFile, "file", "", "read the new rule from this file instead of stdin")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesReloadCmd)
}

func rulesFilePathFor(cmd *cobra.Command) string {
	if loadedConfig != nil {
		return stringFlagOrConfig(cmd, "rules-file", rulesFilePath, loadedConfig.RulesFile)
	}
	return rulesFilePath
}

func runRulesList(cmd *cobra.Command, args []string) error {
	rs, err := ruleset.Load(rulesFilePathFor(cmd))
	if err != nil {
		return fmt.Errorf("load rules file: %w", err)
	}

	bold := color.New(color.Bold)
	for _, rule := range rs.Rules() {
		status := color.GreenString("enabled")
		if !rule.Enabled {
			status = color.RedString("disabled")
		}
		bold.Printf("%s  %s\n", rule.ID, rule.Name)
		fmt.Printf("  kind: %s  %s\n", rule.Kind, status)
		if rule.Description != "" {
			fmt.Printf("  %s\n", rule.Description)
		}
	}
	return nil
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	var raw []byte
	var err error
	if rulesAddFile != "" {
		raw, err = os.ReadFile(rulesAddFile)
	} else {
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("read new rule: %w", err)
	}

	var rule model.Rule
	if err := json.Unmarshal(raw, &rule); err != nil {
		return fmt.Errorf("parse rule JSON: %w", err)
	}

	path := rulesFilePathFor(cmd)
	rs, err := ruleset.Load(path)
	if err != nil {
		return fmt.Errorf("load rules file: %w", err)
	}
	added, err := rs.AddRule(rule)
	if err != nil {
		return fmt.Errorf("add rule: %w", err)
	}

	fmt.Printf("added %s (%s)\n", added.ID, added.Name)
	return nil
}

func runRulesReload(cmd *cobra.Command, args []string) error {
	path := rulesFilePathFor(cmd)
	rs, err := ruleset.Load(path)
	if err != nil {
		return fmt.Errorf("load rules file: %w", err)
	}
	if err := rs.Reload(); err != nil {
		return fmt.Errorf("reload rules file: %w", err)
	}
	fmt.Printf("reloaded %d rules from %s\n", len(rs.Rules()), path)
	return nil
}
