package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/threat-desk/backend/internal/analysis/intent"
	"github.com/zhouzirui/threat-desk/backend/internal/config"
	"github.com/zhouzirui/threat-desk/backend/pkg/logging"
)

var (
	threatSpecs []string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "chatprobe",
	Short: "Exercise the security assistant without the HTTP server",
	Long: `chatprobe drives the assistant's reply rules and conversation loop
directly from the terminal.

Threat context is given with repeated --threat flags in the form
type:severity[:ip[:description]], newest last.`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		if err := godotenv.Load(); err != nil && verbose {
			log.Printf("warning: failed to load .env file: %v", err)
		}
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [text]",
	Short: "Print the assistant's reply to one message",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Print the quick actions for the current threat context",
	Args:  cobra.NoArgs,
	RunE:  runSuggest,
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Run an interactive conversation",
	Long: `Starts a conversation seeded with the greeting and reads one message per
line. Commands: /reset clears the history, /suggest lists quick actions,
/threats lists active threats with their IDs, /resolve <id> dismisses one,
/quit exits.`,
	Args: cobra.NoArgs,
	RunE: runREPL,
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&threatSpecs, "threat", "t", nil, "Active threat as type:severity[:ip[:description]] (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	replCmd.Flags().Duration("delay", 0, "Thinking delay before each reply")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(replCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	alerts, err := parseThreats(threatSpecs)
	if err != nil {
		return err
	}

	reply := intent.New().Generate(args[0], alerts)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "[%s/%s]\n%s\n", reply.Intent, reply.Category, reply.Text)
	return nil
}

func runSuggest(cmd *cobra.Command, _ []string) error {
	alerts, err := parseThreats(threatSpecs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, action := range intent.Suggestions(alerts) {
		fmt.Fprintf(out, "%d. %s -> %q\n", i+1, action.Label, action.Prompt)
	}
	return nil
}

// newLogger honours LOG_LEVEL from the environment; --verbose forces debug.
func newLogger() (*zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logging.New(level, "console")
}
