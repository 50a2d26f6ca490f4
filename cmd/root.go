package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the inboxsizer application
var rootCmd = &cobra.Command{
	Use:   "inboxsizer",
	Short: "Sorts Gmail newsletters by reading length",
	Long: `inboxsizer estimates how long the messages in your Gmail inbox take to
read, suggests a size label (Short, Medium, Long or XL) and flags paywalled
newsletter previews. A reviewer confirms or overrides each suggestion and the
chosen label is applied in Gmail.

It can run as:
  - A CLI tool (classify, apply, history)
  - An MCP (Model Context Protocol) server and review API (serve)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

var globalFlags struct {
	configFile string
	account    string
	debug      bool
	logFormat  string
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxsizer version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&globalFlags.configFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/inboxsizer/config.yaml or ./config.yaml)")
	pf.StringVar(&globalFlags.account, "account", "", "Google account name to use (default: 'default')")
	pf.BoolVar(&globalFlags.debug, "debug", false, "Enable debug logging")
	pf.StringVar(&globalFlags.logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
