package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "actionkit",
	Short: "Run custom actions for a conversational assistant",
	Long: `actionkit serves custom actions to a conversational assistant.

The assistant posts the name of the next action together with the current
conversation tracker; actionkit runs the matching action and answers with
the events to apply and the messages to send back to the user.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: $ACTIONKIT_CONFIG, ./config.json, ./config/config.json)")
}
