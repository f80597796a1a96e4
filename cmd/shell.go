package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"actionkit/pkg/action"
	"actionkit/pkg/ui/console"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var (
	shellSender string
	shellDomain string
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Call actions from an interactive console",
	Long:  "Registers every discovered action and opens a console that runs them in-process against a local conversation state.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = args

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		// Log lines would tear the console, so only errors are shown.
		cfg.Logging.Level = "error"
		log, err := setupLogger(cfg, "cmd.shell")
		if err != nil {
			return err
		}

		domain, err := loadDomain(shellDomain)
		if err != nil {
			return err
		}

		exec, err := buildExecutor(cfg, nil, log)
		if err != nil {
			log.Error("Some actions could not be registered", "error", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return console.Run(ctx, exec, console.Info{SenderID: shellSender, Domain: domain})
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().StringVar(&shellSender, "sender", console.DefaultSenderID, "sender id of the simulated conversation")
	shellCmd.Flags().StringVar(&shellDomain, "domain", "", "path to a JSON domain document passed to every action")
}

func loadDomain(path string) (action.Domain, error) {
	if path == "" {
		return action.Domain{}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read domain file: %w", err)
	}
	if !gjson.ValidBytes(content) {
		return nil, fmt.Errorf("domain file %s is not valid JSON", path)
	}

	parsed := gjson.ParseBytes(content)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("domain file %s must hold a JSON object", path)
	}

	domain, _ := parsed.Value().(map[string]any)
	return domain, nil
}
