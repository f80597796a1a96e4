package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"actionkit/pkg/bus"
	"actionkit/pkg/server"

	"github.com/spf13/cobra"
)

var (
	runPort    int
	runActions string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the action server",
	Long:  "Registers every discovered action and serves them over HTTP until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = args

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if runPort > 0 {
			cfg.Server.Port = runPort
		}
		if packages := splitPackages(runActions); len(packages) > 0 {
			cfg.Actions.Packages = packages
		}

		log, err := setupLogger(cfg, "cmd.run")
		if err != nil {
			return err
		}

		messageBus := bus.NewMessageBus()
		defer messageBus.Close()

		exec, err := buildExecutor(cfg, messageBus, log)
		if err != nil {
			log.Warn("Some actions could not be registered", "error", err)
		}
		if len(exec.Names()) == 0 {
			log.Warn("No actions registered", "packages", cfg.Actions.Packages)
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := server.NewService(cfg.Server, exec, messageBus, log)
		if err != nil {
			return fmt.Errorf("initialize action server: %w", err)
		}

		log.Info("Starting action server", "address", cfg.Server.Address(), "actions", strings.Join(exec.Names(), ","))
		if err := svc.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("action server failed: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVarP(&runPort, "port", "p", 0, "port to listen on (default 5055)")
	runCmd.Flags().StringVar(&runActions, "actions", "", "comma-separated package roots to load actions from")
}

func splitPackages(input string) []string {
	var packages []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			packages = append(packages, trimmed)
		}
	}

	return packages
}
