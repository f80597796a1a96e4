package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"actionkit/pkg/bus"
	"actionkit/pkg/config"
	"actionkit/pkg/discovery"
	"actionkit/pkg/executor"
	"actionkit/pkg/logger"

	// Example actions register themselves with the default catalog.
	_ "actionkit/actions"
)

// loadConfig reads the config file named by --config, or searches the default
// locations. A missing config file is not an error.
func loadConfig() (*config.Config, error) {
	if path := strings.TrimSpace(configPath); path != "" {
		return config.LoadFile(path)
	}

	cfg, err := config.LoadConfig()
	if errors.Is(err, config.ErrConfigNotFound) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func setupLogger(cfg *config.Config, component string) (*slog.Logger, error) {
	appLogger, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	slog.SetDefault(appLogger)

	return slog.Default().With("component", component), nil
}

// actionSource combines the in-process catalog with the plugin directory, if
// one is configured.
func actionSource(cfg config.ActionsConfig, log *slog.Logger) discovery.Source {
	source := discovery.Multi{discovery.Default}
	if dir := strings.TrimSpace(cfg.PluginDir); dir != "" {
		source = append(source, discovery.NewPluginSource(dir, log))
	}

	return source
}

// buildExecutor creates an executor and registers every action found under
// the configured package roots. Registration failures are returned joined;
// the executor is usable either way.
func buildExecutor(cfg *config.Config, messageBus *bus.MessageBus, log *slog.Logger) (*executor.Executor, error) {
	opts := []executor.Option{
		executor.WithLogger(log),
		executor.WithSource(actionSource(cfg.Actions, log)),
	}
	if messageBus != nil {
		opts = append(opts, executor.WithBus(messageBus))
	}
	if len(cfg.Actions.ReservedNamespaces) > 0 {
		opts = append(opts, executor.WithReservedNamespaces(cfg.Actions.ReservedNamespaces...))
	}

	exec := executor.New(opts...)

	roots := cfg.Actions.Packages
	if len(roots) == 0 {
		roots = []string{""}
	}

	var errs []error
	for _, root := range roots {
		if err := exec.RegisterDiscovered(root); err != nil {
			errs = append(errs, fmt.Errorf("register actions under %q: %w", root, err))
		}
	}

	return exec, errors.Join(errs...)
}
