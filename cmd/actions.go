package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("24"))
	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("44"))
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("203"))
)

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List the registered actions",
	Long:  "Runs discovery exactly as the server would and prints the action names it registers.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = args

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		log, err := setupLogger(cfg, "cmd.actions")
		if err != nil {
			return err
		}

		exec, err := buildExecutor(cfg, nil, log)
		if err != nil {
			log.Warn("Some actions could not be registered", "error", err)
		}

		renderActionList(cmd.OutOrStdout(), exec.Names())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(actionsCmd)
}

func renderActionList(out io.Writer, names []string) {
	lines := []string{titleStyle.Render(fmt.Sprintf("Registered actions (%d)", len(names)))}
	if len(names) == 0 {
		lines = append(lines, hintStyle.Render("  none: check actions.packages and actions.plugin_dir"))
	}
	for _, name := range names {
		lines = append(lines, "  "+nameStyle.Render(name))
	}

	fmt.Fprintln(out, strings.Join(lines, "\n"))
}
