// Package console is an interactive terminal for calling registered actions
// without an assistant in front of them.
package console

import (
	"context"
	"fmt"

	"actionkit/pkg/action"
	"actionkit/pkg/executor"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultSenderID is used when Info leaves SenderID empty.
const DefaultSenderID = "console"

// Runner executes action calls. *executor.Executor implements it.
type Runner interface {
	Run(ctx context.Context, call executor.Call) (*executor.Response, error)
	Names() []string
}

// Info describes the conversation the console simulates.
type Info struct {
	SenderID string
	Domain   action.Domain
}

// Run starts the console and blocks until the user quits.
func Run(ctx context.Context, runner Runner, info Info) error {
	if runner == nil {
		return fmt.Errorf("console requires an action runner")
	}

	program := tea.NewProgram(newModel(ctx, runner, info), tea.WithContext(ctx), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(renderGoodbyeBanner())
	return nil
}

func renderGoodbyeBanner() string {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("24")).
		Padding(1, 2)

	return style.Render("Console closed")
}
