package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func connectCmd(ctx context.Context, ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		return connectDoneMsg{Err: ctrl.Connect(ctx)}
	}
}

func frameCmd(fps int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}
