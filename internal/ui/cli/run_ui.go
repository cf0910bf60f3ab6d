package cli

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	coreapp "gradledeps/internal/core/app"
	"gradledeps/internal/core/ports"
)

func runUI(ctx context.Context, cancel context.CancelFunc, app *coreapp.App, dir, cfgPath string, initial ports.WatchUpdate, health *healthTracker) error {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	go func() {
		p.Send(updateMsg{update: initial})
		err := watchLoop(ctx, app, dir, cfgPath, func(u ports.WatchUpdate) {
			health.Record(u)
			p.Send(updateMsg{update: u})
		})
		if err != nil {
			slog.Error("watch failed", "error", err)
			p.Send(updateMsg{update: ports.WatchUpdate{Dir: dir, Err: err, At: time.Now()}})
		}
	}()

	_, err := p.Run()
	cancel()
	return err
}
