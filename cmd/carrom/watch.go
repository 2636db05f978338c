package main

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/lox/carrombot/internal/client"
	"github.com/lox/carrombot/internal/game"
	"github.com/lox/carrombot/internal/tui"
)

// WatchCmd renders a remote match in the terminal
type WatchCmd struct {
	URL   string `default:"http://localhost:8080" help:"Spectator server URL"`
	Token string `help:"Token to present to the server" env:"CARROM_TOKEN"`
}

func (c *WatchCmd) Run(g *Globals) error {
	if g.LogFile == "" {
		g.LogFile = "carrom.log"
	}
	logger, closeLog, err := setupLogger(g, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()
	tui.SetColorProfile(g.NoColor)

	ctx, cancel := signalContext(logger)
	defer cancel()

	program := tea.NewProgram(tui.NewModel(logger), tea.WithAltScreen(), tea.WithContext(ctx))
	bridge := tui.NewBridge(program)

	spectator := client.NewClient(c.URL, logger)
	spectator.SetToken(c.Token)
	spectator.OnFrame(bridge.Frame)
	spectator.OnEvent(bridge.Entry)
	spectator.OnMatchComplete(func(r game.Result) {
		logger.Info("Match complete", "id", r.ID, "human_won", r.HumanWon,
			"human", r.HumanScore, "opponent", r.OpponentScore, "tier", r.Tier)
	})

	if err := spectator.Connect(ctx); err != nil {
		return err
	}
	defer func() { _ = spectator.Disconnect() }()

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		defer cancel()
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	grp.Go(func() error {
		select {
		case <-spectator.Done():
			logger.Info("Server closed the stream")
			bridge.Quit()
		case <-ctx.Done():
		}
		return nil
	})
	return grp.Wait()
}
