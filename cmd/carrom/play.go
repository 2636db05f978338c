package main

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/lox/carrombot/internal/events"
	"github.com/lox/carrombot/internal/tui"
)

// PlayCmd runs a live match in the terminal
type PlayCmd struct{}

func (c *PlayCmd) Run(g *Globals) error {
	// the screen belongs to the TUI, so logs only ever go to a file
	if g.LogFile == "" {
		g.LogFile = "carrom.log"
	}
	logger, closeLog, err := setupLogger(g, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()
	tui.SetColorProfile(g.NoColor)

	t, err := loadTable(g, logger)
	if err != nil {
		return err
	}

	eventLog := events.NewLog(logger)
	cfg := t.game
	cfg.Events = eventLog
	session, err := t.session(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	program := tea.NewProgram(tui.NewModel(logger), tea.WithAltScreen(), tea.WithContext(ctx))
	tui.NewBridge(program).Attach(session, eventLog)

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		defer cancel()
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	grp.Go(func() error {
		defer cancel()
		if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	return grp.Wait()
}
