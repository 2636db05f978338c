package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/lox/carrombot/internal/auth"
	"github.com/lox/carrombot/internal/events"
	"github.com/lox/carrombot/internal/server"
)

// ServeCmd plays a live match and streams it to WebSocket spectators
type ServeCmd struct {
	Addr       string `default:":8080" help:"Server address"`
	FrameEvery int    `default:"2" help:"Forward every nth frame to spectators"`
	Token      string `help:"Shared token spectators must present" env:"CARROM_TOKEN"`
	AuthURL    string `help:"External endpoint that validates spectator tokens (takes precedence over --token)"`
	AuthSecret string `help:"Admin secret sent to the auth endpoint" env:"CARROM_AUTH_SECRET"`
}

// validator picks spectator access control from the flags.
func (c *ServeCmd) validator() auth.Validator {
	switch {
	case c.AuthURL != "":
		return auth.NewHTTPValidator(c.AuthURL, c.AuthSecret)
	case c.Token != "":
		return auth.NewStaticValidator(c.Token)
	default:
		return auth.NewNoopValidator()
	}
}

func (c *ServeCmd) Run(g *Globals) error {
	logger, closeLog, err := setupLogger(g, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

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

	srv := server.NewServer(server.Config{
		Addr:       c.Addr,
		FrameEvery: c.FrameEvery,
		Auth:       c.validator(),
		Logger:     logger,
	})
	srv.Attach(session, eventLog)

	ctx, cancel := signalContext(logger)
	defer cancel()

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		return srv.Start(ctx)
	})
	grp.Go(func() error {
		if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	return grp.Wait()
}
