package cli

import (
	"context"
	"errors"

	"velo/internal/clipboard"
	"velo/internal/engine"
	"velo/internal/tui"
)

func (c *CLI) runEditor(ctx context.Context) error {
	logger, closer, err := fileLogger(c.Config.LogPath(), c.Logger.GetLevel())
	if err != nil {
		return err
	}
	defer closer.Close()

	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	r := tui.NewRenderer()
	e := engine.New(engine.Options{
		Store:         st,
		Renderer:      r,
		Clipboard:     clipboard.System{},
		Logger:        logger,
		Interact:      c.Config.Interact(),
		Autosave:      c.Config.Autosave.Duration,
		Confirmations: c.Config.Confirmations,
		MaxImageSide:  c.Config.MaxImageSide,
	})
	if err := e.Boot(ctx); err != nil {
		return err
	}
	logger.Info("editor started", "backend", c.Config.Backend)

	err = tui.Run(ctx, e, r, tui.Options{Interval: c.Config.FrameInterval.Duration, Logger: logger})
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		return errors.Join(err, ctxErr)
	}
	return err
}
