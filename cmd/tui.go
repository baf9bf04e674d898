package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/zenithx/internal/mpv"
	"github.com/desertthunder/zenithx/internal/navigation"
	"github.com/desertthunder/zenithx/internal/services"
	"github.com/desertthunder/zenithx/internal/session"
	"github.com/desertthunder/zenithx/internal/shared"
	"github.com/desertthunder/zenithx/internal/tasks"
	"github.com/desertthunder/zenithx/internal/ui"
	"github.com/urfave/cli/v3"
)

const flushTimeout = 5 * time.Second

// Play launches the terminal player.
//
// A stored identity signs the session in, which loads the user's queue and liked songs.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	screen, err := navigation.ParseScreen(cmd.String("screen"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(shared.ExpandHome(r.config.Client.LogPath))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	syncer := tasks.NewSynchronizer(services.NewDocumentClient(r.api), tasks.SynchronizerOpts{Logger: r.logger})
	player := mpv.New(mpv.Options{
		Binary: r.config.Client.MpvBinary,
		Socket: r.config.Client.MpvSocket,
		Logger: r.logger,
	})
	defer player.Close()

	ctrl := session.NewController(session.Opts{
		Player:    player,
		Searcher:  services.NewSearchClient(r.api),
		Persister: syncer,
		Logger:    r.logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := ctrl.Run(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("session loop stopped", "error", err)
		}
	}()

	if user, err := r.sessionUser(); err == nil {
		ctrl.Dispatch(session.LoginSucceeded{User: user})
	} else {
		r.logger.Info("starting signed out", "reason", err)
	}

	model := ui.NewModel(ctx, ctrl, ui.Options{
		SignIn:  r.sessionUser,
		SignOut: r.removeCredentials,
		Screen:  screen,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, runErr := p.Run()
	cancel()

	flushCtx, done := context.WithTimeout(context.Background(), flushTimeout)
	defer done()
	if err := syncer.Flush(flushCtx); err != nil {
		r.logger.Warn("pending writes were not saved", "error", err)
	}
	syncer.Close()

	if runErr != nil {
		return fmt.Errorf("error running TUI: %w", runErr)
	}
	return nil
}
