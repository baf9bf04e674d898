package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/zenithx/internal/models"
	"github.com/desertthunder/zenithx/internal/services"
	"github.com/desertthunder/zenithx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search runs a text query through the gateway, or straight against the provider with --direct.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	r.logger.Debug("search", "query", query, "direct", cmd.Bool("direct"))

	var tracks []models.Track
	var err error
	if cmd.Bool("direct") {
		tracks, err = r.provider.Search(ctx, query, 0)
	} else {
		tracks, err = services.NewSearchClient(r.api).Search(ctx, query)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(models.SearchResult{Items: tracks}, true)
	}
	return r.writeTracks(fmt.Sprintf("Results for %q", query), tracks)
}

// SearchRelated looks up the track the autoplay would pick after a video.
func (r *Runner) SearchRelated(ctx context.Context, cmd *cli.Command) error {
	videoID := strings.TrimSpace(cmd.Args().First())
	if videoID == "" {
		return fmt.Errorf("%w: video id", shared.ErrMissingArgument)
	}

	var track *models.Track
	var err error
	if cmd.Bool("direct") {
		track, err = r.provider.Related(ctx, videoID)
	} else {
		track, err = services.NewSearchClient(r.api).FindRelated(ctx, videoID)
	}
	if err != nil {
		return err
	}

	tracks := []models.Track{}
	if track != nil {
		tracks = append(tracks, *track)
	}
	if cmd.Bool("json") {
		return r.writeJSON(models.SearchResult{Items: tracks}, true)
	}
	return r.writeTracks(fmt.Sprintf("Related to %s", videoID), tracks)
}

func (r *Runner) writeTracks(title string, tracks []models.Track) error {
	r.writePlainHeader(title)
	if len(tracks) == 0 {
		return r.writePlain("No tracks\n")
	}
	for i, t := range tracks {
		if err := r.writePlain("%2d. %s • %s\n    %s\n", i+1, t.Title, t.Author, t.WatchURL()); err != nil {
			return err
		}
	}
	return nil
}
