package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/desertthunder/zenithx/internal/models"
	"github.com/desertthunder/zenithx/internal/services"
	"github.com/desertthunder/zenithx/internal/shared"
	"github.com/urfave/cli/v3"
)

// DocGet prints the signed-in user's document.
func (r *Runner) DocGet(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.loadCredentials()
	if err != nil {
		return err
	}

	doc, err := services.NewDocumentClient(r.api).Load(ctx, creds.AccessToken)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(doc, true)
	}
	if err := r.writeTracks(models.FieldQueue.Label(), doc.Queue); err != nil {
		return err
	}
	r.writePlain("\n")
	return r.writeTracks(models.FieldLikedSongs.Label(), doc.LikedSongs)
}

// DocSave replaces one field of the signed-in user's document with a JSON track array.
//
// The action is sent as given so the gateway decides whether it is valid.
func (r *Runner) DocSave(ctx context.Context, cmd *cli.Command) error {
	action := cmd.String("action")
	data := []byte(cmd.String("data"))
	if path := cmd.String("file"); path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: --data or --file is required", shared.ErrMissingArgument)
	}

	var tracks []models.Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		return fmt.Errorf("%w: data must be a JSON array of tracks: %v", shared.ErrInvalidInput, err)
	}
	for _, t := range tracks {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	creds, err := r.loadCredentials()
	if err != nil {
		return err
	}

	body, err := json.Marshal(models.SaveRequest{Action: action, Payload: tracks})
	if err != nil {
		return err
	}

	r.logger.Info("saving document field", "action", action, "tracks", len(tracks))
	resp, err := r.api.Post(ctx, services.DocumentPath, creds.AccessToken, body)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}

	var status models.StatusResponse
	if err := resp.Decode(&status); err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", status.Status)
}
