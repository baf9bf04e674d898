package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/zenithx/internal/services"
	"github.com/desertthunder/zenithx/internal/shared"
	"github.com/urfave/cli/v3"
)

// bearer returns the stored access token, or "" when signed out.
func (r *Runner) bearer() string {
	creds, err := r.loadCredentials()
	if err != nil {
		r.logger.Debug("sending request without token", "reason", err)
		return ""
	}
	return creds.AccessToken
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIGet makes a direct GET request to the gateway
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path, r.bearer())
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}
	return r.writeResponse(resp, !cmd.Bool("json"))
}

// APIPost makes a direct POST request to the gateway
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	r.logger.Info("POST request", "path", path)

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	resp, err := r.api.Post(ctx, path, r.bearer(), []byte(data))
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}
	return r.writeResponse(resp, true)
}

// APIDump fetches health and, when signed in, the user's document in one report.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("dumping gateway state")

	type DumpData struct {
		Health   any   `json:"health"`
		Document any   `json:"document,omitempty"`
		Errors   []any `json:"errors,omitempty"`
	}

	dump := DumpData{Errors: []any{}}
	record := func(endpoint string, err error) {
		dump.Errors = append(dump.Errors, map[string]string{"endpoint": endpoint, "error": err.Error()})
		r.logger.Warn("dump request failed", "endpoint", endpoint, "error", err)
	}

	if resp, err := r.api.Get(ctx, "/health", ""); err != nil {
		record("/health", err)
	} else if err := resp.Err(); err != nil {
		record("/health", err)
	} else {
		dump.Health = resp.JSONData
	}

	if token := r.bearer(); token != "" {
		if resp, err := r.api.Get(ctx, services.DocumentPath, token); err != nil {
			record(services.DocumentPath, err)
		} else if err := resp.Err(); err != nil {
			record(services.DocumentPath, err)
		} else {
			dump.Document = resp.JSONData
		}
	}

	return r.writeJSON(dump, cmd.Bool("pretty"))
}
