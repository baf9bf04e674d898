package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/zenithx/internal/formatter"
	"github.com/desertthunder/zenithx/internal/models"
	"github.com/desertthunder/zenithx/internal/services"
	"github.com/desertthunder/zenithx/internal/shared"
	"github.com/urfave/cli/v3"
)

func parseExportField(raw string) (models.Field, error) {
	switch raw {
	case "queue":
		return models.FieldQueue, nil
	case "liked", "likedSongs":
		return models.FieldLikedSongs, nil
	default:
		return "", fmt.Errorf("%w: expected queue or liked, got %q", shared.ErrInvalidArgument, raw)
	}
}

// Export writes the user's queue or liked songs in the chosen format.
//
// Without --output the rendered export goes to stdout.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	field, err := parseExportField(cmd.Args().First())
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	creds, err := r.loadCredentials()
	if err != nil {
		return err
	}
	doc, err := services.NewDocumentClient(r.api).Load(ctx, creds.AccessToken)
	if err != nil {
		return err
	}

	tracks := doc.Queue
	if field == models.FieldLikedSongs {
		tracks = doc.LikedSongs
	}
	export := formatter.NewExport(field, creds.Email, tracks)
	output := cmd.String("output")

	if output == "" {
		data, err := formatter.Render(export, format)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	switch format {
	case formatter.FormatCSV:
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks\n  %s\n  %s\n", len(tracks), result.TracksFile, result.MetadataFile)
	case formatter.FormatMarkdown:
		result, err := formatter.WriteMarkdownExport(ctx, export, formatter.MarkdownOpts{
			Dir:        output,
			WithCover:  cmd.Bool("cover"),
			HTTPClient: r.httpClient,
		})
		if err != nil {
			return err
		}
		for _, w := range result.Warnings {
			r.logger.Warn("export warning", "error", w)
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(tracks), result.Directory)
	default:
		path, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(tracks), path)
	}
	return nil
}
