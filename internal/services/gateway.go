package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/zenithx/internal/models"
	"github.com/desertthunder/zenithx/internal/shared"
)

const (
	SearchPath   = "/api/search"
	DocumentPath = "/api/document"
)

// SearchClient queries the gateway's search endpoint.
type SearchClient struct {
	api *APIService
}

// NewSearchClient creates a search client over api.
func NewSearchClient(api *APIService) *SearchClient {
	return &SearchClient{api: api}
}

// Search returns the gateway's results for a text query.
func (c *SearchClient) Search(ctx context.Context, query string) ([]models.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, shared.ErrMissingQuery
	}
	return c.fetch(ctx, url.Values{"q": {query}})
}

// FindRelated returns the single related track for videoID, or nil when there is none.
func (c *SearchClient) FindRelated(ctx context.Context, videoID string) (*models.Track, error) {
	if videoID == "" {
		return nil, shared.ErrMissingQuery
	}
	tracks, err := c.fetch(ctx, url.Values{"relatedToVideoId": {videoID}})
	if err != nil || len(tracks) == 0 {
		return nil, err
	}
	return &tracks[0], nil
}

func (c *SearchClient) fetch(ctx context.Context, params url.Values) ([]models.Track, error) {
	resp, err := c.api.Get(ctx, SearchPath+"?"+params.Encode(), "")
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var result models.SearchResult
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	if result.Items == nil {
		result.Items = []models.Track{}
	}
	return result.Items, nil
}

// DocumentClient reads and writes the signed-in user's document through the gateway.
type DocumentClient struct {
	api *APIService
}

// NewDocumentClient creates a document client over api.
func NewDocumentClient(api *APIService) *DocumentClient {
	return &DocumentClient{api: api}
}

// Load fetches the whole document. A user without one gets empty lists.
func (c *DocumentClient) Load(ctx context.Context, token string) (*models.Document, error) {
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	resp, err := c.api.Get(ctx, DocumentPath, token)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var doc models.Document
	if err := resp.Decode(&doc); err != nil {
		return nil, err
	}
	return doc.Normalize(), nil
}

// Save merge-writes one field of the document.
func (c *DocumentClient) Save(ctx context.Context, token string, field models.Field, tracks []models.Track) error {
	if token == "" {
		return shared.ErrNotAuthenticated
	}
	if tracks == nil {
		tracks = []models.Track{}
	}

	body, err := json.Marshal(models.SaveRequest{Action: string(field.Action()), Payload: tracks})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.api.Post(ctx, DocumentPath, token, body)
	if err != nil {
		return err
	}
	return resp.Err()
}
