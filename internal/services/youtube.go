// YouTube Data API v3 [Provider] implementation
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/zenithx/internal/models"
	"github.com/desertthunder/zenithx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultYTBaseURL  = "https://www.googleapis.com/youtube/v3"
	defaultYTPageSize = 15
	maxYTPageSize     = 50
)

// YouTubeOpts configures a [YouTubeService].
type YouTubeOpts struct {
	APIKey     string
	BaseURL    string
	PageSize   int
	RateLimit  float64 // requests per second, non-positive disables pacing
	HTTPClient *http.Client
}

// YouTubeService implements [Provider] against the YouTube Data API search endpoint.
type YouTubeService struct {
	apiKey     string
	baseURL    string
	pageSize   int
	httpClient *http.Client
	limiter    *rate.Limiter
}

type ytThumbnail struct {
	URL string `json:"url"`
}

type ytSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   struct {
				Default ytThumbnail `json:"default"`
				Medium  ytThumbnail `json:"medium"`
				High    ytThumbnail `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type ytErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewYouTubeService creates a new YouTube search provider.
func NewYouTubeService(opts YouTubeOpts) *YouTubeService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultYTBaseURL
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultYTPageSize
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &YouTubeService{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		pageSize:   min(opts.PageSize, maxYTPageSize),
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// Configured reports whether an API key is set.
func (y *YouTubeService) Configured() bool {
	return y.apiKey != ""
}

// PageSize returns the number of results a text search returns by default.
func (y *YouTubeService) PageSize() int {
	return y.pageSize
}

// Search runs a text query.
//
// Calls GET {base}/search?part=snippet&type=video&maxResults={limit}&q={query}
func (y *YouTubeService) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, shared.ErrMissingQuery
	}
	if limit <= 0 || limit > maxYTPageSize {
		limit = y.pageSize
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(limit))

	var body ytSearchResponse
	if err := y.doRequest(ctx, params, &body); err != nil {
		return nil, err
	}
	return body.tracks(), nil
}

// Related looks up the single best match related to videoID.
//
// Calls GET {base}/search?part=snippet&type=video&maxResults=1&relatedToVideoId={videoID}
func (y *YouTubeService) Related(ctx context.Context, videoID string) (*models.Track, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, shared.ErrMissingQuery
	}

	params := url.Values{}
	params.Set("relatedToVideoId", videoID)
	params.Set("maxResults", "1")

	var body ytSearchResponse
	if err := y.doRequest(ctx, params, &body); err != nil {
		return nil, err
	}

	tracks := body.tracks()
	if len(tracks) == 0 {
		return nil, nil
	}
	return &tracks[0], nil
}

func (y *YouTubeService) doRequest(ctx context.Context, params url.Values, result any) error {
	if y.apiKey == "" {
		return fmt.Errorf("%w: YouTube API key is not configured", shared.ErrMissingCredentials)
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", shared.ErrTimeout, err)
	}

	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("key", y.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ytErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Message != "" {
			return fmt.Errorf("%w: youtube API error (status %d): %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Error.Message)
		}
		return fmt.Errorf("%w: youtube API error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

// tracks maps search items to tracks, skipping items without a video id (channels, playlists).
//
// The API returns HTML-escaped snippet text.
func (r ytSearchResponse) tracks() []models.Track {
	out := make([]models.Track, 0, len(r.Items))
	for _, it := range r.Items {
		if it.ID.VideoID == "" {
			continue
		}

		thumbs := it.Snippet.Thumbnails
		thumb := thumbs.High.URL
		if thumb == "" {
			thumb = thumbs.Medium.URL
		}
		if thumb == "" {
			thumb = thumbs.Default.URL
		}

		out = append(out, models.Track{
			ID:        it.ID.VideoID,
			Title:     html.UnescapeString(it.Snippet.Title),
			Author:    html.UnescapeString(it.Snippet.ChannelTitle),
			Thumbnail: thumb,
		})
	}
	return out
}
