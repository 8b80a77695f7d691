package tvmaze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"tvshelf/internal/domain"
)

// Sentinel errors for the two failure classes the gateway can report. Both
// are surfaced to the user as a single generic status message; callers that
// need to distinguish use errors.Is.
var (
	ErrNetwork           = errors.New("network failure")
	ErrMalformedResponse = errors.New("malformed response")
)

// Client interacts with the TVmaze public API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a client using the provided HTTP client. The baseURL can
// be overridden for testing; if empty the public API endpoint is used. A
// non-empty userAgent is sent with every request.
func NewClient(httpClient *http.Client, baseURL, userAgent string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.tvmaze.com"
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  strings.TrimSpace(userAgent),
	}
}

// FetchShows retrieves the full show directory.
func (c *Client) FetchShows(ctx context.Context) ([]domain.Show, error) {
	var payload []showResult
	if err := c.getJSON(ctx, c.baseURL+"/shows", &payload); err != nil {
		return nil, fmt.Errorf("fetch shows: %w", err)
	}

	shows := make([]domain.Show, 0, len(payload))
	for _, item := range payload {
		shows = append(shows, item.toDomain())
	}
	return shows, nil
}

// FetchEpisodes retrieves all episodes of one show, in the order the API
// returns them (season/number ordered at the source).
func (c *Client) FetchEpisodes(ctx context.Context, showID int) ([]domain.Episode, error) {
	var payload []episodeResult
	url := fmt.Sprintf("%s/shows/%d/episodes", c.baseURL, showID)
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, fmt.Errorf("fetch episodes for show %d: %w", showID, err)
	}

	episodes := make([]domain.Episode, 0, len(payload))
	for _, item := range payload {
		episodes = append(episodes, item.toDomain())
	}
	return episodes, nil
}

func (c *Client) getJSON(ctx context.Context, url string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrNetwork)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %w", resp.Status, ErrNetwork)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %v: %w", err, ErrMalformedResponse)
	}
	return nil
}

type showResult struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Summary string   `json:"summary"`
	Genres  []string `json:"genres"`
	Status  string   `json:"status"`
	Runtime int      `json:"runtime"`
	Rating  struct {
		Average float64 `json:"average"`
	} `json:"rating"`
	Image *imageResult `json:"image"`
}

func (r showResult) toDomain() domain.Show {
	return domain.Show{
		ID:       r.ID,
		Name:     r.Name,
		Summary:  r.Summary,
		Genres:   r.Genres,
		Status:   r.Status,
		Runtime:  r.Runtime,
		Rating:   r.Rating.Average,
		ImageURL: r.Image.medium(),
	}
}

type episodeResult struct {
	ID      int          `json:"id"`
	Season  int          `json:"season"`
	Number  int          `json:"number"`
	Name    string       `json:"name"`
	Summary string       `json:"summary"`
	URL     string       `json:"url"`
	Image   *imageResult `json:"image"`
}

func (r episodeResult) toDomain() domain.Episode {
	return domain.Episode{
		ID:       r.ID,
		Season:   r.Season,
		Number:   r.Number,
		Name:     r.Name,
		Summary:  r.Summary,
		URL:      r.URL,
		ImageURL: r.Image.medium(),
	}
}

type imageResult struct {
	Medium   string `json:"medium"`
	Original string `json:"original"`
}

func (r *imageResult) medium() string {
	if r == nil {
		return ""
	}
	if r.Medium != "" {
		return r.Medium
	}
	return r.Original
}
