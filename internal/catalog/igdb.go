// Package catalog provides the IGDB metadata client used for game search
// and detail lookups.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"backlog/internal/middleware"
	"backlog/internal/models"
	"backlog/internal/observability"
)

const (
	defaultAuthBaseURL = "https://id.twitch.tv"
	defaultAPIBaseURL  = "https://api.igdb.com/v4"

	searchLimit = 20

	// tokenRefreshMargin renews the app token before it actually expires so
	// in-flight requests never race the expiry.
	tokenRefreshMargin = 60 * time.Second
)

// Platform is an IGDB platform reference on a game.
type Platform struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation,omitempty"`
}

// Game is the subset of IGDB game data the portal exposes.
type Game struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Summary   string     `json:"summary,omitempty"`
	CoverURL  *string    `json:"cover_url"`
	FirstSeen *time.Time `json:"first_release_date,omitempty"`
	Platforms []Platform `json:"platforms"`
}

// Client talks to IGDB using Twitch app credentials. The app token is cached
// and shared across requests.
type Client struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client

	authBaseURL string
	apiBaseURL  string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURLs overrides the Twitch auth and IGDB API endpoints. Used in
// tests to point the client at local servers.
func WithBaseURLs(authBaseURL, apiBaseURL string) Option {
	return func(c *Client) {
		c.authBaseURL = strings.TrimSuffix(authBaseURL, "/")
		c.apiBaseURL = strings.TrimSuffix(apiBaseURL, "/")
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates an IGDB client. Returns nil when credentials are not
// configured; callers treat a nil client as catalog-disabled.
func NewClient(clientID, clientSecret string, opts ...Option) *Client {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	c := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		authBaseURL:  defaultAuthBaseURL,
		apiBaseURL:   defaultAPIBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// token returns a valid app access token, fetching a new one when the cached
// token is within the refresh margin of expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenRefreshMargin)) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.authBaseURL+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("twitch token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("twitch token request failed with status %d: %s", resp.StatusCode, body)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode twitch token: %w", err)
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

// query posts an APICalypse query body to an IGDB endpoint and decodes the
// response into dest.
func (c *Client) query(ctx context.Context, endpoint, body string, dest any) error {
	tok, err := c.token(ctx)
	if err != nil {
		observability.CatalogLookups.WithLabelValues(endpoint, "error").Inc()
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBaseURL+"/"+endpoint, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.CatalogLookups.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("igdb %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		observability.CatalogLookups.WithLabelValues(endpoint, "error").Inc()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("igdb %s failed with status %d: %s", endpoint, resp.StatusCode, raw)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		observability.CatalogLookups.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("decode igdb %s response: %w", endpoint, err)
	}

	observability.CatalogLookups.WithLabelValues(endpoint, "ok").Inc()
	return nil
}

type igdbGame struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Summary          string `json:"summary"`
	FirstReleaseDate int64  `json:"first_release_date"`
	Cover            *struct {
		ImageID string `json:"image_id"`
	} `json:"cover"`
	Platforms []Platform `json:"platforms"`
}

// buildCoverURL turns an IGDB cover image id into a display-sized URL.
func buildCoverURL(imageID string) *string {
	if imageID == "" {
		return nil
	}
	u := fmt.Sprintf("https://images.igdb.com/igdb/image/upload/t_cover_big/%s.jpg", imageID)
	return &u
}

func (g igdbGame) toGame() Game {
	game := Game{
		ID:        g.ID,
		Name:      g.Name,
		Summary:   g.Summary,
		Platforms: g.Platforms,
	}
	if g.Cover != nil {
		game.CoverURL = buildCoverURL(g.Cover.ImageID)
	}
	if g.FirstReleaseDate > 0 {
		t := time.Unix(g.FirstReleaseDate, 0).UTC()
		game.FirstSeen = &t
	}
	if game.Platforms == nil {
		game.Platforms = []Platform{}
	}
	return game
}

// escapeSearchTerm strips characters that would break out of the quoted
// APICalypse search string.
func escapeSearchTerm(term string) string {
	term = strings.ReplaceAll(term, `\`, ` `)
	term = strings.ReplaceAll(term, `"`, ` `)
	term = strings.ReplaceAll(term, ";", " ")
	return strings.TrimSpace(term)
}

// Search looks up games by name. Editions and other child releases are
// filtered out via version_parent so only parent games are returned.
func (c *Client) Search(ctx context.Context, term string) ([]Game, error) {
	term = escapeSearchTerm(term)
	if len([]rune(term)) < 2 {
		return nil, models.NewValidationError("search query must be at least 2 characters")
	}

	body := fmt.Sprintf(
		`search "%s"; fields name, summary, first_release_date, cover.image_id, platforms.id, platforms.name, platforms.abbreviation; where version_parent = null; limit %d;`,
		term, searchLimit,
	)

	var raw []igdbGame
	if err := c.query(ctx, "games", body, &raw); err != nil {
		middleware.Logger.Error("IGDB search failed", "term", term, "error", err)
		return nil, models.NewUpstreamError("game catalog", err)
	}

	games := make([]Game, 0, len(raw))
	for _, g := range raw {
		games = append(games, g.toGame())
	}
	return games, nil
}

// GameDetail fetches a single game by IGDB id.
func (c *Client) GameDetail(ctx context.Context, id int64) (*Game, error) {
	body := fmt.Sprintf(
		`fields name, summary, first_release_date, cover.image_id, platforms.id, platforms.name, platforms.abbreviation; where id = %d;`,
		id,
	)

	var raw []igdbGame
	if err := c.query(ctx, "games", body, &raw); err != nil {
		middleware.Logger.Error("IGDB detail lookup failed", "game_id", id, "error", err)
		return nil, models.NewUpstreamError("game catalog", err)
	}
	if len(raw) == 0 {
		return nil, models.NewNotFoundError("Game", id)
	}

	game := raw[0].toGame()
	return &game, nil
}
