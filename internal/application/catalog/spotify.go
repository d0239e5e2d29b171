package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotConfigured = errors.New("catalog search is not configured")
	ErrEmptyQuery    = errors.New("search query is required")
)

const (
	DefaultAuthURL = "https://accounts.spotify.com/api/token"
	DefaultAPIURL  = "https://api.spotify.com"
)

// Track is one catalog search hit.
type Track struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
	Album   string   `json:"album"`
	ISRC    string   `json:"isrc,omitempty"`
	URL     string   `json:"url,omitempty"`
	Artwork string   `json:"artwork,omitempty"`
}

// Searcher looks up tracks in a streaming catalog.
type Searcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]Track, error)
}

// SpotifyClient searches the Spotify Web API with a client-credentials token, refreshed a minute
// before it expires.
type SpotifyClient struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	APIURL       string
	Client       *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
	now     func() time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type searchResponse struct {
	Tracks struct {
		Items []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Album struct {
				Name   string `json:"name"`
				Images []struct {
					URL string `json:"url"`
				} `json:"images"`
			} `json:"album"`
			ExternalIDs struct {
				ISRC string `json:"isrc"`
			} `json:"external_ids"`
			ExternalURLs struct {
				Spotify string `json:"spotify"`
			} `json:"external_urls"`
		} `json:"items"`
	} `json:"tracks"`
}

func (c *SpotifyClient) httpClient() *http.Client {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	return c.Client
}

func (c *SpotifyClient) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *SpotifyClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.clock().Before(c.expires) {
		return c.token, nil
	}

	authURL := c.AuthURL
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.ClientID, c.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("spotify token request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("spotify token: status %d body: %s", resp.StatusCode, string(body))
	}
	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("spotify token decode: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("spotify token: empty access_token")
	}
	c.token = tok.AccessToken
	c.expires = c.clock().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

// SearchTracks runs a track search. Queries of the form "isrc:XXXX" are passed through as
// Spotify field filters.
func (c *SpotifyClient) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	if c.ClientID == "" || c.ClientSecret == "" {
		return nil, ErrNotConfigured
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	apiURL := c.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	params := url.Values{
		"q":     {query},
		"type":  {"track"},
		"limit": {strconv.Itoa(limit)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(apiURL, "/")+"/v1/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("spotify search request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusUnauthorized {
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify search: status %d body: %s", resp.StatusCode, string(body))
	}

	var data searchResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("spotify search decode: %w", err)
	}
	out := make([]Track, 0, len(data.Tracks.Items))
	for _, it := range data.Tracks.Items {
		t := Track{
			ID:    it.ID,
			Name:  it.Name,
			Album: it.Album.Name,
			ISRC:  it.ExternalIDs.ISRC,
			URL:   it.ExternalURLs.Spotify,
		}
		for _, a := range it.Artists {
			t.Artists = append(t.Artists, a.Name)
		}
		if len(it.Album.Images) > 0 {
			t.Artwork = it.Album.Images[0].URL
		}
		out = append(out, t)
	}
	return out, nil
}
