// Package reddit fetches recent posts from forum streams through the
// Reddit OAuth API.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/whale-tracker/internal/config"
	"github.com/whale-tracker/internal/models"
)

const (
	defaultTokenURL   = "https://www.reddit.com/api/v1/access_token"
	defaultAPIBaseURL = "https://oauth.reddit.com"

	// tokenExpirySlack renews the app token slightly before Reddit does.
	tokenExpirySlack = time.Minute
)

// Client is an application-only Reddit API client. It authenticates with
// the client_credentials grant and renews the token transparently.
type Client struct {
	// TokenURL and APIBaseURL default to the public Reddit endpoints and
	// are overridable for tests.
	TokenURL   string
	APIBaseURL string

	httpClient   *http.Client
	clientID     string
	clientSecret string
	userAgent    string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a Client from forum configuration.
func NewClient(cfg config.RedditConfig) *Client {
	return &Client{
		TokenURL:     defaultTokenURL,
		APIBaseURL:   defaultAPIBaseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		userAgent:    cfg.UserAgent,
	}
}

// FetchNewPosts returns up to limit of the newest posts in stream.
func (c *Client) FetchNewPosts(ctx context.Context, stream string, limit int) ([]models.Post, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/r/%s/new.json?limit=%d&raw_json=1", c.APIBaseURL, url.PathEscape(stream), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing request failed for r/%s: %w", stream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing request for r/%s returned status %d", stream, resp.StatusCode)
	}

	var listing struct {
		Data struct {
			Children []struct {
				Data struct {
					ID          string   `json:"id"`
					Author      string   `json:"author"`
					Title       string   `json:"title"`
					SelfText    string   `json:"selftext"`
					Score       int      `json:"score"`
					UpvoteRatio *float64 `json:"upvote_ratio"`
					NumComments int      `json:"num_comments"`
					CreatedUTC  float64  `json:"created_utc"`
					Permalink   string   `json:"permalink"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to parse listing for r/%s: %w", stream, err)
	}

	posts := make([]models.Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		d := child.Data
		post := models.Post{
			Stream:      stream,
			ID:          d.ID,
			Author:      d.Author,
			Title:       d.Title,
			Body:        d.SelfText,
			Score:       d.Score,
			NumComments: d.NumComments,
			CreatedAt:   time.Unix(int64(d.CreatedUTC), 0).UTC(),
			Permalink:   d.Permalink,
		}
		if d.UpvoteRatio != nil {
			post.UpvoteRatio = *d.UpvoteRatio
			post.HasUpvoteRatio = true
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// ensureToken returns a valid app token, requesting a new one when the
// cached token is missing or near expiry.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenExpirySlack)) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	c.accessToken = payload.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	return c.accessToken, nil
}
