// Package brawl provides a thin client for the official Brawl Stars API,
// used to verify player tags before linking them to accounts.
package brawl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/config"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/constants"
)

// ErrPlayerNotFound is returned when the API reports no such player tag.
var ErrPlayerNotFound = errors.New("brawl stars player not found")

// ErrAPIUnavailable is returned when the API cannot be reached or
// answers with a server error.
var ErrAPIUnavailable = errors.New("brawl stars api unavailable")

// PlayerProfile is the subset of the Brawl Stars player resource the
// service consumes.
type PlayerProfile struct {
	Tag      string `json:"tag"`
	Name     string `json:"name"`
	Trophies int    `json:"trophies"`
	ExpLevel int    `json:"expLevel"`
}

// Client calls the Brawl Stars API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logrus.Logger
}

// NewClient creates a Brawl Stars API client.
func NewClient(cfg *config.BrawlConfig, logger *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// GetPlayer fetches a player profile by tag. Tags are sent with their
// leading "#" percent-encoded as the API requires.
func (c *Client) GetPlayer(ctx context.Context, tag string) (*PlayerProfile, error) {
	endpoint := c.baseURL + "/players/" + url.PathEscape(tag)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", constants.ContentTypeJSON)
	if c.apiKey != "" {
		req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("tag", tag).Warn("Brawl Stars API request failed")
		return nil, fmt.Errorf("%w: %v", ErrAPIUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.WithFields(logrus.Fields{
		"tag":         tag,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Brawl Stars API response")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrPlayerNotFound
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", ErrAPIUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected brawl stars api status %d: %s", resp.StatusCode, string(body))
	}

	var profile PlayerProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode player profile: %w", err)
	}

	return &profile, nil
}

// VerifyPlayer checks that a player tag exists. An unreachable API is
// reported through ErrAPIUnavailable so callers can decide whether to
// proceed without verification.
func (c *Client) VerifyPlayer(ctx context.Context, tag string) error {
	_, err := c.GetPlayer(ctx, tag)
	return err
}
