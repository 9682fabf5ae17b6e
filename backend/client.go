// Package backend talks to a remote deepmine REST backend. Client implements
// persistence.Storage so a game server can run without a local store.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"deepmine/models"
	"deepmine/persistence"
)

// DefaultTimeout bounds every request made by a Client created without an http.Client
const DefaultTimeout = 10 * time.Second

// Client is a REST client for the /api endpoints
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the backend rooted at baseURL
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// CreatePlayer posts a new player; a 409 maps to persistence.ErrPlayerExists
func (c *Client) CreatePlayer(ctx context.Context, player *models.Player) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/player", player)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		return nil
	case http.StatusConflict:
		return fmt.Errorf("player %d: %w", player.RecoveryCode, persistence.ErrPlayerExists)
	}
	return statusError(resp)
}

// SavePlayer replaces the stored player
func (c *Client) SavePlayer(ctx context.Context, player *models.Player) error {
	resp, err := c.do(ctx, http.MethodPut, "/api/player", player)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return statusError(resp)
	}
	return nil
}

// LoadPlayer fetches a player by recovery code
func (c *Client) LoadPlayer(ctx context.Context, recoveryCode int) (*models.Player, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/player/"+strconv.Itoa(recoveryCode), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("player %d: %w", recoveryCode, persistence.ErrNotFound)
	default:
		return nil, statusError(resp)
	}

	var player models.Player
	if err := json.NewDecoder(resp.Body).Decode(&player); err != nil {
		return nil, fmt.Errorf("failed to decode player: %w", err)
	}
	return &player, nil
}

// SaveBaseMap posts a template; the id assigned by the backend is copied back
func (c *Client) SaveBaseMap(ctx context.Context, baseMap *models.BaseMap) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/baseMap", baseMap)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %v", persistence.ErrInvalid, statusError(resp))
	default:
		return statusError(resp)
	}

	var stored models.BaseMap
	if err := json.NewDecoder(resp.Body).Decode(&stored); err == nil && stored.ID != "" {
		baseMap.ID = stored.ID
		baseMap.ExitForm = stored.ExitForm
	}
	return nil
}

// RandomBaseMap fetches a random template with the given exit form
func (c *Client) RandomBaseMap(ctx context.Context, form models.ExitForm) (*models.BaseMap, error) {
	path := "/api/baseMap?" + url.Values{"exitForm": {string(form)}}.Encode()
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("exit form %s: %w", form, persistence.ErrNoBaseMap)
	default:
		return nil, statusError(resp)
	}

	var baseMap models.BaseMap
	if err := json.NewDecoder(resp.Body).Decode(&baseMap); err != nil {
		return nil, fmt.Errorf("failed to decode base map: %w", err)
	}
	return &baseMap, nil
}

// Close releases idle connections
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// statusError turns an unexpected response into an error carrying the body text
func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s %s: unexpected status %d: %s",
		resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, strings.TrimSpace(string(msg)))
}
