package sector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/daemonp/sector2mqtt/internal/config"
	"github.com/daemonp/sector2mqtt/internal/log"
)

const requestTimeout = 10 * time.Second

// Client talks to the Sector Alarm "My Pages" API. A client owns one
// underlying http.Client and one bearer token. Session state is guarded by
// mu so that Close can run while other goroutines have calls in flight.
type Client struct {
	log       *log.Logger
	baseURL   string
	email     string
	password  string
	panelID   string
	panelCode string
	timeout   time.Duration

	mu          sync.Mutex
	accessToken string
	headers     http.Header
	httpClient  *http.Client

	dataEndpoints   []Endpoint
	actionEndpoints map[string]Endpoint
}

func NewClient(cfg *config.SectorConfig, logger *log.Logger) *Client {
	return &Client{
		log:             logger,
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		email:           cfg.Email,
		password:        cfg.Password,
		panelID:         cfg.PanelID,
		panelCode:       cfg.PanelCode,
		timeout:         requestTimeout,
		dataEndpoints:   DataEndpoints(cfg.PanelID),
		actionEndpoints: ActionEndpoints(),
	}
}

// Login authenticates with the API and obtains an access token. Any failure
// during session establishment is surfaced as *AuthError.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	httpClient := c.httpClient
	c.mu.Unlock()

	payload, err := json.Marshal(map[string]interface{}{
		"userId":   c.email,
		"password": c.password,
	})
	if err != nil {
		return &AuthError{Reason: ReasonTransport, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(payload))
	if err != nil {
		return &AuthError{Reason: ReasonTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.log.Error("Timeout occurred during login")
			return &AuthError{Reason: ReasonTimeout, Err: err}
		}
		c.log.Error("Client error during login: %v", err)
		return &AuthError{Reason: ReasonTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("Login failed with status code %d", resp.StatusCode)
		return &AuthError{Reason: ReasonInvalidCredentials}
	}

	var body struct {
		AuthorizationToken string `json:"AuthorizationToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.AuthorizationToken == "" {
		c.log.Error("Login failed: no access token received")
		return &AuthError{Reason: ReasonInvalidCredentials, Err: err}
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+body.AuthorizationToken)
	headers.Set("Accept", "application/json")

	c.mu.Lock()
	c.accessToken = body.AuthorizationToken
	c.headers = headers
	c.mu.Unlock()

	c.log.Debug("Logged in to panel %s", c.panelID)
	return nil
}

// RetrieveAll walks the data-class endpoint catalog and assembles a snapshot
// keyed by logical name. Keys whose fetch failed are omitted; the snapshot
// itself is always returned.
func (c *Client) RetrieveAll(ctx context.Context) map[string]interface{} {
	data := make(map[string]interface{})

	for _, ep := range c.dataEndpoints {
		var value interface{}
		var err error

		switch ep.Method {
		case http.MethodGet:
			value, err = c.get(ctx, c.baseURL+ep.URL)
		case http.MethodPost:
			value, err = c.post(ctx, c.baseURL+ep.URL, map[string]interface{}{"PanelId": c.panelID})
		default:
			c.log.Error("Unsupported HTTP method %s for endpoint %s", ep.Method, ep.Key)
			continue
		}

		if err != nil {
			c.log.Info("No data retrieved for %s: %v", ep.Key, err)
			continue
		}
		data[ep.Key] = value
	}

	data[KeyLockStatus] = c.GetLockStatus(ctx)
	return data
}

// GetLockStatus fetches lock states for the panel, falling back to an empty
// list so the snapshot key is always present.
func (c *Client) GetLockStatus(ctx context.Context) interface{} {
	url := fmt.Sprintf("%s%s?panelId=%s", c.baseURL, lockStatusPath, c.panelID)
	value, err := c.get(ctx, url)
	if err != nil {
		c.log.Error("Failed to retrieve lock status: %v", err)
		return []interface{}{}
	}
	return value
}

func (c *Client) get(ctx context.Context, url string) (interface{}, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

func (c *Client) post(ctx context.Context, url string, payload interface{}) (interface{}, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %v", err)
	}
	return c.do(ctx, http.MethodPost, url, body)
}

// do performs one bounded authenticated call. Expected failure modes
// (non-200, non-JSON 200, timeout, transport error) come back as a plain
// error so callers decide what absence means; it never panics.
func (c *Client) do(ctx context.Context, method, url string, body []byte) (interface{}, error) {
	c.mu.Lock()
	httpClient := c.httpClient
	headers := c.headers
	authenticated := c.accessToken != ""
	c.mu.Unlock()

	if httpClient == nil || !authenticated {
		return nil, errInvalidSession
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %v", err)
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Set(key, value)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.log.Error("Timeout occurred during %s request to %s", method, url)
			return nil, fmt.Errorf("timeout during %s request to %s", method, url)
		}
		c.log.Error("Client error during %s request to %s: %v", method, url, err)
		return nil, fmt.Errorf("client error during %s request: %v", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.log.Error("%s request to %s failed with status code %d, response: %s", method, url, resp.StatusCode, strings.TrimSpace(string(raw)))
		return nil, fmt.Errorf("%s request to %s failed with status %d", method, url, resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.log.Error("Received non-JSON response from %s: %s", url, strings.TrimSpace(string(raw)))
		return nil, fmt.Errorf("non-JSON response from %s", url)
	}

	var value interface{}
	if err := json.NewDecoder(resp.Body).Decode(&value); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %v", url, err)
	}
	return value, nil
}

// Logout posts a best-effort logout, ignoring its result, then closes the
// session.
func (c *Client) Logout(ctx context.Context) {
	if _, err := c.post(ctx, c.baseURL+logoutPath, map[string]interface{}{}); err != nil {
		c.log.Debug("Logout request failed: %v", err)
	}
	c.Close()
}

// Close releases the underlying connection resource. Safe to call more than
// once, when the client was never logged in, or while other goroutines have
// calls in flight; those calls finish against the old transport and any
// later ones fail with an invalid-session error.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
		c.httpClient = nil
	}
	c.accessToken = ""
	c.headers = nil
}

// IsAuthenticated reports whether the client holds a usable session.
func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.httpClient != nil && c.accessToken != ""
}
