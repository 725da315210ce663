package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/EpicAlbin03/hermitcraft/internal/metrics"
)

const (
	// MaxBatchSize is the most user ids the streams endpoint accepts.
	MaxBatchSize = 100

	defaultAPIURL   = "https://api.twitch.tv/helix"
	defaultTokenURL = "https://id.twitch.tv/oauth2/token"
	defaultTimeout  = 30 * time.Second
)

// APIError wraps a token, transport or decoding failure.
type APIError struct {
	Op     string
	Status int
	Err    error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("twitch: %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("twitch: %s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// PreconditionError is returned before any call when a batch is too large.
type PreconditionError struct {
	Op    string
	Limit int
	Got   int
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("twitch: %s: got %d ids, limit is %d", e.Op, e.Got, e.Limit)
}

type Options struct {
	ClientID     string
	ClientSecret string
	// RequestsPerSecond paces calls; 0 disables pacing.
	RequestsPerSecond float64
	Timeout           time.Duration

	APIURL   string
	TokenURL string
	// HTTPClient is the base transport for both token and API calls.
	HTTPClient *http.Client
}

// Client checks live status with an app access token.
type Client struct {
	clientID string
	apiURL   string
	http     *http.Client
	limiter  *rate.Limiter
}

// NewClient builds a Client. The app token is fetched lazily and refreshed
// by the oauth2 transport.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, errors.New("twitch: client id and secret required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	apiURL := opts.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: timeout}
	}
	// The oauth2 transport picks up the base client from the context.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	cc := clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	httpClient := cc.Client(ctx)
	httpClient.Timeout = timeout

	c := &Client{
		clientID: opts.ClientID,
		apiURL:   apiURL,
		http:     httpClient,
		limiter:  rate.NewLimiter(rate.Inf, 1),
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), int(opts.RequestsPerSecond)+1)
	}
	return c, nil
}

type streamsResponse struct {
	Data []struct {
		UserID    string `json:"user_id"`
		UserLogin string `json:"user_login"`
		Type      string `json:"type"`
	} `json:"data"`
}

// AreChannelsLive reports, for every requested user id, whether it is
// streaming right now. Ids absent from the response are false. Empty input
// returns an empty map without a call. Any failure fails the whole batch.
func (c *Client) AreChannelsLive(ctx context.Context, userIDs []string) (map[string]bool, error) {
	const op = "streams"

	if len(userIDs) > MaxBatchSize {
		return nil, &PreconditionError{Op: op, Limit: MaxBatchSize, Got: len(userIDs)}
	}
	out := make(map[string]bool, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	live, err := c.fetchLive(ctx, userIDs)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ExternalRequests.WithLabelValues("twitch", op, status).Inc()
	if err != nil {
		return nil, err
	}

	for _, id := range userIDs {
		out[id] = live[id]
	}
	return out, nil
}

func (c *Client) fetchLive(ctx context.Context, userIDs []string) (map[string]bool, error) {
	const op = "streams"

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Op: op, Err: err}
	}

	q := url.Values{}
	for _, id := range userIDs {
		q.Add("user_id", id)
	}
	q.Set("first", fmt.Sprint(MaxBatchSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/streams?"+q.Encode(), nil)
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}
	req.Header.Set("Client-Id", c.clientID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &APIError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%s", body)}
	}

	var payload streamsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &APIError{Op: op, Err: fmt.Errorf("decode: %w", err)}
	}

	live := make(map[string]bool, len(payload.Data))
	for _, s := range payload.Data {
		if s.Type == "" || s.Type == "live" {
			live[s.UserID] = true
		}
	}
	return live, nil
}
