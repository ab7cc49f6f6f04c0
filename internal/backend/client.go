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

	"github.com/mindmesh/mindmesh-client/internal/logging"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout matches the browser client's request timeout
	DefaultTimeout = 30 * time.Second

	// DefaultDecisionPath is the decision analysis endpoint of the current backend revision
	DefaultDecisionPath = "/analyze-decision"
)

// Options configures a Client.
type Options struct {
	Timeout      time.Duration
	DecisionPath string
	// RateLimit is the sustained outbound request rate; zero disables limiting.
	RateLimit float64
	RateBurst int
	// Transport overrides the base round tripper (tests).
	Transport http.RoundTripper
}

// Client handles communication with the MindMesh backend API.
//
// A Client created by NewClient is anonymous. WithToken derives a separate
// instance whose requests carry the session's bearer token, so credentials
// are never shared through mutable default headers.
type Client struct {
	baseURL      string
	decisionPath string
	timeout      time.Duration
	base         http.RoundTripper
	httpClient   *http.Client
	limiter      *rate.Limiter
	stats        *Stats
	token        string
}

// NewClient creates a new backend client
func NewClient(baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(opts.DecisionPath) == "" {
		opts.DecisionPath = DefaultDecisionPath
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		decisionPath: opts.DecisionPath,
		timeout:      opts.Timeout,
		base:         base,
		httpClient:   &http.Client{Timeout: opts.Timeout, Transport: base},
		limiter:      limiter,
		stats:        &Stats{},
	}
}

// WithToken returns a client that authenticates every request with token.
// The receiver is left untouched.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	if token == "" {
		cp.httpClient = &http.Client{Timeout: c.timeout, Transport: c.base}
		return &cp
	}
	cp.httpClient = &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.base,
		},
	}
	return &cp
}

// Authenticated reports whether the client carries a bearer token.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// Stats returns call metrics shared by this client and its token-scoped copies.
func (c *Client) Stats() StatsSnapshot {
	return c.stats.Snapshot()
}

// Login exchanges credentials for a token
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns its token
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me revalidates the bearer token and returns its user
func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp meResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// AnalyzeJournal asks the backend to infer metrics from free text
func (c *Client) AnalyzeJournal(ctx context.Context, text string) (*JournalAnalysis, error) {
	var resp JournalAnalysis
	if err := c.do(ctx, http.MethodPost, "/analyze-journal", nil, map[string]string{"text": text}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateDailyLog posts a daily entry and returns the generated protocol
func (c *Client) CreateDailyLog(ctx context.Context, req DailyLogRequest) (*DailyLogResponse, error) {
	var resp DailyLogResponse
	if err := c.do(ctx, http.MethodPost, "/daily-log", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AnalyzeDecision runs one round of decision analysis
func (c *Client) AnalyzeDecision(ctx context.Context, req DecisionRequest) (*DecisionResponse, error) {
	if req.ConversationHistory == nil {
		req.ConversationHistory = []ConversationEntry{}
	}
	var resp DecisionResponse
	if err := c.do(ctx, http.MethodPost, c.decisionPath, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DecisionHistory lists past decisions. Entries are passed through as-is.
func (c *Client) DecisionHistory(ctx context.Context, limit int) ([]json.RawMessage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	var resp []json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/decisions/history", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// History lists daily logs for the last days
func (c *Client) History(ctx context.Context, days, limit int) ([]LogEntry, error) {
	q := url.Values{}
	q.Set("days", strconv.Itoa(days))
	q.Set("limit", strconv.Itoa(limit))
	var resp []LogEntry
	if err := c.do(ctx, http.MethodGet, "/history", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Analytics fetches the basic analytics object
func (c *Client) Analytics(ctx context.Context, days int) (map[string]any, error) {
	q := url.Values{}
	q.Set("days", strconv.Itoa(days))
	var resp map[string]any
	if err := c.do(ctx, http.MethodGet, "/analytics", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// AdvancedAnalytics fetches health score, forecast, correlations and friends
func (c *Client) AdvancedAnalytics(ctx context.Context, days int) (*AdvancedAnalytics, error) {
	q := url.Values{}
	q.Set("days", strconv.Itoa(days))
	var resp AdvancedAnalytics
	if err := c.do(ctx, http.MethodGet, "/analytics/advanced", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Insights lists stored insights
func (c *Client) Insights(ctx context.Context, unreadOnly bool) ([]Insight, error) {
	q := url.Values{}
	q.Set("unread", strconv.FormatBool(unreadOnly))
	var resp []Insight
	if err := c.do(ctx, http.MethodGet, "/insights", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Health pings the backend
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (err error) {
	logger := logging.New(ctx)
	start := time.Now()
	defer func() { c.stats.record(time.Since(start), err) }()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %w", ErrUnavailable, err)
		}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rid := logging.RequestID(ctx); rid != "" {
		req.Header.Set("X-Request-Id", rid)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("backend "+path, err)
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		logger.Warnf("backend "+path, "backend returned status %d", resp.StatusCode)
		return &APIError{StatusCode: resp.StatusCode, Path: path, Message: errorMessage(respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response from %s: %w", path, err)
	}
	return nil
}

// errorMessage pulls the {"error": "..."} message out of an error body.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
