package moderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/ratelimit"

	"admod-bot/internal/models"
)

const requestTimeout = 15 * time.Second

var _ API = (*Client)(nil)

// Client is the HTTP implementation of the API interface.
type Client struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	ratelimiter ratelimit.Limiter
	debug       bool
}

// NewClient creates a moderation service client. The token, if set, is
// sent as a bearer credential on every request.
func NewClient(baseURL, token string, debug bool) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("moderation api base URL cannot be empty")
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		httpClient:  &http.Client{Timeout: requestTimeout},
		ratelimiter: ratelimit.New(10),
		debug:       debug,
	}, nil
}

// errorBody is the message envelope of 4xx responses. Some endpoints
// use "message", others "error".
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// do issues the request, decodes a JSON success body into out (when
// out is non-nil) and maps failures to *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	c.ratelimiter.Take()

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if c.debug {
		log.Printf("[ModerAPI] %s %s", method, reqURL)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("moderation api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			var eb errorBody
			if decodeErr := json.NewDecoder(resp.Body).Decode(&eb); decodeErr == nil {
				if eb.Message != "" {
					apiErr.Message = eb.Message
				} else {
					apiErr.Message = eb.Error
				}
			}
		}
		if resp.StatusCode >= 500 {
			sentry.CaptureException(fmt.Errorf("%s %s: %w", method, path, apiErr))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// ListAds requests one page of the filtered, sorted ads list.
func (c *Client) ListAds(ctx context.Context, page, limit int, filter models.AdsFilter) (*AdsPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	for _, status := range filter.Status {
		query.Add("status", string(status))
	}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.CategoryID != nil {
		query.Set("categoryId", strconv.Itoa(*filter.CategoryID))
	}
	if filter.MinPrice != nil {
		query.Set("minPrice", strconv.FormatInt(*filter.MinPrice, 10))
	}
	if filter.MaxPrice != nil {
		query.Set("maxPrice", strconv.FormatInt(*filter.MaxPrice, 10))
	}
	query.Set("sortBy", string(filter.SortBy))
	query.Set("sortOrder", string(filter.SortOrder))

	var resp AdsPage
	if err := c.do(ctx, http.MethodGet, "/ads", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAd loads a single ad by id.
func (c *Client) GetAd(ctx context.Context, id string) (*models.Ad, error) {
	var ad models.Ad
	if err := c.do(ctx, http.MethodGet, "/ads/"+url.PathEscape(id), nil, nil, &ad); err != nil {
		return nil, err
	}
	return &ad, nil
}

// ApproveAd posts an approve decision and returns the updated ad.
func (c *Client) ApproveAd(ctx context.Context, id string) (*models.Ad, error) {
	var ad models.Ad
	if err := c.do(ctx, http.MethodPost, "/ads/"+url.PathEscape(id)+"/approve", nil, nil, &ad); err != nil {
		return nil, err
	}
	return &ad, nil
}

// decisionBody is the payload of reject and request-changes decisions.
type decisionBody struct {
	Reason       string `json:"reason"`
	CustomReason string `json:"customReason"`
}

// RejectAd posts a reject decision and returns the updated ad.
func (c *Client) RejectAd(ctx context.Context, id, reason, customReason string) (*models.Ad, error) {
	var ad models.Ad
	body := decisionBody{Reason: reason, CustomReason: customReason}
	if err := c.do(ctx, http.MethodPost, "/ads/"+url.PathEscape(id)+"/reject", nil, body, &ad); err != nil {
		return nil, err
	}
	return &ad, nil
}

// RequestChanges posts a request-changes decision and returns the
// updated ad.
func (c *Client) RequestChanges(ctx context.Context, id, reason, customReason string) (*models.Ad, error) {
	var ad models.Ad
	body := decisionBody{Reason: reason, CustomReason: customReason}
	if err := c.do(ctx, http.MethodPost, "/ads/"+url.PathEscape(id)+"/request-changes", nil, body, &ad); err != nil {
		return nil, err
	}
	return &ad, nil
}

func periodQuery(period models.StatsPeriod) url.Values {
	query := url.Values{}
	query.Set("period", string(period))
	return query
}

// StatsSummary loads the aggregate summary for a period.
func (c *Client) StatsSummary(ctx context.Context, period models.StatsPeriod) (*models.StatsSummary, error) {
	var summary models.StatsSummary
	if err := c.do(ctx, http.MethodGet, "/stats/summary", periodQuery(period), nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ActivityChart loads the per-day decision counts for a period.
func (c *Client) ActivityChart(ctx context.Context, period models.StatsPeriod) ([]models.ActivityPoint, error) {
	var points []models.ActivityPoint
	if err := c.do(ctx, http.MethodGet, "/stats/chart/activity", periodQuery(period), nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// DecisionsChart loads the decision totals for a period.
func (c *Client) DecisionsChart(ctx context.Context, period models.StatsPeriod) (*models.DecisionTotals, error) {
	var totals models.DecisionTotals
	if err := c.do(ctx, http.MethodGet, "/stats/chart/decisions", periodQuery(period), nil, &totals); err != nil {
		return nil, err
	}
	return &totals, nil
}

// CategoriesChart loads per-category review counts for a period.
func (c *Client) CategoriesChart(ctx context.Context, period models.StatsPeriod) (map[string]int, error) {
	counts := make(map[string]int)
	if err := c.do(ctx, http.MethodGet, "/stats/chart/categories", periodQuery(period), nil, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// ExportStats downloads the stats export as an opaque binary payload.
func (c *Client) ExportStats(ctx context.Context, format models.ExportFormat, period models.StatsPeriod) ([]byte, error) {
	c.ratelimiter.Take()

	query := url.Values{}
	query.Set("format", string(format))
	query.Set("period", string(period))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats/export?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("moderation api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}
