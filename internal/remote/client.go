// Package remote talks to the meal API: meal CRUD, calorie estimation and
// RDA calculation.
package remote

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

	"github.com/pageza/caltrack/web/internal/metrics"
	"github.com/pageza/caltrack/web/internal/models"
)

const maxErrorBody = 512

// Client issues one request per call with no retries.
type Client struct {
	baseURL string
	http    *http.Client
	signer  *tokenSigner
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenSecret attaches a signed bearer token naming the user to every call.
func WithTokenSecret(secret string) Option {
	return func(c *Client) {
		if secret != "" {
			c.signer = newTokenSigner(secret)
		}
	}
}

// WithTimeout sets the transport timeout; there is no other deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient creates a client for an API rooted at baseURL, e.g. http://host/api.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid meal API base URL %q", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DailyTotals fetches today's nutrient totals.
func (c *Client) DailyTotals(ctx context.Context, userID string) (*models.DailyTotals, error) {
	var totals models.DailyTotals
	u := c.endpoint(userQuery(userID), "daily_totals", "")
	if err := c.do(ctx, "daily_totals", http.MethodGet, u, userID, nil, &totals); err != nil {
		return nil, err
	}
	return &totals, nil
}

// DailyMeals fetches today's meals in server order.
func (c *Client) DailyMeals(ctx context.Context, userID string) ([]models.Meal, error) {
	var meals []models.Meal
	u := c.endpoint(userQuery(userID), "daily_meals", "")
	if err := c.do(ctx, "daily_meals", http.MethodGet, u, userID, nil, &meals); err != nil {
		return nil, err
	}
	if meals == nil {
		meals = []models.Meal{}
	}
	return meals, nil
}

// CalorieCount estimates and logs a free-form meal description.
func (c *Client) CalorieCount(ctx context.Context, mealText, userID string) (*models.MealResult, error) {
	var result models.MealResult
	u := c.endpoint(userQuery(userID), "calorie_count", mealText)
	if err := c.do(ctx, "calorie_count", http.MethodGet, u, userID, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteMeal removes a logged meal.
func (c *Client) DeleteMeal(ctx context.Context, mealID models.MealID, userID string) error {
	u := c.endpoint(userQuery(userID), "meal", mealID.String())
	return c.do(ctx, "delete_meal", http.MethodDelete, u, userID, nil, nil)
}

// CalculateRDA asks the API for daily targets matching a profile.
func (c *Client) CalculateRDA(ctx context.Context, userID string, req models.RDARequest) (*models.RDAValues, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var raw rdaResponse
	u := c.endpoint(nil, "calculate-rda")
	if err := c.do(ctx, "calculate_rda", http.MethodPost, u, userID, body, &raw); err != nil {
		return nil, err
	}

	values, err := raw.values()
	if err != nil {
		return nil, err
	}
	if err := values.Validate(); err != nil {
		return nil, err
	}
	return values, nil
}

// rdaResponse uses pointers so missing and null fields can be told apart
// from zero.
type rdaResponse struct {
	Calories      *float64 `json:"calories"`
	Protein       *float64 `json:"protein"`
	Fat           *float64 `json:"fat"`
	Fiber         *float64 `json:"fiber"`
	Carbohydrates *float64 `json:"carbohydrates"`
}

func (r rdaResponse) values() (*models.RDAValues, error) {
	fields := []struct {
		name  string
		value *float64
	}{
		{"calories", r.Calories},
		{"protein", r.Protein},
		{"fat", r.Fat},
		{"fiber", r.Fiber},
		{"carbohydrates", r.Carbohydrates},
	}
	for _, f := range fields {
		if f.value == nil {
			return nil, fmt.Errorf("rda response is missing required field: %s", f.name)
		}
	}
	return &models.RDAValues{
		Calories:      *r.Calories,
		Protein:       *r.Protein,
		Fat:           *r.Fat,
		Fiber:         *r.Fiber,
		Carbohydrates: *r.Carbohydrates,
	}, nil
}

// HistoricalTotals fetches per-day totals for the last days days.
func (c *Client) HistoricalTotals(ctx context.Context, userID string, days int) ([]models.DayTotals, error) {
	q := userQuery(userID)
	q.Set("days", strconv.Itoa(days))

	var totals []models.DayTotals
	u := c.endpoint(q, "historical_totals", "")
	if err := c.do(ctx, "historical_totals", http.MethodGet, u, userID, nil, &totals); err != nil {
		return nil, err
	}
	return totals, nil
}

func userQuery(userID string) url.Values {
	return url.Values{"user_id": []string{userID}}
}

// endpoint joins escaped path segments onto the base URL. An empty trailing
// segment yields a trailing slash.
func (c *Client) endpoint(query url.Values, segments ...string) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = url.PathEscape(s)
	}
	u := c.baseURL + "/" + strings.Join(parts, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, op, method, rawURL, userID string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.signer != nil {
		token, err := c.signer.Sign(userID)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.IncUpstream(op, "network_error")
		return fmt.Errorf("failed to send %s request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.IncUpstream(op, "http_error")
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Printf("[RemoteClient] %s request failed with status %d: %s", op, resp.StatusCode, string(bodyBytes))
		return &HTTPError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(bodyBytes)),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			metrics.IncUpstream(op, "decode_error")
			return fmt.Errorf("failed to decode %s response: %w", op, err)
		}
	}

	metrics.IncUpstream(op, "ok")
	return nil
}
