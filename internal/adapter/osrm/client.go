// Package osrm implements domain.DriveTimeProvider against the OSRM route API.
package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/delivery-radius-service/internal/domain"
)

// DefaultBaseURL is the public OSRM demo server.
const DefaultBaseURL = "https://router.project-osrm.org"

const (
	userAgent      = "delivery-radius-service/1.0"
	maxAttempts    = 3
	initialBackoff = 250 * time.Millisecond
	maxBackoff     = 2 * time.Second
)

var (
	errNoRoute     = errors.New("no route found")
	errRateLimited = errors.New("rate limited")
)

// Client requests one route per coordinate pair, paced by a rate limiter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates an OSRM client allowing ratePerSecond route requests.
func NewClient(baseURL string, timeout time.Duration, ratePerSecond float64, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		logger:  logger,
	}
}

// DriveTimes resolves every pair in order. A failed pair is reported with an
// error status; only a cancelled or expired context fails the call, and the
// response then holds the pairs resolved so far.
func (c *Client) DriveTimes(ctx context.Context, pairs []domain.CoordinatePair) (domain.DriveTimeResponse, error) {
	resp := domain.DriveTimeResponse{
		Results: make([]domain.DriveTimeOutcome, 0, len(pairs)),
		Errors:  []string{},
	}
	for i, p := range pairs {
		if err := c.limiter.Wait(ctx); err != nil {
			return resp, fmt.Errorf("osrm rate limiter: %w", err)
		}

		minutes, err := c.route(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return resp, ctx.Err()
			}
			c.logger.Warn("osrm route failed", "index", i, "error", err)
			resp.Results = append(resp.Results, domain.DriveTimeOutcome{
				Index:   i,
				Status:  domain.StatusError,
				Message: "No route found or request failed",
			})
			continue
		}
		resp.Results = append(resp.Results, domain.DriveTimeOutcome{
			Index:   i,
			Minutes: &minutes,
			Status:  domain.StatusOK,
		})
	}
	return resp, nil
}

// route returns the drive time in minutes rounded to 0.1, retrying on 429.
func (c *Client) route(ctx context.Context, p domain.CoordinatePair) (float64, error) {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		minutes, err := c.doRequest(ctx, p)
		if !errors.Is(err, errRateLimited) || attempt == maxAttempts {
			return minutes, err
		}
		if !retry.SleepWithContext(ctx, backoff) {
			return 0, ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

func (c *Client) doRequest(ctx context.Context, p domain.CoordinatePair) (float64, error) {
	// OSRM uses lng,lat order.
	u := fmt.Sprintf("%s/route/v1/driving/%s,%s;%s,%s?overview=false",
		c.baseURL, coord(p.SourceLng), coord(p.SourceLat), coord(p.DestLng), coord(p.DestLat))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("osrm route request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return 0, errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("osrm API error: status %d: %s", resp.StatusCode, body)
	}

	var routeResp response
	if err := json.NewDecoder(resp.Body).Decode(&routeResp); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if routeResp.Code != "Ok" || len(routeResp.Routes) == 0 {
		return 0, fmt.Errorf("%w: code %q", errNoRoute, routeResp.Code)
	}
	return math.Round(routeResp.Routes[0].Duration/60*10) / 10, nil
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// OSRM API response types.

type response struct {
	Code   string      `json:"code"`
	Routes []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Duration float64 `json:"duration"` // seconds
	Distance float64 `json:"distance"` // meters
}
