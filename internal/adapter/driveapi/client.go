// Package driveapi implements domain.DriveTimeProvider against a remote
// drive-time service exposing POST /api/drive-times.
package driveapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/delivery-radius-service/internal/domain"
)

// Request is the body of a drive-time request.
type Request struct {
	Pairs []domain.CoordinatePair `json:"pairs"`
}

// Client posts coordinate batches to a drive-time service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// DriveTimes sends the batch in one request. Any transport, status, or
// decoding failure fails the whole batch.
func (c *Client) DriveTimes(ctx context.Context, pairs []domain.CoordinatePair) (domain.DriveTimeResponse, error) {
	body, err := json.Marshal(Request{Pairs: pairs})
	if err != nil {
		return domain.DriveTimeResponse{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/drive-times", bytes.NewReader(body))
	if err != nil {
		return domain.DriveTimeResponse{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.DriveTimeResponse{}, fmt.Errorf("drive time request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return domain.DriveTimeResponse{}, fmt.Errorf("drive time API error: status %d: %s", resp.StatusCode, msg)
	}

	var out domain.DriveTimeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.DriveTimeResponse{}, fmt.Errorf("decode response: %w", err)
	}
	c.logger.Debug("drive time batch resolved", "pairs", len(pairs), "results", len(out.Results))
	return out, nil
}
