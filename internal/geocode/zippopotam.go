// Package geocode resolves US ZIP codes to coordinates using the
// zippopotam.us lookup API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/reusefull/reusefull/backend/matching-service/internal/models"
	"go.uber.org/zap"
)

// ErrMalformedResponse is returned when the provider answers with a body that
// does not carry a usable coordinate.
var ErrMalformedResponse = errors.New("malformed geocoder response")

const maxBodyBytes = 1 << 20

// Client looks up ZIP codes over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for baseURL (e.g. https://api.zippopotam.us/us).
// timeout bounds each lookup; zero means no client-side timeout.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type lookupResponse struct {
	PostCode string  `json:"post code"`
	Places   []place `json:"places"`
}

type place struct {
	Name      string `json:"place name"`
	State     string `json:"state abbreviation"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// Geocode returns the coordinate of the first place listed for zipCode, or
// nil when the provider does not know the ZIP code.
func (c *Client) Geocode(ctx context.Context, zipCode string) (*models.Coordinates, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(strings.TrimSpace(zipCode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode %s: %w", zipCode, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("geocode lookup",
		zap.String("zip_code", zipCode),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("geocode %s: unexpected status %d", zipCode, resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrMalformedResponse, err)
	}
	if len(body.Places) == 0 {
		return nil, nil
	}

	first := body.Places[0]
	lat, err := strconv.ParseFloat(strings.TrimSpace(first.Latitude), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: latitude %q", ErrMalformedResponse, first.Latitude)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(first.Longitude), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: longitude %q", ErrMalformedResponse, first.Longitude)
	}
	return &models.Coordinates{Latitude: lat, Longitude: lng}, nil
}
