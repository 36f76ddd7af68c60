package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"food-rescue-api-server/internal/models"
)

// ErrNoRoute is returned when the routing service answers without a usable route.
var ErrNoRoute = errors.New("no route found")

// Resolver wraps one outbound call to a routing service.
type Resolver interface {
	RouteDistanceKm(ctx context.Context, from, to models.Coordinate) (float64, error)
}

// OSRMResolver asks an OSRM server for the driving distance between two points.
type OSRMResolver struct {
	BaseURL string
	Client  *http.Client
}

// NewOSRMResolver builds a resolver whose every call is bounded by timeout.
func NewOSRMResolver(baseURL string, timeout time.Duration) *OSRMResolver {
	return &OSRMResolver{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // metres
	} `json:"routes"`
}

// RouteDistanceKm implements Resolver.
func (r *OSRMResolver) RouteDistanceKm(ctx context.Context, from, to models.Coordinate) (float64, error) {
	// OSRM takes lon,lat pairs.
	url := fmt.Sprintf("%s/route/v1/driving/%v,%v;%v,%v?overview=false",
		r.BaseURL, from.Longitude, from.Latitude, to.Longitude, to.Latitude)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build osrm request: %w", err)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("osrm request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read osrm response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("osrm returned status %d", resp.StatusCode)
	}
	// Rate-limited public instances answer with an HTML page and a 200.
	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("<")) {
		return 0, errors.New("osrm returned a non-JSON body")
	}

	var parsed osrmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("decode osrm response: %w", err)
	}
	if len(parsed.Routes) == 0 {
		return 0, ErrNoRoute
	}
	return parsed.Routes[0].Distance / 1000, nil
}
