package geo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Client resolves street addresses to coordinates through an external
// geocoding API. Lookups are best-effort: callers fall back to neutral
// scoring defaults when no location can be resolved.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client

	mu    sync.RWMutex
	cache map[string]Point
}

// NewClient creates a geocoding client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache: make(map[string]Point),
	}
}

type geocodeResponse struct {
	Results []struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"results"`
}

// Geocode resolves an address to a coordinate pair. Results are cached for
// the lifetime of the client; repeated lookups of the same address are free.
func (c *Client) Geocode(address string) (*Point, error) {
	c.mu.RLock()
	if p, ok := c.cache[address]; ok {
		c.mu.RUnlock()
		return &p, nil
	}
	c.mu.RUnlock()

	endpoint := fmt.Sprintf("%s/geocode?q=%s&key=%s", c.baseURL, url.QueryEscape(address), c.apiKey)
	resp, err := c.client.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to call geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("geocoder returned status code: %d", resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}
	if len(body.Results) == 0 {
		return nil, fmt.Errorf("no geocoding result for address")
	}

	p := Point{Lat: body.Results[0].Lat, Lng: body.Results[0].Lng}
	c.mu.Lock()
	c.cache[address] = p
	c.mu.Unlock()
	return &p, nil
}

// GeocodeOrNil resolves an address, logging and returning nil on failure so
// a missing location never aborts the caller.
func (c *Client) GeocodeOrNil(address string) *Point {
	p, err := c.Geocode(address)
	if err != nil {
		log.Warn().Err(err).Msg("geocoding failed; proceeding without location")
		return nil
	}
	return p
}
