package seismic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// USGS fdsnws event service. Parameter reference:
// https://earthquake.usgs.gov/fdsnws/event/1/
const defaultBaseURL = "https://earthquake.usgs.gov/fdsnws/event/1/query"

// Query bounds an earthquake search around a point.
type Query struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusKM     float64 `json:"radius_km"`
	Days         int     `json:"days"`
	MinMagnitude float64 `json:"min_magnitude"`
}

func (q Query) withDefaults() Query {
	if q.RadiusKM <= 0 {
		q.RadiusKM = 500
	}
	if q.Days <= 0 {
		q.Days = 7
	}
	if q.MinMagnitude <= 0 {
		q.MinMagnitude = 4.0
	}
	return q
}

// Quake is one seismic event near the queried point.
type Quake struct {
	ID             string    `json:"id"`
	Magnitude      float64   `json:"magnitude"`
	Place          string    `json:"place"`
	Time           time.Time `json:"time_utc"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	DepthKM        float64   `json:"depth_km"`
	TsunamiWarning bool      `json:"tsunami_warning"`
	DetailsURL     string    `json:"details_url"`
}

// Result is the seismic adapter's success payload.
type Result struct {
	Count  int     `json:"count"`
	Quakes []Quake `json:"earthquakes"`
}

// Client queries the USGS earthquake catalog.
type Client struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
		now:        time.Now,
	}
}

func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// RecentNearPoint fetches recent events around a point, most recent first.
func (c *Client) RecentNearPoint(ctx context.Context, q Query) (Result, error) {
	q = q.withDefaults()

	end := c.now().UTC()
	start := end.Add(-time.Duration(q.Days) * 24 * time.Hour)

	params := url.Values{
		"format":       {"geojson"},
		"starttime":    {start.Format("2006-01-02T15:04:05")},
		"endtime":      {end.Format("2006-01-02T15:04:05")},
		"latitude":     {strconv.FormatFloat(q.Latitude, 'f', -1, 64)},
		"longitude":    {strconv.FormatFloat(q.Longitude, 'f', -1, 64)},
		"maxradiuskm":  {strconv.FormatFloat(q.RadiusKM, 'f', -1, 64)},
		"minmagnitude": {strconv.FormatFloat(q.MinMagnitude, 'f', -1, 64)},
		"orderby":      {"time"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("seismic request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("USGS API error: status %d: %s", resp.StatusCode, body)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("decode seismic response: %w", err)
	}

	quakes := make([]Quake, 0, len(body.Features))
	for _, f := range body.Features {
		// GeoJSON coordinates are [lon, lat, depth].
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		quake := Quake{
			ID:             f.ID,
			Magnitude:      f.Properties.Mag,
			Place:          f.Properties.Place,
			Latitude:       f.Geometry.Coordinates[1],
			Longitude:      f.Geometry.Coordinates[0],
			TsunamiWarning: f.Properties.Tsunami != 0,
			DetailsURL:     f.Properties.URL,
		}
		if len(f.Geometry.Coordinates) > 2 {
			quake.DepthKM = f.Geometry.Coordinates[2]
		}
		if f.Properties.Time > 0 {
			quake.Time = time.UnixMilli(f.Properties.Time).UTC()
		}
		quakes = append(quakes, quake)
	}

	return Result{Count: len(quakes), Quakes: quakes}, nil
}

// USGS GeoJSON response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID         string `json:"id"`
	Properties struct {
		Mag     float64 `json:"mag"`
		Place   string  `json:"place"`
		Time    int64   `json:"time"`
		Tsunami int     `json:"tsunami"`
		URL     string  `json:"url"`
	} `json:"properties"`
	Geometry struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
}
