package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// NASA EONET v3 events endpoint. Category reference:
// https://eonet.gsfc.nasa.gov/docs/v3#categories
const defaultBaseURL = "https://eonet.gsfc.nasa.gov/api/v3/events"

// IndiaBBox is the approximate bounding box for India:
// lon_min, lat_min, lon_max, lat_max.
var IndiaBBox = BBox{68, 6, 98, 38}

// BBox is a geographic bounding box in lon_min, lat_min, lon_max, lat_max
// order, as the EONET API expects.
type BBox [4]float64

func (b BBox) String() string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// Query selects open natural events updated within the past Days.
type Query struct {
	Days     int    `json:"days"`
	Category string `json:"category,omitempty"` // e.g. severeStorms, wildfires
	Limit    int    `json:"limit"`
	BBox     *BBox  `json:"bbox,omitempty"`
}

func (q Query) withDefaults() Query {
	if q.Days <= 0 {
		q.Days = 7
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	return q
}

// Event is one satellite-observed natural event.
type Event struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Category      string  `json:"category"`
	LastUpdateUTC string  `json:"last_update_utc"`
	Latitude      float64 `json:"latitude,omitempty"`
	Longitude     float64 `json:"longitude,omitempty"`
	Link          string  `json:"link"`
}

// Result is the events adapter's success payload.
type Result struct {
	Count  int     `json:"count"`
	Events []Event `json:"events"`
}

// Client queries the NASA EONET natural-event feed.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
	}
}

func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// OpenEvents fetches ongoing events matching the query.
func (c *Client) OpenEvents(ctx context.Context, q Query) (Result, error) {
	q = q.withDefaults()

	params := url.Values{
		"status": {"open"},
		"days":   {strconv.Itoa(q.Days)},
		"limit":  {strconv.Itoa(q.Limit)},
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.BBox != nil {
		params.Set("bbox", q.BBox.String())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("events request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("EONET API error: status %d: %s", resp.StatusCode, body)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("decode events response: %w", err)
	}

	out := make([]Event, 0, len(body.Events))
	for _, ev := range body.Events {
		event := Event{
			ID:    ev.ID,
			Title: ev.Title,
			Link:  ev.Link,
		}
		if len(ev.Categories) > 0 {
			event.Category = ev.Categories[0].ID
		}
		// The last geometry point is the most recent observed position.
		if len(ev.Geometry) > 0 {
			last := ev.Geometry[len(ev.Geometry)-1]
			event.LastUpdateUTC = last.Date
			if len(last.Coordinates) == 2 {
				event.Longitude = last.Coordinates[0]
				event.Latitude = last.Coordinates[1]
			}
		}
		out = append(out, event)
	}

	return Result{Count: len(out), Events: out}, nil
}

// EONET API response types.

type response struct {
	Events []event `json:"events"`
}

type event struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Link       string `json:"link"`
	Categories []struct {
		ID string `json:"id"`
	} `json:"categories"`
	Geometry []struct {
		Date        string    `json:"date"`
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
}
