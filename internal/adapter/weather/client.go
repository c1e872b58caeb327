package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Report is the current-conditions payload for one city, in metric units.
type Report struct {
	City         string  `json:"city"`
	TemperatureC float64 `json:"temperature_c"`
	FeelsLikeC   float64 `json:"feels_like_c"`
	HumidityPct  int     `json:"humidity_pct"`
	PressureHPA  int     `json:"pressure_hpa"`
	WindSpeedMPS float64 `json:"wind_speed_mps"`
	Description  string  `json:"description"`
}

// Client queries the OpenWeatherMap current-weather API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
	}
}

// WithBaseURL overrides the API endpoint, used by tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// CurrentByCity fetches current conditions for a city name. All failures are
// returned as errors; the client never panics past its boundary.
func (c *Client) CurrentByCity(ctx context.Context, city string) (Report, error) {
	if c.apiKey == "" {
		return Report{}, fmt.Errorf("OpenWeatherMap API key is not configured")
	}

	params := url.Values{
		"appid": {c.apiKey},
		"q":     {city},
		"units": {"metric"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Report{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Message == "" {
			apiErr.Message = "unknown error"
		}
		return Report{}, fmt.Errorf("OWM API error: status %d: %s", resp.StatusCode, apiErr.Message)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Report{}, fmt.Errorf("decode weather response: %w", err)
	}

	report := Report{
		City:         body.Name,
		TemperatureC: body.Main.Temp,
		FeelsLikeC:   body.Main.FeelsLike,
		HumidityPct:  body.Main.Humidity,
		PressureHPA:  body.Main.Pressure,
		WindSpeedMPS: body.Wind.Speed,
		Description:  "N/A",
	}
	if len(body.Weather) > 0 && body.Weather[0].Description != "" {
		report.Description = body.Weather[0].Description
	}
	return report, nil
}

// OpenWeatherMap API response types.

type response struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}
