package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return NewClient("test-key", &http.Client{Timeout: 5 * time.Second}).WithBaseURL(baseURL)
}

func TestCurrentByCity_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Kolkata", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"name": "Kolkata",
			"main": {"temp": 29.4, "feels_like": 33.1, "humidity": 85, "pressure": 1002},
			"wind": {"speed": 4.2},
			"weather": [{"description": "heavy intensity rain"}]
		}`))
	}))
	defer srv.Close()

	report, err := testClient(srv.URL).CurrentByCity(context.Background(), "Kolkata")
	require.NoError(t, err)

	assert.Equal(t, "Kolkata", report.City)
	assert.Equal(t, 29.4, report.TemperatureC)
	assert.Equal(t, 33.1, report.FeelsLikeC)
	assert.Equal(t, 85, report.HumidityPct)
	assert.Equal(t, 1002, report.PressureHPA)
	assert.Equal(t, 4.2, report.WindSpeedMPS)
	assert.Equal(t, "heavy intensity rain", report.Description)
}

func TestCurrentByCity_MissingDescriptionDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"name": "Delhi", "main": {"temp": 41.0}, "weather": []}`))
	}))
	defer srv.Close()

	report, err := testClient(srv.URL).CurrentByCity(context.Background(), "Delhi")
	require.NoError(t, err)
	assert.Equal(t, "N/A", report.Description)
}

func TestCurrentByCity_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"cod": "404", "message": "city not found"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).CurrentByCity(context.Background(), "Nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "city not found")
}

func TestCurrentByCity_MissingAPIKey(t *testing.T) {
	c := NewClient("", nil)
	_, err := c.CurrentByCity(context.Background(), "Kolkata")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
