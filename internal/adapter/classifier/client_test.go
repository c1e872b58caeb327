package classifier

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte("jpeg-bytes"), body)

		w.Write([]byte(`{"label": "cyclone_visible", "confidence": 0.93, "all_scores": {"cyclone_visible": 0.93, "clear": 0.07}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, &http.Client{Timeout: 5 * time.Second})
	res, err := c.Classify(context.Background(), []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "cyclone_visible", res.Label)
	assert.Equal(t, 0.93, res.Confidence)
	assert.Equal(t, 0.07, res.AllScores["clear"])
}

func TestClassify_BodyLevelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"error": "model not loaded"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.Classify(context.Background(), []byte("x"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestAnalyzeImageURL_FetchesThenClassifies(t *testing.T) {
	imageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer imageSrv.Close()

	inferSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"label": "flood_visible", "confidence": 0.8}`))
	}))
	defer inferSrv.Close()

	c := NewClient(inferSrv.URL, nil)
	res, err := c.AnalyzeImageURL(context.Background(), imageSrv.URL)
	require.NoError(t, err)
	assert.Equal(t, "flood_visible", res.Label)
}

func TestAnalyzeImageURL_Unconfigured(t *testing.T) {
	c := NewClient("", nil)
	assert.False(t, c.Configured())
	_, err := c.AnalyzeImageURL(context.Background(), "https://example.com/a.jpg")
	require.Error(t, err)
}
