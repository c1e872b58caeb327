package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Classification labels a satellite image, e.g. cyclone_visible with a
// confidence plus per-label scores.
type Classification struct {
	Label      string             `json:"label"`
	Confidence float64            `json:"confidence"`
	AllScores  map[string]float64 `json:"all_scores"`
}

// Client fetches an image by URL and submits it to an external inference
// endpoint. The model itself is an opaque collaborator; this client only
// speaks its request/response contract.
type Client struct {
	inferenceURL string
	httpClient   *http.Client
}

func NewClient(inferenceURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		inferenceURL: inferenceURL,
		httpClient:   httpClient,
	}
}

// Configured reports whether an inference endpoint is set.
func (c *Client) Configured() bool {
	return c.inferenceURL != ""
}

// AnalyzeImageURL downloads the image and classifies it.
func (c *Client) AnalyzeImageURL(ctx context.Context, imageURL string) (Classification, error) {
	if !c.Configured() {
		return Classification{}, fmt.Errorf("classifier inference endpoint is not configured")
	}

	imageBytes, contentType, err := c.fetchImage(ctx, imageURL)
	if err != nil {
		return Classification{}, fmt.Errorf("failed to fetch image from URL: %w", err)
	}

	return c.Classify(ctx, imageBytes, contentType)
}

// Classify submits raw image bytes to the inference endpoint.
func (c *Client) Classify(ctx context.Context, imageBytes []byte, contentType string) (Classification, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.inferenceURL, bytes.NewReader(imageBytes))
	if err != nil {
		return Classification{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Classification{}, fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Label      string             `json:"label"`
		Confidence float64            `json:"confidence"`
		AllScores  map[string]float64 `json:"all_scores"`
		Error      string             `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Classification{}, fmt.Errorf("decode classifier response: %w", err)
	}
	if body.Error != "" {
		return Classification{}, fmt.Errorf("classifier error: %s", body.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return Classification{}, fmt.Errorf("classifier error: status %d", resp.StatusCode)
	}

	return Classification{
		Label:      body.Label,
		Confidence: body.Confidence,
		AllScores:  body.AllScores,
	}, nil
}

func (c *Client) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("status %d fetching image", resp.StatusCode)
	}

	// 10 MiB cap keeps a hostile URL from exhausting memory.
	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}
