package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const defaultBaseURL = "https://newsapi.org/v2/everything"

// Query is a NewsAPI everything search.
type Query struct {
	Query    string `json:"search_query"`
	Language string `json:"language,omitempty"`
	PageSize int    `json:"page_size"`
	SortBy   string `json:"sort_by,omitempty"`
}

func (q Query) withDefaults() Query {
	if q.Language == "" {
		q.Language = "en"
	}
	if q.PageSize <= 0 {
		q.PageSize = 10
	}
	if q.SortBy == "" {
		q.SortBy = "relevancy"
	}
	return q
}

// Article is one headline returned by the news adapter.
type Article struct {
	Title       string `json:"title"`
	Source      string `json:"source"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
}

// Result is the news adapter's success payload.
type Result struct {
	TotalResults int       `json:"total_results"`
	Articles     []Article `json:"articles"`
}

// Client queries NewsAPI.
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

func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// Search fetches articles matching the query.
func (c *Client) Search(ctx context.Context, q Query) (Result, error) {
	if c.apiKey == "" {
		return Result{}, fmt.Errorf("NewsAPI key is not configured")
	}
	q = q.withDefaults()

	params := url.Values{
		"q":        {q.Query},
		"language": {q.Language},
		"pageSize": {strconv.Itoa(q.PageSize)},
		"sortBy":   {q.SortBy},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("news request: %w", err)
	}
	defer resp.Body.Close()

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("decode news response: %w", err)
	}

	// NewsAPI reports failures in the body with status != ok.
	if body.Status != "ok" {
		return Result{}, fmt.Errorf("NewsAPI error: %s - %s", body.Code, body.Message)
	}

	articles := make([]Article, 0, len(body.Articles))
	for _, a := range body.Articles {
		articles = append(articles, Article{
			Title:       a.Title,
			Source:      a.Source.Name,
			Description: a.Description,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
		})
	}

	return Result{TotalResults: body.TotalResults, Articles: articles}, nil
}

// NewsAPI response types.

type response struct {
	Status       string `json:"status"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}
