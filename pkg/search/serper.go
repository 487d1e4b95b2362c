package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const serperEndpoint = "https://google.serper.dev/search"

type SerperClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewSerperClient(apiKey string) *SerperClient {
	return &SerperClient{
		apiKey:     apiKey,
		baseURL:    serperEndpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *SerperClient) Name() string {
	return "Serper"
}

func (c *SerperClient) Search(query string, limit int) ([]Result, error) {
	body, err := json.Marshal(map[string]interface{}{
		"q":   query,
		"num": limit,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper search: unexpected status %d", resp.StatusCode)
	}

	var raw serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("serper decode: %w", err)
	}

	results := make([]Result, 0, len(raw.Organic))
	for i, item := range raw.Organic {
		if item.Link == "" {
			continue
		}
		results = append(results, Result{
			URL:     item.Link,
			Title:   item.Title,
			Snippet: item.Snippet,
			Rank:    i + 1,
		})
		if len(results) == limit {
			break
		}
	}

	return results, nil
}

type serperResponse struct {
	Organic []serperOrganic `json:"organic"`
}

type serperOrganic struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}
