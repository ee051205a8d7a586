package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"companion-server/internal/config"
)

// SearchClient - клиент локального поискового прокси (SearXNG-совместимый
// JSON API). Результаты подмешиваются в контекст диалога.
type SearchClient interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// SearchResult - один результат веб-поиска.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Compile-time check to ensure implementation satisfies the interface.
var _ SearchClient = (*searchClient)(nil)

type searchClient struct {
	baseURL    string
	maxResults int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewSearchClient создает клиент поискового прокси.
func NewSearchClient(cfg config.SearchConfig, logger *zap.Logger) SearchClient {
	return &searchClient{
		baseURL:    cfg.BaseURL,
		maxResults: cfg.MaxResults,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
		logger: logger.Named("SearchClient"),
	}
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// Search runs a web search through the local proxy.
func (c *searchClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания поискового запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Search request failed", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("ошибка поискового запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("поисковый прокси вернул статус %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("ошибка разбора поискового ответа: %w", err)
	}

	results := parsed.Results
	if len(results) > c.maxResults {
		results = results[:c.maxResults]
	}
	c.logger.Debug("Search finished", zap.String("query", query), zap.Int("results", len(results)))
	return results, nil
}

// FormatSearchResults сворачивает результаты в текстовый блок для подмешивания
// в системный промпт.
func FormatSearchResults(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Relevant web search results:\n")
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, r.Title)
		if r.Content != "" {
			sb.WriteString(r.Content)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
