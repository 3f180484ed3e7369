package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/logger"
)

const defaultMaxResults = 8

// SearchCommand queries the DuckDuckGo HTML endpoint and parses the result
// list. No API key required.
type SearchCommand struct {
	cfg    config.WebPluginConfig
	logger *logger.Logger
	client *http.Client
}

type SearchArgs struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

// SearchResult is one parsed search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

func NewSearchCommand(cfg config.WebPluginConfig, log *logger.Logger) *SearchCommand {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &SearchCommand{
		cfg:    cfg,
		logger: log,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *SearchCommand) Name() string {
	return "web_search"
}

func (c *SearchCommand) Description() string {
	return "Searches the web and returns a list of results with title, URL and snippet."
}

func (c *SearchCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "The search query.",
			},
			"max_results": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of results to return.",
				"default":     defaultMaxResults,
			},
		},
		"required": []string{"query"},
	}
}

func (c *SearchCommand) Execute(ctx context.Context, args string) (string, error) {
	var searchArgs SearchArgs
	if err := json.Unmarshal([]byte(args), &searchArgs); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}

	if strings.TrimSpace(searchArgs.Query) == "" {
		return "", fmt.Errorf("query is required")
	}

	limit := searchArgs.MaxResults
	if limit <= 0 {
		limit = c.cfg.MaxResults
	}
	if limit <= 0 {
		limit = defaultMaxResults
	}

	results, err := c.search(ctx, searchArgs.Query, limit)
	if err != nil {
		return "", err
	}

	out, err := json.MarshalIndent(map[string]interface{}{
		"query":   searchArgs.Query,
		"results": results,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	return string(out), nil
}

func (c *SearchCommand) search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	base := c.cfg.SearchBaseURL
	if base == "" {
		base = "https://html.duckduckgo.com/html/"
	}

	searchURL := base + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	return parseResults(doc, limit), nil
}

func parseResults(doc *goquery.Document, limit int) []SearchResult {
	results := make([]SearchResult, 0, limit)

	doc.Find(".result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		link := s.Find(".result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}

		results = append(results, SearchResult{
			Title:   strings.TrimSpace(link.Text()),
			URL:     decodeResultURL(href),
			Snippet: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
		})
		return len(results) < limit
	})

	return results
}

// decodeResultURL unwraps DuckDuckGo's redirect links, which carry the
// target in a uddg query parameter.
func decodeResultURL(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func (c *SearchCommand) userAgent() string {
	if c.cfg.UserAgent != "" {
		return c.cfg.UserAgent
	}
	return "pygpt/1.0"
}
