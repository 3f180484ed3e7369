package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/logger"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 2 * 1024 * 1024
)

// FetchCommand retrieves a URL and renders the body as text, html, markdown
// or parsed JSON.
type FetchCommand struct {
	cfg    config.WebPluginConfig
	logger *logger.Logger
	client *http.Client
}

type FetchArgs struct {
	URL     string            `json:"url"`
	Format  string            `json:"format,omitempty"` // text | html | markdown | json
	Headers map[string]string `json:"headers,omitempty"`
	Timeout *int              `json:"timeout,omitempty"`
}

func NewFetchCommand(cfg config.WebPluginConfig, log *logger.Logger) *FetchCommand {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &FetchCommand{
		cfg:    cfg,
		logger: log,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *FetchCommand) Name() string {
	return "web_fetch"
}

func (c *FetchCommand) Description() string {
	return "Fetch content from a URL. Returns formatted content with status metadata."
}

func (c *FetchCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "The URL to fetch. Must start with http:// or https://",
			},
			"format": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"text", "html", "markdown", "json"},
				"default":     "text",
				"description": "Output format: 'text' (strips HTML tags), 'html' (raw HTML), 'markdown' (converts HTML to Markdown), or 'json' (parse JSON response).",
			},
			"headers": map[string]interface{}{
				"type":        "object",
				"description": "Optional HTTP headers.",
				"additionalProperties": map[string]interface{}{
					"type": "string",
				},
			},
			"timeout": map[string]interface{}{
				"type":        "integer",
				"description": "Timeout in seconds (1-120). Overrides the configured default.",
				"minimum":     1,
				"maximum":     120,
			},
		},
		"required": []string{"url"},
	}
}

func (c *FetchCommand) Execute(ctx context.Context, args string) (string, error) {
	var fetchArgs FetchArgs
	if err := json.Unmarshal([]byte(args), &fetchArgs); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}

	if fetchArgs.URL == "" {
		return "", fmt.Errorf("url is required")
	}
	if !strings.HasPrefix(fetchArgs.URL, "http://") && !strings.HasPrefix(fetchArgs.URL, "https://") {
		return "", fmt.Errorf("url must start with http:// or https://")
	}

	format := fetchArgs.Format
	if format == "" {
		format = "text"
	}
	switch format {
	case "text", "html", "markdown", "json":
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}

	client := c.client
	if fetchArgs.Timeout != nil {
		if *fetchArgs.Timeout < 1 || *fetchArgs.Timeout > 120 {
			return "", fmt.Errorf("timeout must be between 1 and 120 seconds")
		}
		client = &http.Client{Timeout: time.Duration(*fetchArgs.Timeout) * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchArgs.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept", "*/*")
	for name, value := range fetchArgs.Headers {
		req.Header.Set(name, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	maxBody := c.cfg.MaxResponseSize
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > maxBody {
		return "", fmt.Errorf("response too large: exceeds %d bytes limit", maxBody)
	}

	contentType := resp.Header.Get("Content-Type")
	content := string(body)

	switch {
	case format == "text" && strings.Contains(contentType, "text/html"):
		content = stripHTML(content)
	case format == "markdown" && strings.Contains(contentType, "text/html"):
		content = c.htmlToMarkdown(content)
	}

	result := map[string]interface{}{
		"url":         fetchArgs.URL,
		"status":      resp.StatusCode,
		"contentType": contentType,
		"length":      len(content),
		"content":     content,
	}

	if format == "json" {
		var jsonData interface{}
		if err := json.Unmarshal(body, &jsonData); err != nil {
			return "", fmt.Errorf("failed to parse JSON response: %w", err)
		}
		result["json"] = jsonData
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(out), nil
}

func (c *FetchCommand) userAgent() string {
	if c.cfg.UserAgent != "" {
		return c.cfg.UserAgent
	}
	return "pygpt/1.0"
}

var (
	reScript = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	reStyle  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	reTags   = regexp.MustCompile(`<[^>]+>`)
	reSpace  = regexp.MustCompile(`\s+`)
)

func stripHTML(html string) string {
	html = reScript.ReplaceAllString(html, "")
	html = reStyle.ReplaceAllString(html, "")
	html = reTags.ReplaceAllString(html, "\n")
	html = reSpace.ReplaceAllString(html, " ")
	return strings.TrimSpace(html)
}

var reExtraNewlines = regexp.MustCompile(`\n{3,}`)

func (c *FetchCommand) htmlToMarkdown(html string) string {
	converter := md.NewConverter("", true, &md.Options{
		HeadingStyle:    "atx",
		CodeBlockStyle:  "fenced",
		EmDelimiter:     "*",
		StrongDelimiter: "**",
	})

	converter.Keep("a", "img")

	empty := ""
	converter.AddRules(md.Rule{
		Filter: []string{"nav", "footer", "aside", "script", "style"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			return &empty
		},
	})

	markdown, err := converter.ConvertString(html)
	if err != nil {
		c.logger.Error("failed to convert HTML to Markdown", err)
		return stripHTML(html)
	}

	markdown = reExtraNewlines.ReplaceAllString(markdown, "\n\n")
	return strings.TrimSpace(markdown)
}
