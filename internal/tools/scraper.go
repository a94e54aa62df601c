package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
)

const (
	scrapeToolName  = "scrape_page"
	maxScrapedChars = 50000
	browserAgent    = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// ScraperTool reads the main article text of a web page.
type ScraperTool struct {
	UserAgent string
	Client    *http.Client
}

func NewScraperTool() *ScraperTool {
	return &ScraperTool{
		UserAgent: browserAgent,
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *ScraperTool) Name() string { return scrapeToolName }

func (s *ScraperTool) Description() string {
	return "Fetch an http(s) page and return its main article content as plain text."
}

func (s *ScraperTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Absolute http or https URL of the page",
			},
		},
		"required": []string{"url"},
	}
}

func (s *ScraperTool) Invoke(ctx context.Context, input string) Result {
	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return Fail(ErrInvalidInput, fmt.Sprintf("invalid input: %v", err))
	}
	if strings.TrimSpace(args.URL) == "" {
		return Fail(ErrMissingParameter, "url is required")
	}

	target, err := url.Parse(args.URL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return Fail(ErrInvalidInput, fmt.Sprintf("unsupported URL: %s", args.URL))
	}

	article, err := s.fetch(ctx, target)
	if err != nil {
		return Fail(ErrUpstream, err.Error())
	}
	return Ok(renderArticle(article))
}

func (s *ScraperTool) fetch(ctx context.Context, target *url.URL) (readability.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return readability.Article{}, errors.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", s.UserAgent)

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return readability.Article{}, errors.Wrap(err, "fetch page")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readability.Article{}, errors.Errorf("fetch page: status %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, target)
	if err != nil {
		return readability.Article{}, errors.Wrap(err, "extract article")
	}
	return article, nil
}

func renderArticle(article readability.Article) string {
	text := bluemonday.StrictPolicy().Sanitize(article.TextContent)
	if runes := []rune(text); len(runes) > maxScrapedChars {
		text = string(runes[:maxScrapedChars]) + "\n... (content truncated) ..."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n", article.Title)
	if article.Excerpt != "" {
		fmt.Fprintf(&b, "EXCERPT: %s\n", article.Excerpt)
	}
	b.WriteString("\n-- CONTENT --\n")
	b.WriteString(text)
	return b.String()
}
