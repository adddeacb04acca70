package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/tutorbridge-backend/internal/platform/envutil"
)

// SearchHit is one raw provider result before relevance scoring.
type SearchHit struct {
	Title   string
	URL     string
	Snippet string
	Score   float64
}

type SearchProvider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int, domains []string) ([]SearchHit, error)
}

// NewSearchProviderFromEnv picks Tavily when TAVILY_API_KEY is set and the
// DuckDuckGo instant answer API otherwise.
func NewSearchProviderFromEnv(client *http.Client) SearchProvider {
	if client == nil {
		client = &http.Client{Timeout: envutil.Duration("WEB_SEARCH_TIMEOUT", 15*time.Second)}
	}
	if key := envutil.String("TAVILY_API_KEY", ""); key != "" {
		return &Tavily{APIKey: key, BaseURL: "https://api.tavily.com", Client: client}
	}
	return &DuckDuckGo{BaseURL: "https://api.duckduckgo.com", Client: client}
}

type Tavily struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func (t *Tavily) Name() string { return "tavily" }

type tavilyRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string   `json:"title"`
		URL     string   `json:"url"`
		Content string   `json:"content"`
		Score   *float64 `json:"score"`
	} `json:"results"`
}

func (t *Tavily) Search(ctx context.Context, query string, maxResults int, domains []string) ([]SearchHit, error) {
	if domains == nil {
		domains = []string{}
	}
	body, err := json.Marshal(tavilyRequest{
		APIKey:         t.APIKey,
		Query:          query,
		SearchDepth:    "advanced",
		MaxResults:     maxResults,
		IncludeDomains: domains,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(t.BaseURL, "/")+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out tavilyResponse
	if err := doJSON(t.Client, req, &out); err != nil {
		return nil, fmt.Errorf("tavily search: %w", err)
	}
	hits := make([]SearchHit, 0, len(out.Results))
	for _, r := range out.Results {
		score := 0.5
		if r.Score != nil {
			score = *r.Score
		}
		hits = append(hits, SearchHit{Title: r.Title, URL: r.URL, Snippet: r.Content, Score: score})
	}
	return hits, nil
}

type DuckDuckGo struct {
	BaseURL string
	Client  *http.Client
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	Results       []ddgTopic `json:"Results"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int, _ []string) ([]SearchHit, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(d.BaseURL, "/")+"/?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request: %w", err)
	}
	var out ddgResponse
	if err := doJSON(d.Client, req, &out); err != nil {
		return nil, fmt.Errorf("duckduckgo search: %w", err)
	}

	hits := []SearchHit{}
	add := func(title, link, snippet string) {
		if link == "" || len(hits) >= maxResults {
			return
		}
		hits = append(hits, SearchHit{Title: title, URL: link, Snippet: snippet, Score: 0.5})
	}
	if out.AbstractURL != "" {
		add(out.Heading, out.AbstractURL, out.AbstractText)
	}
	var walk func([]ddgTopic)
	walk = func(topics []ddgTopic) {
		for _, t := range topics {
			if len(t.Topics) > 0 {
				walk(t.Topics)
				continue
			}
			title := t.Text
			if i := strings.Index(title, " - "); i > 0 {
				title = title[:i]
			}
			add(title, t.FirstURL, t.Text)
		}
	}
	walk(out.Results)
	walk(out.RelatedTopics)
	return hits, nil
}

func doJSON(client *http.Client, req *http.Request, out any) error {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
