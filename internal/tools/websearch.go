package tools

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/tutorbridge-backend/internal/platform/ctxutil"
)

const (
	snippetLimit      = 300
	defaultMaxResults = 5
	maxParallelSearch = 4
)

var educationalDomains = []string{
	"edu", "ac.uk", "gov", "ibo.org", "cambridge", "collegeboard",
	"khanacademy", "teacherspayteachers", "edutopia", "nctm.org",
}

var searchTypeKeywords = map[string][]string{
	"educational_resources": {"lesson", "curriculum", "teaching", "resource"},
	"teaching_strategies":   {"strategy", "pedagogy", "method", "approach"},
}

type SearchResult struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Snippet        string  `json:"snippet"`
	RelevanceScore float64 `json:"relevance_score"`
	Domain         string  `json:"domain"`
	Query          string  `json:"query"`
}

func (k *Toolkit) searchTools() []Tool {
	return []Tool{
		{
			Name: "web_search",
			Description: "Search the web for curriculum standards, teaching strategies and resources beyond your training data. " +
				"Pass several related queries in queries to search them together.",
			Parameters: object(map[string]any{
				"query":          str("Search query, e.g. IGCSE Mathematics quadratic equations syllabus"),
				"queries":        stringList("Additional queries searched concurrently"),
				"search_type":    enum("Query enhancement (default educational_resources)", "educational_resources", "teaching_strategies", "current_events", "general"),
				"max_results":    map[string]any{"type": "integer", "description": "1-10 results (default 5)"},
				"filter_domains": stringList("Only these domains, e.g. ibo.org"),
			}, "query"),
			Handler: k.webSearch,
		},
	}
}

// EnhanceQuery appends search-type terms to q.
func EnhanceQuery(q, searchType string) string {
	switch searchType {
	case "educational_resources":
		return q + " teaching resources lesson plans curriculum"
	case "teaching_strategies":
		return q + " teaching strategies pedagogy best practices"
	case "current_events":
		return q + " recent news education"
	default:
		return q
	}
}

// Relevance boosts educational domains by 0.2 and search-type keywords by
// 0.1, capped at 1.0.
func Relevance(hit SearchHit, searchType string) float64 {
	score := hit.Score
	link := strings.ToLower(hit.URL)
	for _, d := range educationalDomains {
		if strings.Contains(link, d) {
			score += 0.2
			break
		}
	}
	text := strings.ToLower(hit.Title + " " + hit.Snippet)
	for _, w := range searchTypeKeywords[searchType] {
		if strings.Contains(text, w) {
			score += 0.1
			break
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		parts := strings.Split(raw, "/")
		if len(parts) > 2 {
			return parts[2]
		}
		return raw
	}
	return u.Host
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func (k *Toolkit) webSearch(ctx context.Context, args Args) (Result, error) {
	log := k.toolLog("web_search")
	query := args.String("query", "")
	searchType := args.String("search_type", "educational_resources")
	maxResults := args.Int("max_results", defaultMaxResults)
	if maxResults < 1 || maxResults > 10 {
		maxResults = defaultMaxResults
	}
	domains := args.Strings("filter_domains")

	queries := []string{query}
	for _, q := range args.Strings("queries") {
		if q != query {
			queries = append(queries, q)
		}
	}

	var (
		mu      sync.Mutex
		results []SearchResult
		errs    []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelSearch)
	for _, q := range queries {
		g.Go(func() error {
			hits, err := k.search.Search(gctx, EnhanceQuery(q, searchType), maxResults, domains)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// One failed query must not cancel its siblings.
				errs = append(errs, err)
				return nil
			}
			for _, h := range hits {
				results = append(results, SearchResult{
					Title:          h.Title,
					URL:            h.URL,
					Snippet:        truncateRunes(h.Snippet, snippetLimit),
					RelevanceScore: Relevance(h, searchType),
					Domain:         domainOf(h.URL),
					Query:          q,
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) == len(queries) {
		log.Warn("web search failed", append(ctxutil.TraceFields(ctx), "provider", k.search.Name(), "error", errors.Join(errs...))...)
		return FailWith(fmt.Sprintf("web search failed: %v", errors.Join(errs...)), Result{"results": []SearchResult{}, "count": 0}), nil
	}
	if len(errs) > 0 {
		log.Warn("some web searches failed", "provider", k.search.Name(), "failed", len(errs), "queries", len(queries))
	}

	results = dedupeResults(results)
	sort.SliceStable(results, func(i, j int) bool { return results[i].RelevanceScore > results[j].RelevanceScore })
	if len(results) > maxResults*len(queries) {
		results = results[:maxResults*len(queries)]
	}
	return Succeed(Result{
		"results":     results,
		"count":       len(results),
		"query":       query,
		"search_type": searchType,
		"provider":    k.search.Name(),
		"message":     fmt.Sprintf("Found %d results for '%s'", len(results), query),
	}), nil
}

func dedupeResults(in []SearchResult) []SearchResult {
	seen := map[string]bool{}
	out := make([]SearchResult, 0, len(in))
	for _, r := range in {
		key := strings.TrimRight(strings.ToLower(r.URL), "/")
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
