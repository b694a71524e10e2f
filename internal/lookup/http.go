package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Harshitk-cp/begrippen/internal/domain"
)

const maxResponseBytes = 2 << 20

// HTTPProvider queries a JSON search API:
//
//	GET {base_url}?q=<term>&organisation=..&jurisdiction=..&legal_act=..&limit=5
//
// answering {"results": [{"title", "snippet", "url", "score"}]}.
type HTTPProvider struct {
	name    string
	baseURL string
	limit   int
	client  *http.Client
}

func NewHTTPProvider(name, baseURL string, client *http.Client) *HTTPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{name: name, baseURL: baseURL, limit: 5, client: client}
}

func (p *HTTPProvider) Name() string {
	return p.name
}

type searchResponse struct {
	Results []struct {
		Title   string   `json:"title"`
		Snippet string   `json:"snippet"`
		URL     string   `json:"url"`
		Score   *float64 `json:"score"`
	} `json:"results"`
}

func (p *HTTPProvider) Search(ctx context.Context, term string, scope domain.ContextRef) ([]domain.LookupHit, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, NewProviderError(ErrorInternal, p.name, "invalid base url", err)
	}
	q := u.Query()
	q.Set("q", term)
	q.Set("limit", strconv.Itoa(p.limit))
	if scope.Organisation != "" {
		q.Set("organisation", scope.Organisation)
	}
	if scope.Jurisdiction != "" {
		q.Set("jurisdiction", scope.Jurisdiction)
	}
	if scope.LegalAct != "" {
		q.Set("legal_act", scope.LegalAct)
	}
	u.RawQuery = q.Encode()

	body, err := fetch(ctx, p.client, p.name, u.String(), "application/json")
	if err != nil {
		if Category(err) == ErrorNotFound {
			return nil, nil
		}
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewProviderError(ErrorBadData, p.name, "decode search response", err)
	}

	hits := make([]domain.LookupHit, 0, len(resp.Results))
	for _, r := range resp.Results {
		score := 1.0
		if r.Score != nil {
			score = *r.Score
		}
		if score < 0 || score > 1 {
			return nil, NewProviderError(ErrorBadData, p.name, fmt.Sprintf("result score %v outside [0,1]", score), nil)
		}
		hits = append(hits, domain.LookupHit{
			Provider: p.name,
			Title:    r.Title,
			Snippet:  r.Snippet,
			URL:      r.URL,
			Score:    score,
		})
	}
	return hits, nil
}

// fetch performs a GET and maps transport failures and status codes onto the
// provider error taxonomy.
func fetch(ctx context.Context, client *http.Client, provider, target, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, NewProviderError(ErrorInternal, provider, "build request", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", "begrippen-lookup/1.0")

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewProviderError(ErrorTimeout, provider, "request timed out", err)
		}
		return nil, NewProviderError(ErrorOutage, provider, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewProviderError(ErrorNotFound, provider, "not found", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewProviderError(ErrorRateLimited, provider, "rate limited", nil)
	case resp.StatusCode >= 500:
		return nil, NewProviderError(ErrorOutage, provider, fmt.Sprintf("status %d", resp.StatusCode), nil)
	case resp.StatusCode >= 300:
		return nil, NewProviderError(ErrorBadData, provider, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, NewProviderError(ErrorOutage, provider, "read body", err)
	}
	return body, nil
}
