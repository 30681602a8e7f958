package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/advista/advista-server-go/internal/errors"
	"github.com/advista/advista-server-go/internal/model"
)

const defaultBaseURL = "https://serpapi.com/search.json"

// Search engines. Audience and competitor queries go to forums for sentiment,
// the rest use general search.
const (
	EngineGoogle       = "google"
	EngineGoogleForums = "google_forums"
	EngineYouTube      = "youtube"
)

// EngineForCategory maps a research category to its search engine.
func EngineForCategory(category string) string {
	switch category {
	case model.CategoryAudience, model.CategoryCompetitor:
		return EngineGoogleForums
	default:
		return EngineGoogle
	}
}

// SerpClient calls the SerpAPI HTTP endpoint.
type SerpClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewSerpClient(apiKey string, timeout time.Duration) *SerpClient {
	return &SerpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search runs a single query against the given engine and returns the raw
// JSON response body.
func (c *SerpClient) Search(ctx context.Context, query string, engine string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("engine", engine)
	params.Set("output", "json")
	if engine == EngineYouTube {
		params.Set("search_query", query)
	} else {
		params.Set("q", query)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().
			Err(err).
			Str("engine", engine).
			Dur("elapsed", elapsed).
			Msg("serpapi request error")
		return nil, apperrors.External("serpapi", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.External("serpapi", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Str("engine", engine).
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("serpapi request failed")
		return nil, apperrors.External("serpapi", fmt.Errorf("status %d", resp.StatusCode))
	}

	// SerpAPI returns 200 with an error field on some failures.
	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.Error != "" {
		return nil, apperrors.External("serpapi", fmt.Errorf("%s", probe.Error))
	}

	log.Debug().
		Str("engine", engine).
		Dur("elapsed", elapsed).
		Msg("serpapi search completed")

	return body, nil
}

// RunCategorySearch executes one category query and wraps the outcome.
// Failures are captured in the result rather than returned, so one bad
// category does not abort the batch.
func (c *SerpClient) RunCategorySearch(ctx context.Context, cq model.CategoryQuery) model.SearchQueryResult {
	engine := EngineForCategory(cq.Category)
	result := model.SearchQueryResult{
		Category: cq.Category,
		Query:    cq.Query,
		Params:   map[string]any{"engine": engine},
	}

	body, err := c.Search(ctx, cq.Query, engine)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Response = body
	return result
}
