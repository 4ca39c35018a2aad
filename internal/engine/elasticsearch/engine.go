// Package elasticsearch adapts the engine.SearchEngine interface to an
// Elasticsearch cluster.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/internal/engine"
)

// DefaultIndexName is the resource index queried when none is configured.
const DefaultIndexName = "romapi_resources"

// Engine is an Elasticsearch-backed implementation of engine.SearchEngine.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

// esSearchResponse decodes Elasticsearch search responses.
type esSearchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID        string              `json:"_id"`
			Score     *float64            `json:"_score"`
			Source    domain.ResourceDoc  `json:"_source"`
			Sort      []float64           `json:"sort"`
			Highlight map[string][]string `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations engine.Aggregations `json:"aggregations"`
}

// esErrorResponse decodes Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// Config holds connection settings for the Elasticsearch adapter.
type Config struct {
	URL       string
	IndexName string
	Username  string
	Password  string
}

// New creates an Elasticsearch engine connected to the given cluster.
func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: failed to create client: %w", err)
	}

	return &Engine{
		client:    client,
		indexName: cfg.IndexName,
		logger:    logger,
	}, nil
}

// Search executes a rendered query document against the resource index.
func (e *Engine) Search(ctx context.Context, doc map[string]any) (*engine.Result, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, &engine.Error{Kind: classifyTransport(err), Op: "search", Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		var errResp esErrorResponse
		if decErr := json.NewDecoder(res.Body).Decode(&errResp); decErr == nil && errResp.Error.Type != "" {
			kind := classifyResponse(errResp.Error.Type, errResp.Error.Reason, errResp.Status)
			return nil, &engine.Error{
				Kind: kind,
				Op:   "search",
				Err:  fmt.Errorf("%s: %s", errResp.Error.Type, errResp.Error.Reason),
			}
		}
		return nil, &engine.Error{
			Kind: engine.KindUnknown,
			Op:   "search",
			Err:  fmt.Errorf("unexpected status %s", res.Status()),
		}
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, &engine.Error{Kind: engine.KindUnknown, Op: "search", Err: fmt.Errorf("decode response: %w", err)}
	}

	result := &engine.Result{
		Total:  esResp.Hits.Total.Value,
		TookMs: int64(esResp.Took),
		Aggs:   esResp.Aggregations,
		Hits:   make([]engine.Hit, 0, len(esResp.Hits.Hits)),
	}

	for _, hit := range esResp.Hits.Hits {
		score := 0.0
		if hit.Score != nil {
			score = *hit.Score
		}
		result.Hits = append(result.Hits, engine.Hit{
			ID:        hit.ID,
			Score:     score,
			Source:    hit.Source,
			Sort:      hit.Sort,
			Highlight: hit.Highlight,
		})
	}

	return result, nil
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// IndexHealth reports the cluster health of the resource index.
func (e *Engine) IndexHealth(ctx context.Context) (string, error) {
	res, err := e.client.Cluster.Health(
		e.client.Cluster.Health.WithIndex(e.indexName),
		e.client.Cluster.Health.WithContext(ctx),
	)
	if err != nil {
		return "", fmt.Errorf("elasticsearch index health: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return "", fmt.Errorf("elasticsearch index health: unexpected status %s", res.Status())
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(res.Body).Decode(&health); err != nil {
		return "", fmt.Errorf("elasticsearch index health: decode response: %w", err)
	}

	return health.Status, nil
}

// classifyTransport maps client-side errors (no response received) to kinds.
func classifyTransport(err error) engine.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return engine.KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return engine.KindTimeout
		}
		return engine.KindConnection
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return engine.KindTimeout
	case strings.Contains(msg, "connection") || strings.Contains(msg, "connect") ||
		strings.Contains(msg, "econnrefused") || strings.Contains(msg, "network"):
		return engine.KindConnection
	default:
		return engine.KindUnknown
	}
}

// classifyResponse maps engine error responses to kinds using the error type,
// reason, and HTTP status.
func classifyResponse(errType, reason string, status int) engine.ErrorKind {
	t := strings.ToLower(errType)
	r := strings.ToLower(reason)

	switch {
	case strings.Contains(t, "index_not_found") || strings.Contains(r, "no such index"):
		return engine.KindIndexMissing
	case strings.Contains(t, "timeout") || strings.Contains(r, "timed out"):
		return engine.KindTimeout
	case strings.Contains(t, "parsing_exception") ||
		strings.Contains(t, "query_shard_exception") ||
		strings.Contains(r, "failed to parse"):
		return engine.KindQueryParsing
	case strings.Contains(t, "cluster_block") || strings.Contains(r, "blocked by"):
		return engine.KindClusterBlocked
	case strings.Contains(t, "search_phase_execution") || strings.Contains(r, "failed to execute phase"):
		return engine.KindPhaseExecution
	case strings.Contains(t, "circuit_breaking_exception") ||
		strings.Contains(t, "too_many_requests") ||
		status == 429 || status == 503:
		return engine.KindResourceExhaustion
	default:
		return engine.KindUnknown
	}
}
