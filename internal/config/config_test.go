package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8012, cfg.HTTPPort)
	assert.Equal(t, "http://localhost:9200", cfg.ElasticsearchURL)
	assert.Equal(t, "romapi_resources", cfg.ElasticsearchIndex)
	assert.Equal(t, "redis", cfg.CacheBackend)
	assert.Equal(t, 5*time.Minute, cfg.ResultTTL)
	assert.Equal(t, time.Hour, cfg.SuggestionTTL)
	assert.Equal(t, "search.analytics", cfg.AnalyticsTopic)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.InDelta(t, 0.3, cfg.PersonalizationWeight, 0.001)
	assert.Equal(t, int64(30), cfg.SuggestRateLimit)
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("SEARCH_HTTP_PORT", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_InvalidCacheBackend(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "memcached")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cache backend")
}

func TestLoad_InvalidPersonalizationWeight(t *testing.T) {
	t.Setenv("PERSONALIZATION_WEIGHT", "1.5")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "personalization weight")
}

func TestLoad_CustomElasticsearchURL(t *testing.T) {
	t.Setenv("ELASTICSEARCH_URL", "http://es.prod:9200")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://es.prod:9200", cfg.ElasticsearchURL)
}

func TestLoad_MemoryCacheBackend(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "memory")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.CacheBackend)
}

func TestLoad_KafkaBrokersList(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
}
