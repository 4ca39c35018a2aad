package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/romapi/search-service/internal/domain"
)

// buildIndexMapping returns the full JSON mapping for the resource index,
// including the French, English and multilingual analyzers the query
// builder targets, plus the edge n-gram autocomplete fields.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "french_analyzer": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding", "french_elision", "french_stop", "french_stemmer"]
        },
        "french_search_analyzer": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding", "french_elision", "french_stop"]
        },
        "english_analyzer": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding", "english_stop", "english_stemmer"]
        },
        "english_search_analyzer": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding", "english_stop"]
        },
        "multilingual_analyzer": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding"]
        },
        "autocomplete_analyzer": {
          "type": "custom",
          "tokenizer": "autocomplete_tokenizer",
          "filter": ["lowercase", "asciifolding"]
        },
        "autocomplete_search": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding"]
        }
      },
      "tokenizer": {
        "autocomplete_tokenizer": {
          "type": "edge_ngram",
          "min_gram": 2,
          "max_gram": 20,
          "token_chars": ["letter", "digit"]
        }
      },
      "filter": {
        "french_elision": {
          "type": "elision",
          "articles_case": true,
          "articles": ["l", "m", "t", "qu", "n", "s", "j", "d", "c", "lorsqu", "puisqu"]
        },
        "french_stop": {
          "type": "stop",
          "stopwords": "_french_"
        },
        "french_stemmer": {
          "type": "stemmer",
          "language": "light_french"
        },
        "english_stop": {
          "type": "stop",
          "stopwords": "_english_"
        },
        "english_stemmer": {
          "type": "stemmer",
          "language": "english"
        }
      },
      "normalizer": {
        "exact_normalizer": {
          "type": "custom",
          "filter": ["lowercase", "asciifolding"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id": {"type": "keyword"},
      "name": {
        "type": "text",
        "analyzer": "multilingual_analyzer",
        "fields": {
          "french": {"type": "text", "analyzer": "french_analyzer", "search_analyzer": "french_search_analyzer"},
          "english": {"type": "text", "analyzer": "english_analyzer", "search_analyzer": "english_search_analyzer"},
          "autocomplete": {"type": "text", "analyzer": "autocomplete_analyzer", "search_analyzer": "autocomplete_search"},
          "exact": {"type": "keyword", "normalizer": "exact_normalizer"},
          "keyword": {"type": "keyword"}
        }
      },
      "description": {
        "type": "text",
        "analyzer": "multilingual_analyzer",
        "fields": {
          "french": {"type": "text", "analyzer": "french_analyzer", "search_analyzer": "french_search_analyzer"},
          "english": {"type": "text", "analyzer": "english_analyzer", "search_analyzer": "english_search_analyzer"}
        }
      },
      "resourceType": {"type": "keyword"},
      "category": {
        "properties": {
          "id": {"type": "keyword"},
          "slug": {"type": "keyword"},
          "name": {
            "type": "text",
            "analyzer": "multilingual_analyzer",
            "fields": {
              "french": {"type": "text", "analyzer": "french_analyzer", "search_analyzer": "french_search_analyzer"},
              "english": {"type": "text", "analyzer": "english_analyzer", "search_analyzer": "english_search_analyzer"},
              "keyword": {"type": "keyword"}
            }
          }
        }
      },
      "plan": {"type": "keyword"},
      "pricing": {
        "properties": {
          "basePrice": {"type": "double"},
          "currency": {"type": "keyword"}
        }
      },
      "verified": {"type": "boolean"},
      "location": {"type": "geo_point"},
      "address": {
        "properties": {
          "street": {"type": "text", "analyzer": "multilingual_analyzer"},
          "city": {
            "type": "text",
            "analyzer": "multilingual_analyzer",
            "fields": {"keyword": {"type": "keyword"}}
          },
          "region": {
            "type": "text",
            "analyzer": "multilingual_analyzer",
            "fields": {"keyword": {"type": "keyword"}}
          },
          "country": {"type": "keyword"},
          "postalCode": {"type": "keyword"}
        }
      },
      "contact": {
        "properties": {
          "phone": {"type": "keyword"},
          "email": {"type": "keyword"},
          "website": {"type": "keyword"}
        }
      },
      "tags": {
        "type": "text",
        "analyzer": "multilingual_analyzer",
        "fields": {
          "french": {"type": "text", "analyzer": "french_analyzer", "search_analyzer": "french_search_analyzer"},
          "english": {"type": "text", "analyzer": "english_analyzer", "search_analyzer": "english_search_analyzer"},
          "keyword": {"type": "keyword"}
        }
      },
      "popularity": {"type": "double"},
      "rating": {"type": "double"},
      "language": {"type": "keyword"},
      "createdAt": {"type": "date"},
      "updatedAt": {"type": "date"}
    }
  }
}`
}

// EnsureIndex creates the resource index with its mapping if it does not
// already exist.
func (e *Engine) EnsureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists(
		[]string{e.indexName},
		e.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: check index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("elasticsearch: check index: unexpected status %s", res.Status())
	}

	createRes, err := e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(buildIndexMapping())),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: create index: %w", err)
	}
	defer func() { _ = createRes.Body.Close() }()

	if createRes.IsError() {
		return fmt.Errorf("elasticsearch: create index: unexpected status %s", createRes.Status())
	}

	e.logger.Info("elasticsearch index created", slog.String("index", e.indexName))
	return nil
}

// DeleteIndex removes the resource index. Used by integration tests.
func (e *Engine) DeleteIndex(ctx context.Context) error {
	res, err := e.client.Indices.Delete(
		[]string{e.indexName},
		e.client.Indices.Delete.WithContext(ctx),
		e.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: delete index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch: delete index: unexpected status %s", res.Status())
	}
	return nil
}

// IndexResource stores a single resource document, refreshing the index so
// it is immediately searchable.
func (e *Engine) IndexResource(ctx context.Context, doc *domain.ResourceDoc) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("elasticsearch: marshal document: %w", err)
	}

	res, err := e.client.Index(
		e.indexName,
		bytes.NewReader(data),
		e.client.Index.WithDocumentID(doc.ID),
		e.client.Index.WithRefresh("true"),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: index document: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch: index document: unexpected status %s", res.Status())
	}
	return nil
}

// DeleteResource removes a single resource document from the index.
func (e *Engine) DeleteResource(ctx context.Context, id string) error {
	res, err := e.client.Delete(
		e.indexName,
		id,
		e.client.Delete.WithRefresh("true"),
		e.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: delete document: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("elasticsearch: delete document: unexpected status %s", res.Status())
	}
	return nil
}
