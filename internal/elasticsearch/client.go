// Package elasticsearch serves country datasets stored as Elasticsearch indices.
//
// Each country lives in its own index whose documents carry the columns of the
// SQLite datasets (id, source, title, url, published, scraped_at, AI_tag).
// title, source and AI_tag are expected to be keyword fields.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/DeafMist/mundus/backend/internal/dataset"
	"github.com/DeafMist/mundus/backend/internal/models"
	"github.com/DeafMist/mundus/backend/internal/query"
)

// maxTermBuckets bounds the distinct sources and categories returned per dataset.
const maxTermBuckets = 10000

// maxResultWindow is the index.max_result_window default; deeper pages are rejected by the cluster.
const maxResultWindow = 10000

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// Client wraps go-elasticsearch with the read-only queries of a country dataset.
type Client struct {
	es  *elasticsearch.Client
	log *slog.Logger
	now func() time.Time
}

// New instantiates the Elasticsearch client.
func New(addr string, logger *slog.Logger) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{addr},
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{es: es, log: logger, now: time.Now}, nil
}

// WithClock replaces the clock used for recency cutoffs.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// Ping checks if Elasticsearch is available.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}

	return nil
}

// Health reports whether the cluster answers health requests.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.es.Cluster.Health(c.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster health bad: %s", strings.TrimSpace(string(data)))
	}
	return nil
}

// Open implements dataset.Opener. The shared client stays open; the handle is request scoped.
func (c *Client) Open(_ context.Context, index string) (dataset.Dataset, error) {
	return &Index{client: c, name: index}, nil
}

// Index is a dataset backed by one Elasticsearch index.
type Index struct {
	client *Client
	name   string
}

type articleDoc struct {
	ID        int64   `json:"id"`
	Source    *string `json:"source"`
	Title     *string `json:"title"`
	URL       *string `json:"url"`
	Published *string `json:"published"`
	ScrapedAt *string `json:"scraped_at"`
	Category  *string `json:"AI_tag"`
}

func (d articleDoc) article() models.Article {
	return models.Article{
		ID:        d.ID,
		Source:    d.Source,
		Title:     d.Title,
		URL:       d.URL,
		Published: d.Published,
		ScrapedAt: d.ScrapedAt,
		Category:  d.Category,
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source articleDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations struct {
		Values struct {
			Buckets []struct {
				Key string `json:"key"`
			} `json:"buckets"`
		} `json:"values"`
	} `json:"aggregations"`
}

// BoolQuery renders predicates as filters of a bool query.
func BoolQuery(preds []query.Predicate) map[string]any {
	if len(preds) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}

	filters := make([]map[string]any, 0, len(preds))
	for _, p := range preds {
		switch p.Kind {
		case query.Contains:
			filters = append(filters, map[string]any{
				"wildcard": map[string]any{
					p.Column: map[string]any{
						"value":            "*" + wildcardEscaper.Replace(p.Value) + "*",
						"case_insensitive": true,
					},
				},
			})
		case query.Equals:
			filters = append(filters, map[string]any{
				"term": map[string]any{p.Column: p.Value},
			})
		case query.AtLeast:
			filters = append(filters, map[string]any{
				"range": map[string]any{
					p.Column: map[string]any{"gte": p.Value},
				},
			})
		}
	}

	return map[string]any{
		"bool": map[string]any{"filter": filters},
	}
}

// ListArticles returns one page of matching articles, newest first, and the total match count.
func (i *Index) ListArticles(ctx context.Context, spec query.FilterSpec) ([]models.Article, int, error) {
	from, size := spec.Offset(), max(spec.PerPage, 1)
	if from > maxResultWindow-size {
		// Past the result window only the total is requested.
		from, size = 0, 0
	}
	body := map[string]any{
		"from":             from,
		"size":             size,
		"track_total_hits": true,
		"query":            BoolQuery(spec.Predicates(i.client.now())),
		"sort": []map[string]any{
			{query.ColumnPublished: map[string]any{"order": "desc"}},
		},
	}

	parsed, err := i.search(ctx, body)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}

	articles := make([]models.Article, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		articles = append(articles, hit.Source.article())
	}
	return articles, parsed.Hits.Total.Value, nil
}

// GetArticle looks up one article by id.
func (i *Index) GetArticle(ctx context.Context, id int64) (models.Article, error) {
	body := map[string]any{
		"size": 1,
		"query": map[string]any{
			"term": map[string]any{query.ColumnID: id},
		},
	}

	parsed, err := i.search(ctx, body)
	if err != nil {
		return models.Article{}, fmt.Errorf("get article %d: %w", id, err)
	}
	if len(parsed.Hits.Hits) == 0 {
		return models.Article{}, models.ErrNotFound
	}
	return parsed.Hits.Hits[0].Source.article(), nil
}

// ListSources returns the distinct publishers of the index in ascending order.
func (i *Index) ListSources(ctx context.Context) ([]string, error) {
	return i.terms(ctx, query.ColumnSource)
}

// ListCategories returns the distinct categories in ascending order. Missing values are skipped.
func (i *Index) ListCategories(ctx context.Context) ([]string, error) {
	return i.terms(ctx, query.ColumnCategory)
}

// Close is a no-op: the underlying client lives for the whole process.
func (i *Index) Close() error { return nil }

func (i *Index) terms(ctx context.Context, field string) ([]string, error) {
	body := map[string]any{
		"size": 0,
		"aggs": map[string]any{
			"values": map[string]any{
				"terms": map[string]any{
					"field": field,
					"size":  maxTermBuckets,
					"order": map[string]any{"_key": "asc"},
				},
			},
		},
	}

	parsed, err := i.search(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("list %s values: %w", field, err)
	}

	out := make([]string, 0, len(parsed.Aggregations.Values.Buckets))
	for _, b := range parsed.Aggregations.Values.Buckets {
		out = append(out, b.Key)
	}
	return out, nil
}

func (i *Index) search(ctx context.Context, body map[string]any) (*searchResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	es := i.client.es
	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(i.name),
		es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	i.client.log.Debug("elasticsearch search",
		slog.String("index", i.name),
		slog.Int("hits", len(parsed.Hits.Hits)),
	)
	return &parsed, nil
}
