// Package dataset maps country codes to isolated, read-only article datasets.
package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/DeafMist/mundus/backend/internal/models"
	"github.com/DeafMist/mundus/backend/internal/query"
)

// Dataset is a read-only handle on one country's articles.
// Handles are request scoped: open one per request and Close it on every path.
type Dataset interface {
	ListArticles(ctx context.Context, spec query.FilterSpec) ([]models.Article, int, error)
	GetArticle(ctx context.Context, id int64) (models.Article, error)
	ListSources(ctx context.Context) ([]string, error)
	ListCategories(ctx context.Context) ([]string, error)
	Close() error
}

// Opener opens the dataset stored at a backend-specific location.
type Opener interface {
	Open(ctx context.Context, location string) (Dataset, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, location string) (Dataset, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, location string) (Dataset, error) {
	return f(ctx, location)
}

// Files lists the SQLite file of every supported country.
var Files = map[string]string{
	"swe": "swedish_news_URLs.db",
	"pol": "polish_news_URLs.db",
	"fin": "finnish_news_URLs.db",
	"den": "danish_news_URLs.db",
}

// FileLocations resolves Files inside dir.
func FileLocations(dir string) map[string]string {
	out := make(map[string]string, len(Files))
	for code, name := range Files {
		out[code] = filepath.Join(dir, name)
	}
	return out
}

// IndexLocations names one Elasticsearch index per supported country, e.g. articles-swe.
func IndexLocations(prefix string) map[string]string {
	out := make(map[string]string, len(Files))
	for code := range Files {
		out[code] = prefix + "-" + code
	}
	return out
}

// Registry is the closed set of supported datasets.
type Registry struct {
	locations map[string]string
	opener    Opener
}

// NewRegistry builds a registry over locations keyed by lower-case country code.
func NewRegistry(locations map[string]string, opener Opener) *Registry {
	normalized := make(map[string]string, len(locations))
	for code, loc := range locations {
		normalized[strings.ToLower(code)] = loc
	}
	return &Registry{locations: normalized, opener: opener}
}

// Location returns where the dataset of code lives. Codes are case-insensitive.
func (r *Registry) Location(code string) (string, error) {
	loc, ok := r.locations[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return "", &models.UnsupportedDatasetError{Code: code}
	}
	return loc, nil
}

// Open returns a fresh handle on the dataset of code.
func (r *Registry) Open(ctx context.Context, code string) (Dataset, error) {
	loc, err := r.Location(code)
	if err != nil {
		return nil, err
	}
	ds, err := r.opener.Open(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", strings.ToLower(code), err)
	}
	return ds, nil
}

// Codes lists the supported country codes in ascending order.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.locations))
	for code := range r.locations {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
