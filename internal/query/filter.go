// Package query turns listing parameters into an AND-ed list of predicates
// and renders them into SQL for a country dataset.
package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DeafMist/mundus/backend/internal/models"
)

// CutoffLayout matches the naive local ISO-8601 timestamps stored in datasets.
// secondLayout is used instead when the microseconds are zero, as the scraper writes them.
const (
	CutoffLayout = "2006-01-02T15:04:05.000000"
	secondLayout = "2006-01-02T15:04:05"
)

// FormatCutoff renders t like the stored published values, dropping a zero fraction.
func FormatCutoff(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(secondLayout)
	}
	return t.Format(CutoffLayout)
}

// Limits bound the page size accepted from clients.
type Limits struct {
	DefaultPerPage int
	MaxPerPage     int
}

// DefaultLimits mirrors the API defaults.
var DefaultLimits = Limits{DefaultPerPage: 10, MaxPerPage: 100}

// FilterSpec is the request-scoped set of listing constraints.
// Empty strings disable a dimension; RecencyHours of 0 means no recency window.
type FilterSpec struct {
	Search       string
	Source       string
	Category     string
	Page         int
	PerPage      int
	RecencyHours int
}

// Parse reads a FilterSpec from untrusted query values.
// page and per_page below 1 are clamped to 1 and per_page is capped at limits.MaxPerPage.
// Non-integer numbers and a non-positive time window yield *models.InvalidFilterError.
func Parse(values url.Values, limits Limits) (FilterSpec, error) {
	if limits.DefaultPerPage <= 0 {
		limits.DefaultPerPage = DefaultLimits.DefaultPerPage
	}
	if limits.MaxPerPage <= 0 {
		limits.MaxPerPage = DefaultLimits.MaxPerPage
	}

	spec := FilterSpec{
		Search:   values.Get("search"),
		Source:   values.Get("source"),
		Category: values.Get("category"),
	}

	page, err := intParam(values, "page", 1)
	if err != nil {
		return FilterSpec{}, err
	}
	perPage, err := intParam(values, "per_page", limits.DefaultPerPage)
	if err != nil {
		return FilterSpec{}, err
	}
	hours, err := intParam(values, "time", 0)
	if err != nil {
		return FilterSpec{}, err
	}
	if values.Get("time") != "" && hours <= 0 {
		return FilterSpec{}, &models.InvalidFilterError{Field: "time", Value: values.Get("time")}
	}

	spec.PerPage = min(max(perPage, 1), limits.MaxPerPage)
	spec.Page = min(max(page, 1), math.MaxInt/spec.PerPage)
	spec.RecencyHours = hours
	return spec, nil
}

func intParam(values url.Values, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &models.InvalidFilterError{Field: key, Value: values.Get(key)}
	}
	return v, nil
}

// Offset is the number of matching rows skipped before the current page.
func (f FilterSpec) Offset() int {
	if f.Page <= 1 || f.PerPage <= 0 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.PerPage {
		return math.MaxInt
	}
	return (f.Page - 1) * f.PerPage
}

// TotalPages returns ceil(total / perPage).
func TotalPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// Kind identifies how a predicate compares a column against its value.
type Kind int

const (
	// Contains is a case-insensitive substring match.
	Contains Kind = iota
	// Equals is exact string equality.
	Equals
	// AtLeast is a lexicographic >= comparison.
	AtLeast
)

// Columns of the articles table.
const (
	ColumnID        = "id"
	ColumnSource    = "source"
	ColumnTitle     = "title"
	ColumnURL       = "url"
	ColumnPublished = "published"
	ColumnScrapedAt = "scraped_at"
	ColumnCategory  = "AI_tag"
)

// Predicate is one enabled filter dimension.
type Predicate struct {
	Kind   Kind
	Column string
	Value  string
}

// Predicates lists the enabled dimensions of f. now is read once to derive the recency cutoff.
func (f FilterSpec) Predicates(now time.Time) []Predicate {
	preds := make([]Predicate, 0, 4)
	if f.Search != "" {
		preds = append(preds, Predicate{Kind: Contains, Column: ColumnTitle, Value: f.Search})
	}
	if f.Source != "" {
		preds = append(preds, Predicate{Kind: Equals, Column: ColumnSource, Value: f.Source})
	}
	if f.Category != "" {
		preds = append(preds, Predicate{Kind: Equals, Column: ColumnCategory, Value: f.Category})
	}
	if f.RecencyHours > 0 {
		cutoff := now.Add(-time.Duration(f.RecencyHours) * time.Hour)
		preds = append(preds, Predicate{Kind: AtLeast, Column: ColumnPublished, Value: FormatCutoff(cutoff)})
	}
	return preds
}
