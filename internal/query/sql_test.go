package query_test

import (
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/mundus/backend/internal/query"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
}

func TestListingWithoutFilters(t *testing.T) {
	listing, err := query.NewBuilder(fixedClock).Listing(query.FilterSpec{Page: 1, PerPage: 10})
	require.NoError(t, err)

	require.Equal(t, "SELECT COUNT(*) FROM articles", listing.Count.SQL)
	require.Empty(t, listing.Count.Args)
	require.Equal(t,
		"SELECT id, source, title, url, published, scraped_at, AI_tag FROM articles ORDER BY published DESC LIMIT 10 OFFSET 0",
		listing.Page.SQL)
	require.Empty(t, listing.Page.Args)
}

func TestListingAllFilters(t *testing.T) {
	spec := query.FilterSpec{
		Search:       "Climate",
		Source:       "DR",
		Category:     "Environment",
		Page:         3,
		PerPage:      5,
		RecencyHours: 2,
	}
	listing, err := query.NewBuilder(fixedClock).Listing(spec)
	require.NoError(t, err)

	wantWhere := `WHERE (casefold(title) LIKE ? ESCAPE '\' AND source = ? AND AI_tag = ? AND published >= ?)`
	wantArgs := []any{"%climate%", "DR", "Environment", "2025-03-10T10:00:00"}

	require.Equal(t, "SELECT COUNT(*) FROM articles "+wantWhere, listing.Count.SQL)
	require.Equal(t, wantArgs, listing.Count.Args)
	require.Equal(t,
		"SELECT id, source, title, url, published, scraped_at, AI_tag FROM articles "+wantWhere+" ORDER BY published DESC LIMIT 5 OFFSET 10",
		listing.Page.SQL)
	require.Equal(t, wantArgs, listing.Page.Args)
}

func TestListingEscapesLikeWildcards(t *testing.T) {
	listing, err := query.NewBuilder(fixedClock).Listing(query.FilterSpec{Search: `50%_off\`, Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Equal(t, []any{`%50\%\_off\\%`}, listing.Count.Args)
}

func TestListingSharesCutoffBetweenQueries(t *testing.T) {
	calls := 0
	clock := func() time.Time {
		calls++
		return fixedClock().Add(time.Duration(calls) * time.Minute)
	}
	listing, err := query.NewBuilder(clock).Listing(query.FilterSpec{RecencyHours: 1, Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, listing.Count.Args, listing.Page.Args)
}

func TestListingHugePageKeepsOffsetPositive(t *testing.T) {
	listing, err := query.NewBuilder(fixedClock).Listing(query.FilterSpec{Page: math.MaxInt, PerPage: 10})
	require.NoError(t, err)
	require.Equal(t,
		"SELECT id, source, title, url, published, scraped_at, AI_tag FROM articles ORDER BY published DESC LIMIT 10 OFFSET "+strconv.Itoa(math.MaxInt),
		listing.Page.SQL)
}
