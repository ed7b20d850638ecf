package query

import (
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// Table holds the article rows of every dataset.
const Table = "articles"

// CaseFoldFunc is the SQL function lower-casing text with full unicode rules.
// SQLite datasets must register it on every connection.
const CaseFoldFunc = "casefold"

// ArticleColumns are selected, in order, by page queries.
var ArticleColumns = []string{
	ColumnID, ColumnSource, ColumnTitle, ColumnURL, ColumnPublished, ColumnScrapedAt, ColumnCategory,
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Statement is rendered SQL plus its positional arguments.
type Statement struct {
	SQL  string
	Args []any
}

// Listing bundles the count and page statements of one FilterSpec.
type Listing struct {
	Count Statement
	Page  Statement
}

// Builder renders FilterSpecs into SQL.
type Builder struct {
	now func() time.Time
}

// NewBuilder returns a Builder reading the clock through now; nil means time.Now.
func NewBuilder(now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{now: now}
}

// Listing renders the count and page queries, sharing one recency cutoff.
func (b *Builder) Listing(f FilterSpec) (Listing, error) {
	where := Where(f.Predicates(b.now()))

	count := sq.Select("COUNT(*)").From(Table)
	page := sq.Select(ArticleColumns...).From(Table)
	if len(where) > 0 {
		count = count.Where(where)
		page = page.Where(where)
	}

	countSQL, countArgs, err := count.ToSql()
	if err != nil {
		return Listing{}, fmt.Errorf("build count query: %w", err)
	}

	pageSQL, pageArgs, err := page.
		OrderBy(ColumnPublished + " DESC").
		Limit(uint64(max(f.PerPage, 1))).
		Offset(uint64(f.Offset())).
		ToSql()
	if err != nil {
		return Listing{}, fmt.Errorf("build page query: %w", err)
	}

	return Listing{
		Count: Statement{SQL: countSQL, Args: countArgs},
		Page:  Statement{SQL: pageSQL, Args: pageArgs},
	}, nil
}

// Where ANDs the predicates into a squirrel condition. An empty list matches every row.
func Where(preds []Predicate) sq.And {
	where := make(sq.And, 0, len(preds))
	for _, p := range preds {
		switch p.Kind {
		case Contains:
			pattern := "%" + likeEscaper.Replace(strings.ToLower(p.Value)) + "%"
			where = append(where, sq.Expr(CaseFoldFunc+"("+p.Column+`) LIKE ? ESCAPE '\'`, pattern))
		case Equals:
			where = append(where, sq.Eq{p.Column: p.Value})
		case AtLeast:
			where = append(where, sq.GtOrEq{p.Column: p.Value})
		}
	}
	return where
}
