// Package sqlite serves country datasets stored as read-only SQLite files.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/DeafMist/mundus/backend/internal/dataset"
	"github.com/DeafMist/mundus/backend/internal/models"
	"github.com/DeafMist/mundus/backend/internal/query"
)

// DriverName is go-sqlite3 with the case folding function registered on every connection.
const DriverName = "sqlite3_mundus"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc(query.CaseFoldFunc, caseFold, true)
		},
	})
}

// caseFold lower-cases with unicode rules; SQLite's LOWER only folds ASCII.
func caseFold(v any) string {
	switch t := v.(type) {
	case string:
		return strings.ToLower(t)
	case []byte:
		return strings.ToLower(string(t))
	default:
		return ""
	}
}

// Dataset runs read-only queries against one SQLite file.
type Dataset struct {
	db      *sqlx.DB
	builder *query.Builder
}

// NewDataset wraps an already opened database.
func NewDataset(db *sqlx.DB, builder *query.Builder) *Dataset {
	if builder == nil {
		builder = query.NewBuilder(nil)
	}
	return &Dataset{db: db, builder: builder}
}

// Open connects read-only to the SQLite file at path and verifies it can be read.
func Open(ctx context.Context, path string, builder *query.Builder) (*Dataset, error) {
	db, err := sqlx.Open(DriverName, "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	return NewDataset(db, builder), nil
}

// Opener opens SQLite datasets for a dataset.Registry.
type Opener struct {
	builder *query.Builder
}

// NewOpener returns an Opener whose datasets share builder.
func NewOpener(builder *query.Builder) *Opener {
	return &Opener{builder: builder}
}

// Open implements dataset.Opener.
func (o *Opener) Open(ctx context.Context, location string) (dataset.Dataset, error) {
	return Open(ctx, location, o.builder)
}

// ListArticles returns one page of matching articles, newest first, and the total match count.
func (d *Dataset) ListArticles(ctx context.Context, spec query.FilterSpec) ([]models.Article, int, error) {
	listing, err := d.builder.Listing(spec)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := d.db.GetContext(ctx, &total, listing.Count.SQL, listing.Count.Args...); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	articles := make([]models.Article, 0, spec.PerPage)
	if err := d.db.SelectContext(ctx, &articles, listing.Page.SQL, listing.Page.Args...); err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}

	return articles, total, nil
}

// GetArticle looks up one article by id.
func (d *Dataset) GetArticle(ctx context.Context, id int64) (models.Article, error) {
	stmt, args, err := sq.Select(query.ArticleColumns...).
		From(query.Table).
		Where(sq.Eq{query.ColumnID: id}).
		ToSql()
	if err != nil {
		return models.Article{}, fmt.Errorf("build article query: %w", err)
	}

	var article models.Article
	if err := d.db.GetContext(ctx, &article, stmt, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Article{}, models.ErrNotFound
		}
		return models.Article{}, fmt.Errorf("get article %d: %w", id, err)
	}
	return article, nil
}

// ListSources returns the distinct publishers of the dataset in ascending order.
func (d *Dataset) ListSources(ctx context.Context) ([]string, error) {
	b := sq.Select(query.ColumnSource).
		Distinct().
		From(query.Table).
		Where(sq.NotEq{query.ColumnSource: nil}).
		OrderBy(query.ColumnSource)
	return d.selectStrings(ctx, b, "sources")
}

// ListCategories returns the distinct non-null categories in ascending order.
func (d *Dataset) ListCategories(ctx context.Context) ([]string, error) {
	b := sq.Select(query.ColumnCategory).
		Distinct().
		From(query.Table).
		Where(sq.NotEq{query.ColumnCategory: nil}).
		OrderBy(query.ColumnCategory)
	return d.selectStrings(ctx, b, "categories")
}

func (d *Dataset) selectStrings(ctx context.Context, b sq.SelectBuilder, what string) ([]string, error) {
	stmt, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", what, err)
	}

	out := make([]string, 0)
	if err := d.db.SelectContext(ctx, &out, stmt, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", what, err)
	}
	return out, nil
}

// Close releases the connection.
func (d *Dataset) Close() error {
	return d.db.Close()
}
