package preview_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/DeafMist/mundus/backend/internal/models"
	"github.com/DeafMist/mundus/backend/internal/preview"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func servePages(t *testing.T, pages map[string]func(w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != preview.UserAgent {
			http.Error(w, "unexpected user agent", http.StatusBadRequest)
			return
		}
		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		page(w)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func html(body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, body)
	}
}

func TestExtractPreviewMetaDescription(t *testing.T) {
	doc := parse(t, `<html><head>
		<meta name="description" content="Regeringen presenterar budgeten.">
		<meta property="og:image" content="https://img.example/hero.jpg">
	</head><body><p>First paragraph.</p></body></html>`)

	p := preview.ExtractPreview(doc, "https://news.example/article/1")
	require.Equal(t, "Regeringen presenterar budgeten.", p.Description)
	require.NotNil(t, p.Image)
	require.Equal(t, "https://img.example/hero.jpg", *p.Image)
	require.Nil(t, p.Favicon)
}

func TestExtractPreviewFallsBackToFirstParagraph(t *testing.T) {
	doc := parse(t, "<html><body><div><p>Opening line\n   second  line.</p></div><p>Second.</p></body></html>")

	p := preview.ExtractPreview(doc, "https://news.example/article/1")
	require.Equal(t, "Opening line\n   second  line.", p.Description)
	require.Nil(t, p.Image)
}

func TestExtractPreviewEllipsizesLongDescription(t *testing.T) {
	long := strings.Repeat("ż", 350)
	doc := parse(t, `<html><body><p>`+long+`</p></body></html>`)

	p := preview.ExtractPreview(doc, "https://news.example/article/1")
	require.Equal(t, strings.Repeat("ż", 300)+"...", p.Description)
}

func TestExtractPreviewEmptyPage(t *testing.T) {
	p := preview.ExtractPreview(parse(t, `<html><body></body></html>`), "https://news.example/a")
	require.Equal(t, models.Preview{}, p)
}

func TestExtractPreviewFavicon(t *testing.T) {
	tests := []struct {
		name string
		head string
		want string
	}{
		{
			name: "relative icon",
			head: `<link rel="icon" href="/favicon.ico">`,
			want: "https://news.example/favicon.ico",
		},
		{
			name: "icon preferred over shortcut icon",
			head: `<link rel="shortcut icon" href="/old.ico"><link rel="icon" href="https://cdn.example/new.png">`,
			want: "https://cdn.example/new.png",
		},
		{
			name: "shortcut icon fallback",
			head: `<link rel="stylesheet" href="/s.css"><link rel="Shortcut Icon" href="/legacy.ico">`,
			want: "https://news.example/legacy.ico",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, `<html><head>`+tt.head+`</head><body></body></html>`)
			p := preview.ExtractPreview(doc, "https://news.example/article/1")
			require.NotNil(t, p.Favicon)
			require.Equal(t, tt.want, *p.Favicon)
		})
	}
}

func TestExtractContentJoinsParagraphs(t *testing.T) {
	doc := parse(t, `<html><body><p>Alpha</p><div><p>Beta <b>bold</b></p></div><p>Gamma</p></body></html>`)

	require.Equal(t, "Alpha\nBeta bold\nGamma\n", preview.ExtractContent(doc, preview.SingleContentLimit))
	require.Equal(t, "Alpha\nBe", preview.ExtractContent(doc, 8))
}

func TestFetcherPreview(t *testing.T) {
	srv := servePages(t, map[string]func(w http.ResponseWriter){
		"/article/1": html(`<html><head><link rel="icon" href="/favicon.ico"></head><body><p>Hello</p></body></html>`),
	})

	p, err := preview.New().Preview(context.Background(), srv.URL+"/article/1")
	require.NoError(t, err)
	require.Equal(t, "Hello", p.Description)
	require.NotNil(t, p.Favicon)
	require.Equal(t, srv.URL+"/favicon.ico", *p.Favicon)
}

func TestFetcherDecodesDeclaredCharset(t *testing.T) {
	srv := servePages(t, map[string]func(w http.ResponseWriter){
		"/latin1": func(w http.ResponseWriter) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write([]byte("<html><body><p>Malm\xf6 v\xe4xer</p></body></html>"))
		},
		"/undeclared": func(w http.ResponseWriter) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, "<html><body><p>Göteborg</p></body></html>")
		},
	})
	f := preview.New()

	p, err := f.Preview(context.Background(), srv.URL+"/latin1")
	require.NoError(t, err)
	require.Equal(t, "Malmö växer", p.Description)

	p, err = f.Preview(context.Background(), srv.URL+"/undeclared")
	require.NoError(t, err)
	require.Equal(t, "Göteborg", p.Description)
}

func TestFetcherFailuresAreFetchErrors(t *testing.T) {
	srv := servePages(t, map[string]func(w http.ResponseWriter){
		"/json": func(w http.ResponseWriter) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"ok":true}`)
		},
		"/slow": func(w http.ResponseWriter) {
			time.Sleep(200 * time.Millisecond)
			html(`<p>late</p>`)(w)
		},
	})
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	f := preview.New(preview.WithTimeouts(50*time.Millisecond, 50*time.Millisecond))

	for name, target := range map[string]string{
		"not found":   srv.URL + "/missing",
		"non html":    srv.URL + "/json",
		"timeout":     srv.URL + "/slow",
		"unreachable": closedURL + "/article",
		"bad url":     "://nope",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.Preview(context.Background(), target)
			var fe *models.FetchError
			require.True(t, errors.As(err, &fe), "got %v", err)
			require.Equal(t, target, fe.URL)
			require.True(t, preview.IsFetchError(err))

			_, err = f.Content(context.Background(), target, preview.SingleContentLimit)
			require.True(t, preview.IsFetchError(err))
		})
	}
}

func TestFetcherContent(t *testing.T) {
	srv := servePages(t, map[string]func(w http.ResponseWriter){
		"/story": html(`<html><body><p>One</p><p>Two</p></body></html>`),
	})

	text, err := preview.New().Content(context.Background(), srv.URL+"/story", preview.MergedContentLimit)
	require.NoError(t, err)
	require.Equal(t, "One\nTwo\n", text)
}
