// Package preview fetches live article pages and extracts preview metadata
// and plain paragraph text from them.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/DeafMist/mundus/backend/internal/models"
	"github.com/DeafMist/mundus/backend/internal/processing"
)

// UserAgent mimics a desktop browser so publishers serve the regular page.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const (
	// DescriptionLimit is the rune length of a preview description before it is ellipsized.
	DescriptionLimit = 300
	// SingleContentLimit bounds the text of a single-article summary.
	SingleContentLimit = 4000
	// MergedContentLimit bounds the text of each article of a merged summary.
	MergedContentLimit = 2000

	// DefaultPreviewTimeout bounds preview page fetches.
	DefaultPreviewTimeout = 5 * time.Second
	// DefaultContentTimeout bounds content fetches for summarization.
	DefaultContentTimeout = 10 * time.Second

	maxBodyBytes = 2 << 20
)

// Fetcher retrieves article pages. It keeps no state between calls.
type Fetcher struct {
	client         *http.Client
	previewTimeout time.Duration
	contentTimeout time.Duration
	log            *slog.Logger
}

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithTimeouts overrides the preview and content fetch timeouts. Non-positive values keep the defaults.
func WithTimeouts(previewTimeout, contentTimeout time.Duration) Option {
	return func(f *Fetcher) {
		if previewTimeout > 0 {
			f.previewTimeout = previewTimeout
		}
		if contentTimeout > 0 {
			f.contentTimeout = contentTimeout
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

// New builds a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:         &http.Client{},
		previewTimeout: DefaultPreviewTimeout,
		contentTimeout: DefaultContentTimeout,
		log:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Preview fetches pageURL and extracts its description, favicon and hero image.
// Every failure is returned as *models.FetchError; callers treat it as "no preview".
func (f *Fetcher) Preview(ctx context.Context, pageURL string) (models.Preview, error) {
	doc, err := f.document(ctx, pageURL, f.previewTimeout)
	if err != nil {
		return models.Preview{}, err
	}
	return ExtractPreview(doc, pageURL), nil
}

// Content fetches pageURL and returns the text of all its paragraphs, cut to limit runes.
func (f *Fetcher) Content(ctx context.Context, pageURL string, limit int) (string, error) {
	doc, err := f.document(ctx, pageURL, f.contentTimeout)
	if err != nil {
		return "", err
	}
	return ExtractContent(doc, limit), nil
}

func (f *Fetcher) document(ctx context.Context, pageURL string, timeout time.Duration) (*goquery.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fail := func(err error) (*goquery.Document, error) {
		f.log.Debug("page fetch failed", slog.String("url", pageURL), slog.Any("err", err))
		return nil, &models.FetchError{URL: pageURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return fail(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept-Charset", "utf-8")

	resp, err := f.client.Do(req)
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fail(fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		return fail(fmt.Errorf("unexpected content type %q", contentType))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fail(fmt.Errorf("read body: %w", err))
	}

	doc, err := goquery.NewDocumentFromReader(utf8Reader(body, contentType))
	if err != nil {
		return fail(fmt.Errorf("parse html: %w", err))
	}
	return doc, nil
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// utf8Reader decodes body using the declared or sniffed charset and falls back to UTF-8.
func utf8Reader(body []byte, contentType string) io.Reader {
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || (!certain && name == "windows-1252") {
		return bytes.NewReader(body)
	}
	return enc.NewDecoder().Reader(bytes.NewReader(body))
}

// ExtractPreview applies the description, favicon and image fallback chains to doc.
func ExtractPreview(doc *goquery.Document, pageURL string) models.Preview {
	var p models.Preview

	if meta := doc.Find("meta[name='description']").First(); meta.Length() > 0 {
		p.Description, _ = meta.Attr("content")
	} else {
		p.Description = doc.Find("p").First().Text()
	}
	p.Description = processing.Ellipsize(p.Description, DescriptionLimit)

	if href := faviconHref(doc); href != "" {
		if abs := processing.ResolveAgainstHost(pageURL, href); abs != "" {
			p.Favicon = &abs
		}
	}

	if image, ok := doc.Find("meta[property='og:image']").First().Attr("content"); ok && strings.TrimSpace(image) != "" {
		image = strings.TrimSpace(image)
		p.Image = &image
	}

	return p
}

// faviconHref returns the first rel="icon" link, else the first rel="shortcut icon" link.
func faviconHref(doc *goquery.Document) string {
	links := doc.Find("link[rel][href]")
	for _, want := range []string{"icon", "shortcut icon"} {
		var found string
		links.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			rel, _ := s.Attr("rel")
			if strings.ToLower(strings.Join(strings.Fields(rel), " ")) != want {
				return true
			}
			found, _ = s.Attr("href")
			return false
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// ExtractContent joins the text of every paragraph in document order, one per line, cut to limit runes.
func ExtractContent(doc *goquery.Document, limit int) string {
	paragraphs := doc.Find("p").Map(func(_ int, s *goquery.Selection) string {
		return s.Text()
	})
	return processing.Truncate(processing.JoinParagraphs(paragraphs), limit)
}

