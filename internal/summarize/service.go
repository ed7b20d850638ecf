// Package summarize builds summarization prompts from live article content
// and sends them to an LLM gateway.
package summarize

import (
	"context"
	"io"
	"log/slog"

	"github.com/DeafMist/mundus/backend/internal/metrics"
	"github.com/DeafMist/mundus/backend/internal/models"
	"github.com/DeafMist/mundus/backend/internal/preview"
	"github.com/DeafMist/mundus/backend/internal/processing"
)

// ContentFetcher returns the plain paragraph text of a page.
type ContentFetcher interface {
	Content(ctx context.Context, pageURL string, limit int) (string, error)
}

// SingleRequest asks for the summary of one article.
type SingleRequest struct {
	Article      models.SummaryArticle
	Instructions string
	SelectedText string
}

// MergedRequest asks for one summary covering several articles.
type MergedRequest struct {
	Articles     []models.SummaryArticle
	Instructions string
	SelectedText string
}

// Service produces single and merged summaries.
type Service struct {
	gateway Gateway
	fetcher ContentFetcher
	log     *slog.Logger
}

// NewService wires a gateway and a content fetcher.
func NewService(gateway Gateway, fetcher ContentFetcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{gateway: gateway, fetcher: fetcher, log: logger}
}

// Summarize summarizes one article. A non-empty SelectedText is used instead of fetching the page.
func (s *Service) Summarize(ctx context.Context, req SingleRequest) (models.Summary, error) {
	content := req.SelectedText
	if content == "" {
		fetched, err := s.fetcher.Content(ctx, req.Article.URL, preview.SingleContentLimit)
		if err != nil {
			return models.Summary{}, err
		}
		content = fetched
	}
	content = processing.Truncate(content, preview.SingleContentLimit)
	s.log.Debug("article content ready", slog.String("url", req.Article.URL), slog.Int("length", len(content)))

	return s.complete(ctx, Request{
		System:    singleSystem,
		Prompt:    singlePrompt(req.Article, req.Instructions, content),
		MaxTokens: singleMaxTokens,
	})
}

// SummarizeMerged summarizes several articles at once. Articles whose page cannot be
// fetched are skipped; models.ErrNoContent is returned when none remain.
func (s *Service) SummarizeMerged(ctx context.Context, req MergedRequest) (models.Summary, error) {
	entries := make([]mergedEntry, 0, len(req.Articles))
	for _, a := range req.Articles {
		content := req.SelectedText
		if content == "" {
			fetched, err := s.fetcher.Content(ctx, a.URL, preview.MergedContentLimit)
			if err != nil {
				s.log.Warn("skipping article of merged summary", slog.String("url", a.URL), slog.Any("err", err))
				metrics.RecordSkippedArticle()
				continue
			}
			content = fetched
		}
		entries = append(entries, mergedEntry{
			article: a,
			content: processing.Truncate(content, preview.MergedContentLimit),
		})
	}

	if len(entries) == 0 {
		return models.Summary{}, models.ErrNoContent
	}

	return s.complete(ctx, Request{
		System:    mergedSystem,
		Prompt:    mergedPrompt(entries, req.Instructions),
		MaxTokens: mergedMaxTokens,
	})
}

func (s *Service) complete(ctx context.Context, req Request) (models.Summary, error) {
	text, err := s.gateway.Complete(ctx, req)
	if err != nil {
		return models.Summary{}, err
	}
	headline, body := ParseSummary(text)
	return models.Summary{Text: text, Headline: headline, Body: body}, nil
}
