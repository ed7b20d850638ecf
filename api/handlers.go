package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/DeafMist/mundus/backend/internal/dataset"
	"github.com/DeafMist/mundus/backend/internal/metrics"
	"github.com/DeafMist/mundus/backend/internal/models"
	"github.com/DeafMist/mundus/backend/internal/query"
	"github.com/DeafMist/mundus/backend/internal/summarize"
)

const maxBodyBytes = 1 << 20

type previewer interface {
	Preview(ctx context.Context, pageURL string) (models.Preview, error)
}

type summarizer interface {
	Summarize(ctx context.Context, req summarize.SingleRequest) (models.Summary, error)
	SummarizeMerged(ctx context.Context, req summarize.MergedRequest) (models.Summary, error)
}

type server struct {
	log      *slog.Logger
	limits   query.Limits
	datasets *dataset.Registry
	previews previewer
	summary  summarizer
	health   func(context.Context) error
}

func newRouter(s *server, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(metrics.Middleware)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/articles/{country}", s.handleArticles)
		r.Get("/sources/{country}", s.handleSources)
		r.Get("/categories/{country}", s.handleCategories)
		r.Get("/article-preview/{country}/{id}", s.handlePreview)
		r.Post("/summarize", s.handleSummarize)
		r.Post("/summarize-merged", s.handleSummarizeMerged)
	})
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.health(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *server) handleArticles(w http.ResponseWriter, r *http.Request) {
	spec, err := query.Parse(r.URL.Query(), s.limits)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ds, err := s.datasets.Open(r.Context(), chi.URLParam(r, "country"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer ds.Close()

	articles, total, err := ds.ListArticles(r.Context(), spec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if articles == nil {
		articles = []models.Article{}
	}

	writeJSON(w, http.StatusOK, models.Page{
		Articles:   articles,
		Total:      total,
		Page:       spec.Page,
		PerPage:    spec.PerPage,
		TotalPages: query.TotalPages(total, spec.PerPage),
	})
}

func (s *server) handleSources(w http.ResponseWriter, r *http.Request) {
	s.listStrings(w, r, dataset.Dataset.ListSources)
}

func (s *server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.listStrings(w, r, dataset.Dataset.ListCategories)
}

func (s *server) listStrings(w http.ResponseWriter, r *http.Request, list func(dataset.Dataset, context.Context) ([]string, error)) {
	ds, err := s.datasets.Open(r.Context(), chi.URLParam(r, "country"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer ds.Close()

	values, err := list(ds, r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if values == nil {
		values = []string{}
	}
	writeJSON(w, http.StatusOK, values)
}

func (s *server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid article id"})
		return
	}

	ds, err := s.datasets.Open(r.Context(), chi.URLParam(r, "country"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer ds.Close()

	article, err := ds.GetArticle(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var pageURL string
	if article.URL != nil {
		pageURL = *article.URL
	}

	out := models.ArticlePreview{Article: article}
	p, err := s.previews.Preview(r.Context(), pageURL)
	if err != nil {
		metrics.RecordPreview("unavailable")
		s.log.Warn("preview unavailable",
			slog.Int64("id", id),
			slog.String("url", pageURL),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("err", err),
		)
	} else {
		metrics.RecordPreview("ok")
		out.Preview = &p
	}
	writeJSON(w, http.StatusOK, out)
}

type summarizeRequest struct {
	Article      json.RawMessage `json:"article"`
	Instructions string          `json:"instructions"`
	SelectedText string          `json:"selected_text"`
}

type summarizeResponse struct {
	Summary  string          `json:"summary"`
	Headline string          `json:"headline"`
	Body     string          `json:"body"`
	Article  json.RawMessage `json:"article"`
}

func (s *server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if isEmptyJSON(req.Article) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "article is required"})
		return
	}
	var article models.SummaryArticle
	if err := json.Unmarshal(req.Article, &article); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "article must be an object"})
		return
	}
	if article.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "article url is required"})
		return
	}

	summary, err := s.summary.Summarize(r.Context(), summarize.SingleRequest{
		Article:      article,
		Instructions: req.Instructions,
		SelectedText: req.SelectedText,
	})
	if err != nil {
		metrics.RecordSummary("single", "error")
		s.writeError(w, r, err)
		return
	}
	metrics.RecordSummary("single", "ok")

	writeJSON(w, http.StatusOK, summarizeResponse{
		Summary:  summary.Text,
		Headline: summary.Headline,
		Body:     summary.Body,
		Article:  req.Article,
	})
}

type mergedRequest struct {
	Articles     []json.RawMessage `json:"articles"`
	Instructions string            `json:"instructions"`
	SelectedText string            `json:"selected_text"`
}

type mergedResponse struct {
	Summary  string            `json:"summary"`
	Headline string            `json:"headline"`
	Body     string            `json:"body"`
	Articles []json.RawMessage `json:"articles"`
}

func (s *server) handleSummarizeMerged(w http.ResponseWriter, r *http.Request) {
	var req mergedRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if len(req.Articles) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "articles are required"})
		return
	}

	articles := make([]models.SummaryArticle, 0, len(req.Articles))
	for _, raw := range req.Articles {
		var a models.SummaryArticle
		if err := json.Unmarshal(raw, &a); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "articles must be objects"})
			return
		}
		articles = append(articles, a)
	}

	summary, err := s.summary.SummarizeMerged(r.Context(), summarize.MergedRequest{
		Articles:     articles,
		Instructions: req.Instructions,
		SelectedText: req.SelectedText,
	})
	if err != nil {
		metrics.RecordSummary("merged", "error")
		s.writeError(w, r, err)
		return
	}
	metrics.RecordSummary("merged", "ok")

	writeJSON(w, http.StatusOK, mergedResponse{
		Summary:  summary.Text,
		Headline: summary.Headline,
		Body:     summary.Body,
		Articles: req.Articles,
	})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		unsupported *models.UnsupportedDatasetError
		invalid     *models.InvalidFilterError
		fetch       *models.FetchError
		gateway     *models.GatewayError
	)
	switch {
	case errors.As(err, &unsupported), errors.As(err, &invalid), errors.Is(err, models.ErrNoContent):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &fetch), errors.As(err, &gateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case errors.Is(err, models.ErrNotFound):
		msg = "Article not found"
	case status == http.StatusInternalServerError:
		s.log.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("err", err),
		)
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
