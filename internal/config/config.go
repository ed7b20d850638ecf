package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Dataset backends.
const (
	BackendSQLite        = "sqlite"
	BackendElasticsearch = "elasticsearch"
)

// Datasets selects where country datasets are stored.
type Datasets struct {
	Backend            string
	Dir                string
	ElasticsearchAddr  string
	ElasticsearchIndex string
}

// OpenAI holds the summarization gateway credentials and model.
type OpenAI struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// API describes HTTP-layer configuration.
type API struct {
	Datasets
	OpenAI
	BindAddr       string
	DefaultPage    int
	MaxPage        int
	PreviewTimeout time.Duration
	ContentTimeout time.Duration
	AllowedOrigins []string
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	c := &API{
		Datasets: Datasets{
			Backend:            strings.ToLower(getEnv("DATASET_BACKEND", BackendSQLite)),
			Dir:                getEnv("DATASET_DIR", "."),
			ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
			ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX_PREFIX", "articles"),
		},
		OpenAI: OpenAI{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			BaseURL:     os.Getenv("OPENAI_BASE_URL"),
			Model:       getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
			Temperature: getFloat("OPENAI_TEMPERATURE", 0.2),
			Timeout:     getDuration("OPENAI_TIMEOUT", "60s"),
		},
		BindAddr:       getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		DefaultPage:    getInt("API_PAGE_SIZE", 10),
		MaxPage:        getInt("API_MAX_PAGE_SIZE", 100),
		PreviewTimeout: getDuration("PREVIEW_TIMEOUT", "5s"),
		ContentTimeout: getDuration("CONTENT_TIMEOUT", "10s"),
		AllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	if c.DefaultPage <= 0 {
		return nil, fmt.Errorf("API_PAGE_SIZE must be positive")
	}
	if c.MaxPage <= 0 {
		return nil, fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}
	if c.DefaultPage > c.MaxPage {
		return nil, fmt.Errorf("API_PAGE_SIZE cannot exceed API_MAX_PAGE_SIZE")
	}
	if c.PreviewTimeout <= 0 || c.ContentTimeout <= 0 {
		return nil, fmt.Errorf("PREVIEW_TIMEOUT and CONTENT_TIMEOUT must be positive")
	}

	switch c.Backend {
	case BackendSQLite:
	case BackendElasticsearch:
		if c.ElasticsearchIndex == "" {
			return nil, fmt.Errorf("ELASTICSEARCH_INDEX_PREFIX cannot be empty")
		}
	default:
		return nil, fmt.Errorf("DATASET_BACKEND must be %q or %q, got %q", BackendSQLite, BackendElasticsearch, c.Backend)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return nil, fmt.Errorf("OPENAI_TEMPERATURE must be between 0 and 2")
	}

	if len(c.AllowedOrigins) == 0 {
		return nil, fmt.Errorf("CORS_ALLOWED_ORIGINS must contain at least one origin")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float32) float32 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(parsed)
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
