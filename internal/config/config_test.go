package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/mundus/backend/internal/config"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"API_BIND_ADDR", "API_PAGE_SIZE", "API_MAX_PAGE_SIZE",
		"DATASET_BACKEND", "DATASET_DIR", "ELASTICSEARCH_ADDR", "ELASTICSEARCH_INDEX_PREFIX",
		"PREVIEW_TIMEOUT", "CONTENT_TIMEOUT", "CORS_ALLOWED_ORIGINS",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "OPENAI_TEMPERATURE", "OPENAI_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadAPIDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.LoadAPI()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:8080", cfg.BindAddr)
	require.Equal(t, 10, cfg.DefaultPage)
	require.Equal(t, 100, cfg.MaxPage)
	require.Equal(t, config.BackendSQLite, cfg.Backend)
	require.Equal(t, ".", cfg.Dir)
	require.Equal(t, "articles", cfg.ElasticsearchIndex)
	require.Equal(t, 5*time.Second, cfg.PreviewTimeout)
	require.Equal(t, 10*time.Second, cfg.ContentTimeout)
	require.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	require.Equal(t, "", cfg.APIKey)
	require.Equal(t, "gpt-3.5-turbo", cfg.Model)
	require.InDelta(t, 0.2, cfg.Temperature, 1e-6)
}

func TestLoadAPIOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_BIND_ADDR", ":9090")
	t.Setenv("API_PAGE_SIZE", "15")
	t.Setenv("API_MAX_PAGE_SIZE", "50")
	t.Setenv("DATASET_BACKEND", "Elasticsearch")
	t.Setenv("ELASTICSEARCH_ADDR", "http://es:9200")
	t.Setenv("ELASTICSEARCH_INDEX_PREFIX", "news")
	t.Setenv("PREVIEW_TIMEOUT", "2s")
	t.Setenv("CONTENT_TIMEOUT", "20s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.BindAddr)
	require.Equal(t, 15, cfg.DefaultPage)
	require.Equal(t, 50, cfg.MaxPage)
	require.Equal(t, config.BackendElasticsearch, cfg.Backend)
	require.Equal(t, "http://es:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "news", cfg.ElasticsearchIndex)
	require.Equal(t, 2*time.Second, cfg.PreviewTimeout)
	require.Equal(t, 20*time.Second, cfg.ContentTimeout)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	require.Equal(t, "sk-test", cfg.APIKey)
	require.Equal(t, "gpt-4o-mini", cfg.Model)
}

func TestLoadAPIValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "page size above max", env: map[string]string{"API_PAGE_SIZE": "200", "API_MAX_PAGE_SIZE": "100"}},
		{name: "negative page size", env: map[string]string{"API_PAGE_SIZE": "-1"}},
		{name: "unknown backend", env: map[string]string{"DATASET_BACKEND": "postgres"}},
		{name: "temperature out of range", env: map[string]string{"OPENAI_TEMPERATURE": "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.LoadAPI()
			require.Error(t, err)
		})
	}
}

