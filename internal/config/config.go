package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Provider names accepted in PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Vector backends accepted in VECTOR_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config carries every credential and tunable the pipeline needs. It is
// built once at process start and passed by reference into constructors;
// required fields are validated here, before any network call.
type Config struct {
	Provider     string
	GeminiAPIKey string
	OpenAIAPIKey string

	YouTubeAPIKey string

	VectorBackend  string
	SQLitePath     string
	PostgresDSN    string
	IndexNamespace string
	EmbeddingDim   int

	HTTPPort  string
	LogLevel  string
	MaxVideos int64
	ChunkSize int
}

// Load reads .env (if present) and the environment, and validates required
// credentials. A missing credential is a fatal configuration error for the
// caller to surface; nothing is silently defaulted.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		Provider:       getEnv("PROVIDER", ProviderOpenAI),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		YouTubeAPIKey:  getEnv("YOUTUBE_DATA_API_KEY", ""),
		VectorBackend:  getEnv("VECTOR_BACKEND", BackendSQLite),
		SQLitePath:     getEnv("SQLITE_PATH", "ask_youtube.db"),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),
		IndexNamespace: getEnv("INDEX_NAMESPACE", ""),
		EmbeddingDim:   getEnvAsInt("EMBEDDING_DIM", 1536),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "INFO"),
		MaxVideos:      int64(getEnvAsInt("MAX_VIDEOS", 100)),
		ChunkSize:      getEnvAsInt("CHUNK_SIZE", 500),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.YouTubeAPIKey == "" {
		return fmt.Errorf("YOUTUBE_DATA_API_KEY environment variable is required")
	}
	if c.IndexNamespace == "" {
		return fmt.Errorf("INDEX_NAMESPACE environment variable is required")
	}

	switch c.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable is required when PROVIDER=gemini")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable is required when PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unknown PROVIDER %q (expected %q or %q)", c.Provider, ProviderGemini, ProviderOpenAI)
	}

	switch c.VectorBackend {
	case BackendSQLite:
		// SQLITE_PATH has a usable default.
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN environment variable is required when VECTOR_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown VECTOR_BACKEND %q (expected %q or %q)", c.VectorBackend, BackendSQLite, BackendPostgres)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.MaxVideos <= 0 {
		return fmt.Errorf("MAX_VIDEOS must be positive, got %d", c.MaxVideos)
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
