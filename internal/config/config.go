package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. DOCINTEL_PORT.
const EnvPrefix = "DOCINTEL"

// Embedding providers.
const (
	EmbedOpenAI = "openai"
	EmbedHash   = "hash"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Embedding
	EmbedProvider   string
	EmbedBaseURL    string
	EmbedAPIKey     string
	EmbedModel      string
	EmbedDimensions int
	EmbedTimeout    time.Duration
	EmbedMaxRetries int

	// Ranking
	ExcerptSize    int
	MaxEmbedTokens int
	KeywordFilter  bool
	Keywords       []string

	// Worker pool
	WorkerCount       int
	MaxQueueSize      int
	ParallelDocuments int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL    time.Duration
	StorePath string

	// Text extraction
	OCRLanguages        string
	PunctuationFallback bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8091")
	v.SetDefault("api_key", "")

	v.SetDefault("embed.provider", EmbedHash)
	v.SetDefault("embed.base_url", "https://api.openai.com/v1")
	v.SetDefault("embed.api_key", "")
	v.SetDefault("embed.model", "text-embedding-3-small")
	v.SetDefault("embed.dimensions", 0)
	v.SetDefault("embed.timeout", 30*time.Second)
	v.SetDefault("embed.max_retries", 3)

	v.SetDefault("excerpt_size", 200)
	v.SetDefault("max_embed_tokens", 512)
	v.SetDefault("keyword_filter", false)
	v.SetDefault("keywords", []string{"gnn", "drug discovery", "molecular", "neural", "biology"})

	v.SetDefault("worker_count", 2)
	v.SetDefault("max_queue_size", 100)
	v.SetDefault("parallel_documents", 4)
	v.SetDefault("max_upload_bytes", 52428800) // 50MB
	v.SetDefault("job_ttl", time.Hour)
	v.SetDefault("store_path", "data/docintel.db")

	v.SetDefault("ocr_languages", "eng+hin+mar")
	v.SetDefault("punctuation_fallback", false)
}

// Load reads configuration from defaults, an optional YAML file and
// DOCINTEL_* environment variables, in increasing precedence. A missing
// file is not an error when file is empty; DOCINTEL_CONFIG names a file
// when file is empty.
func Load(file string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file == "" {
		file = v.GetString("config")
	}
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("docintel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.docintel")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Port:   v.GetString("port"),
		APIKey: v.GetString("api_key"),

		EmbedProvider:   strings.ToLower(v.GetString("embed.provider")),
		EmbedBaseURL:    v.GetString("embed.base_url"),
		EmbedAPIKey:     v.GetString("embed.api_key"),
		EmbedModel:      v.GetString("embed.model"),
		EmbedDimensions: v.GetInt("embed.dimensions"),
		EmbedTimeout:    v.GetDuration("embed.timeout"),
		EmbedMaxRetries: v.GetInt("embed.max_retries"),

		ExcerptSize:    v.GetInt("excerpt_size"),
		MaxEmbedTokens: v.GetInt("max_embed_tokens"),
		KeywordFilter:  v.GetBool("keyword_filter"),
		Keywords:       splitList(v.GetStringSlice("keywords")),

		WorkerCount:       v.GetInt("worker_count"),
		MaxQueueSize:      v.GetInt("max_queue_size"),
		ParallelDocuments: v.GetInt("parallel_documents"),

		MaxUploadBytes: v.GetInt64("max_upload_bytes"),

		JobTTL:    v.GetDuration("job_ttl"),
		StorePath: v.GetString("store_path"),

		OCRLanguages:        v.GetString("ocr_languages"),
		PunctuationFallback: v.GetBool("punctuation_fallback"),
	}

	if cfg.ExcerptSize <= 0 {
		cfg.ExcerptSize = 200
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.ParallelDocuments <= 0 {
		cfg.ParallelDocuments = 4
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = 30 * time.Second
	}
	if cfg.EmbedMaxRetries < 0 {
		cfg.EmbedMaxRetries = 0
	}

	return cfg, nil
}

// Validate checks settings needed by every entry point.
func (c Config) Validate() error {
	switch c.EmbedProvider {
	case EmbedHash:
	case EmbedOpenAI:
		if c.EmbedBaseURL == "" {
			return fmt.Errorf("DOCINTEL_EMBED_BASE_URL is required for the openai embedder")
		}
		if c.EmbedModel == "" {
			return fmt.Errorf("DOCINTEL_EMBED_MODEL is required for the openai embedder")
		}
	default:
		return fmt.Errorf("unknown embed provider %q", c.EmbedProvider)
	}
	if c.KeywordFilter && len(c.Keywords) == 0 {
		return fmt.Errorf("keyword_filter is enabled but no keywords are configured")
	}
	return nil
}

// ValidateServer additionally requires the API key guarding the HTTP API.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("DOCINTEL_API_KEY is required")
	}
	return nil
}

// splitList accepts list entries that may themselves be comma-separated,
// as they are when given through an environment variable.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
