package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures an OpenAI-compatible embeddings endpoint. BaseURL
// may point at any server implementing POST /embeddings.
type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// OpenAIEmbedder calls an embeddings API with retries on 429 and 5xx.
type OpenAIEmbedder struct {
	client     *openai.Client
	httpClient *http.Client
	model      string
	dims       int
	maxRetries int
	retryDelay time.Duration
	stats      *Stats
	log        *slog.Logger
}

func NewOpenAI(cfg OpenAIConfig, stats *Stats, log *slog.Logger) *OpenAIEmbedder {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	config.HTTPClient = httpClient

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(config),
		httpClient: httpClient,
		model:      cfg.Model,
		dims:       cfg.Dimensions,
		maxRetries: max(cfg.MaxRetries, 0),
		retryDelay: cfg.RetryDelay,
		stats:      stats,
		log:        log,
	}
}

// Dimension is the configured output size, or 0 when the model decides.
func (e *OpenAIEmbedder) Dimension() int { return e.dims }

// Embed returns the normalized embedding of text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	vec, err := retry.DoWithData(
		func() ([]float32, error) {
			return e.call(ctx, text)
		},
		retry.Context(ctx),
		retry.Attempts(uint(e.maxRetries+1)),
		retry.RetryIf(IsRetryable),
		retry.Delay(e.retryDelay),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			e.log.Warn("embedding retry", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		e.stats.RecordError()
		return nil, fmt.Errorf("embed: %w", err)
	}
	return Normalize(vec), nil
}

func (e *OpenAIEmbedder) call(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dims,
	})
	e.stats.Record(time.Since(start).Milliseconds())
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("empty embedding response")
	}
	vec := resp.Data[0].Embedding
	if e.dims > 0 && len(vec) != e.dims {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), e.dims)
	}
	return vec, nil
}

// Close releases idle connections.
func (e *OpenAIEmbedder) Close() {
	e.httpClient.CloseIdleConnections()
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// classify turns rate limits and server errors into RetryableError.
func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status == http.StatusTooManyRequests || status >= 500 {
		return &RetryableError{StatusCode: status, Message: err.Error()}
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
