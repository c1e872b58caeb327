package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"hazardwatch/internal/config"
	"hazardwatch/internal/domain"
	"hazardwatch/internal/observability"
)

// Generator submits a built prompt to a generative-text capability. All
// failures, including transport and auth errors, are folded into the
// returned Outcome; Generate never panics and never retries.
type Generator interface {
	Generate(ctx context.Context, req domain.PromptRequest) domain.Outcome
	Provider() string
}

// New selects the configured provider and wraps it with metrics. The config
// timeout bounds every generation call independently of the router deadline.
func New(cfg config.LLMConfig, metrics *observability.Metrics) (Generator, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	var g Generator
	switch cfg.Provider {
	case "google":
		g = NewGeminiClient(cfg.GoogleAPIKey, cfg.Model, cfg.Temperature, &http.Client{Timeout: timeout})
	case "openai":
		g = NewOpenAIClient(cfg.OpenAIAPIKey, cfg.Model, cfg.Temperature, timeout)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
	if metrics != nil {
		g = &instrumented{inner: g, metrics: metrics}
	}
	return g, nil
}

type instrumented struct {
	inner   Generator
	metrics *observability.Metrics
}

func (i *instrumented) Provider() string {
	return i.inner.Provider()
}

func (i *instrumented) Generate(ctx context.Context, req domain.PromptRequest) domain.Outcome {
	start := time.Now()
	out := i.inner.Generate(ctx, req)
	i.metrics.LLMDuration.Observe(time.Since(start).Seconds())
	i.metrics.LLMRequests.WithLabelValues(i.inner.Provider(), string(out.Kind)).Inc()
	return out
}
