package synth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tabforge"
	"tabforge/infer"
)

// Analyzer performs the one-off structure analysis of a sample dataset.
// The analysis is a prerequisite for every later synthesis call, so a
// failure here is fatal for the run and is never retried.
type Analyzer struct {
	client      infer.Client
	prompts     *PromptSet
	cache       *AnalysisCache
	maxTokens   int
	temperature float64
}

// NewAnalyzer creates an analyzer using the analysis parameters from cfg.
// A nil prompts loads the default prompt set.
func NewAnalyzer(cfg *tabforge.Config, client infer.Client, prompts *PromptSet) *Analyzer {
	if prompts == nil {
		prompts = LoadPrompts()
	}
	a := &Analyzer{
		client:      client,
		prompts:     prompts,
		maxTokens:   cfg.Analysis.MaxTokens,
		temperature: cfg.Analysis.Temperature,
	}
	if ttl := cfg.Analysis.CacheTTLMinutes; ttl > 0 {
		a.cache = NewAnalysisCache(time.Duration(ttl) * time.Minute)
	}
	return a
}

// Close stops the analysis cache, if any.
func (a *Analyzer) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

// Analyze runs the structure analysis for the serialized sample and returns
// the raw analysis text. Results are cached per model and sample for the
// configured TTL.
func (a *Analyzer) Analyze(ctx context.Context, model, sample string) (string, error) {
	if a.cache != nil {
		if text, ok := a.cache.Get(model, sample); ok {
			slog.Debug("analysis cache hit", "model", model)
			return text, nil
		}
	}

	text, err := a.client.Complete(ctx, infer.Request{
		Model:       model,
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
		System:      a.prompts.AnalyzerSystem(),
		Prompt:      a.prompts.AnalyzerUser(sample),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrAnalysisFailed
	}

	if a.cache != nil {
		a.cache.Set(model, sample, text)
	}
	return text, nil
}
