// Package synth orchestrates model inference to synthesize tabular data.
//
// A run has two stages: a single analysis call that describes the sample's
// structure, then a loop of generation calls that each produce a batch of
// new rows appended to the output store. Progress is tracked by counting
// the lines actually appended, so a model that returns fewer or more rows
// than requested moves the counter by what really arrived.
package synth

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tabforge"
	"tabforge/dataset"
	"tabforge/infer"
)

// batchSize caps how many rows one generation call may request.
const batchSize = 30

var (
	// ErrAnalysisFailed marks a failed or empty analysis stage.
	ErrAnalysisFailed = errors.New("analysis failed")
	// ErrBatchFailed marks a batch whose retry attempts were exhausted.
	ErrBatchFailed = errors.New("batch generation failed")
	// ErrMalformedBatch marks a strict-mode field count violation.
	ErrMalformedBatch = errors.New("malformed batch")
)

// RowSink receives the header and the generated rows. *dataset.Store
// satisfies it.
type RowSink interface {
	Init(header []string) error
	Append(lines []string) error
}

// RowScreen inspects a batch of generated lines before they are appended
// and returns the lines to keep.
type RowScreen interface {
	Screen(ctx context.Context, lines []string) []string
}

// Params control one synthesis run.
type Params struct {
	Model       string
	MaxTokens   int
	Temperature float64
	DesiredRows int
	Strict      bool
}

// Engine drives the two-stage synthesis pipeline.
type Engine struct {
	client   infer.Client
	prompts  *PromptSet
	analyzer *Analyzer
	retry    RetryPolicy
	screen   RowScreen
}

// NewEngine creates an engine wired from config.
func NewEngine(cfg *tabforge.Config, client infer.Client) *Engine {
	prompts := LoadPrompts()
	return &Engine{
		client:   client,
		prompts:  prompts,
		analyzer: NewAnalyzer(cfg, client, prompts),
		retry: RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Backoff:     time.Duration(cfg.Retry.BackoffMS) * time.Millisecond,
			MaxBackoff:  time.Duration(cfg.Retry.MaxBackoffMS) * time.Millisecond,
		},
	}
}

// SetScreen attaches a screen consulted before each batch is appended.
func (e *Engine) SetScreen(s RowScreen) {
	e.screen = s
}

// Close releases resources held by the engine.
func (e *Engine) Close() {
	if e.analyzer != nil {
		e.analyzer.Close()
	}
}

// Run executes a full synthesis run for sample, appending generated rows
// to sink until at least p.DesiredRows rows have been accounted for. It
// returns the final generated-row count. The sink is only initialized
// after the analysis stage succeeds, so an analysis failure leaves no
// output file behind.
func (e *Engine) Run(ctx context.Context, sample dataset.Table, sink RowSink, p Params) (int, error) {
	sampleText := sample.Serialize()

	analysis, err := e.analyzer.Analyze(ctx, p.Model, sampleText)
	if err != nil {
		return 0, err
	}
	slog.Info("analysis complete")
	slog.Debug("analysis result", "text", analysis)

	header := sample.Header()
	if err := sink.Init(header); err != nil {
		return 0, fmt.Errorf("initialize output: %w", err)
	}

	headerLine := ""
	if len(header) > 0 {
		headerLine = dataset.FormatRow(header)
	}

	generated := 0
	for generated < p.DesiredRows {
		request := p.DesiredRows - generated
		if request > batchSize {
			request = batchSize
		}

		lines, err := e.generateBatch(ctx, p, analysis, sampleText, headerLine, len(header), request)
		if err != nil {
			return generated, err
		}

		if e.screen != nil {
			lines = e.screen.Screen(ctx, lines)
		}

		// A failed append is logged and skipped; the counter still
		// advances, it is the source of truth for progress, not the file.
		if err := sink.Append(lines); err != nil {
			slog.Warn("append failed, batch not persisted", "error", err, "rows", len(lines))
		}
		generated += len(lines)

		slog.Info("generated rows", "generated", generated, "desired", p.DesiredRows)
	}

	return generated, nil
}

// generateBatch asks the model for count rows and returns the batch lines
// after header-echo stripping and optional strict validation. Failed
// attempts back off exponentially; exhausting the policy surfaces
// ErrBatchFailed.
func (e *Engine) generateBatch(ctx context.Context, p Params, analysis, sampleText, headerLine string, fieldCount, count int) ([]string, error) {
	attempts := e.retry.attempts()
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			slog.Warn("batch attempt failed, retrying", "attempt", attempt, "error", lastErr)
			if err := sleep(ctx, e.retry.Delay(attempt-1)); err != nil {
				return nil, err
			}
		}

		text, err := e.client.Complete(ctx, infer.Request{
			Model:       p.Model,
			MaxTokens:   p.MaxTokens,
			Temperature: p.Temperature,
			System:      e.prompts.GeneratorSystem(),
			Prompt:      e.prompts.GeneratorUser(analysis, sampleText, count),
		})
		if err != nil {
			lastErr = err
			continue
		}
		slog.Debug("batch received", "text", text)

		lines := splitLines(text)
		if headerLine != "" && len(lines) > 0 && lines[0] == headerLine {
			lines = lines[1:]
		}
		if len(lines) == 0 {
			lastErr = errors.New("batch contained no rows")
			continue
		}

		if p.Strict && fieldCount > 0 {
			if err := checkFieldCounts(lines, fieldCount); err != nil {
				lastErr = err
				continue
			}
		}

		return lines, nil
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrBatchFailed, attempts, lastErr)
}

// splitLines breaks model output into row lines. CRLF is normalized and
// blank lines are dropped, so a model that double-spaces its output or
// pads it with empty lines does not produce phantom rows.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// checkFieldCounts verifies that every line parses as a single row with
// exactly want fields.
func checkFieldCounts(lines []string, want int) error {
	for i, line := range lines {
		fields, err := csv.NewReader(strings.NewReader(line)).Read()
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrMalformedBatch, i+1, err)
		}
		if len(fields) != want {
			return fmt.Errorf("%w: line %d has %d fields, want %d", ErrMalformedBatch, i+1, len(fields), want)
		}
	}
	return nil
}
