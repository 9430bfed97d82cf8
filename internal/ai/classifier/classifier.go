// Package classifier provides the advisory second opinion on user content.
// Every failure resolves to an allow assessment; errors never reach the caller.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/alumnet/modguard/internal/moderation/types"
	"github.com/alumnet/modguard/internal/setup/config"
	"github.com/bytedance/sonic"
	"github.com/sony/gobreaker"
	"github.com/sourcegraph/conc/pool"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Confidence reported on fallback assessments.
const (
	unavailableConfidence = 0
	unreadableConfidence  = 50
)

const (
	explanationDisabled    = "Automated content review is disabled. Your content was allowed without a check."
	explanationUnavailable = "Automated content review is temporarily unavailable. Your content was allowed without a check."
	explanationUnreadable  = "Automated content review returned an unreadable result. Your content was allowed."
)

// Classifier asks a model for an advisory assessment of user content.
type Classifier struct {
	generator        Generator
	breaker          *gobreaker.CircuitBreaker
	semaphore        *semaphore.Weighted
	minify           *minify.M
	timeout          time.Duration
	batchConcurrency int
	tracer           trace.Tracer
	logger           *zap.Logger
}

// New creates a Classifier. A nil generator yields a classifier that allows everything.
func New(generator Generator, cfg *config.Classifier, logger *zap.Logger) *Classifier {
	logger = logger.Named("classifier")

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	settings := gobreaker.Settings{
		Name:        "classifier",
		MaxRequests: 1,
		Timeout:     time.Duration(cfg.BreakerTimeout) * time.Second,
		Interval:    0,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(_ string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	maxConcurrent := max(cfg.MaxConcurrent, 1)

	m := minify.New()
	m.AddFunc(ApplicationJSON, json.Minify)

	return &Classifier{
		generator:        generator,
		breaker:          gobreaker.NewCircuitBreaker(settings),
		semaphore:        semaphore.NewWeighted(maxConcurrent),
		minify:           m,
		timeout:          time.Duration(cfg.Timeout) * time.Millisecond,
		batchConcurrency: max(cfg.BatchConcurrency, 1),
		tracer:           otel.Tracer("github.com/alumnet/modguard/internal/ai/classifier"),
		logger:           logger,
	}
}

// Enabled reports whether the classifier has a model behind it.
func (c *Classifier) Enabled() bool {
	return c.generator != nil
}

// Classify returns the model's assessment of content. Any failure yields an allow
// assessment whose explanation says why.
func (c *Classifier) Classify(ctx context.Context, content string) Assessment {
	ctx, span := c.tracer.Start(ctx, "classifier.Classify")
	defer span.End()

	if c.generator == nil {
		return fallback(unavailableConfidence, explanationDisabled)
	}

	assessment, err := c.classify(ctx, content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		if errors.Is(err, ErrInvalidAssessment) {
			c.logger.Warn("Discarding unreadable classifier response", zap.Error(err))
			return fallback(unreadableConfidence, explanationUnreadable)
		}

		c.logger.Warn("Classifier unavailable", zap.Error(err))
		return fallback(unavailableConfidence, explanationUnavailable)
	}

	span.SetAttributes(
		attribute.Bool("classifier.appropriate", assessment.IsAppropriate),
		attribute.String("classifier.action", string(assessment.SuggestedAction)),
		attribute.Int("classifier.confidence", assessment.Confidence),
	)

	return assessment
}

// ClassifyMany assesses each content concurrently. Results keep the input order.
func (c *Classifier) ClassifyMany(ctx context.Context, contents []string) []Assessment {
	results := make([]Assessment, len(contents))

	p := pool.New().WithMaxGoroutines(c.batchConcurrency)
	for i, content := range contents {
		p.Go(func() {
			results[i] = c.Classify(ctx, content)
		})
	}
	p.Wait()

	return results
}

// classify performs one guarded model call. Transport failures are returned as is;
// response problems wrap ErrInvalidAssessment.
func (c *Classifier) classify(ctx context.Context, content string) (Assessment, error) {
	if err := c.semaphore.Acquire(ctx, 1); err != nil {
		return Assessment{}, fmt.Errorf("failed to acquire semaphore: %w", err)
	}
	defer c.semaphore.Release(1)

	prompt, err := c.buildPrompt(content)
	if err != nil {
		return Assessment{}, err
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	result, err := c.breaker.Execute(func() (any, error) {
		return c.generator.Generate(callCtx, prompt)
	})
	if err != nil {
		return Assessment{}, fmt.Errorf("classifier request failed: %w", err)
	}

	return parseAssessment(result.(string))
}

// buildPrompt formats the minified request payload into the classification prompt.
func (c *Classifier) buildPrompt(content string) (string, error) {
	request := struct {
		Content string `json:"content"`
	}{Content: content}

	requestJSON, err := sonic.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	minifiedJSON, err := c.minify.Bytes(ApplicationJSON, requestJSON)
	if err != nil {
		return "", fmt.Errorf("failed to minify JSON: %w", err)
	}

	return fmt.Sprintf(ClassificationPrompt, minifiedJSON), nil
}

// parseAssessment decodes and validates a model response.
func parseAssessment(text string) (Assessment, error) {
	var raw rawAssessment
	if err := sonic.UnmarshalString(text, &raw); err != nil {
		return Assessment{}, fmt.Errorf("%w: %w", ErrInvalidAssessment, err)
	}

	switch {
	case raw.IsAppropriate == nil:
		return Assessment{}, fmt.Errorf("%w: missing isAppropriate", ErrInvalidAssessment)
	case raw.Confidence == nil:
		return Assessment{}, fmt.Errorf("%w: missing confidence", ErrInvalidAssessment)
	case raw.Concerns == nil:
		return Assessment{}, fmt.Errorf("%w: missing concerns", ErrInvalidAssessment)
	case raw.Severity == nil:
		return Assessment{}, fmt.Errorf("%w: missing severity", ErrInvalidAssessment)
	case raw.Explanation == nil:
		return Assessment{}, fmt.Errorf("%w: missing explanation", ErrInvalidAssessment)
	case raw.SuggestedAction == nil:
		return Assessment{}, fmt.Errorf("%w: missing suggestedAction", ErrInvalidAssessment)
	}

	confidence := *raw.Confidence
	if math.IsNaN(confidence) || confidence < 0 || confidence > 100 {
		return Assessment{}, fmt.Errorf("%w: confidence %v out of range", ErrInvalidAssessment, confidence)
	}
	if confidence != math.Trunc(confidence) {
		return Assessment{}, fmt.Errorf("%w: confidence %v is not an integer", ErrInvalidAssessment, confidence)
	}

	severity := types.Severity(*raw.Severity)
	if !severity.IsValid() {
		return Assessment{}, fmt.Errorf("%w: unknown severity %q", ErrInvalidAssessment, *raw.Severity)
	}

	action := Action(*raw.SuggestedAction)
	if !action.IsValid() {
		return Assessment{}, fmt.Errorf("%w: unknown action %q", ErrInvalidAssessment, *raw.SuggestedAction)
	}

	concerns := *raw.Concerns
	if concerns == nil {
		concerns = []string{}
	}

	return Assessment{
		IsAppropriate:   *raw.IsAppropriate,
		Confidence:      int(confidence),
		Concerns:        concerns,
		Severity:        severity,
		Explanation:     *raw.Explanation,
		SuggestedAction: action,
	}, nil
}

// fallback builds the fail-open assessment.
func fallback(confidence int, explanation string) Assessment {
	return Assessment{
		IsAppropriate:   true,
		Confidence:      confidence,
		Concerns:        []string{},
		Severity:        types.SeverityLow,
		Explanation:     explanation,
		SuggestedAction: ActionAllow,
	}
}
