package classifier_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alumnet/modguard/internal/ai/classifier"
	"github.com/alumnet/modguard/internal/moderation/types"
	"github.com/alumnet/modguard/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const validResponse = `{
	"isAppropriate": false,
	"confidence": 87,
	"concerns": ["harassment"],
	"severity": "medium",
	"explanation": "The post targets another member.",
	"suggestedAction": "warn"
}`

// fakeGenerator returns canned responses and records prompts.
type fakeGenerator struct {
	mu       sync.Mutex
	prompts  []string
	calls    atomic.Int32
	generate func(ctx context.Context, prompt string) (string, error)
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls.Add(1)

	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	return g.generate(ctx, prompt)
}

func respond(text string, err error) *fakeGenerator {
	return &fakeGenerator{
		generate: func(context.Context, string) (string, error) {
			return text, err
		},
	}
}

func testConfig() *config.Classifier {
	return &config.Classifier{
		Enabled:          true,
		Timeout:          1000,
		MaxConcurrent:    2,
		BatchConcurrency: 4,
		BreakerFailures:  3,
		BreakerTimeout:   60,
	}
}

func TestClassifier_Classify(t *testing.T) {
	t.Parallel()

	generator := respond(validResponse, nil)
	c := classifier.New(generator, testConfig(), zap.NewNop())

	assessment := c.Classify(t.Context(), "You are all   useless\n")

	assert.Equal(t, classifier.Assessment{
		IsAppropriate:   false,
		Confidence:      87,
		Concerns:        []string{"harassment"},
		Severity:        types.SeverityMedium,
		Explanation:     "The post targets another member.",
		SuggestedAction: classifier.ActionWarn,
	}, assessment)

	require.Len(t, generator.prompts, 1)
	assert.Contains(t, generator.prompts[0], `{"content":"You are all   useless\n"}`)
	assert.True(t, c.Enabled())
}

func TestClassifier_FailOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		response       string
		err            error
		wantConfidence int
	}{
		{
			name:           "network error",
			err:            errors.New("connection refused"),
			wantConfidence: 0,
		},
		{
			name:           "empty model response",
			err:            classifier.ErrModelResponse,
			wantConfidence: 0,
		},
		{
			name:           "malformed json",
			response:       `{"isAppropriate": tru`,
			wantConfidence: 50,
		},
		{
			name:           "missing field",
			response:       `{"isAppropriate": false, "confidence": 90, "concerns": [], "severity": "high", "explanation": "x"}`,
			wantConfidence: 50,
		},
		{
			name:           "unknown severity",
			response:       `{"isAppropriate": false, "confidence": 90, "concerns": [], "severity": "critical", "explanation": "x", "suggestedAction": "block"}`,
			wantConfidence: 50,
		},
		{
			name:           "unknown action",
			response:       `{"isAppropriate": false, "confidence": 90, "concerns": [], "severity": "high", "explanation": "x", "suggestedAction": "ban"}`,
			wantConfidence: 50,
		},
		{
			name:           "confidence out of range",
			response:       `{"isAppropriate": false, "confidence": 140, "concerns": [], "severity": "high", "explanation": "x", "suggestedAction": "block"}`,
			wantConfidence: 50,
		},
		{
			name:           "fractional confidence",
			response:       `{"isAppropriate": false, "confidence": 55.5, "concerns": [], "severity": "high", "explanation": "x", "suggestedAction": "block"}`,
			wantConfidence: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := classifier.New(respond(tt.response, tt.err), testConfig(), zap.NewNop())
			assessment := c.Classify(t.Context(), "hello")

			assert.True(t, assessment.IsAppropriate)
			assert.Equal(t, tt.wantConfidence, assessment.Confidence)
			assert.Equal(t, types.SeverityLow, assessment.Severity)
			assert.Equal(t, classifier.ActionAllow, assessment.SuggestedAction)
			assert.Empty(t, assessment.Concerns)
			assert.NotEmpty(t, assessment.Explanation)
			assert.Equal(t, classifier.OutcomeAllow, assessment.Decision())
		})
	}
}

func TestClassifier_Timeout(t *testing.T) {
	t.Parallel()

	generator := &fakeGenerator{
		generate: func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}

	cfg := testConfig()
	cfg.Timeout = 20

	c := classifier.New(generator, cfg, zap.NewNop())

	start := time.Now()
	assessment := c.Classify(t.Context(), "hello")

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, assessment.IsAppropriate)
	assert.Equal(t, 0, assessment.Confidence)
}

func TestClassifier_CircuitBreaker(t *testing.T) {
	t.Parallel()

	generator := respond("", errors.New("service unavailable"))
	c := classifier.New(generator, testConfig(), zap.NewNop())

	for range 5 {
		assessment := c.Classify(t.Context(), "hello")
		assert.Equal(t, classifier.ActionAllow, assessment.SuggestedAction)
		assert.Equal(t, 0, assessment.Confidence)
	}

	// The breaker opens after three consecutive failures
	assert.Equal(t, int32(3), generator.calls.Load())
}

func TestClassifier_Disabled(t *testing.T) {
	t.Parallel()

	c := classifier.New(nil, testConfig(), zap.NewNop())

	assessment := c.Classify(t.Context(), "anything")
	assert.False(t, c.Enabled())
	assert.True(t, assessment.IsAppropriate)
	assert.Equal(t, classifier.ActionAllow, assessment.SuggestedAction)
	assert.Equal(t, 0, assessment.Confidence)
}

func TestClassifier_ClassifyMany(t *testing.T) {
	t.Parallel()

	generator := &fakeGenerator{
		generate: func(_ context.Context, prompt string) (string, error) {
			if strings.Contains(prompt, "bad") {
				return `{"isAppropriate": false, "confidence": 95, "concerns": ["violence"], "severity": "high", "explanation": "Threat.", "suggestedAction": "block"}`, nil
			}
			return `{"isAppropriate": true, "confidence": 99, "concerns": [], "severity": "low", "explanation": "Fine.", "suggestedAction": "allow"}`, nil
		},
	}

	c := classifier.New(generator, testConfig(), zap.NewNop())

	contents := []string{"good one", "bad one", "good two", "bad two", "good three"}
	results := c.ClassifyMany(t.Context(), contents)

	require.Len(t, results, len(contents))
	for i, content := range contents {
		if strings.HasPrefix(content, "bad") {
			assert.Equal(t, classifier.ActionBlock, results[i].SuggestedAction, content)
		} else {
			assert.Equal(t, classifier.ActionAllow, results[i].SuggestedAction, content)
		}
	}
	assert.Equal(t, int32(len(contents)), generator.calls.Load())
}

func TestAssessment_Decision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		assessment classifier.Assessment
		want       classifier.Outcome
	}{
		{
			name:       "allow",
			assessment: classifier.Assessment{IsAppropriate: true, SuggestedAction: classifier.ActionAllow},
			want:       classifier.OutcomeAllow,
		},
		{
			name:       "warn",
			assessment: classifier.Assessment{IsAppropriate: true, SuggestedAction: classifier.ActionWarn},
			want:       classifier.OutcomeConfirm,
		},
		{
			name:       "inappropriate but allowed",
			assessment: classifier.Assessment{IsAppropriate: false, SuggestedAction: classifier.ActionAllow},
			want:       classifier.OutcomeConfirm,
		},
		{
			name:       "block",
			assessment: classifier.Assessment{IsAppropriate: false, SuggestedAction: classifier.ActionBlock},
			want:       classifier.OutcomeBlock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.assessment.Decision())
		})
	}
}
