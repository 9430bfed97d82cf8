// Package moderation implements the moderation engine: the alert queue, the escalation
// ledger and the facade that ties them to the lexical scanner.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alumnet/modguard/internal/moderation/lexicon"
	"github.com/alumnet/modguard/internal/moderation/types"
	"github.com/alumnet/modguard/internal/storage"
	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Store keys of the three persisted collections.
const (
	KeyAlerts        = "moderationAlerts"
	KeyWarnings      = "userWarnings"
	KeyWarningCounts = "userWarningCounts"
)

const (
	// DefaultWarningTTL is how long an issued warning stays active.
	DefaultWarningTTL = 7 * 24 * time.Hour
	// DefaultExcerptLength is the maximum number of characters kept in an alert.
	DefaultExcerptLength = 200
)

// Engine owns the alert list, the warning list and the per-user warning counters.
// State is loaded in full on construction and saved in full after every mutation.
// Calls are serialized within the process; writes from other processes sharing the
// same store are last-writer-wins.
type Engine struct {
	store         storage.Store
	logger        *zap.Logger
	tracer        trace.Tracer
	lexicon       *lexicon.Lexicon
	scanner       *lexicon.Scanner
	now           func() time.Time
	warningTTL    time.Duration
	excerptLength int

	mu       sync.Mutex
	alerts   []types.ModerationAlert
	warnings []types.UserWarning
	counts   map[string]int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLexicon replaces the built-in lexicon.
func WithLexicon(lex *lexicon.Lexicon) Option {
	return func(e *Engine) {
		e.lexicon = lex
	}
}

// WithClock sets the time source used for timestamps and expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithWarningTTL sets how long issued warnings stay active.
func WithWarningTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.warningTTL = ttl
		}
	}
}

// WithExcerptLength sets the maximum characters kept in an alert's flagged content.
func WithExcerptLength(length int) Option {
	return func(e *Engine) {
		if length > 0 {
			e.excerptLength = length
		}
	}
}

// New creates an Engine and loads its state from the store.
// A collection holding unreadable data is reset to empty and logged; only a failing
// store is returned as an error.
func New(ctx context.Context, store storage.Store, logger *zap.Logger, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:         store,
		logger:        logger.Named("moderation"),
		tracer:        otel.Tracer("github.com/alumnet/modguard/internal/moderation"),
		lexicon:       lexicon.Default(),
		now:           time.Now,
		warningTTL:    DefaultWarningTTL,
		excerptLength: DefaultExcerptLength,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.scanner = lexicon.NewScanner(e.lexicon)

	if err := e.Reload(ctx); err != nil {
		return nil, err
	}

	return e, nil
}

// Reload replaces the in-memory state with the contents of the store.
func (e *Engine) Reload(ctx context.Context) error {
	alerts, err := loadCollection[[]types.ModerationAlert](ctx, e, KeyAlerts)
	if err != nil {
		return err
	}
	warnings, err := loadCollection[[]types.UserWarning](ctx, e, KeyWarnings)
	if err != nil {
		return err
	}
	counts, err := loadCollection[map[string]int](ctx, e, KeyWarningCounts)
	if err != nil {
		return err
	}

	if alerts == nil {
		alerts = make([]types.ModerationAlert, 0)
	}
	if warnings == nil {
		warnings = make([]types.UserWarning, 0)
	}
	if counts == nil {
		counts = make(map[string]int)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.alerts = alerts
	e.warnings = warnings
	e.counts = counts

	e.logger.Debug("Loaded moderation state",
		zap.Int("alerts", len(alerts)),
		zap.Int("warnings", len(warnings)),
		zap.Int("users", len(counts)))

	return nil
}

// Scan runs the lexical scanner without recording anything.
func (e *Engine) Scan(content string) types.ModerationResult {
	return e.scanner.Scan(content)
}

// Lexicon returns the lexicon the engine scans with.
func (e *Engine) Lexicon() *lexicon.Lexicon {
	return e.lexicon
}

// ModerateAndRecord scans a submission and, when it is flagged, records one alert and
// issues one warning. Clean content causes no side effects. Persistence failures are
// logged and the in-memory state stays authoritative.
func (e *Engine) ModerateAndRecord(ctx context.Context, sub types.Submission) types.Decision {
	ctx, span := e.tracer.Start(ctx, "moderation.ModerateAndRecord",
		trace.WithAttributes(
			attribute.String("user.id", sub.UserID),
			attribute.String("content.type", string(sub.ContentType)),
		))
	defer span.End()

	result := e.scanner.Scan(sub.Content)
	span.SetAttributes(
		attribute.Bool("moderation.flagged", result.IsInappropriate),
		attribute.String("moderation.severity", string(result.Severity)),
	)

	if !result.IsInappropriate {
		return types.Decision{ShouldBlock: false}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	alert := e.recordAlertLocked(sub, result)
	warning := e.issueWarningLocked(sub.UserID, result)
	e.persistLocked(ctx)

	e.logger.Info("Flagged content",
		zap.String("alertID", alert.ID),
		zap.String("userID", sub.UserID),
		zap.String("contentType", string(sub.ContentType)),
		zap.Strings("detectedTerms", result.DetectedTerms),
		zap.String("severity", string(result.Severity)),
		zap.String("warningSeverity", string(warning.Severity)))

	return types.Decision{
		ShouldBlock: result.Severity == types.SeverityHigh,
		Warning:     &warning,
	}
}

// loadCollection decodes one stored collection. Missing keys yield the zero value;
// corrupt or undecodable data is logged and also yields the zero value, never a
// partially decoded one.
func loadCollection[T any](ctx context.Context, e *Engine, key string) (T, error) {
	var empty T

	data, err := e.store.Load(ctx, key)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return empty, nil
		case errors.Is(err, storage.ErrCorrupt):
			e.logger.Warn("Discarding corrupt moderation data",
				zap.String("key", key),
				zap.Error(err))
			return empty, nil
		default:
			return empty, fmt.Errorf("failed to load %s: %w", key, err)
		}
	}

	var decoded T
	if err := sonic.Unmarshal(data, &decoded); err != nil {
		e.logger.Warn("Discarding corrupt moderation data",
			zap.String("key", key),
			zap.Error(err))
		return empty, nil
	}

	return decoded, nil
}

// persistLocked saves all three collections. Errors are logged, never returned.
func (e *Engine) persistLocked(ctx context.Context) {
	if err := e.saveLocked(ctx); err != nil {
		e.logger.Error("Failed to persist moderation state", zap.Error(err))
	}
}

func (e *Engine) saveLocked(ctx context.Context) error {
	entries := []struct {
		key   string
		value any
	}{
		{KeyAlerts, e.alerts},
		{KeyWarnings, e.warnings},
		{KeyWarningCounts, e.counts},
	}

	var errs []error
	for _, entry := range entries {
		data, err := sonic.Marshal(entry.value)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to encode %s: %w", entry.key, err))
			continue
		}

		if err := e.store.Save(ctx, entry.key, data); err != nil {
			errs = append(errs, fmt.Errorf("failed to save %s: %w", entry.key, err))
		}
	}

	return errors.Join(errs...)
}
