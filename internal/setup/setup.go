package setup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/alumnet/modguard/internal/ai/classifier"
	"github.com/alumnet/modguard/internal/moderation"
	"github.com/alumnet/modguard/internal/moderation/lexicon"
	"github.com/alumnet/modguard/internal/setup/config"
	"github.com/alumnet/modguard/internal/setup/telemetry"
	"github.com/alumnet/modguard/internal/storage"
	"go.uber.org/zap"
)

// ErrInvalidLexicon is returned when the configured lexicon fails validation.
var ErrInvalidLexicon = errors.New("lexicon has errors")

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config     *config.Config         // Application configuration
	Logger     *zap.Logger            // Main application logger
	LogManager *telemetry.Manager     // Log management system
	Store      storage.Store          // Durable moderation state
	Engine     *moderation.Engine     // Moderation engine
	Classifier *classifier.Classifier // Advisory classifier
	generator  *classifier.GeminiGenerator
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
// An empty configFile searches the default config paths.
func InitializeApp(
	ctx context.Context, serviceType telemetry.ServiceType, logDir string, configFile string,
) (*App, error) {
	// Load app configuration
	cfg, err := loadConfig(configFile)
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(serviceType, logDir, &cfg.Debug)

	logger, err := logManager.GetLogger()
	if err != nil {
		return nil, err
	}

	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", zap.Error(err))
		logManager.Stop()
		return nil, err
	}

	app.LogManager = logManager

	return app, nil
}

// NewApp builds the store, engine and classifier from an already loaded config.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	lex, err := loadLexicon(cfg.Moderation.LexiconPath, logger)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	engine, err := moderation.New(ctx, store, logger,
		moderation.WithLexicon(lex),
		moderation.WithWarningTTL(time.Duration(cfg.Moderation.WarningTTLHours)*time.Hour),
		moderation.WithExcerptLength(cfg.Moderation.ExcerptLength),
	)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load moderation state: %w", err)
	}

	// Classifier runs without a model when disabled or unconfigured
	var generator *classifier.GeminiGenerator
	if cfg.Classifier.Enabled && cfg.GeminiAI.APIKey != "" {
		generator, err = classifier.NewGeminiGenerator(ctx, &cfg.GeminiAI)
		if err != nil {
			store.Close()
			return nil, err
		}
	} else if cfg.Classifier.Enabled {
		logger.Warn("Classifier enabled without a Gemini API key, all content will be allowed")
	}

	// A nil *GeminiGenerator must not become a non-nil Generator
	var cls *classifier.Classifier
	if generator != nil {
		cls = classifier.New(generator, &cfg.Classifier, logger)
	} else {
		cls = classifier.New(nil, &cfg.Classifier, logger)
	}

	logger.Info("Application initialized",
		zap.String("storage", cfg.Storage.Driver),
		zap.Int("lexiconTerms", len(lex.Terms)),
		zap.Bool("classifier", cls.Enabled()))

	return &App{
		Config:     cfg,
		Logger:     logger,
		Store:      store,
		Engine:     engine,
		Classifier: cls,
		generator:  generator,
	}, nil
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (s *App) Cleanup() {
	if s.generator != nil {
		if err := s.generator.Close(); err != nil {
			s.Logger.Error("Failed to close classifier client", zap.Error(err))
		}
	}

	if err := s.Store.Close(); err != nil {
		s.Logger.Error("Failed to close store", zap.Error(err))
	}

	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if s.LogManager != nil {
		s.LogManager.Stop()
	}
}

func loadConfig(configFile string) (*config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile)
	}

	cfg, _, err := config.LoadConfig()
	return cfg, err
}

// loadLexicon loads the configured lexicon and rejects one with errors.
func loadLexicon(path string, logger *zap.Logger) (*lexicon.Lexicon, error) {
	lex, err := lexicon.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}

	hasErrors := false
	for _, issue := range lexicon.Validate(lex) {
		if issue.IsError() {
			hasErrors = true
			logger.Error("Lexicon issue",
				zap.String("type", issue.Type),
				zap.String("term", issue.Term),
				zap.String("description", issue.Description))
		} else {
			logger.Debug("Lexicon issue",
				zap.String("type", issue.Type),
				zap.String("term", issue.Term),
				zap.String("description", issue.Description))
		}
	}

	if hasErrors {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLexicon, path)
	}

	return lex, nil
}
