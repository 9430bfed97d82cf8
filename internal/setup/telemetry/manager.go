package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/alumnet/modguard/internal/setup/config"
	"github.com/alumnet/modguard/internal/setup/telemetry/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// latestLink is the name of the link pointing at the newest session directory.
const latestLink = "latest"

// ServiceType represents the type of service being initialized.
type ServiceType int

const (
	ServiceServer ServiceType = iota
	ServiceCLI
)

// String returns the component name used for log files.
func (s ServiceType) String() string {
	switch s {
	case ServiceServer:
		return "server"
	case ServiceCLI:
		return "modctl"
	default:
		return "unknown"
	}
}

// Manager handles the creation and management of log files and directories.
// Each run writes into a timestamped session directory and "latest" points at it.
type Manager struct {
	instanceID        string               // Unique identifier for this program instance
	componentName     string               // Component identifier for this instance
	currentSessionDir string               // Path to the current session's log directory
	logDir            string               // Base directory for all logs
	level             string               // Logging level (debug, info, warn, error)
	maxLogsToKeep     int                  // Maximum number of log sessions to retain
	maxLogLines       int                  // Maximum number of lines to keep in each log file
	rotators          []*logger.LogRotator // Open log files
}

// NewManager creates a new Manager instance.
func NewManager(serviceType ServiceType, logDir string, debugCfg *config.Debug) *Manager {
	return &Manager{
		instanceID:    uuid.New().String(),
		componentName: serviceType.String(),
		logDir:        logDir,
		level:         debugCfg.LogLevel,
		maxLogsToKeep: debugCfg.MaxLogsToKeep,
		maxLogLines:   debugCfg.MaxLogLines,
	}
}

// GetLogger initializes the application logger for this session.
func (lm *Manager) GetLogger() (*zap.Logger, error) {
	if err := lm.setupLogDirectories(); err != nil {
		return nil, err
	}

	mainLogger, err := lm.initLogger(filepath.Join(lm.currentSessionDir, lm.componentName+".log"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize main logger: %w", err)
	}

	return mainLogger.With(zap.String("instanceID", lm.instanceID)), nil
}

// GetCurrentSessionDir returns the current session directory.
func (lm *Manager) GetCurrentSessionDir() string {
	return lm.currentSessionDir
}

// GetInstanceID returns the unique instance identifier for this program run.
func (lm *Manager) GetInstanceID() string {
	return lm.instanceID
}

// Stop closes every log file opened by the manager.
func (lm *Manager) Stop() {
	for _, rotator := range lm.rotators {
		rotator.Close()
	}
	lm.rotators = nil
}

// setupLogDirectories creates and manages the log directory structure.
// It ensures the base directory exists, rotates old logs, and creates a new session directory.
func (lm *Manager) setupLogDirectories() error {
	if err := os.MkdirAll(lm.logDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	if err := lm.rotateLogSessions(); err != nil {
		return fmt.Errorf("failed to rotate log sessions: %w", err)
	}

	lm.currentSessionDir = filepath.Join(lm.logDir,
		time.Now().Format("2006-01-02_15-04-05")+"_"+lm.instanceID[:8])
	if err := os.MkdirAll(lm.currentSessionDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	return lm.updateLatestLink()
}

// updateLatestLink points the "latest" link at the current session directory.
func (lm *Manager) updateLatestLink() error {
	link := filepath.Join(lm.logDir, latestLink)

	if err := os.Remove(link); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove latest link: %w", err)
	}

	if err := os.Symlink(filepath.Base(lm.currentSessionDir), link); err != nil {
		return fmt.Errorf("failed to create latest link: %w", err)
	}

	return nil
}

// initLogger creates a zap logger writing to a line-capped file and recording
// errors as trace spans.
func (lm *Manager) initLogger(path string) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(lm.level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	rotator, err := logger.NewLogRotator(path, lm.maxLogLines)
	if err != nil {
		return nil, err
	}
	lm.rotators = append(lm.rotators, rotator)

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	fileCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		rotator,
		zapLevel,
	)

	return zap.New(
		zapcore.NewTee(fileCore, NewCore()),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Development(),
	), nil
}

// rotateLogSessions maintains the log directory by removing old sessions.
// Keeps only the most recent sessions based on maxLogsToKeep.
func (lm *Manager) rotateLogSessions() error {
	entries, err := os.ReadDir(lm.logDir)
	if err != nil {
		return err
	}

	sessions := make([]os.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == latestLink {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		sessions = append(sessions, info)
	}

	// Leave room for the session about to be created
	keep := max(lm.maxLogsToKeep-1, 0)
	if len(sessions) <= keep {
		return nil
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ModTime().Before(sessions[j].ModTime())
	})

	for _, session := range sessions[:len(sessions)-keep] {
		if err := os.RemoveAll(filepath.Join(lm.logDir, session.Name())); err != nil {
			return err
		}
	}

	return nil
}
