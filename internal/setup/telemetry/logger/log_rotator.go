// Package logger provides line-capped log files for session logs.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LogRotator appends to a log file and trims it back to the most recent lines.
// The file is rewritten each time twice the line cap has been written, so it
// holds between maxLines and 2*maxLines lines.
type LogRotator struct {
	file     *os.File
	buffer   *RingBuffer
	filePath string
	mu       sync.Mutex
}

// NewLogRotator opens (or creates) the log file at path.
func NewLogRotator(path string, maxLines int) (*LogRotator, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	return &LogRotator{
		file:     file,
		buffer:   NewRingBuffer(maxLines),
		filePath: path,
	}, nil
}

// Write implements io.Writer.
func (w *LogRotator) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}

	for line := range strings.SplitSeq(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}

		w.buffer.Add(line)

		if w.buffer.sinceCut >= 2*w.buffer.Capacity() {
			if err := w.trim(); err != nil {
				return n, fmt.Errorf("failed to rotate log file: %w", err)
			}
			w.buffer.sinceCut = w.buffer.Len()
		}
	}

	return n, nil
}

// Sync implements zapcore.WriteSyncer.
func (w *LogRotator) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Sync()
}

// Close closes the underlying file.
func (w *LogRotator) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}

// trim replaces the file with the buffered lines and reopens it for appending.
func (w *LogRotator) trim() error {
	lines := w.buffer.Lines()
	if len(lines) == 0 {
		return nil
	}

	temp, err := os.CreateTemp(filepath.Dir(w.filePath), "temp-log-")
	if err != nil {
		return err
	}

	tempPath := temp.Name()

	if _, err := temp.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		temp.Close()
		os.Remove(tempPath)

		return err
	}

	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}

	w.file.Close()

	if err := os.Rename(tempPath, w.filePath); err != nil {
		os.Remove(tempPath)
		return err
	}

	file, err := os.OpenFile(w.filePath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w.file = file

	return nil
}
