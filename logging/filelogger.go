// Package logging persists the output of an executor run to disk.
package logging

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/acarl005/stripansi"

	"github.com/BrowserStackCE/browserstack-playwright-nx/reporting"
	"github.com/BrowserStackCE/browserstack-playwright-nx/runner"
)

const (
	RunDirectoryPrefix = "run-" // Standardized prefix for run directories
	OutputFilename     = "output.log"
	SummaryFilename    = "summary.log"
)

// FileLogger writes the combined child output of a single run, stripped of
// terminal escape sequences, into <baseDir>/run-<runID>/.
type FileLogger struct {
	logDir     string
	outputFile *os.File
	pending    []byte // partial line awaiting a newline
	mu         sync.Mutex
	closed     bool
	runID      string
}

// NewFileLogger creates the run directory and opens the output log.
func NewFileLogger(baseDir string, runID string) (*FileLogger, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}

	logDir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", logDir, err)
	}

	outputPath := filepath.Join(logDir, OutputFilename)
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", outputPath, err)
	}

	return &FileLogger{
		logDir:     logDir,
		outputFile: f,
		runID:      runID,
	}, nil
}

// RunDir returns the directory holding this run's logs.
func (l *FileLogger) RunDir() string {
	return l.logDir
}

// RunID returns the run ID this logger writes for.
func (l *FileLogger) RunID() string {
	return l.runID
}

// Write buffers p and flushes every complete line with ANSI sequences removed.
// Escape sequences may span Write calls, so only whole lines are stripped.
func (l *FileLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, fmt.Errorf("file logger is closed")
	}

	l.pending = append(l.pending, p...)
	idx := bytes.LastIndexByte(l.pending, '\n')
	if idx < 0 {
		return len(p), nil
	}

	complete := l.pending[:idx+1]
	if _, err := l.outputFile.WriteString(stripansi.Strip(string(complete))); err != nil {
		return 0, fmt.Errorf("failed to write output log: %w", err)
	}
	l.pending = append(l.pending[:0], l.pending[idx+1:]...)
	return len(p), nil
}

// WriteSummary writes a plain-text summary of r next to the output log.
func (l *FileLogger) WriteSummary(r *runner.Result) error {
	var buf bytes.Buffer
	reporting.PrintSummary(&buf, r, false)

	path := filepath.Join(l.logDir, SummaryFilename)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}

// Close flushes any trailing partial line and closes the output log.
// Calling Close more than once is a no-op.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	var flushErr error
	if len(l.pending) > 0 {
		_, flushErr = l.outputFile.WriteString(stripansi.Strip(string(l.pending)) + "\n")
		l.pending = nil
	}
	if err := l.outputFile.Close(); err != nil {
		return err
	}
	return flushErr
}
