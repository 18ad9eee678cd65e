// Package ingest feeds candidate batches into the engine from a spool
// directory written by other platform processes.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/core"
)

// SpoolSource watches a directory for candidate files and runs a
// distribution for each one. A spool file starts with a header line
// "repository_id initiator_user_id" followed by one candidate email per
// line. Processed files are removed. Writers should compose a file under a
// dot-name (ignored) and rename it into place, so a finished file surfaces
// as a single create event.
type SpoolSource struct {
	dir     string
	engine  *core.SnowballService
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSpoolSource creates a new spool directory source
func NewSpoolSource(dir string, engine *core.SnowballService, logger *zap.Logger) (*SpoolSource, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create spool watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &SpoolSource{
		dir:     dir,
		engine:  engine,
		watcher: watcher,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start begins watching the spool directory. Files already present are
// processed before new events are handled.
func (s *SpoolSource) Start() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create spool directory: %w", err)
	}
	if err := s.watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch spool directory: %w", err)
	}

	s.wg.Add(1)
	go s.run()

	s.logger.Info("Spool source started", zap.String("dir", s.dir))
	return nil
}

// Stop halts the watcher and waits for in-flight processing
func (s *SpoolSource) Stop() error {
	s.cancel()
	err := s.watcher.Close()
	s.wg.Wait()
	return err
}

func (s *SpoolSource) run() {
	defer s.wg.Done()

	s.drain()

	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			// Only creates (including renames into the directory) mark a
			// complete file; write events would fire a second time for the
			// same file and race with its removal.
			if event.Op&fsnotify.Create == 0 {
				continue
			}
			s.process(event.Name)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("Spool watcher error", zap.Error(err))
		}
	}
}

// drain processes files that were already spooled before the watcher started
func (s *SpoolSource) drain() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error("Failed to read spool directory", zap.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		s.process(filepath.Join(s.dir, entry.Name()))
	}
}

func (s *SpoolSource) process(path string) {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}

	repoID, initiatorID, emails, err := readSpoolFile(path)
	if err != nil {
		// A file that is already gone was consumed by an earlier event.
		if os.IsNotExist(err) {
			return
		}
		s.logger.Error("Failed to read spool file",
			zap.String("path", path),
			zap.Error(err))
		return
	}

	result, err := s.engine.Distribute(s.ctx, repoID, emails, initiatorID)
	if err != nil {
		s.logger.Error("Spool distribution failed",
			zap.String("path", path),
			zap.String("repository_id", repoID),
			zap.Error(err))
		return
	}

	s.logger.Info("Spool file processed",
		zap.String("path", path),
		zap.String("batch_id", result.BatchID),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("results", len(result.Results)))

	if err := os.Remove(path); err != nil {
		s.logger.Warn("Failed to remove processed spool file",
			zap.String("path", path),
			zap.Error(err))
	}
}

// readSpoolFile parses a spool file: a header line with the repository and
// initiating user, then one candidate email per line.
func readSpoolFile(path string) (repoID, initiatorID string, emails []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return "", "", nil, fmt.Errorf("empty spool file")
	}
	header := strings.Fields(scanner.Text())
	if len(header) != 2 {
		return "", "", nil, fmt.Errorf("malformed spool header: want \"repository_id initiator_id\"")
	}
	repoID, initiatorID = header[0], header[1]

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		emails = append(emails, line)
	}
	if err := scanner.Err(); err != nil {
		return "", "", nil, err
	}
	return repoID, initiatorID, emails, nil
}
