// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	vcerrors "github.com/tombee/vcops/pkg/errors"
)

// ReadInstructions loads a runbook file from disk.
func ReadInstructions(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &vcerrors.NotFoundError{Resource: "instructions file", ID: path}
		}
		return "", vcerrors.Wrapf(err, "reading instructions file %s", path)
	}
	return string(data), nil
}

// Source serves the current parsed plan for a runbook file and keeps it
// fresh when the file changes on disk. All methods are safe for concurrent
// use; MCP tool handlers read the plan while the watcher goroutine refreshes
// it.
type Source struct {
	path   string
	parser *Parser
	logger *slog.Logger

	mu   sync.RWMutex
	plan *Plan
}

// NewSource creates a Source for the given runbook path. The file is not
// read until Load or Start is called.
func NewSource(path string, parser *Parser, logger *slog.Logger) *Source {
	if parser == nil {
		parser = NewParser()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		path:   path,
		parser: parser,
		logger: logger.With(slog.String("component", "maintenance"), slog.String("path", path)),
	}
}

// Path returns the runbook path the source reads from.
func (s *Source) Path() string {
	return s.path
}

// Load reads and parses the runbook, replacing the cached plan on success.
// On failure the previous plan, if any, stays in place.
func (s *Source) Load() (*Plan, error) {
	text, err := ReadInstructions(s.path)
	if err != nil {
		recordParse("error")
		return nil, err
	}

	plan, err := s.parser.Parse(text)
	if err != nil {
		recordParse("error")
		return nil, err
	}
	recordParse("ok")

	s.mu.Lock()
	s.plan = plan
	s.mu.Unlock()
	return plan, nil
}

// Plan returns the cached plan, loading it on first use.
func (s *Source) Plan() (*Plan, error) {
	s.mu.RLock()
	plan := s.plan
	s.mu.RUnlock()
	if plan != nil {
		return plan, nil
	}
	return s.Load()
}

// Start watches the runbook file and reloads the plan when it is written.
// Editors that replace the file (rename then create) are handled by watching
// the parent directory and filtering on the file name. Start returns once
// the watcher is registered; reloads happen in a background goroutine until
// ctx is cancelled.
func (s *Source) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	absPath, err := filepath.Abs(s.path)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch path: %w", err)
	}

	go s.watchLoop(ctx, watcher, absPath)
	s.logger.Info("runbook watcher started")
	return nil
}

func (s *Source) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, absPath string) {
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("runbook watcher stopped")
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != absPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if _, err := s.Load(); err != nil {
				recordReload("error")
				s.logger.Warn("runbook reload failed, keeping previous plan", "error", err)
				continue
			}
			recordReload("ok")
			s.logger.Info("runbook reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("runbook watcher error", "error", err)
		}
	}
}
