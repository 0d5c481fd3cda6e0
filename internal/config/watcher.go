package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/finflow/tax-advisor/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// DebounceDelay collapses the several events editors emit for one save
const DebounceDelay = 100 * time.Millisecond

// WatchRules reloads the rules file whenever it changes and passes each valid
// result to onChange. Invalid files are logged and skipped, so the caller keeps
// whatever rules it already had. WatchRules returns once the watch is set up;
// the watch stops when ctx is cancelled.
func WatchRules(ctx context.Context, path string, logger logging.Logger, onChange func(*domain.RulesConfig)) error {
	logger = logging.OrNop(logger)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory so atomic saves (rename over the file) are seen.
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	go runRulesWatcher(ctx, watcher, abs, logger, onChange)
	return nil
}

func runRulesWatcher(ctx context.Context, watcher *fsnotify.Watcher, path string, logger logging.Logger, onChange func(*domain.RulesConfig)) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		_ = watcher.Close()
	}()

	parser := NewRulesParser()
	reload := func() {
		rules, err := parser.LoadFromFile(path)
		if err != nil {
			logger.Warnf("rules reload failed, keeping previous rules: %v", err)
			return
		}
		logger.Infof("rules reloaded from %s (default %s)", path, rules.DefaultFinancialYear)
		onChange(rules)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(DebounceDelay, reload)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Errorf("rules watcher error: %v", err)
		}
	}
}
