package mapping

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDebounce coalesces the burst of events editors produce on save.
const reloadDebounce = 250 * time.Millisecond

// ReloadHook observes every (re)load of the rules file. err is nil on success.
type ReloadHook func(rs *RuleSet, err error)

// RuleStore owns the current rule snapshot and swaps it atomically on reload.
// Readers call Current once per unit of work and keep using that snapshot.
type RuleStore struct {
	path    string
	logger  *zap.Logger
	current atomic.Pointer[RuleSet]
	onLoad  ReloadHook
}

// NewRuleStore loads the rules file at path. A missing or malformed file is
// logged and yields the empty rule set; it is never fatal.
func NewRuleStore(path string, logger *zap.Logger, hook ReloadHook) *RuleStore {
	s := &RuleStore{
		path:   path,
		logger: logger.Named("rules"),
		onLoad: hook,
	}
	_ = s.Reload()
	return s
}

// NewStaticRuleStore wraps a fixed rule set. Reload and Watch are no-ops.
func NewStaticRuleStore(rs *RuleSet) *RuleStore {
	s := &RuleStore{logger: zap.NewNop()}
	if rs == nil {
		rs = EmptyRuleSet()
	}
	s.current.Store(rs)
	return s
}

// Current returns the active snapshot. It is never nil.
func (s *RuleStore) Current() *RuleSet {
	return s.current.Load()
}

// Path is the watched rules file.
func (s *RuleStore) Path() string {
	return s.path
}

// Reload re-reads the rules file and swaps the snapshot. On failure the empty
// rule set is installed and the error is returned for reporting.
func (s *RuleStore) Reload() error {
	if s.path == "" {
		return nil
	}

	rs, err := LoadRuleFile(s.path)
	if err != nil {
		s.logger.Warn("Asset mapping rules unavailable; using empty rule set.",
			zap.String("path", s.path), zap.Error(err))
		rs = EmptyRuleSet()
	} else {
		s.logger.Info("Asset mapping rules loaded.",
			zap.String("path", s.path),
			zap.Int("path_rules", len(rs.PathRules)),
			zap.Int("keyword_rules", len(rs.KeywordRules)))
	}
	s.current.Store(rs)

	if s.onLoad != nil {
		s.onLoad(rs, err)
	}
	return err
}

// LoadRuleFile reads and parses one rules file.
func LoadRuleFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	rs, err := ParseRules(data, formatForPath(path))
	if err != nil {
		return nil, err
	}
	rs.Source = path
	return rs, nil
}

// Watch reloads the rules whenever the file changes, until ctx is done. The
// parent directory is watched so atomic replace-on-save is picked up. Watch
// blocks; run it in its own goroutine.
func (s *RuleStore) Watch(ctx context.Context) error {
	if s.path == "" {
		return errors.New("rule store has no backing file")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(s.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}
	s.logger.Debug("Watching asset mapping rules.", zap.String("path", target))

	debounce := time.NewTimer(reloadDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			debounce.Reset(reloadDebounce)
		case <-debounce.C:
			_ = s.Reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Rules watcher error.", zap.Error(err))
		}
	}
}
