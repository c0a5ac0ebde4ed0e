package mapping

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func writeRules(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewRuleStore(t *testing.T) {
	t.Run("loads the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.json")
		writeRules(t, path, sampleRulesJSON)

		var hookErr error
		hookCalls := 0
		store := NewRuleStore(path, zap.NewNop(), func(rs *RuleSet, err error) {
			hookCalls++
			hookErr = err
		})

		rs := store.Current()
		require.NotNil(t, rs)
		assert.Len(t, rs.PathRules, 3)
		assert.Equal(t, path, rs.Source)
		assert.Equal(t, 1, hookCalls)
		assert.NoError(t, hookErr)
	})

	t.Run("missing file yields empty rule set and a warning", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		store := NewRuleStore(filepath.Join(t.TempDir(), "absent.json"), zap.New(core), nil)

		rs := store.Current()
		assert.Empty(t, rs.PathRules)
		assert.True(t, rs.Tiers.AIFallback)
		assert.Equal(t, 1, logs.FilterMessage("Asset mapping rules unavailable; using empty rule set.").Len())
	})

	t.Run("malformed file yields empty rule set", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.json")
		writeRules(t, path, `{"path_rules": `)

		store := NewRuleStore(path, zap.NewNop(), nil)
		assert.Equal(t, EmptyRuleSet().Tiers, store.Current().Tiers)
		assert.Empty(t, store.Current().KeywordRules)
	})
}

func TestRuleStore_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRules(t, path, "path_rules:\n  rules:\n    a:\n      src/a: A-1\n")

	store := NewRuleStore(path, zap.NewNop(), nil)
	before := store.Current()
	require.Len(t, before.PathRules, 1)

	writeRules(t, path, "path_rules:\n  rules:\n    a:\n      src/a: A-1\n      src/b: B-1\n")
	require.NoError(t, store.Reload())

	after := store.Current()
	assert.Len(t, after.PathRules, 2)
	// Snapshots already handed out are never mutated.
	assert.Len(t, before.PathRules, 1)
}

func TestRuleStore_ConcurrentReadDuringReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	writeRules(t, path, sampleRulesJSON)
	store := NewRuleStore(path, zap.NewNop(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				rs := store.Current()
				assert.Len(t, rs.PathRules, 3)
			}
		}()
	}
	for i := 0; i < 20; i++ {
		require.NoError(t, store.Reload())
	}
	wg.Wait()
}

func TestStaticRuleStore(t *testing.T) {
	rs := mustParse(sampleRulesJSON)
	store := NewStaticRuleStore(rs)
	assert.Same(t, rs, store.Current())
	assert.NoError(t, store.Reload())

	assert.NotNil(t, NewStaticRuleStore(nil).Current())

	err := store.Watch(context.Background())
	assert.ErrorContains(t, err, "no backing file")
}

func TestRuleStore_Watch(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	writeRules(t, path, `{"path_rules": {"rules": {"a": {"src/a": "A-1"}}}}`)

	reloaded := make(chan *RuleSet, 4)
	store := NewRuleStore(path, zap.NewNop(), func(rs *RuleSet, err error) {
		if err == nil {
			select {
			case reloaded <- rs:
			default:
			}
		}
	})
	<-reloaded // initial load

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx) }()

	// Give the watcher time to register before editing.
	time.Sleep(100 * time.Millisecond)
	writeRules(t, path, `{"path_rules": {"rules": {"a": {"src/a": "A-1", "src/b": "B-1"}}}}`)

	// Unrelated files in the same directory are ignored.
	writeRules(t, filepath.Join(dir, "other.json"), `{}`)

	select {
	case rs := <-reloaded:
		assert.Len(t, rs.PathRules, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("rules were not reloaded after the file changed")
	}
	assert.Len(t, store.Current().PathRules, 2)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop after cancellation")
	}
}
