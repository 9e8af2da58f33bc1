package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rewired-gh/evoracle/internal/books"
	"github.com/rewired-gh/evoracle/internal/config"
	"github.com/rewired-gh/evoracle/internal/consensus"
	"github.com/rewired-gh/evoracle/internal/ev"
	"github.com/rewired-gh/evoracle/internal/server"
	"github.com/rewired-gh/evoracle/internal/storage"
)

const dump = `[{
	"id": "g1",
	"sport_key": "basketball_nba",
	"sport_title": "NBA",
	"home_team": "Boston Celtics",
	"away_team": "Miami Heat",
	"commence_time": "2030-01-12T18:00:00Z",
	"bookmakers": [
		{"key": "pinnacle", "markets": [{"key": "h2h", "outcomes": [
			{"name": "Boston Celtics", "price": -150},
			{"name": "Miami Heat", "price": 130}
		]}]},
		{"key": "draftkings", "markets": [{"key": "h2h", "outcomes": [
			{"name": "Boston Celtics", "price": -140},
			{"name": "Miami Heat", "price": 150}
		]}]}
	]
}]`

func newTestRunner(t *testing.T, input string) *runner {
	t.Helper()
	store, err := storage.New(10, ":memory:")
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{}
	cfg.Storage.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.EV.TopK = 5

	return &runner{
		cfg:   cfg,
		store: store,
		state: server.NewState(),
		input: input,
		engine: &consensus.Engine{
			GameLines: books.DefaultGameLineTable(),
			Props:     books.DefaultPropTable(),
		},
		evOpts: ev.Options{MinEV: 0.01},
	}
}

func writeDump(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "odds.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write dump: %v", err)
	}
	return path
}

func TestRunFromInput(t *testing.T) {
	r := newTestRunner(t, writeDump(t, dump))

	if err := r.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, name := range []string{storage.GamesFileName, storage.PropsFileName, storage.EVFileName} {
		if _, err := os.Stat(filepath.Join(r.cfg.Storage.OutputDir, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}

	snap, ok := r.state.Snapshot()
	if !ok || len(snap.Games.Games) != 1 {
		t.Fatalf("state not updated: ok=%v games=%d", ok, len(snap.Games.Games))
	}
	opps := r.state.Opportunities()
	if len(opps) != 1 || opps[0].Bookmaker != "draftkings" || opps[0].Side != "Miami Heat" {
		t.Errorf("opportunities = %+v", opps)
	}

	if n, _ := r.store.CountRuns(); n != 1 {
		t.Errorf("stored runs = %d, want 1", n)
	}
	top, err := r.store.TopOpportunities(r.state.RunID(), 5, 0)
	if err != nil || len(top) != 1 {
		t.Errorf("stored opportunities = %v, %v", top, err)
	}
}

func TestRestore(t *testing.T) {
	r := newTestRunner(t, writeDump(t, dump))
	r.restore()
	if _, ok := r.state.Snapshot(); ok {
		t.Fatal("empty store must not mark state ready")
	}
	if err := r.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	runID := r.state.RunID()

	fresh := &runner{store: r.store, state: server.NewState(), evOpts: r.evOpts}
	fresh.restore()
	if fresh.state.RunID() != runID {
		t.Errorf("restored run = %q, want %q", fresh.state.RunID(), runID)
	}
	if len(fresh.state.Opportunities()) != 1 {
		t.Errorf("restored %d opportunities, want 1", len(fresh.state.Opportunities()))
	}
}

func TestRunBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.json")},
		{"malformed", writeDump(t, `{"not": "a list"`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRunner(t, tt.input)
			if err := r.run(context.Background()); err == nil {
				t.Error("expected error")
			}
			if _, ok := r.state.Snapshot(); ok {
				t.Error("failed run must not update state")
			}
		})
	}
}

func TestHandleResult(t *testing.T) {
	r := newTestRunner(t, "")
	r.handleResult(errors.New("boom"))
	r.handleResult(errors.New("boom"))
	if r.consecutiveFailures != 2 {
		t.Errorf("failures = %d, want 2", r.consecutiveFailures)
	}
	r.handleResult(nil)
	if r.consecutiveFailures != 0 {
		t.Errorf("failures = %d after success, want 0", r.consecutiveFailures)
	}
}
