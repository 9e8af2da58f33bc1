package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rewired-gh/evoracle/internal/books"
	"github.com/rewired-gh/evoracle/internal/ev"
	"github.com/rewired-gh/evoracle/internal/models"
	"github.com/rewired-gh/evoracle/internal/odds"
	"github.com/rewired-gh/evoracle/internal/storage"
)

var updated = time.Date(2025, 1, 12, 18, 0, 0, 0, time.UTC)

func testSnapshot() models.Snapshot {
	point := 24.5
	return models.Snapshot{
		Games: models.GamesFile{LastUpdated: updated, Games: []models.GameRecord{
			{
				ID:       "g1",
				SportKey: "basketball_nba",
				TeamA:    "Boston Celtics",
				TeamB:    "Miami Heat",
				Moneyline: []models.ConsensusLine{{
					TrueOdds: odds.NewPair(-100, 100),
					BookmakerOdds: []models.BookmakerOdds{
						{Bookmaker: "pinnacle", Type: books.Sharp, VigOdds: odds.NewPair(-105, -105)},
						{Bookmaker: "fanduel", Type: books.Market, VigOdds: odds.NewPair(120, -140)},
					},
				}},
			},
			{
				ID:       "g2",
				SportKey: "americanfootball_nfl",
				TeamA:    "Kansas City Chiefs",
				TeamB:    "Buffalo Bills",
				Moneyline: []models.ConsensusLine{{
					TrueOdds: odds.NewPair(-100, 100),
					BookmakerOdds: []models.BookmakerOdds{
						{Bookmaker: "draftkings", Type: books.Market, VigOdds: odds.NewPair(-110, 115)},
					},
				}},
			},
		}},
		Props: models.PropsFile{LastUpdated: updated, Props: []models.Prop{
			{Line: &models.PropLine{
				PropHeader: models.PropHeader{PropID: "g1-player_points-Jayson Tatum-24.5", GameID: "g1", Market: "player_points", Player: "Jayson Tatum"},
				Point:      &point,
				TrueOdds:   models.FromPair(odds.NewPair(-100, 100)),
				BookmakerOdds: []models.PropBookmakerOdds{
					{Bookmaker: "betmgm", Type: books.Market, VigOdds: models.OverUnder{Over: odds.Price(110)}},
				},
			}},
		}},
	}
}

type fakeHistory struct {
	points []storage.LinePoint
	err    error
}

func (f *fakeHistory) LineHistory(gameID, market string) ([]storage.LinePoint, error) {
	return f.points, f.err
}

func newTestRouter(t *testing.T, history History) http.Handler {
	t.Helper()
	state := NewState()
	state.Set("run-1", testSnapshot(), nil)
	return NewHandler(state, history, Options{
		AllowedOrigins: []string{"*"},
		EV:             ev.Options{MinEV: 0.0001},
	}).Router()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthCheck(t *testing.T) {
	empty := NewHandler(NewState(), nil, Options{}).Router()
	rec := get(t, empty, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body) //nolint:errcheck
	if body["ready"] != false {
		t.Errorf("empty state should not be ready: %v", body)
	}

	rec = get(t, newTestRouter(t, nil), "/health")
	json.Unmarshal(rec.Body.Bytes(), &body) //nolint:errcheck
	if body["ready"] != true || body["runId"] != "run-1" {
		t.Errorf("health = %v", body)
	}
}

func TestNotReady(t *testing.T) {
	h := NewHandler(NewState(), nil, Options{}).Router()
	for _, path := range []string{"/api/v1/games", "/api/v1/props", "/api/v1/ev"} {
		if rec := get(t, h, path); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: status = %d, want 503", path, rec.Code)
		}
	}
}

func TestGames(t *testing.T) {
	h := newTestRouter(t, nil)
	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/games", 2},
		{"/api/v1/games?sport=basketball_nba", 1},
		{"/api/v1/games?sport=icehockey_nhl", 0},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, h, tt.path)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var gf models.GamesFile
			if err := json.Unmarshal(rec.Body.Bytes(), &gf); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(gf.Games) != tt.want {
				t.Errorf("got %d games, want %d", len(gf.Games), tt.want)
			}
		})
	}
}

func TestGame(t *testing.T) {
	h := newTestRouter(t, nil)
	rec := get(t, h, "/api/v1/games/g2")
	var g models.GameRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &g); err != nil || g.TeamA != "Kansas City Chiefs" {
		t.Errorf("game = %+v, %v", g, err)
	}
	if rec := get(t, h, "/api/v1/games/missing"); rec.Code != http.StatusNotFound {
		t.Errorf("missing game status = %d", rec.Code)
	}
}

func TestProps(t *testing.T) {
	h := newTestRouter(t, nil)
	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/props", 1},
		{"/api/v1/props?player=jayson%20tatum", 1},
		{"/api/v1/props?market=player_rebounds", 0},
		{"/api/v1/props?game_id=g2", 0},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var pf models.PropsFile
			if err := json.Unmarshal(get(t, h, tt.path).Body.Bytes(), &pf); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(pf.Props) != tt.want {
				t.Errorf("got %d props, want %d", len(pf.Props), tt.want)
			}
		})
	}
}

func TestOpportunities(t *testing.T) {
	h := newTestRouter(t, nil)
	tests := []struct {
		path string
		code int
		want int
	}{
		// fanduel +120 (0.1), draftkings +115 (0.075), betmgm +110 (0.05)
		{"/api/v1/ev", 200, 3},
		{"/api/v1/ev?min_ev=0.06", 200, 2},
		{"/api/v1/ev?max_ev=0.08", 200, 2},
		{"/api/v1/ev?book=fanduel,betmgm", 200, 2},
		{"/api/v1/ev?market=moneyline", 200, 2},
		{"/api/v1/ev?sport=americanfootball_nfl", 200, 1},
		{"/api/v1/ev?limit=1", 200, 1},
		{"/api/v1/ev?min_ev=abc", 400, 0},
		{"/api/v1/ev?min_ev=0.1&max_ev=0.05", 400, 0},
		{"/api/v1/ev?limit=-2", 400, 0},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, h, tt.path)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.code, rec.Body)
			}
			if tt.code != http.StatusOK {
				return
			}
			var f models.EVFile
			if err := json.Unmarshal(rec.Body.Bytes(), &f); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(f.Opportunities) != tt.want {
				t.Errorf("got %d opportunities, want %d", len(f.Opportunities), tt.want)
			}
		})
	}
}

func TestLineHistory(t *testing.T) {
	a, b := -150.0, 150.0
	history := &fakeHistory{points: []storage.LinePoint{
		{TrueOdds: odds.Pair{A: &a, B: &b}, BookCount: 2, RecordedAt: updated},
	}}
	h := newTestRouter(t, history)

	rec := get(t, h, "/api/v1/games/g1/history/moneyline")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var points []historyPoint
	if err := json.Unmarshal(rec.Body.Bytes(), &points); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(points) != 1 || *points[0].TrueOdds.A != -150 || points[0].BookCount != 2 {
		t.Errorf("points = %+v", points)
	}

	if rec := get(t, h, "/api/v1/games/g1/history/h2h"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad market status = %d", rec.Code)
	}

	history.err = errors.New("db closed")
	if rec := get(t, h, "/api/v1/games/g1/history/totals"); rec.Code != http.StatusInternalServerError {
		t.Errorf("error status = %d", rec.Code)
	}

	noStore := newTestRouter(t, nil)
	if rec := get(t, noStore, "/api/v1/games/g1/history/totals"); rec.Code != http.StatusNotImplemented {
		t.Errorf("no storage status = %d", rec.Code)
	}
}

func TestStateTop(t *testing.T) {
	s := NewState()
	if s.Top(3) != nil {
		t.Error("empty state should have no opportunities")
	}
	s.Set("r", models.Snapshot{}, []models.Opportunity{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	if got := s.Top(2); len(got) != 2 || got[0].ID != "a" {
		t.Errorf("Top(2) = %+v", got)
	}
	if got := s.Top(0); len(got) != 3 {
		t.Errorf("Top(0) = %d, want all", len(got))
	}
}
