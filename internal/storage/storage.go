// Package storage provides SQLite-backed persistence for engine runs,
// consensus line history and +EV opportunities.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rewired-gh/evoracle/internal/models"
	"github.com/rewired-gh/evoracle/internal/odds"
)

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db      *sql.DB
	maxRuns int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/evoracle/data.db.
func New(maxRuns int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "evoracle", "data.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s := &Storage{db: db, maxRuns: maxRuns}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id              TEXT PRIMARY KEY,
			last_updated    INTEGER NOT NULL,
			game_count      INTEGER NOT NULL,
			prop_count      INTEGER NOT NULL,
			games_json      TEXT NOT NULL,
			props_json      TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS lines (
			run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			game_id         TEXT NOT NULL,
			sport_key       TEXT NOT NULL,
			market          TEXT NOT NULL,
			point           REAL,
			true_a          REAL,
			true_b          REAL,
			market_a        REAL,
			market_b        REAL,
			book_count      INTEGER NOT NULL,
			recorded_at     INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS opportunities (
			id              TEXT NOT NULL,
			run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			kind            TEXT NOT NULL,
			line_id         TEXT NOT NULL,
			game_id         TEXT NOT NULL,
			sport           TEXT NOT NULL,
			sport_key       TEXT NOT NULL,
			team_a          TEXT NOT NULL,
			team_b          TEXT NOT NULL,
			game_time       INTEGER NOT NULL,
			market          TEXT NOT NULL,
			player          TEXT,
			point           REAL,
			side            TEXT NOT NULL,
			bookmaker       TEXT NOT NULL,
			odds            REAL NOT NULL,
			true_prob       REAL NOT NULL,
			ev              REAL NOT NULL,
			detected_at     INTEGER NOT NULL,
			notified        INTEGER DEFAULT 0,
			PRIMARY KEY (run_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_last_updated ON runs(last_updated DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_lines_game ON lines(game_id, market, recorded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_opportunities_ev ON opportunities(run_id, ev DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Run is a persisted engine run.
type Run struct {
	ID       string
	Snapshot models.Snapshot
}

// SaveRun stores a snapshot and its opportunities in one transaction and
// rotates out the oldest runs. It returns the new run ID.
func (s *Storage) SaveRun(snap models.Snapshot, opps []models.Opportunity) (string, error) {
	for i := range snap.Games.Games {
		if err := snap.Games.Games[i].Validate(); err != nil {
			return "", fmt.Errorf("invalid game %s: %w", snap.Games.Games[i].ID, err)
		}
	}
	for i := range opps {
		if err := opps[i].Validate(); err != nil {
			return "", fmt.Errorf("invalid opportunity: %w", err)
		}
	}

	gamesJSON, err := json.Marshal(snap.Games)
	if err != nil {
		return "", fmt.Errorf("failed to marshal games: %w", err)
	}
	propsJSON, err := json.Marshal(snap.Props)
	if err != nil {
		return "", fmt.Errorf("failed to marshal props: %w", err)
	}

	runID := uuid.New().String()
	stamp := snap.Games.LastUpdated
	if stamp.IsZero() {
		stamp = time.Now()
	}
	recordedAt := stamp.UnixNano()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`
		INSERT INTO runs (id, last_updated, game_count, prop_count, games_json, props_json)
		VALUES (?,?,?,?,?,?)`,
		runID, recordedAt, len(snap.Games.Games), len(snap.Props.Props),
		string(gamesJSON), string(propsJSON),
	); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	lineStmt, err := tx.Prepare(`
		INSERT INTO lines
			(run_id, game_id, sport_key, market, point, true_a, true_b,
			 market_a, market_b, book_count, recorded_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare line insert: %w", err)
	}
	defer lineStmt.Close()

	for _, g := range snap.Games.Games {
		for _, set := range []struct {
			market string
			lines  []models.ConsensusLine
		}{{"moneyline", g.Moneyline}, {"spreads", g.Spreads}, {"totals", g.Totals}} {
			for _, l := range set.lines {
				var marketA, marketB *float64
				if l.MarketOdds != nil {
					marketA, marketB = l.MarketOdds.A, l.MarketOdds.B
				}
				if _, err := lineStmt.Exec(
					runID, g.ID, g.SportKey, set.market, nullFloat(l.Point),
					nullFloat(l.TrueOdds.A), nullFloat(l.TrueOdds.B),
					nullFloat(marketA), nullFloat(marketB),
					len(l.BookmakerOdds), recordedAt,
				); err != nil {
					return "", fmt.Errorf("failed to insert line: %w", err)
				}
			}
		}
	}

	for _, o := range opps {
		if _, err := tx.Exec(`
			INSERT INTO opportunities
				(id, run_id, kind, line_id, game_id, sport, sport_key, team_a, team_b,
				 game_time, market, player, point, side, bookmaker, odds, true_prob, ev,
				 detected_at, notified)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,0)`,
			o.ID, runID, o.Kind, o.LineID, o.GameID, o.Sport, o.SportKey, o.TeamA, o.TeamB,
			o.GameTime.UnixNano(), o.Market, o.Player,
			nullFloat(o.Point), o.Side, o.Bookmaker, o.Odds, o.TrueProb, o.EV, recordedAt,
		); err != nil {
			return "", fmt.Errorf("failed to insert opportunity: %w", err)
		}
	}

	if err := rotateRuns(tx, s.maxRuns); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// LatestRun returns the most recent run, or nil when none is stored.
func (s *Storage) LatestRun() (*Run, error) {
	row := s.db.QueryRow(`
		SELECT id, games_json, props_json FROM runs
		ORDER BY last_updated DESC, rowid DESC LIMIT 1`)

	var run Run
	var gamesJSON, propsJSON string
	err := row.Scan(&run.ID, &gamesJSON, &propsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	if err := json.Unmarshal([]byte(gamesJSON), &run.Snapshot.Games); err != nil {
		return nil, fmt.Errorf("failed to unmarshal games: %w", err)
	}
	if err := json.Unmarshal([]byte(propsJSON), &run.Snapshot.Props); err != nil {
		return nil, fmt.Errorf("failed to unmarshal props: %w", err)
	}
	return &run, nil
}

// CountRuns returns the number of stored runs.
func (s *Storage) CountRuns() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

const opportunityCols = `o.id, o.kind, o.line_id, o.game_id, o.sport, o.sport_key, o.team_a,
	o.team_b, o.game_time, o.market, o.player, o.point, o.side, o.bookmaker, o.odds,
	o.true_prob, o.ev`

// TopOpportunities returns the k highest-EV opportunities of a run that
// have not been notified yet. An opportunity already notified within
// cooldown before this run is skipped unless its EV has since improved.
func (s *Storage) TopOpportunities(runID string, k int, cooldown time.Duration) ([]models.Opportunity, error) {
	rows, err := s.db.Query(`
		SELECT `+opportunityCols+` FROM opportunities o
		WHERE o.run_id = ? AND o.notified = 0
		AND NOT EXISTS (
			SELECT 1 FROM opportunities p
			WHERE p.id = o.id AND p.notified = 1
			AND p.detected_at >= o.detected_at - ? AND p.ev >= o.ev
		)
		ORDER BY o.ev DESC, o.id ASC LIMIT ?`, runID, cooldown.Nanoseconds(), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities: %w", err)
	}
	defer rows.Close()

	var opps []models.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		opps = append(opps, *o)
	}
	return opps, rows.Err()
}

// MarkNotified flags opportunities of a run as sent.
func (s *Storage) MarkNotified(runID string, ids []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, id := range ids {
		if _, err := tx.Exec(`UPDATE opportunities SET notified = 1 WHERE run_id = ? AND id = ?`, runID, id); err != nil {
			return fmt.Errorf("failed to mark opportunity %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// LinePoint is one run's consensus for a game line.
type LinePoint struct {
	Point      *float64
	TrueOdds   odds.Pair
	MarketOdds odds.Pair
	BookCount  int
	RecordedAt time.Time
}

// LineHistory returns how a game's market moved across stored runs, oldest
// first.
func (s *Storage) LineHistory(gameID, market string) ([]LinePoint, error) {
	rows, err := s.db.Query(`
		SELECT point, true_a, true_b, market_a, market_b, book_count, recorded_at
		FROM lines WHERE game_id = ? AND market = ?
		ORDER BY recorded_at ASC, rowid ASC`, gameID, market)
	if err != nil {
		return nil, fmt.Errorf("failed to query line history: %w", err)
	}
	defer rows.Close()

	history := []LinePoint{}
	for rows.Next() {
		var p LinePoint
		var point, trueA, trueB, marketA, marketB sql.NullFloat64
		var recordedAt int64
		if err := rows.Scan(&point, &trueA, &trueB, &marketA, &marketB, &p.BookCount, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}
		p.Point = floatPtr(point)
		p.TrueOdds = odds.Pair{A: floatPtr(trueA), B: floatPtr(trueB)}
		p.MarketOdds = odds.Pair{A: floatPtr(marketA), B: floatPtr(marketB)}
		p.RecordedAt = time.Unix(0, recordedAt).UTC()
		history = append(history, p)
	}
	return history, rows.Err()
}

// RotateRuns keeps at most maxRuns newest runs. Cascading deletes remove
// their lines and opportunities.
func (s *Storage) RotateRuns() error {
	return rotateRuns(s.db, s.maxRuns)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func rotateRuns(db execer, maxRuns int) error {
	_, err := db.Exec(`
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY last_updated DESC, rowid DESC LIMIT ?
		)`, maxRuns)
	if err != nil {
		return fmt.Errorf("failed to rotate runs: %w", err)
	}
	return nil
}

func scanOpportunity(scan func(...any) error) (*models.Opportunity, error) {
	var o models.Opportunity
	var player sql.NullString
	var point sql.NullFloat64
	var gameTime int64
	err := scan(
		&o.ID, &o.Kind, &o.LineID, &o.GameID, &o.Sport, &o.SportKey, &o.TeamA, &o.TeamB,
		&gameTime, &o.Market, &player, &point, &o.Side, &o.Bookmaker, &o.Odds, &o.TrueProb, &o.EV,
	)
	if err != nil {
		return nil, err
	}
	o.GameTime = time.Unix(0, gameTime).UTC()
	o.Player = player.String
	o.Point = floatPtr(point)
	return &o, nil
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
