// Package store persists completed search runs to a local SQLite database
// for later inspection. The engine core never depends on it; recording a
// run is strictly optional.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/mindtree/search"
)

// RunSummary is one row of the run listing.
type RunSummary struct {
	RunID        string
	Problem      string
	Algorithm    string
	BestScore    float64
	EarlyStopped bool
	DepthReached int
	Generated    int
	CreatedAt    time.Time
}

// Store is the SQLite-backed run archive.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the archive at dsn and runs migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("dsn required")
	}

	// WAL journal mode and a busy timeout keep the single-writer model
	// usable; one pooled connection is optimal for a local SQLite file.
	db, err := sql.Open("sqlite", dsn+"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite db %s", dsn)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS run (
	id            TEXT PRIMARY KEY,
	problem       TEXT NOT NULL,
	algorithm     TEXT NOT NULL,
	best_thought  TEXT NOT NULL,
	early_stopped INTEGER NOT NULL,
	depth_reached INTEGER NOT NULL,
	generated     INTEGER NOT NULL,
	evaluated     INTEGER NOT NULL,
	cache_hits    INTEGER NOT NULL,
	duration_ms   INTEGER NOT NULL,
	created_ts    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS thought (
	run_id     TEXT NOT NULL,
	id         TEXT NOT NULL,
	text       TEXT NOT NULL,
	origin     TEXT NOT NULL,
	depth      INTEGER NOT NULL,
	parent_id  TEXT NOT NULL,
	score      REAL,
	confidence REAL,
	PRIMARY KEY (run_id, id)
);
CREATE TABLE IF NOT EXISTS evaluation (
	run_id           TEXT NOT NULL,
	thought_id       TEXT NOT NULL,
	overall_score    REAL NOT NULL,
	confidence       REAL NOT NULL,
	evaluator_origin TEXT NOT NULL,
	raw_scores       TEXT NOT NULL,
	PRIMARY KEY (run_id, thought_id)
);
CREATE INDEX IF NOT EXISTS idx_run_created ON run (created_ts DESC);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "migrate run archive")
	}
	return nil
}

// SaveResult records one completed run atomically.
func (s *Store) SaveResult(ctx context.Context, result *search.SearchResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO run (id, problem, algorithm, best_thought, early_stopped, depth_reached, generated, evaluated, cache_hits, duration_ms, created_ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, result.Problem, string(result.Metadata.Algorithm), result.BestThought.ID,
		boolToInt(result.Metadata.EarlyStopped), result.Metadata.DepthReached,
		result.Metadata.Generated, result.Metadata.Evaluated, result.Metadata.CacheHits,
		result.Metadata.Duration.Milliseconds(), time.Now().Unix())
	if err != nil {
		return errors.Wrapf(err, "insert run %s", result.RunID)
	}

	for _, t := range result.AllThoughts {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO thought (run_id, id, text, origin, depth, parent_id, score, confidence)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			result.RunID, t.ID, t.Text, string(t.Origin), t.Depth, t.ParentID, t.Score, t.Confidence)
		if err != nil {
			return errors.Wrapf(err, "insert thought %s", t.ID)
		}
	}

	for id, ev := range result.Evaluations {
		raw, err := json.Marshal(ev.RawScores)
		if err != nil {
			return errors.Wrap(err, "marshal raw scores")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO evaluation (run_id, thought_id, overall_score, confidence, evaluator_origin, raw_scores)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			result.RunID, id, ev.OverallScore, ev.Confidence, string(ev.EvaluatorOrigin), string(raw))
		if err != nil {
			return errors.Wrapf(err, "insert evaluation for %s", id)
		}
	}

	return errors.Wrap(tx.Commit(), "commit run")
}

// GetRun reloads a persisted run, path included.
func (s *Store) GetRun(ctx context.Context, runID string) (*search.SearchResult, error) {
	result := &search.SearchResult{RunID: runID, Evaluations: make(map[string]*search.Evaluation)}

	var bestID string
	var earlyStopped int
	var durationMs int64
	var algorithm string
	err := s.db.QueryRowContext(ctx,
		`SELECT problem, algorithm, best_thought, early_stopped, depth_reached, generated, evaluated, cache_hits, duration_ms
		 FROM run WHERE id = ?`, runID).
		Scan(&result.Problem, &algorithm, &bestID, &earlyStopped,
			&result.Metadata.DepthReached, &result.Metadata.Generated,
			&result.Metadata.Evaluated, &result.Metadata.CacheHits, &durationMs)
	if err != nil {
		return nil, errors.Wrapf(err, "load run %s", runID)
	}
	result.Metadata.Algorithm = search.Algorithm(algorithm)
	result.Metadata.EarlyStopped = earlyStopped != 0
	result.Metadata.Duration = time.Duration(durationMs) * time.Millisecond

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, origin, depth, parent_id, score, confidence FROM thought WHERE run_id = ?`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "load thoughts for run %s", runID)
	}
	defer rows.Close()
	for rows.Next() {
		t := &search.Thought{}
		var origin string
		if err := rows.Scan(&t.ID, &t.Text, &origin, &t.Depth, &t.ParentID, &t.Score, &t.Confidence); err != nil {
			return nil, errors.Wrap(err, "scan thought")
		}
		t.Origin = search.Origin(origin)
		result.AllThoughts = append(result.AllThoughts, t)
		if t.ID == bestID {
			result.BestThought = t
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate thoughts")
	}
	if result.BestThought == nil {
		return nil, errors.Errorf("run %s: best thought %s missing", runID, bestID)
	}

	evalRows, err := s.db.QueryContext(ctx,
		`SELECT thought_id, overall_score, confidence, evaluator_origin, raw_scores FROM evaluation WHERE run_id = ?`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "load evaluations for run %s", runID)
	}
	defer evalRows.Close()
	for evalRows.Next() {
		ev := &search.Evaluation{}
		var origin, raw string
		if err := evalRows.Scan(&ev.ThoughtID, &ev.OverallScore, &ev.Confidence, &origin, &raw); err != nil {
			return nil, errors.Wrap(err, "scan evaluation")
		}
		ev.EvaluatorOrigin = search.Origin(origin)
		if err := json.Unmarshal([]byte(raw), &ev.RawScores); err != nil {
			return nil, errors.Wrap(err, "unmarshal raw scores")
		}
		result.Evaluations[ev.ThoughtID] = ev
	}
	if err := evalRows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate evaluations")
	}

	path, err := search.ExtractPath(result.AllThoughts, bestID)
	if err != nil {
		return nil, err
	}
	result.Path = path
	return result, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.problem, r.algorithm, r.early_stopped, r.depth_reached, r.generated, r.created_ts,
		        COALESCE(t.score, 0)
		 FROM run r LEFT JOIN thought t ON t.run_id = r.id AND t.id = r.best_thought
		 ORDER BY r.created_ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()

	var out []*RunSummary
	for rows.Next() {
		rec := &RunSummary{}
		var earlyStopped int
		var createdTS int64
		if err := rows.Scan(&rec.RunID, &rec.Problem, &rec.Algorithm, &earlyStopped,
			&rec.DepthReached, &rec.Generated, &createdTS, &rec.BestScore); err != nil {
			return nil, errors.Wrap(err, "scan run summary")
		}
		rec.EarlyStopped = earlyStopped != 0
		rec.CreatedAt = time.Unix(createdTS, 0)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
