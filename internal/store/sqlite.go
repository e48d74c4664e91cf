package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/vicsek"
	_ "modernc.org/sqlite" // SQLite driver
)

// Run describes one simulation of a sweep.
type Run struct {
	ID        int64
	Params    vicsek.Params
	Seed      uint64
	StartedAt time.Time
}

// Sample is the order parameter after Step steps.
type Sample struct {
	Step  uint64
	Order float64
}

// RunSummary aggregates the samples of a run taken at or after a burn-in step.
type RunSummary struct {
	Run
	Samples int
	Mean    float64
}

// Store keeps sweep results in a SQLite database.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with single writer; it also keeps ":memory:" on one connection.
	db.SetMaxOpenConns(1)

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// CreateRun inserts a run and returns it with its ID set.
func (s *Store) CreateRun(ctx context.Context, p vicsek.Params, seed uint64) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := Run{Params: p, Seed: seed, StartedAt: time.Now().UTC()}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (n, l, v0, eta, r, dt, seed, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.N, p.L, p.V0, p.Eta, p.R, p.Dt, int64(seed), run.StartedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Run{}, fmt.Errorf("failed to insert run: %w", err)
	}
	if run.ID, err = res.LastInsertId(); err != nil {
		return Run{}, fmt.Errorf("failed to read run id: %w", err)
	}
	return run, nil
}

// AddSamples appends samples to a run in a single transaction.
func (s *Store) AddSamples(ctx context.Context, runID int64, samples []Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO samples (run_id, step, order_param) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, sm := range samples {
		if _, err := stmt.ExecContext(ctx, runID, int64(sm.Step), sm.Order); err != nil {
			return fmt.Errorf("failed to insert sample %d of run %d: %w", sm.Step, runID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit samples: %w", err)
	}
	return nil
}

// Samples returns the samples of a run ordered by step.
func (s *Store) Samples(ctx context.Context, runID int64) ([]Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT step, order_param FROM samples WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var step int64
		var sm Sample
		if err := rows.Scan(&step, &sm.Order); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		sm.Step = uint64(step)
		out = append(out, sm)
	}
	return out, rows.Err()
}

// Summary returns the runs with the mean order parameter of their samples
// taken at step burnIn or later, ordered by noise then id. With ids it is
// restricted to those runs, otherwise every run is listed. Runs without
// such samples report zero samples and a zero mean.
func (s *Store) Summary(ctx context.Context, burnIn uint64, ids ...int64) ([]RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	args := []any{int64(burnIn)}
	where := ""
	if len(ids) > 0 {
		where = "WHERE r.id IN (?" + strings.Repeat(", ?", len(ids)-1) + ")"
		for _, id := range ids {
			args = append(args, id)
		}
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.n, r.l, r.v0, r.eta, r.r, r.dt, r.seed, r.started_at,
		       COUNT(sm.step), COALESCE(AVG(sm.order_param), 0)
		FROM runs r
		LEFT JOIN samples sm ON sm.run_id = r.id AND sm.step >= ?
		`+where+`
		GROUP BY r.id
		ORDER BY r.eta, r.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var rs RunSummary
		var seed int64
		var started string
		if err := rows.Scan(&rs.ID, &rs.Params.N, &rs.Params.L, &rs.Params.V0, &rs.Params.Eta,
			&rs.Params.R, &rs.Params.Dt, &seed, &started, &rs.Samples, &rs.Mean); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rs.Seed = uint64(seed)
		if rs.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %d: bad start time %q: %w", rs.ID, started, err)
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
