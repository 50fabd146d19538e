// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/skilldrill/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Store wraps SQLite access for personal bests and history.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps per-connection pragmas in effect.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, log: logger.With().Str("component", "store").Logger()}
	if err := store.pragmas(); err != nil {
		closeQuietly(db)
		return nil, err
	}
	if err := store.migrate(); err != nil {
		closeQuietly(db)
		return nil, err
	}
	store.log.Debug().Str("path", path).Msg("database ready")
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func closeQuietly(db *sql.DB) {
	if cerr := db.Close(); cerr != nil {
		// Best-effort close on setup failure.
		_ = cerr
	}
}

func (s *Store) pragmas() error {
	pragmas := []struct {
		name  string
		value string
	}{
		{"journal_mode", "WAL"},
		{"synchronous", "NORMAL"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "ON"},
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			if p.name == "foreign_keys" {
				return fmt.Errorf("set pragma %s: %w", p.name, err)
			}
			s.log.Warn().Err(err).Str("pragma", p.name).Msg("pragma not applied")
		}
	}
	return nil
}

func (s *Store) migrate() error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{log: s.log})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// gooseLogger routes migration output through zerolog at debug level so it
// never lands on the terminal.
type gooseLogger struct {
	log zerolog.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.log.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.log.Error().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// SavePersonalBest upserts the personal best for a component key.
func (s *Store) SavePersonalBest(ctx context.Context, key string, d time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO personal_bests (key, time_ms, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET time_ms = excluded.time_ms, updated_at = excluded.updated_at`,
		key, d.Milliseconds(), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save personal best %q: %w", key, err)
	}
	return nil
}

// LoadPersonalBests returns every stored personal best.
func (s *Store) LoadPersonalBests(ctx context.Context) (map[string]time.Duration, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, time_ms FROM personal_bests`)
	if err != nil {
		return nil, fmt.Errorf("load personal bests: %w", err)
	}
	defer closeRows(rows)

	out := map[string]time.Duration{}
	for rows.Next() {
		var key string
		var ms int64
		if err := rows.Scan(&key, &ms); err != nil {
			return nil, err
		}
		out[key] = time.Duration(ms) * time.Millisecond
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ResetPersonalBests deletes every personal best. Round history is kept.
func (s *Store) ResetPersonalBests(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM personal_bests`); err != nil {
		return fmt.Errorf("reset personal bests: %w", err)
	}
	return nil
}

// SaveRound stores a finished round and its results.
func (s *Store) SaveRound(ctx context.Context, rec model.RoundRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	gameOver := 0
	if rec.GameOver {
		gameOver = 1
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO rounds (id, mode, started_at, ended_at, round_size, game_over)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Mode,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.EndedAt.UTC().Format(time.RFC3339Nano),
		rec.RoundSize,
		gameOver,
	); err != nil {
		return fmt.Errorf("insert round: %w", err)
	}

	if len(rec.Results) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO round_results (round_id, position, key, description, time_ms, errors, is_new_pb)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, r := range rec.Results {
			pb := 0
			if r.IsNewPB {
				pb = 1
			}
			if _, err = stmt.ExecContext(ctx, rec.ID, i, r.Key, r.Description, r.CompletionTime.Milliseconds(), r.Errors, pb); err != nil {
				return fmt.Errorf("insert round result: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

// ListRounds returns round aggregates filtered by stats config, oldest first.
func (s *Store) ListRounds(ctx context.Context, cfg model.StatsConfig) ([]model.RoundAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Mode != "" {
		clauses = append(clauses, "r.mode = ?")
		args = append(args, cfg.Mode)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "r.ended_at >= ?")
		args = append(args, cfg.Since.UTC().Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT r.id, r.mode, r.ended_at, r.round_size, r.game_over,
			COUNT(rr.position), COALESCE(SUM(rr.time_ms), 0), COALESCE(SUM(rr.errors), 0)
		FROM rounds r
		LEFT JOIN round_results rr ON rr.round_id = r.id
		WHERE %s
		GROUP BY r.id
		ORDER BY r.ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var rounds []model.RoundAggregate
	for rows.Next() {
		var agg model.RoundAggregate
		var endedAt string
		var gameOver int
		var totalMs int64
		if err := rows.Scan(&agg.ID, &agg.Mode, &endedAt, &agg.RoundSize, &gameOver, &agg.Completed, &totalMs, &agg.Errors); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		agg.GameOver = gameOver != 0
		if agg.Completed > 0 {
			agg.Average = time.Duration(totalMs/int64(agg.Completed)) * time.Millisecond
		}
		rounds = append(rounds, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rounds, nil
}

// ListComponentAggregates aggregates results per component across rounds.
func (s *Store) ListComponentAggregates(ctx context.Context, roundIDs []string) ([]model.ComponentAggregate, error) {
	if len(roundIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(roundIDs))
	args := make([]any, len(roundIDs))
	for i, id := range roundIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT key, MAX(description), COUNT(*), SUM(time_ms), SUM(errors)
		FROM round_results
		WHERE round_id IN (%s)
		GROUP BY key
		ORDER BY key`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.ComponentAggregate
	for rows.Next() {
		var agg model.ComponentAggregate
		var totalMs int64
		if err := rows.Scan(&agg.Key, &agg.Description, &agg.Count, &totalMs, &agg.Errors); err != nil {
			return nil, err
		}
		agg.TotalTime = time.Duration(totalMs) * time.Millisecond
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SaveRhythm stores a finished weapon-select session.
func (s *Store) SaveRhythm(ctx context.Context, rec model.RhythmRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rhythm_sessions (id, started_at, ended_at, speed, duration_s, hits, misses, accuracy)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.EndedAt.UTC().Format(time.RFC3339Nano),
		rec.Speed,
		rec.Duration,
		rec.Stats.Hits,
		rec.Stats.Misses,
		rec.Stats.Accuracy,
	)
	if err != nil {
		return fmt.Errorf("save rhythm session: %w", err)
	}
	return nil
}

// ListRhythm returns weapon-select sessions, oldest first.
func (s *Store) ListRhythm(ctx context.Context, since *time.Time) ([]model.RhythmRecord, error) {
	query := `SELECT id, started_at, ended_at, speed, duration_s, hits, misses, accuracy
		FROM rhythm_sessions`
	args := []any{}
	if since != nil {
		query += ` WHERE ended_at >= ?`
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += ` ORDER BY ended_at ASC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var out []model.RhythmRecord
	for rows.Next() {
		var rec model.RhythmRecord
		var startedAt, endedAt string
		if err := rows.Scan(&rec.ID, &startedAt, &endedAt, &rec.Speed, &rec.Duration, &rec.Stats.Hits, &rec.Stats.Misses, &rec.Stats.Accuracy); err != nil {
			return nil, err
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if rec.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}
