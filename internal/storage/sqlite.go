package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore 基于 SQLite (WAL 模式) 的运行历史存储
// SQLiteStore implements Store using SQLite with WAL mode
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore 创建并初始化 SQLite 数据库
// NewSQLiteStore creates and initializes a SQLite database
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// 启用 WAL 模式和优化 PRAGMA / Enable WAL and performance PRAGMAs
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	store := &SQLiteStore{db: db, path: dbPath}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id             TEXT PRIMARY KEY,
		trajectory_dir TEXT NOT NULL,
		response_file  TEXT NOT NULL DEFAULT '',
		total          INTEGER NOT NULL DEFAULT 0,
		executed       INTEGER NOT NULL DEFAULT 0,
		skipped        INTEGER NOT NULL DEFAULT 0,
		status         TEXT NOT NULL DEFAULT 'replaying',
		error          TEXT NOT NULL DEFAULT '',
		started_at     TEXT NOT NULL,
		finished_at    TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS run_actions (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq         INTEGER NOT NULL,
		action_type TEXT NOT NULL,
		args        TEXT NOT NULL DEFAULT '{}',
		status      TEXT NOT NULL DEFAULT 'executed',
		created_at  TEXT NOT NULL,
		UNIQUE(run_id, seq)
	);

	CREATE TABLE IF NOT EXISTS milestones (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      TEXT NOT NULL DEFAULT '',
		path        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		success     INTEGER NOT NULL DEFAULT 0,
		error       TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_run_actions_run ON run_actions(run_id, seq);
	CREATE INDEX IF NOT EXISTS idx_milestones_run ON milestones(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close 关闭数据库连接 / Close the database connection
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// --- Run Operations ---

func (s *SQLiteStore) CreateRun(meta RunMeta) error {
	if strings.TrimSpace(meta.ID) == "" {
		return fmt.Errorf("run id is empty")
	}
	if strings.TrimSpace(meta.StartedAt) == "" {
		meta.StartedAt = nowUTC()
	}
	if strings.TrimSpace(meta.Status) == "" {
		meta.Status = "replaying"
	}
	_, err := s.db.Exec(`
		INSERT INTO runs (id, trajectory_dir, response_file, total, executed, skipped, status, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.TrajectoryDir, meta.ResponseFile, meta.Total, meta.Executed,
		meta.Skipped, meta.Status, meta.Error, meta.StartedAt, meta.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FinishRun(meta RunMeta) error {
	if strings.TrimSpace(meta.FinishedAt) == "" {
		meta.FinishedAt = nowUTC()
	}
	_, err := s.db.Exec(`
		UPDATE runs SET response_file=?, total=?, executed=?, skipped=?, status=?, error=?, finished_at=?
		WHERE id=?`,
		meta.ResponseFile, meta.Total, meta.Executed, meta.Skipped,
		meta.Status, meta.Error, meta.FinishedAt, meta.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadRun(id string) (RunMeta, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return RunMeta{}, fmt.Errorf("run id is empty")
	}
	row := s.db.QueryRow(`
		SELECT id, trajectory_dir, response_file, total, executed, skipped, status, error, started_at, finished_at
		FROM runs WHERE id=?`, id)

	var meta RunMeta
	err := row.Scan(&meta.ID, &meta.TrajectoryDir, &meta.ResponseFile, &meta.Total,
		&meta.Executed, &meta.Skipped, &meta.Status, &meta.Error, &meta.StartedAt, &meta.FinishedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return RunMeta{}, fmt.Errorf("run not found: %s", id)
		}
		return RunMeta{}, fmt.Errorf("load run: %w", err)
	}
	return meta, nil
}

func (s *SQLiteStore) ListRuns() ([]RunMeta, error) {
	rows, err := s.db.Query(`
		SELECT id, trajectory_dir, response_file, total, executed, skipped, status, error, started_at, finished_at
		FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var metas []RunMeta
	for rows.Next() {
		var meta RunMeta
		if err := rows.Scan(&meta.ID, &meta.TrajectoryDir, &meta.ResponseFile, &meta.Total,
			&meta.Executed, &meta.Skipped, &meta.Status, &meta.Error, &meta.StartedAt, &meta.FinishedAt); err != nil {
			continue
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// --- Action Log ---

func (s *SQLiteStore) LogAction(entry ActionEntry) error {
	if strings.TrimSpace(entry.CreatedAt) == "" {
		entry.CreatedAt = nowUTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO run_actions (run_id, seq, action_type, args, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.RunID, entry.Seq, entry.ActionType, entry.Args, entry.Status, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("log action: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadActions(runID string) ([]ActionEntry, error) {
	rows, err := s.db.Query(`
		SELECT run_id, seq, action_type, args, status, created_at
		FROM run_actions WHERE run_id=? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	var entries []ActionEntry
	for rows.Next() {
		var entry ActionEntry
		if err := rows.Scan(&entry.RunID, &entry.Seq, &entry.ActionType,
			&entry.Args, &entry.Status, &entry.CreatedAt); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// --- Milestones ---

func (s *SQLiteStore) RecordMilestone(entry MilestoneEntry) error {
	if strings.TrimSpace(entry.CreatedAt) == "" {
		entry.CreatedAt = nowUTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO milestones (run_id, path, description, success, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.RunID, entry.Path, entry.Description, boolToInt(entry.Success),
		entry.Error, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("record milestone: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListMilestones() ([]MilestoneEntry, error) {
	rows, err := s.db.Query(`
		SELECT run_id, path, description, success, error, created_at
		FROM milestones ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	defer rows.Close()

	var entries []MilestoneEntry
	for rows.Next() {
		var entry MilestoneEntry
		var success int
		if err := rows.Scan(&entry.RunID, &entry.Path, &entry.Description,
			&success, &entry.Error, &entry.CreatedAt); err != nil {
			continue
		}
		entry.Success = success != 0
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// --- Helpers ---

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
