package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/taskdeck/taskdeck/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteCache implements Cache using SQLite.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-backed snapshot cache.
func NewSQLite(dbPath string) (Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	// WAL mode so a dashboard read never blocks on a refresh write.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping cache database: %w", err)
	}

	cache := &SQLiteCache{db: db}
	if err := cache.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return cache, nil
}

func (c *SQLiteCache) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS task_snapshots (
		user_id TEXT NOT NULL,
		task_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		completed INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, task_id)
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_user ON task_snapshots(user_id, position);
	`
	if _, err := c.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (c *SQLiteCache) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// SaveSnapshot replaces the user's cached task list in one transaction.
func (c *SQLiteCache) SaveSnapshot(ctx context.Context, userID string, tasks []domain.Task) error {
	err := c.saveSnapshot(ctx, userID, tasks)
	if isSQLiteConflictError(err) {
		// One local retry after a write collision; the snapshot write is
		// idempotent.
		time.Sleep(50 * time.Millisecond)
		err = c.saveSnapshot(ctx, userID, tasks)
	}
	return err
}

func (c *SQLiteCache) saveSnapshot(ctx context.Context, userID string, tasks []domain.Task) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_snapshots WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear previous snapshot: %w", err)
	}

	fetchedAt := time.Now().Unix()
	for i, task := range tasks {
		var description sql.NullString
		if task.Description != nil {
			description = sql.NullString{String: *task.Description, Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO task_snapshots
				(user_id, task_id, position, title, description, completed, created_at, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, task.ID, i, task.Title, description,
			boolToInt(task.Completed), task.CreatedAt.Unix(), fetchedAt,
		)
		if err != nil {
			return fmt.Errorf("insert snapshot row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Snapshot returns the cached tasks in the order the backend returned them.
func (c *SQLiteCache) Snapshot(ctx context.Context, userID string) ([]domain.Task, time.Time, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT task_id, title, description, completed, created_at, fetched_at
		FROM task_snapshots
		WHERE user_id = ?
		ORDER BY position`,
		userID,
	)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	var fetchedAt time.Time
	for rows.Next() {
		var task domain.Task
		var description sql.NullString
		var completed int
		var createdUnix, fetchedUnix int64

		if err := rows.Scan(&task.ID, &task.Title, &description, &completed, &createdUnix, &fetchedUnix); err != nil {
			return nil, time.Time{}, fmt.Errorf("scan snapshot row: %w", err)
		}

		if description.Valid {
			task.Description = &description.String
		}
		task.Completed = completed != 0
		task.CreatedAt = time.Unix(createdUnix, 0)
		fetchedAt = time.Unix(fetchedUnix, 0)
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return tasks, fetchedAt, nil
}

// Clear removes the user's snapshot.
func (c *SQLiteCache) Clear(ctx context.Context, userID string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM task_snapshots WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
