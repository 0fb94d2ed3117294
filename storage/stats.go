package storage

import (
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// StatsStore はダッシュボード向けの統計を別ファイル（stats.db）に保持します。
// モデレーションデータとは独立してリセット・転送できるようにするためです。
type StatsStore struct {
	db *sql.DB
	mu sync.Mutex
}

func NewStatsStore(dataSourceName string) (*StatsStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	store := &StatsStore{db: db}
	if err = store.initTables(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *StatsStore) initTables() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS command_usage (
			command TEXT PRIMARY KEY,
			count INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS activity_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id TEXT NOT NULL,
			channel_id TEXT,
			user_id TEXT NOT NULL,
			timestamp DATETIME NOT NULL
		);`,
	}
	for _, table := range tables {
		if _, err := s.db.Exec(table); err != nil {
			return err
		}
	}
	return nil
}

func (s *StatsStore) Close() {
	s.db.Close()
}

func (s *StatsStore) IncrementCommandUsage(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO command_usage (command, count) VALUES (?, 1)
		ON CONFLICT(command) DO UPDATE SET count = count + 1;`
	_, err := s.db.Exec(query, name)
	return err
}

func (s *StatsStore) CommandTotals() (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT command, count FROM command_usage")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var command string
		var count int
		if err := rows.Scan(&command, &count); err != nil {
			return nil, err
		}
		totals[command] = count
	}
	return totals, rows.Err()
}

// GetAndResetCommandUsage returns all usage counters and zeroes them, so a
// push to the external stats worker reports each invocation exactly once.
func (s *StatsStore) GetAndResetCommandUsage() (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.Query("SELECT command, count FROM command_usage WHERE count > 0")
	if err != nil {
		return nil, err
	}

	usage := make(map[string]int)
	for rows.Next() {
		var command string
		var count int
		if err := rows.Scan(&command, &count); err != nil {
			rows.Close()
			return nil, err
		}
		usage[command] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.Exec("UPDATE command_usage SET count = 0"); err != nil {
		return nil, err
	}
	return usage, tx.Commit()
}

func (s *StatsStore) RecordActivity(guildID, channelID, userID string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO activity_logs (guild_id, channel_id, user_id, timestamp) VALUES (?, ?, ?, ?)",
		guildID, channelID, userID, ts)
	return err
}
