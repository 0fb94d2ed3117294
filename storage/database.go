package storage

import (
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// --- Structures ---

// GuildSettings holds per-guild configuration stored in luna.db.
type GuildSettings struct {
	GuildID            string
	Prefix             string
	ModlogChannelID    string
	JoinLeaveChannelID string
	StaffRoleID        string
	HelperRoleID       string
	ShiftChannelID     string
}

// AISettings holds the per-guild AI chat configuration.
type AISettings struct {
	GuildID     string
	Enabled     bool
	Personality string
}

type Warn struct {
	ID          int64
	GuildID     string
	UserID      string
	ModeratorID string
	Reason      string
	CreatedAt   time.Time
}

type Mute struct {
	GuildID     string
	UserID      string
	ModeratorID string
	Reason      string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	Active      bool
}

type StaffFlag struct {
	ID        int64
	GuildID   string
	UserID    string
	FlaggerID string
	Reason    string
	CreatedAt time.Time
	ExpiresAt time.Time
	Active    bool
}

type Tag struct {
	ID          int64
	GuildID     string
	Category    string
	Title       string
	Description string
	CreatorID   string
	CreatedAt   time.Time
}

type Reminder struct {
	ID        int64
	UserID    string
	GuildID   string
	ChannelID string
	Text      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// --- DBStore ---

// DBStore はモデレーション・シフト・タグ等の永続データを管理します。
type DBStore struct {
	db *sql.DB
	mu sync.RWMutex
}

func NewDBStore(dataSourceName string) (*DBStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	store := &DBStore{db: db}
	if err = store.initTables(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *DBStore) initTables() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS guild_settings (
			guild_id TEXT PRIMARY KEY,
			prefix TEXT DEFAULT ',',
			modlog_channel_id TEXT DEFAULT '',
			join_leave_channel_id TEXT DEFAULT '',
			staff_role_id TEXT DEFAULT '',
			helper_role_id TEXT DEFAULT '',
			shift_channel_id TEXT DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS ai_settings (
			guild_id TEXT PRIMARY KEY,
			ai_enabled INTEGER NOT NULL,
			personality TEXT DEFAULT 'genz'
		);`,
		`CREATE TABLE IF NOT EXISTS warns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			moderator_id TEXT,
			reason TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS mutes (
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			moderator_id TEXT,
			reason TEXT,
			expires_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			active INTEGER DEFAULT 1,
			PRIMARY KEY (guild_id, user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS bans (
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			moderator_id TEXT,
			reason TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS staff_flags (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			flagger_id TEXT,
			reason TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			expires_at DATETIME,
			active INTEGER DEFAULT 1
		);`,
		`CREATE TABLE IF NOT EXISTS tags (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id TEXT NOT NULL,
			category TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			creator_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(guild_id, category, title)
		);`,
		`CREATE TABLE IF NOT EXISTS reminders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			guild_id TEXT,
			channel_id TEXT,
			reminder_text TEXT,
			expires_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS blacklist (
			user_id TEXT PRIMARY KEY,
			reason TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS shifts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			shift_type TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			break_started_at DATETIME,
			break_seconds INTEGER DEFAULT 0,
			last_activity DATETIME NOT NULL,
			status TEXT DEFAULT 'active'
		);`,
		`CREATE TABLE IF NOT EXISTS quota_tracking (
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			shift_type TEXT NOT NULL,
			week_gmt8 TEXT NOT NULL,
			hours_logged REAL DEFAULT 0,
			PRIMARY KEY (guild_id, user_id, shift_type, week_gmt8)
		);`,
	}
	for _, table := range tables {
		if _, err := s.db.Exec(table); err != nil {
			return err
		}
	}
	return nil
}

func (s *DBStore) Close() {
	s.db.Close()
}

func (s *DBStore) PingDB() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Ping()
}

// --- Guild Settings ---

// GetGuildSettings returns the settings row for a guild, inserting the
// default row on first access.
func (s *DBStore) GetGuildSettings(guildID string) (*GuildSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gs := &GuildSettings{GuildID: guildID}
	query := `SELECT prefix, modlog_channel_id, join_leave_channel_id, staff_role_id, helper_role_id, shift_channel_id
		FROM guild_settings WHERE guild_id = ?`
	err := s.db.QueryRow(query, guildID).Scan(
		&gs.Prefix, &gs.ModlogChannelID, &gs.JoinLeaveChannelID,
		&gs.StaffRoleID, &gs.HelperRoleID, &gs.ShiftChannelID,
	)
	if err == sql.ErrNoRows {
		if _, err := s.db.Exec("INSERT OR IGNORE INTO guild_settings (guild_id) VALUES (?)", guildID); err != nil {
			return nil, err
		}
		gs.Prefix = ","
		return gs, nil
	}
	if err != nil {
		return nil, err
	}
	return gs, nil
}

func (s *DBStore) SaveGuildSettings(gs *GuildSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO guild_settings (guild_id, prefix, modlog_channel_id, join_leave_channel_id, staff_role_id, helper_role_id, shift_channel_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			prefix = excluded.prefix,
			modlog_channel_id = excluded.modlog_channel_id,
			join_leave_channel_id = excluded.join_leave_channel_id,
			staff_role_id = excluded.staff_role_id,
			helper_role_id = excluded.helper_role_id,
			shift_channel_id = excluded.shift_channel_id;`
	_, err := s.db.Exec(query, gs.GuildID, gs.Prefix, gs.ModlogChannelID,
		gs.JoinLeaveChannelID, gs.StaffRoleID, gs.HelperRoleID, gs.ShiftChannelID)
	return err
}

// --- AI Settings ---

// GetAISettings returns the AI settings for a guild. A guild with no row
// falls back to the process-wide default enablement and the genz personality.
func (s *DBStore) GetAISettings(guildID string, defaultEnabled bool) (*AISettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	as := &AISettings{GuildID: guildID}
	var enabled int
	err := s.db.QueryRow("SELECT ai_enabled, personality FROM ai_settings WHERE guild_id = ?", guildID).
		Scan(&enabled, &as.Personality)
	if err == sql.ErrNoRows {
		as.Enabled = defaultEnabled
		as.Personality = "genz"
		return as, nil
	}
	if err != nil {
		return nil, err
	}
	as.Enabled = enabled != 0
	return as, nil
}

func (s *DBStore) SetAIEnabled(guildID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := 0
	if enabled {
		v = 1
	}
	query := `INSERT INTO ai_settings (guild_id, ai_enabled) VALUES (?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET ai_enabled = excluded.ai_enabled;`
	_, err := s.db.Exec(query, guildID, v)
	return err
}

func (s *DBStore) SetAIPersonality(guildID, personality string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO ai_settings (guild_id, ai_enabled, personality) VALUES (?, 1, ?)
		ON CONFLICT(guild_id) DO UPDATE SET personality = excluded.personality;`
	_, err := s.db.Exec(query, guildID, personality)
	return err
}

// --- Warns ---

func (s *DBStore) AddWarn(guildID, userID, moderatorID, reason string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"INSERT INTO warns (guild_id, user_id, moderator_id, reason) VALUES (?, ?, ?, ?)",
		guildID, userID, moderatorID, reason)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *DBStore) GetWarns(guildID, userID string) ([]Warn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT id, moderator_id, reason, created_at FROM warns WHERE guild_id = ? AND user_id = ? ORDER BY created_at DESC",
		guildID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var warns []Warn
	for rows.Next() {
		w := Warn{GuildID: guildID, UserID: userID}
		if err := rows.Scan(&w.ID, &w.ModeratorID, &w.Reason, &w.CreatedAt); err != nil {
			return nil, err
		}
		warns = append(warns, w)
	}
	return warns, rows.Err()
}

func (s *DBStore) DeleteWarn(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM warns WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// --- Mutes ---

func (s *DBStore) UpsertMute(m *Mute) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO mutes (guild_id, user_id, moderator_id, reason, expires_at, active)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT(guild_id, user_id) DO UPDATE SET
			moderator_id = excluded.moderator_id,
			reason = excluded.reason,
			expires_at = excluded.expires_at,
			active = 1;`
	_, err := s.db.Exec(query, m.GuildID, m.UserID, m.ModeratorID, m.Reason, m.ExpiresAt)
	return err
}

func (s *DBStore) GetActiveMute(guildID, userID string) (*Mute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := &Mute{GuildID: guildID, UserID: userID, Active: true}
	err := s.db.QueryRow(
		"SELECT moderator_id, reason, expires_at, created_at FROM mutes WHERE guild_id = ? AND user_id = ? AND active = 1",
		guildID, userID).Scan(&m.ModeratorID, &m.Reason, &m.ExpiresAt, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *DBStore) DeactivateMute(guildID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("UPDATE mutes SET active = 0 WHERE guild_id = ? AND user_id = ?", guildID, userID)
	return err
}

// GetExpiredMutes returns active mutes whose expiry has passed. Used by the
// scheduler sweep to lift temporary mutes.
func (s *DBStore) GetExpiredMutes(now time.Time) ([]Mute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT guild_id, user_id, moderator_id, reason, expires_at, created_at FROM mutes WHERE active = 1 AND expires_at IS NOT NULL AND expires_at <= ?",
		now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mutes []Mute
	for rows.Next() {
		m := Mute{Active: true}
		if err := rows.Scan(&m.GuildID, &m.UserID, &m.ModeratorID, &m.Reason, &m.ExpiresAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		mutes = append(mutes, m)
	}
	return mutes, rows.Err()
}

// --- Bans ---

func (s *DBStore) RecordBan(guildID, userID, moderatorID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO bans (guild_id, user_id, moderator_id, reason) VALUES (?, ?, ?, ?)",
		guildID, userID, moderatorID, reason)
	return err
}

func (s *DBStore) WasBanned(guildID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM bans WHERE guild_id = ? AND user_id = ?", guildID, userID).Scan(&n)
	return n > 0, err
}

// --- Staff Flags ---

func (s *DBStore) AddStaffFlag(guildID, userID, flaggerID, reason string, expiresAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"INSERT INTO staff_flags (guild_id, user_id, flagger_id, reason, expires_at) VALUES (?, ?, ?, ?, ?)",
		guildID, userID, flaggerID, reason, expiresAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *DBStore) CountActiveFlags(guildID, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM staff_flags WHERE guild_id = ? AND user_id = ? AND active = 1",
		guildID, userID).Scan(&n)
	return n, err
}

func (s *DBStore) ClearStaffFlags(guildID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("UPDATE staff_flags SET active = 0 WHERE guild_id = ? AND user_id = ?", guildID, userID)
	return err
}

// --- Tags ---

func (s *DBStore) CreateTag(t *Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO tags (guild_id, category, title, description, creator_id) VALUES (?, ?, ?, ?, ?)",
		t.GuildID, t.Category, t.Title, t.Description, t.CreatorID)
	return err
}

func (s *DBStore) EditTag(guildID, category, title, description string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"UPDATE tags SET description = ? WHERE guild_id = ? AND category = ? AND title = ?",
		description, guildID, category, title)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *DBStore) DeleteTag(guildID, category, title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"DELETE FROM tags WHERE guild_id = ? AND category = ? AND title = ?",
		guildID, category, title)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *DBStore) GetTag(guildID, category, title string) (*Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := &Tag{GuildID: guildID, Category: category, Title: title}
	err := s.db.QueryRow(
		"SELECT id, description, creator_id, created_at FROM tags WHERE guild_id = ? AND category = ? AND title = ?",
		guildID, category, title).Scan(&t.ID, &t.Description, &t.CreatorID, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *DBStore) ListTags(guildID, category string) ([]Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT id, title, description, creator_id, created_at FROM tags WHERE guild_id = ? AND category = ? ORDER BY title",
		guildID, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		t := Tag{GuildID: guildID, Category: category}
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.CreatorID, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// --- Reminders ---

func (s *DBStore) CreateReminder(r *Reminder) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"INSERT INTO reminders (user_id, guild_id, channel_id, reminder_text, expires_at) VALUES (?, ?, ?, ?, ?)",
		r.UserID, r.GuildID, r.ChannelID, r.Text, r.ExpiresAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *DBStore) ListReminders(userID string) ([]Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT id, guild_id, channel_id, reminder_text, expires_at, created_at FROM reminders WHERE user_id = ? ORDER BY expires_at",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		r := Reminder{UserID: userID}
		if err := rows.Scan(&r.ID, &r.GuildID, &r.ChannelID, &r.Text, &r.ExpiresAt, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DueReminders returns and removes all reminders that are due. Delivery and
// deletion happen in one transaction so a reminder never fires twice.
func (s *DBStore) DueReminders(now time.Time) ([]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.Query(
		"SELECT id, user_id, guild_id, channel_id, reminder_text, expires_at, created_at FROM reminders WHERE expires_at <= ?",
		now)
	if err != nil {
		return nil, err
	}

	var due []Reminder
	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.ID, &r.UserID, &r.GuildID, &r.ChannelID, &r.Text, &r.ExpiresAt, &r.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		due = append(due, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, r := range due {
		if _, err := tx.Exec("DELETE FROM reminders WHERE id = ?", r.ID); err != nil {
			return nil, err
		}
	}
	return due, tx.Commit()
}

func (s *DBStore) DeleteReminder(id int64, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM reminders WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// --- Blacklist ---

func (s *DBStore) AddBlacklist(userID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("INSERT OR REPLACE INTO blacklist (user_id, reason) VALUES (?, ?)", userID, reason)
	return err
}

func (s *DBStore) RemoveBlacklist(userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM blacklist WHERE user_id = ?", userID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *DBStore) IsBlacklisted(userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM blacklist WHERE user_id = ?", userID).Scan(&n)
	return n > 0, err
}
