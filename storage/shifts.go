package storage

import (
	"database/sql"
	"errors"
	"time"
)

// シフト状態の取りうる値
const (
	ShiftStatusActive = "active"
	ShiftStatusBreak  = "break"
	ShiftStatusEnded  = "ended"
)

var (
	ErrActiveShiftExists = errors.New("storage: an active shift already exists for this user")
	ErrNoActiveShift     = errors.New("storage: no active shift for this user")
	ErrNotOnBreak        = errors.New("storage: shift is not on break")
)

// Shift is one tracked duty session for a helper/staff role.
type Shift struct {
	ID             int64
	GuildID        string
	UserID         string
	ShiftType      string
	StartedAt      time.Time
	EndedAt        sql.NullTime
	BreakStartedAt sql.NullTime
	BreakSeconds   int64
	LastActivity   time.Time
	Status         string
}

// WorkedHours returns logged hours excluding break time. Valid once ended.
func (sh *Shift) WorkedHours() float64 {
	if !sh.EndedAt.Valid {
		return 0
	}
	worked := sh.EndedAt.Time.Sub(sh.StartedAt) - time.Duration(sh.BreakSeconds)*time.Second
	if worked < 0 {
		worked = 0
	}
	return worked.Hours()
}

// QuotaEntry is one row of the weekly shift leaderboard.
type QuotaEntry struct {
	UserID    string
	ShiftType string
	Hours     float64
}

// gmt8 はシフト計算に使う固定タイムゾーンです。週はGMT+8の月曜始まりです。
var gmt8 = time.FixedZone("GMT+8", 8*60*60)

// WeekKeyGMT8 returns the quota-week identifier (the Monday date in GMT+8)
// for a given instant.
func WeekKeyGMT8(t time.Time) string {
	t = t.In(gmt8)
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	monday := t.AddDate(0, 0, -daysSinceMonday)
	return monday.Format("2006-01-02")
}

// StartShift opens a shift session. A user can have at most one running
// shift per guild.
func (s *DBStore) StartShift(guildID, userID, shiftType string, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM shifts WHERE guild_id = ? AND user_id = ? AND status IN (?, ?)",
		guildID, userID, ShiftStatusActive, ShiftStatusBreak).Scan(&n)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, ErrActiveShiftExists
	}

	res, err := s.db.Exec(
		"INSERT INTO shifts (guild_id, user_id, shift_type, started_at, last_activity, status) VALUES (?, ?, ?, ?, ?, ?)",
		guildID, userID, shiftType, now, now, ShiftStatusActive)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *DBStore) GetActiveShift(guildID, userID string) (*Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sh := &Shift{GuildID: guildID, UserID: userID}
	err := s.db.QueryRow(
		`SELECT id, shift_type, started_at, break_started_at, break_seconds, last_activity, status
		FROM shifts WHERE guild_id = ? AND user_id = ? AND status IN (?, ?)`,
		guildID, userID, ShiftStatusActive, ShiftStatusBreak).
		Scan(&sh.ID, &sh.ShiftType, &sh.StartedAt, &sh.BreakStartedAt, &sh.BreakSeconds, &sh.LastActivity, &sh.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *DBStore) StartBreak(shiftID int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"UPDATE shifts SET status = ?, break_started_at = ?, last_activity = ? WHERE id = ? AND status = ?",
		ShiftStatusBreak, now, now, shiftID, ShiftStatusActive)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoActiveShift
	}
	return nil
}

func (s *DBStore) EndBreak(shiftID int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var breakStarted sql.NullTime
	err := s.db.QueryRow("SELECT break_started_at FROM shifts WHERE id = ? AND status = ?", shiftID, ShiftStatusBreak).
		Scan(&breakStarted)
	if err == sql.ErrNoRows {
		return ErrNotOnBreak
	}
	if err != nil {
		return err
	}

	var breakSec int64
	if breakStarted.Valid {
		breakSec = int64(now.Sub(breakStarted.Time).Seconds())
		if breakSec < 0 {
			breakSec = 0
		}
	}
	_, err = s.db.Exec(
		"UPDATE shifts SET status = ?, break_started_at = NULL, break_seconds = break_seconds + ?, last_activity = ? WHERE id = ?",
		ShiftStatusActive, breakSec, now, shiftID)
	return err
}

// EndShift closes the session, folds in any unfinished break, and credits
// the worked hours to the GMT+8 quota week of the end instant.
func (s *DBStore) EndShift(shiftID int64, now time.Time) (*Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	sh, err := endShiftTx(tx, shiftID, now)
	if err != nil {
		return nil, err
	}
	return sh, tx.Commit()
}

func endShiftTx(tx *sql.Tx, shiftID int64, now time.Time) (*Shift, error) {
	sh := &Shift{ID: shiftID}
	err := tx.QueryRow(
		`SELECT guild_id, user_id, shift_type, started_at, break_started_at, break_seconds, last_activity, status
		FROM shifts WHERE id = ? AND status IN (?, ?)`,
		shiftID, ShiftStatusActive, ShiftStatusBreak).
		Scan(&sh.GuildID, &sh.UserID, &sh.ShiftType, &sh.StartedAt, &sh.BreakStartedAt, &sh.BreakSeconds, &sh.LastActivity, &sh.Status)
	if err == sql.ErrNoRows {
		return nil, ErrNoActiveShift
	}
	if err != nil {
		return nil, err
	}

	// 休憩中のまま終了した場合は、その休憩も合算する
	if sh.Status == ShiftStatusBreak && sh.BreakStartedAt.Valid {
		extra := int64(now.Sub(sh.BreakStartedAt.Time).Seconds())
		if extra > 0 {
			sh.BreakSeconds += extra
		}
	}
	sh.EndedAt = sql.NullTime{Time: now, Valid: true}
	sh.Status = ShiftStatusEnded

	_, err = tx.Exec(
		"UPDATE shifts SET status = ?, ended_at = ?, break_started_at = NULL, break_seconds = ? WHERE id = ?",
		ShiftStatusEnded, now, sh.BreakSeconds, shiftID)
	if err != nil {
		return nil, err
	}

	week := WeekKeyGMT8(now)
	_, err = tx.Exec(
		`INSERT INTO quota_tracking (guild_id, user_id, shift_type, week_gmt8, hours_logged)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(guild_id, user_id, shift_type, week_gmt8) DO UPDATE SET hours_logged = hours_logged + excluded.hours_logged;`,
		sh.GuildID, sh.UserID, sh.ShiftType, week, sh.WorkedHours())
	if err != nil {
		return nil, err
	}
	return sh, nil
}

// TouchShiftActivity marks the user as non-AFK on their running shift.
func (s *DBStore) TouchShiftActivity(guildID, userID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"UPDATE shifts SET last_activity = ? WHERE guild_id = ? AND user_id = ? AND status = ?",
		now, guildID, userID, ShiftStatusActive)
	return err
}

// SweepAFKShifts force-ends active shifts whose last activity is older than
// the caller-supplied timeout for the shift type. Shifts on break are never
// swept. Returns the shifts that were ended.
func (s *DBStore) SweepAFKShifts(now time.Time, timeoutFor func(shiftType string) time.Duration) ([]Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.Query(
		"SELECT id, shift_type, last_activity FROM shifts WHERE status = ?", ShiftStatusActive)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		id           int64
		shiftType    string
		lastActivity time.Time
	}
	var stale []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.shiftType, &c.lastActivity); err != nil {
			rows.Close()
			return nil, err
		}
		if now.Sub(c.lastActivity) >= timeoutFor(c.shiftType) {
			stale = append(stale, c)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var ended []Shift
	for _, c := range stale {
		sh, err := endShiftTx(tx, c.id, now)
		if err != nil {
			return nil, err
		}
		ended = append(ended, *sh)
	}
	return ended, tx.Commit()
}

func (s *DBStore) WeeklyHours(guildID, userID, shiftType, week string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hours float64
	err := s.db.QueryRow(
		"SELECT hours_logged FROM quota_tracking WHERE guild_id = ? AND user_id = ? AND shift_type = ? AND week_gmt8 = ?",
		guildID, userID, shiftType, week).Scan(&hours)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return hours, err
}

// ShiftLeaderboard returns the most active staff for a quota week.
func (s *DBStore) ShiftLeaderboard(guildID, week string, limit int) ([]QuotaEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT user_id, shift_type, hours_logged FROM quota_tracking
		WHERE guild_id = ? AND week_gmt8 = ?
		ORDER BY hours_logged DESC LIMIT ?`,
		guildID, week, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []QuotaEntry
	for rows.Next() {
		var e QuotaEntry
		if err := rows.Scan(&e.UserID, &e.ShiftType, &e.Hours); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
