package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekKeyGMT8(t *testing.T) {
	// 2024-01-03 はGMT+8で水曜。週は 2024-01-01(月) 始まり。
	wed := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-01", WeekKeyGMT8(wed))

	// UTCでは日曜夜でも、GMT+8では既に月曜 → 次の週になる
	sunLateUTC := time.Date(2024, 1, 7, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-08", WeekKeyGMT8(sunLateUTC))

	sunEarlyUTC := time.Date(2024, 1, 7, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-01", WeekKeyGMT8(sunEarlyUTC))
}

func TestShiftLifecycle(t *testing.T) {
	store := newTestStore(t)
	start := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	id, err := store.StartShift("g1", "u1", "helper", start)
	require.NoError(t, err)

	// 同時に2つ目のシフトは開始できない
	_, err = store.StartShift("g1", "u1", "helper", start)
	assert.ErrorIs(t, err, ErrActiveShiftExists)

	sh, err := store.GetActiveShift("g1", "u1")
	require.NoError(t, err)
	require.NotNil(t, sh)
	assert.Equal(t, ShiftStatusActive, sh.Status)

	// 30分勤務 → 10分休憩 → 50分勤務
	require.NoError(t, store.StartBreak(id, start.Add(30*time.Minute)))

	sh, err = store.GetActiveShift("g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, ShiftStatusBreak, sh.Status)

	require.NoError(t, store.EndBreak(id, start.Add(40*time.Minute)))

	ended, err := store.EndShift(id, start.Add(90*time.Minute))
	require.NoError(t, err)
	assert.InDelta(t, 80.0/60.0, ended.WorkedHours(), 0.001)

	// クォータには休憩抜きの時間が加算されている
	hours, err := store.WeeklyHours("g1", "u1", "helper", WeekKeyGMT8(start.Add(90*time.Minute)))
	require.NoError(t, err)
	assert.InDelta(t, 80.0/60.0, hours, 0.001)

	sh, err = store.GetActiveShift("g1", "u1")
	require.NoError(t, err)
	assert.Nil(t, sh)
}

func TestEndShiftWhileOnBreakFoldsBreak(t *testing.T) {
	store := newTestStore(t)
	start := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	id, err := store.StartShift("g1", "u1", "staff", start)
	require.NoError(t, err)
	require.NoError(t, store.StartBreak(id, start.Add(time.Hour)))

	ended, err := store.EndShift(id, start.Add(2*time.Hour))
	require.NoError(t, err)
	// 1時間勤務 + 1時間休憩 → 記録されるのは1時間
	assert.InDelta(t, 1.0, ended.WorkedHours(), 0.001)
}

func TestDoubleBreakRejected(t *testing.T) {
	store := newTestStore(t)
	start := time.Now().UTC()

	id, err := store.StartShift("g1", "u1", "helper", start)
	require.NoError(t, err)
	require.NoError(t, store.StartBreak(id, start))

	assert.ErrorIs(t, store.StartBreak(id, start), ErrNoActiveShift)

	require.NoError(t, store.EndBreak(id, start.Add(time.Minute)))
	assert.ErrorIs(t, store.EndBreak(id, start.Add(time.Minute)), ErrNotOnBreak)
}

func TestSweepAFKShifts(t *testing.T) {
	store := newTestStore(t)
	start := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	idle, err := store.StartShift("g1", "idle", "helper", start)
	require.NoError(t, err)
	_, err = store.StartShift("g1", "busy", "helper", start)
	require.NoError(t, err)
	onBreak, err := store.StartShift("g1", "resting", "helper", start)
	require.NoError(t, err)

	now := start.Add(15 * time.Minute)
	require.NoError(t, store.TouchShiftActivity("g1", "busy", now))
	require.NoError(t, store.StartBreak(onBreak, start))

	ended, err := store.SweepAFKShifts(now, func(string) time.Duration { return 10 * time.Minute })
	require.NoError(t, err)
	require.Len(t, ended, 1)
	assert.Equal(t, idle, ended[0].ID)
	assert.Equal(t, "idle", ended[0].UserID)

	// 活動のあったユーザーと休憩中のユーザーはそのまま
	sh, err := store.GetActiveShift("g1", "busy")
	require.NoError(t, err)
	require.NotNil(t, sh)
	sh, err = store.GetActiveShift("g1", "resting")
	require.NoError(t, err)
	require.NotNil(t, sh)
}

func TestShiftLeaderboard(t *testing.T) {
	store := newTestStore(t)
	start := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	week := WeekKeyGMT8(start.Add(2 * time.Hour))

	for user, hours := range map[string]time.Duration{
		"first":  4 * time.Hour,
		"second": 2 * time.Hour,
		"third":  time.Hour,
	} {
		id, err := store.StartShift("g1", user, "staff", start)
		require.NoError(t, err)
		_, err = store.EndShift(id, start.Add(hours))
		require.NoError(t, err)
	}

	entries, err := store.ShiftLeaderboard("g1", week, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].UserID)
	assert.InDelta(t, 4.0, entries[0].Hours, 0.001)
	assert.Equal(t, "second", entries[1].UserID)
}

func TestStatsStoreCommandUsage(t *testing.T) {
	store, err := NewStatsStore(t.TempDir() + "/stats_test.db")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.IncrementCommandUsage("warn"))
	require.NoError(t, store.IncrementCommandUsage("warn"))
	require.NoError(t, store.IncrementCommandUsage("ban"))

	totals, err := store.CommandTotals()
	require.NoError(t, err)
	assert.Equal(t, 2, totals["warn"])
	assert.Equal(t, 1, totals["ban"])

	usage, err := store.GetAndResetCommandUsage()
	require.NoError(t, err)
	assert.Equal(t, 2, usage["warn"])

	usage, err = store.GetAndResetCommandUsage()
	require.NoError(t, err)
	assert.Empty(t, usage)
}
