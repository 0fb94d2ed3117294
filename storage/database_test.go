package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *DBStore {
	t.Helper()
	store, err := NewDBStore(filepath.Join(t.TempDir(), "luna_test.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func TestWarnLifecycle(t *testing.T) {
	store := newTestStore(t)

	id, err := store.AddWarn("g1", "u1", "mod1", "spamming")
	require.NoError(t, err)
	require.NotZero(t, id)

	_, err = store.AddWarn("g1", "u1", "mod2", "rude")
	require.NoError(t, err)

	warns, err := store.GetWarns("g1", "u1")
	require.NoError(t, err)
	require.Len(t, warns, 2)

	// 他ギルド・他ユーザーには影響しないこと
	warns, err = store.GetWarns("g2", "u1")
	require.NoError(t, err)
	assert.Empty(t, warns)

	deleted, err := store.DeleteWarn(id)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteWarn(id)
	require.NoError(t, err)
	assert.False(t, deleted)

	warns, err = store.GetWarns("g1", "u1")
	require.NoError(t, err)
	assert.Len(t, warns, 1)
}

func TestMuteUpsertAndDeactivate(t *testing.T) {
	store := newTestStore(t)
	expires := time.Now().Add(time.Hour).UTC()

	err := store.UpsertMute(&Mute{GuildID: "g1", UserID: "u1", ModeratorID: "mod1", Reason: "first", ExpiresAt: expires})
	require.NoError(t, err)

	// 同一ユーザーへの再ミュートは上書きになる
	err = store.UpsertMute(&Mute{GuildID: "g1", UserID: "u1", ModeratorID: "mod2", Reason: "second", ExpiresAt: expires})
	require.NoError(t, err)

	m, err := store.GetActiveMute("g1", "u1")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "second", m.Reason)

	require.NoError(t, store.DeactivateMute("g1", "u1"))

	m, err = store.GetActiveMute("g1", "u1")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestExpiredMutes(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, store.UpsertMute(&Mute{GuildID: "g1", UserID: "past", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, store.UpsertMute(&Mute{GuildID: "g1", UserID: "future", ExpiresAt: now.Add(time.Hour)}))

	expired, err := store.GetExpiredMutes(now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "past", expired[0].UserID)
}

func TestBanRecord(t *testing.T) {
	store := newTestStore(t)

	banned, err := store.WasBanned("g1", "u1")
	require.NoError(t, err)
	assert.False(t, banned)

	require.NoError(t, store.RecordBan("g1", "u1", "mod1", "raid"))

	banned, err = store.WasBanned("g1", "u1")
	require.NoError(t, err)
	assert.True(t, banned)
}

func TestStaffFlags(t *testing.T) {
	store := newTestStore(t)
	expires := time.Now().Add(30 * 24 * time.Hour).UTC()

	for i := 0; i < 3; i++ {
		_, err := store.AddStaffFlag("g1", "staff1", "admin1", "late", expires)
		require.NoError(t, err)
	}

	n, err := store.CountActiveFlags("g1", "staff1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, store.ClearStaffFlags("g1", "staff1"))

	n, err = store.CountActiveFlags("g1", "staff1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTagCRUD(t *testing.T) {
	store := newTestStore(t)

	err := store.CreateTag(&Tag{GuildID: "g1", Category: "rules", Title: "spam", Description: "No spam.", CreatorID: "u1"})
	require.NoError(t, err)

	// 同じ (guild, category, title) の重複は拒否される
	err = store.CreateTag(&Tag{GuildID: "g1", Category: "rules", Title: "spam", Description: "dup"})
	require.Error(t, err)

	tag, err := store.GetTag("g1", "rules", "spam")
	require.NoError(t, err)
	require.NotNil(t, tag)
	assert.Equal(t, "No spam.", tag.Description)

	ok, err := store.EditTag("g1", "rules", "spam", "Absolutely no spam.")
	require.NoError(t, err)
	assert.True(t, ok)

	tags, err := store.ListTags("g1", "rules")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "Absolutely no spam.", tags[0].Description)

	ok, err = store.DeleteTag("g1", "rules", "spam")
	require.NoError(t, err)
	assert.True(t, ok)

	tag, err = store.GetTag("g1", "rules", "spam")
	require.NoError(t, err)
	assert.Nil(t, tag)
}

func TestRemindersDueOnce(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()

	_, err := store.CreateReminder(&Reminder{UserID: "u1", GuildID: "g1", ChannelID: "c1", Text: "check oven", ExpiresAt: now.Add(-time.Minute)})
	require.NoError(t, err)
	_, err = store.CreateReminder(&Reminder{UserID: "u1", GuildID: "g1", ChannelID: "c1", Text: "later", ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)

	due, err := store.DueReminders(now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "check oven", due[0].Text)

	// 一度配達されたリマインダーは二度と返らない
	due, err = store.DueReminders(now)
	require.NoError(t, err)
	assert.Empty(t, due)

	remaining, err := store.ListReminders("u1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "later", remaining[0].Text)
}

func TestBlacklist(t *testing.T) {
	store := newTestStore(t)

	on, err := store.IsBlacklisted("u1")
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, store.AddBlacklist("u1", "abuse"))

	on, err = store.IsBlacklisted("u1")
	require.NoError(t, err)
	assert.True(t, on)

	removed, err := store.RemoveBlacklist("u1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.RemoveBlacklist("u1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestAISettingsDefaults(t *testing.T) {
	store := newTestStore(t)

	as, err := store.GetAISettings("g1", true)
	require.NoError(t, err)
	assert.True(t, as.Enabled)
	assert.Equal(t, "genz", as.Personality)

	require.NoError(t, store.SetAIEnabled("g1", false))
	require.NoError(t, store.SetAIPersonality("g1", "professional"))

	as, err = store.GetAISettings("g1", true)
	require.NoError(t, err)
	assert.False(t, as.Enabled)
	assert.Equal(t, "professional", as.Personality)
}

func TestGuildSettingsRoundTrip(t *testing.T) {
	store := newTestStore(t)

	gs, err := store.GetGuildSettings("g1")
	require.NoError(t, err)
	assert.Equal(t, ",", gs.Prefix)

	gs.StaffRoleID = "role-staff"
	gs.ShiftChannelID = "chan-shift"
	require.NoError(t, store.SaveGuildSettings(gs))

	got, err := store.GetGuildSettings("g1")
	require.NoError(t, err)
	assert.Equal(t, "role-staff", got.StaffRoleID)
	assert.Equal(t, "chan-shift", got.ShiftChannelID)
}
