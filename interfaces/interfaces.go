package interfaces

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"

	"lunabot/storage"
)

// Logger は、アプリケーション全体で使用されるロガーのインターフェースを定義します。
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
}

// DataStore は、ボットが依存するデータベース操作のインターフェースを定義します。
type DataStore interface {
	Close()
	PingDB() error

	GetGuildSettings(guildID string) (*storage.GuildSettings, error)
	SaveGuildSettings(settings *storage.GuildSettings) error
	GetAISettings(guildID string, defaultEnabled bool) (*storage.AISettings, error)
	SetAIEnabled(guildID string, enabled bool) error
	SetAIPersonality(guildID, personality string) error

	AddWarn(guildID, userID, moderatorID, reason string) (int64, error)
	GetWarns(guildID, userID string) ([]storage.Warn, error)
	DeleteWarn(id int64) (bool, error)

	UpsertMute(mute *storage.Mute) error
	GetActiveMute(guildID, userID string) (*storage.Mute, error)
	DeactivateMute(guildID, userID string) error
	GetExpiredMutes(now time.Time) ([]storage.Mute, error)

	RecordBan(guildID, userID, moderatorID, reason string) error
	WasBanned(guildID, userID string) (bool, error)

	AddStaffFlag(guildID, userID, flaggerID, reason string, expiresAt time.Time) (int64, error)
	CountActiveFlags(guildID, userID string) (int, error)
	ClearStaffFlags(guildID, userID string) error

	CreateTag(tag *storage.Tag) error
	EditTag(guildID, category, title, description string) (bool, error)
	DeleteTag(guildID, category, title string) (bool, error)
	GetTag(guildID, category, title string) (*storage.Tag, error)
	ListTags(guildID, category string) ([]storage.Tag, error)

	CreateReminder(reminder *storage.Reminder) (int64, error)
	ListReminders(userID string) ([]storage.Reminder, error)
	DueReminders(now time.Time) ([]storage.Reminder, error)
	DeleteReminder(id int64, userID string) (bool, error)

	AddBlacklist(userID, reason string) error
	RemoveBlacklist(userID string) (bool, error)
	IsBlacklisted(userID string) (bool, error)

	StartShift(guildID, userID, shiftType string, now time.Time) (int64, error)
	GetActiveShift(guildID, userID string) (*storage.Shift, error)
	StartBreak(shiftID int64, now time.Time) error
	EndBreak(shiftID int64, now time.Time) error
	EndShift(shiftID int64, now time.Time) (*storage.Shift, error)
	TouchShiftActivity(guildID, userID string, now time.Time) error
	SweepAFKShifts(now time.Time, timeoutFor func(shiftType string) time.Duration) ([]storage.Shift, error)
	WeeklyHours(guildID, userID, shiftType string, week string) (float64, error)
	ShiftLeaderboard(guildID, week string, limit int) ([]storage.QuotaEntry, error)
}

// StatsStore は、ダッシュボード用の統計ストアのインターフェースを定義します。
type StatsStore interface {
	Close()
	IncrementCommandUsage(name string) error
	CommandTotals() (map[string]int, error)
	GetAndResetCommandUsage() (map[string]int, error)
	RecordActivity(guildID, channelID, userID string, ts time.Time) error
}

// Scheduler は、タスクのスケジューリング機能のインターフェースを定義します。
type Scheduler interface {
	Start()
	Stop() context.Context
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
}

// CommandHandler は、すべてのボットコマンドが実装すべきインターフェースを定義します。
type CommandHandler interface {
	GetCommandDef() *discordgo.ApplicationCommand
	Handle(s *discordgo.Session, i *discordgo.InteractionCreate)
	HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate)
	HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)
	GetComponentIDs() []string
	GetCategory() string
}
