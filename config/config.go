package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"lunabot/interfaces"
)

// Lunar Color Palette
const (
	DeepSpace     = 0x02040B // メイン背景色
	MidnightNavy  = 0x0D1321 // サブ背景色
	StarlightBlue = 0x7FA9FF // プライマリアクセント
	CosmicPurple  = 0x1B1431 // セカンダリアクセント
	ErrorRed      = 0xFF4444
)

// 用途別のカラーエイリアス
const (
	ColorPrimary = DeepSpace
	ColorSuccess = StarlightBlue
	ColorWarning = CosmicPurple
	ColorError   = ErrorRed
	ColorInfo    = MidnightNavy
)

// EmbedColors はコマンド名（小文字）から埋め込みカラーへのマッピングです。
// 未登録のキーは GetEmbedColor が StarlightBlue にフォールバックします。
var EmbedColors = map[string]int{
	// Moderation
	"warn":      ColorSuccess,
	"mute":      ColorSuccess,
	"kick":      ColorPrimary,
	"ban":       ColorPrimary,
	"timeout":   ColorWarning,
	"unwarn":    ColorSuccess,
	"unmute":    ColorSuccess,
	"unban":     ColorSuccess,
	"untimeout": ColorSuccess,

	// Admin
	"flag":      ColorWarning,
	"unflag":    ColorSuccess,
	"terminate": ColorPrimary,
	"stafflist": ColorInfo,

	// Helper/Tags
	"tag":        ColorSuccess,
	"tags":       ColorInfo,
	"tag_create": ColorSuccess,
	"tag_edit":   ColorSuccess,
	"tag_delete": ColorError,

	// Utility
	"announce":     ColorSuccess,
	"poll":         ColorInfo,
	"endpoll":      ColorWarning,
	"define":       ColorInfo,
	"translate":    ColorInfo,
	"askai":        ColorSuccess,
	"remindme":     ColorSuccess,
	"reminders":    ColorInfo,
	"deleteremind": ColorError,
	"calc":         ColorInfo,
	"ping":         ColorInfo,
	"userinfo":     ColorInfo,
	"checkavatar":  ColorInfo,

	// AI
	"aipanel":     ColorInfo,
	"ai_target":   ColorWarning,
	"ai_stop":     ColorSuccess,
	"ai_settings": ColorInfo,

	// Shifts
	"shift_create":  ColorSuccess,
	"shift_delete":  ColorError,
	"view_shifts":   ColorInfo,
	"activity_view": ColorInfo,
	"config_roles":  ColorSuccess,
	"config_afk":    ColorSuccess,
	"config_quota":  ColorSuccess,
	"quota_remove":  ColorSuccess,
	"view_settings": ColorInfo,
	"shift_channel": ColorSuccess,
	"reset_all":     ColorWarning,
	"myshift":       ColorInfo,
	"viewshift":     ColorInfo,
	"shift_lb":      ColorSuccess,

	// Help
	"help":     ColorInfo,
	"help_all": ColorInfo,
	"info":     ColorInfo,

	// Owner
	"commands":    ColorInfo,
	"blacklist":   ColorWarning,
	"unblacklist": ColorSuccess,
	"extract_dms": ColorWarning,

	// Contextual
	"error":   ColorError,
	"success": ColorSuccess,
}

// GetEmbedColor はアクション種別に対応する埋め込みカラーを返します。
// どんな入力でも必ず有効なカラーを返します（未知のキーはStarlightBlue）。
func GetEmbedColor(actionType string) int {
	if c, ok := EmbedColors[strings.ToLower(actionType)]; ok {
		return c
	}
	return StarlightBlue
}

// AIPersonalities はAI応答のトーンを決めるプロンプトテンプレートです。
// Gemini APIにsystem instructionとしてそのまま渡されます。
var AIPersonalities = map[string]string{
	"genz": `You are Luna, a fun Discord bot who speaks like Gen-Z users.
Use phrases like: "fr fr", "no cap", "nah fr", "it's giving", "that's not it chief",
"periodt", "slay", "that's a vibe", "lowkey", "highkey", "bussin", "ate and left no crumbs".

Be casual, funny, and relatable. Make jokes about random things.
Keep responses short (under 200 characters for Discord).
Sometimes use emojis and meme references.
Be helpful but also funny about it.`,

	"professional": `You are Luna, a helpful Discord bot designed to assist users with their questions and moderation needs.
Always be polite, professional, and helpful.
Provide clear, concise answers.
Be supportive and understanding.`,

	"funny": `You are Luna, a hilarious Discord bot who loves making people laugh.
Use jokes, puns, and witty responses.
Be playful and lighthearted.
Keep responses entertaining and fun.`,
}

// DefaultPersonality は未知のパーソナリティ名のフォールバック先です。
const DefaultPersonality = "genz"

// GetPersonality は名前に対応するプロンプトを返します。未知の名前はgenzです。
func GetPersonality(name string) string {
	if p, ok := AIPersonalities[strings.ToLower(name)]; ok {
		return p
	}
	return AIPersonalities[DefaultPersonality]
}

// Shift defaults（ロール別）。3つのテーブルは同じキー集合を持つこと。
// Load 時に validateShiftTables で検証されます。
var (
	ShiftDurationHours     = map[string]int{"helper": 2, "staff": 4}
	ShiftAFKTimeoutSeconds = map[string]int{"helper": 300, "staff": 600}
	ShiftWeeklyQuotaHours  = map[string]int{"helper": 5, "staff": 10}
)

// シフト関連の固定値
const (
	ShiftGMTOffset        = 8 // シフト計算はGMT+8基準
	ShiftAutoEndThreshold = 2 // AFKタイムアウトのN倍でシフト強制終了
	ShiftWeekStart        = 0 // 0 = 月曜
)

const (
	MaxStaffFlags          = 5
	ReminderCheckInterval  = 60 // 秒
	PaginationItemsPerPage = 10
	LeaderboardTopN        = 5
)

// Config はプロセス全体で共有される読み取り専用の設定値を保持します。
// Load で一度だけ構築され、以後変更されません。
type Config struct {
	BotName       string
	DefaultPrefix string
	OwnerID       int64
	Token         string
	DatabasePath  string

	MessageLoggerWebhook   string
	JoinLeaveLoggerWebhook string
	RoleLoggerWebhook      string

	TargetChannelID int64
	APIURL          string
	StatsDBFile     string

	GeminiAPIKey       string
	GeminiModel        string
	AIEnabledByDefault bool
	AIResponseTimeout  int
	MaxResponseLength  int
	RateLimitSeconds   int

	DashboardAddr     string
	OAuthClientID     string
	OAuthClientSecret string
	OAuthRedirectURL  string
	SessionSecret     string

	// ProjectRoot は相対リソース解決用のアンカーです。
	ProjectRoot string
}

// Load は環境変数から設定を読み込みます。.envファイルがあれば先に取り込みます。
// 整数型の変数に数値でない値が設定されていた場合は、変数名を添えてエラーを返します。
func Load(log interfaces.Logger) (*Config, error) {
	// .env はあれば読む。無くてもエラーにしない。
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	cfg := &Config{
		BotName:                getString(v, "BOT_NAME", "Luna"),
		DefaultPrefix:          getString(v, "DEFAULT_PREFIX", ","),
		Token:                  getString(v, "DISCORD_TOKEN", ""),
		DatabasePath:           getString(v, "DATABASE_PATH", "luna.db"),
		MessageLoggerWebhook:   getString(v, "MESSAGE_LOGGER_WEBHOOK", ""),
		JoinLeaveLoggerWebhook: getString(v, "JOIN_LEAVE_LOGGER_WEBHOOK", ""),
		RoleLoggerWebhook:      getString(v, "ROLE_LOGGER_WEBHOOK", ""),
		APIURL:                 getString(v, "API_URL", "https://halal-worker.vvladut245.workers.dev/"),
		StatsDBFile:            getString(v, "STATS_DB_FILE", "stats.db"),
		GeminiAPIKey:           getString(v, "GEMINI_API_KEY", ""),
		GeminiModel:            getString(v, "GEMINI_MODEL", "gemini-pro"),
		AIEnabledByDefault:     getBool(v, "AI_ENABLED_BY_DEFAULT", "true"),
		DashboardAddr:          getString(v, "DASHBOARD_ADDR", ":8080"),
		OAuthClientID:          getString(v, "DISCORD_CLIENT_ID", ""),
		OAuthClientSecret:      getString(v, "DISCORD_CLIENT_SECRET", ""),
		OAuthRedirectURL:       getString(v, "OAUTH_REDIRECT_URL", "http://localhost:8080/api/auth/callback"),
		SessionSecret:          getString(v, "SESSION_SECRET", "luna-dev-session-secret"),
		ProjectRoot:            projectRoot(),
	}

	var err error
	if cfg.OwnerID, err = getInt64(v, "OWNER_ID", "0"); err != nil {
		return nil, err
	}
	if cfg.TargetChannelID, err = getInt64(v, "TARGET_CHANNEL_ID", "1459535418990002197"); err != nil {
		return nil, err
	}
	if cfg.AIResponseTimeout, err = getInt(v, "AI_RESPONSE_TIMEOUT", "5"); err != nil {
		return nil, err
	}
	if cfg.MaxResponseLength, err = getInt(v, "MAX_RESPONSE_LENGTH", "200"); err != nil {
		return nil, err
	}
	if cfg.RateLimitSeconds, err = getInt(v, "RATE_LIMIT_SECONDS", "5"); err != nil {
		return nil, err
	}

	if err := validateShiftTables(); err != nil {
		return nil, err
	}

	if log != nil {
		log.Info("設定を読み込みました", "bot", cfg.BotName, "db", cfg.DatabasePath)
	}
	return cfg, nil
}

// getString は空文字列を「未設定」とみなしてデフォルトに置き換えます。
func getString(v *viper.Viper, key, def string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return def
}

// getBool は大文字小文字を無視して "true" と比較します。
// 未設定・空のときだけデフォルト文字列が使われます。
func getBool(v *viper.Viper, key, def string) bool {
	s := v.GetString(key)
	if s == "" {
		s = def
	}
	return strings.EqualFold(s, "true")
}

func getInt64(v *viper.Viper, key, def string) (int64, error) {
	s := v.GetString(key)
	if s == "" {
		s = def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s の値 %q を整数として解釈できません: %w", key, s, err)
	}
	return n, nil
}

func getInt(v *viper.Viper, key, def string) (int, error) {
	n, err := getInt64(v, key, def)
	return int(n), err
}

// validateShiftTables は3つのシフトテーブルのキー集合が一致することを確認します。
func validateShiftTables() error {
	keys := func(m map[string]int) []string {
		out := make([]string, 0, len(m))
		for k := range m {
			out = append(out, k)
		}
		sort.Strings(out)
		return out
	}

	dur, afk, quota := keys(ShiftDurationHours), keys(ShiftAFKTimeoutSeconds), keys(ShiftWeeklyQuotaHours)
	if !equalKeys(dur, afk) || !equalKeys(dur, quota) {
		return fmt.Errorf("シフト設定テーブルのロールが一致しません: duration=%v afk=%v quota=%v", dur, afk, quota)
	}
	return nil
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func projectRoot() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
