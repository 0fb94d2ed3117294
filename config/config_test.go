package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEmbedColorIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, DeepSpace, GetEmbedColor("ban"))
	assert.Equal(t, DeepSpace, GetEmbedColor("BAN"))
	assert.Equal(t, DeepSpace, GetEmbedColor("Ban"))
	assert.Equal(t, GetEmbedColor("ban"), GetEmbedColor("BAN"))
}

func TestGetEmbedColorFallsBackToStarlightBlue(t *testing.T) {
	assert.Equal(t, StarlightBlue, GetEmbedColor("nonexistent_action"))
	assert.Equal(t, StarlightBlue, GetEmbedColor(""))
	assert.Equal(t, StarlightBlue, GetEmbedColor("NONEXISTENT_ACTION"))
}

func TestGetEmbedColorKnownKeys(t *testing.T) {
	assert.Equal(t, ColorWarning, GetEmbedColor("timeout"))
	assert.Equal(t, ColorError, GetEmbedColor("error"))
	assert.Equal(t, ColorSuccess, GetEmbedColor("warn"))
	assert.Equal(t, ColorInfo, GetEmbedColor("help"))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_NAME", "")
	t.Setenv("DEFAULT_PREFIX", "")
	t.Setenv("OWNER_ID", "")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("STATS_DB_FILE", "")
	t.Setenv("AI_ENABLED_BY_DEFAULT", "")
	t.Setenv("AI_RESPONSE_TIMEOUT", "")
	t.Setenv("MAX_RESPONSE_LENGTH", "")
	t.Setenv("RATE_LIMIT_SECONDS", "")
	t.Setenv("TARGET_CHANNEL_ID", "")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "Luna", cfg.BotName)
	assert.Equal(t, ",", cfg.DefaultPrefix)
	assert.Equal(t, int64(0), cfg.OwnerID)
	assert.Equal(t, "luna.db", cfg.DatabasePath)
	assert.Equal(t, "stats.db", cfg.StatsDBFile)
	assert.Equal(t, "gemini-pro", cfg.GeminiModel)
	assert.True(t, cfg.AIEnabledByDefault)
	assert.Equal(t, 5, cfg.AIResponseTimeout)
	assert.Equal(t, 200, cfg.MaxResponseLength)
	assert.Equal(t, 5, cfg.RateLimitSeconds)
	assert.Equal(t, int64(1459535418990002197), cfg.TargetChannelID)
}

func TestLoadIntegerOverride(t *testing.T) {
	t.Setenv("OWNER_ID", "123456789")
	t.Setenv("MAX_RESPONSE_LENGTH", "500")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(123456789), cfg.OwnerID)
	assert.Equal(t, 500, cfg.MaxResponseLength)
}

func TestLoadRejectsNonNumericInteger(t *testing.T) {
	t.Setenv("OWNER_ID", "not-a-number")

	_, err := Load(nil)
	require.Error(t, err)
	// 起動時エラーには問題の変数名が含まれること
	assert.Contains(t, err.Error(), "OWNER_ID")
}

func TestBooleanParsing(t *testing.T) {
	for _, val := range []string{"true", "TRUE", "True"} {
		t.Setenv("AI_ENABLED_BY_DEFAULT", val)
		cfg, err := Load(nil)
		require.NoError(t, err)
		assert.True(t, cfg.AIEnabledByDefault, "value %q", val)
	}

	for _, val := range []string{"false", "yes", "1", "on"} {
		t.Setenv("AI_ENABLED_BY_DEFAULT", val)
		cfg, err := Load(nil)
		require.NoError(t, err)
		assert.False(t, cfg.AIEnabledByDefault, "value %q", val)
	}
}

func TestShiftTablesShareKeyDomain(t *testing.T) {
	require.NoError(t, validateShiftTables())

	for role := range ShiftDurationHours {
		assert.Contains(t, ShiftAFKTimeoutSeconds, role)
		assert.Contains(t, ShiftWeeklyQuotaHours, role)
	}
}

func TestGetPersonalityFallsBackToGenz(t *testing.T) {
	assert.Equal(t, AIPersonalities["genz"], GetPersonality("unknown"))
	assert.Equal(t, AIPersonalities["professional"], GetPersonality("PROFESSIONAL"))
	assert.Equal(t, AIPersonalities["funny"], GetPersonality("funny"))
}
