package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lunabot/config"
	"lunabot/logger"
)

func testAppContext() *AppContext {
	return &AppContext{
		Log:       logger.Std{},
		Cfg:       &config.Config{BotName: "Luna", AIEnabledByDefault: true},
		StartTime: time.Now(),
	}
}

func TestRegisterAllCommands(t *testing.T) {
	registry := RegisterAllCommands(testAppContext())
	require.NotEmpty(t, registry)

	// 名前とハンドラの対応が正しいこと
	for name, h := range registry {
		def := h.GetCommandDef()
		assert.Equal(t, name, def.Name)
		assert.NotEmpty(t, def.Description, name)
		assert.NotEmpty(t, h.GetCategory(), name)
	}

	for _, name := range []string{
		"ping", "userinfo", "checkavatar", "calc", "help",
		"moderate", "warn", "mute", "flag", "tag",
		"shift", "remind", "askai", "aipanel", "blacklist",
	} {
		assert.Contains(t, registry, name)
	}
}

func TestComponentIDsAreUnique(t *testing.T) {
	registry := RegisterAllCommands(testAppContext())

	seen := make(map[string]string)
	for name, h := range registry {
		for _, id := range h.GetComponentIDs() {
			owner, dup := seen[id]
			assert.False(t, dup, "component id %q claimed by %s and %s", id, owner, name)
			seen[id] = name
		}
	}
}

func TestHelpCommandSeesRegistry(t *testing.T) {
	registry := RegisterAllCommands(testAppContext())
	help, ok := registry["help"].(*HelpCommand)
	require.True(t, ok)
	assert.Equal(t, registry, help.registry)
}

func TestShiftTypeChoicesMatchConfig(t *testing.T) {
	choices := shiftTypeChoices()
	require.Len(t, choices, len(config.ShiftDurationHours))
	for _, choice := range choices {
		assert.Contains(t, config.ShiftDurationHours, choice.Value.(string))
	}
}
