package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWebhookURL(t *testing.T) {
	id, token, err := parseWebhookURL("https://discord.com/api/webhooks/123456789/abc-DEF_ghi")
	require.NoError(t, err)
	assert.Equal(t, "123456789", id)
	assert.Equal(t, "abc-DEF_ghi", token)
}

func TestParseWebhookURLRejectsMalformed(t *testing.T) {
	for _, url := range []string{
		"",
		"https://discord.com/api/channels/123",
		"https://discord.com/api/webhooks/123456789",
	} {
		_, _, err := parseWebhookURL(url)
		assert.Error(t, err, url)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(time.Hour)
	assert.True(t, rl.Allow("user-a"))
	assert.False(t, rl.Allow("user-a"))
	// 他のユーザーには影響しない
	assert.True(t, rl.Allow("user-b"))
}

func TestRateLimiterExpires(t *testing.T) {
	rl := NewRateLimiter(10 * time.Millisecond)
	require.True(t, rl.Allow("user-a"))
	time.Sleep(20 * time.Millisecond)
	assert.True(t, rl.Allow("user-a"))
}

func TestDiffRoles(t *testing.T) {
	added, removed := diffRoles([]string{"a", "b"}, []string{"b", "c"})
	assert.Equal(t, []string{"c"}, added)
	assert.Equal(t, []string{"a"}, removed)

	added, removed = diffRoles([]string{"a"}, []string{"a"})
	assert.Empty(t, added)
	assert.Empty(t, removed)
}
