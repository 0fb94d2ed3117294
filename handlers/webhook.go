package handlers

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// parseWebhookURL はWebhook URLからIDとトークンを取り出します。
func parseWebhookURL(url string) (id, token string, err error) {
	const marker = "/webhooks/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return "", "", fmt.Errorf("webhook URLの形式が不正です: %q", url)
	}
	rest := strings.Trim(url[idx+len(marker):], "/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("webhook URLにIDとトークンが含まれていません: %q", url)
	}
	return parts[0], parts[1], nil
}

// sendWebhookLog はログ用Webhookへ埋め込みを送信します。
// URLが未設定の場合は何もしません。
func (h *EventHandler) sendWebhookLog(s *discordgo.Session, webhookURL string, embed *discordgo.MessageEmbed) {
	if webhookURL == "" {
		return
	}
	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		h.Log.Error("Webhook URLの解析に失敗", "error", err)
		return
	}
	if _, err := s.WebhookExecute(id, token, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	}); err != nil {
		h.Log.Error("Webhookへのログ送信に失敗", "error", err)
	}
}
