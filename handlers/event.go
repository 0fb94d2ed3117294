package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"lunabot/config"
	"lunabot/gemini"
	"lunabot/interfaces"
)

// EventHandler はゲートウェイイベントを処理し、Webhookロガーへ転送します。
type EventHandler struct {
	Store   interfaces.DataStore
	Stats   interfaces.StatsStore
	Log     interfaces.Logger
	Cfg     *config.Config
	AI      *gemini.Client
	limiter *RateLimiter
}

func NewEventHandler(store interfaces.DataStore, stats interfaces.StatsStore, log interfaces.Logger, cfg *config.Config, ai *gemini.Client) *EventHandler {
	return &EventHandler{
		Store:   store,
		Stats:   stats,
		Log:     log,
		Cfg:     cfg,
		AI:      ai,
		limiter: NewRateLimiter(time.Duration(cfg.RateLimitSeconds) * time.Second),
	}
}

func (h *EventHandler) RegisterAllHandlers(s *discordgo.Session) {
	s.AddHandler(h.HandleMessageCreate)
	s.AddHandler(h.handleMessageUpdate)
	s.AddHandler(h.handleMessageDelete)
	s.AddHandler(h.handleGuildMemberAdd)
	s.AddHandler(h.handleGuildMemberRemove)
	s.AddHandler(h.handleGuildMemberUpdate)
	s.AddHandler(h.handleGuildBanAdd)
	s.AddHandler(h.handleGuildBanRemove)
}

func (h *EventHandler) getExecutor(s *discordgo.Session, guildID string, targetID string, action discordgo.AuditLogAction) string {
	auditLog, err := s.GuildAuditLog(guildID, "", "", int(action), 5)
	if err != nil {
		h.Log.Error("Failed to get audit log", "error", err, "guildID", guildID, "action", action)
		return ""
	}
	for _, entry := range auditLog.AuditLogEntries {
		if entry.TargetID == targetID {
			logTime, _ := discordgo.SnowflakeTimestamp(entry.ID)
			if time.Since(logTime) < AuditLogTimeWindow {
				return entry.UserID
			}
		}
	}
	return ""
}

// HandleMessageCreate はメッセージを統計・シフト活動へ記録し、
// メンションされた場合はAIとして応答します。
func (h *EventHandler) HandleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}

	if blocked, err := h.Store.IsBlacklisted(m.Author.ID); err == nil && blocked {
		return
	}

	if m.GuildID != "" {
		if err := h.Stats.RecordActivity(m.GuildID, m.ChannelID, m.Author.ID, time.Now()); err != nil {
			h.Log.Error("Failed to record activity", "error", err)
		}
		// 発言はシフトのAFK判定をリセットする
		if err := h.Store.TouchShiftActivity(m.GuildID, m.Author.ID, time.Now()); err != nil {
			h.Log.Error("Failed to touch shift activity", "error", err)
		}
	}

	if h.AI != nil && h.isMentioned(s, m) {
		go h.respondAsAI(s, m)
	}
}

func (h *EventHandler) isMentioned(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	for _, user := range m.Mentions {
		if user.ID == s.State.User.ID {
			return true
		}
	}
	return false
}

func (h *EventHandler) respondAsAI(s *discordgo.Session, m *discordgo.MessageCreate) {
	settings, err := h.Store.GetAISettings(m.GuildID, h.Cfg.AIEnabledByDefault)
	if err != nil {
		h.Log.Error("Failed to get AI settings", "error", err, "guildID", m.GuildID)
		return
	}
	if !settings.Enabled {
		return
	}
	if !h.limiter.Allow(m.Author.ID) {
		return
	}

	if err := s.ChannelTyping(m.ChannelID); err != nil {
		h.Log.Warn("Failed to send typing indicator", "error", err)
	}

	prompt := strings.TrimSpace(strings.ReplaceAll(m.Content, s.State.User.Mention(), ""))
	if prompt == "" {
		prompt = "Say hi."
	}

	reply, err := h.AI.GenerateContent(context.Background(), prompt, config.GetPersonality(settings.Personality))
	if err != nil {
		h.Log.Error("AI応答の生成に失敗", "error", err)
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		h.Log.Error("Failed to send AI response", "error", err)
	}
}

func (h *EventHandler) handleMessageUpdate(s *discordgo.Session, e *discordgo.MessageUpdate) {
	if e.Author == nil || e.Author.Bot {
		return
	}

	before := "(unknown)"
	if e.BeforeUpdate != nil {
		if e.Content == e.BeforeUpdate.Content {
			return
		}
		before = e.BeforeUpdate.Content
	}

	embed := &discordgo.MessageEmbed{
		Title: "✏️ Message Edited", Color: config.GetEmbedColor("info"),
		Author: &discordgo.MessageEmbedAuthor{Name: e.Author.String(), IconURL: e.Author.AvatarURL("")},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Author", Value: e.Author.Mention(), Inline: true},
			{Name: "Channel", Value: fmt.Sprintf("<#%s>", e.ChannelID), Inline: true},
			{Name: "Message", Value: fmt.Sprintf("[Jump](https://discord.com/channels/%s/%s/%s)", e.GuildID, e.ChannelID, e.ID), Inline: true},
			{Name: "Before", Value: codeBlock(before), Inline: false},
			{Name: "After", Value: codeBlock(e.Content), Inline: false},
		},
	}
	h.sendWebhookLog(s, h.Cfg.MessageLoggerWebhook, embed)
}

func (h *EventHandler) handleMessageDelete(s *discordgo.Session, e *discordgo.MessageDelete) {
	embed := &discordgo.MessageEmbed{
		Title: "🗑️ Message Deleted", Color: config.GetEmbedColor("error"),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Channel", Value: fmt.Sprintf("<#%s>", e.ChannelID), Inline: true},
			{Name: "Message ID", Value: e.ID, Inline: true},
		},
	}
	if e.BeforeDelete != nil && e.BeforeDelete.Author != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    e.BeforeDelete.Author.String(),
			IconURL: e.BeforeDelete.Author.AvatarURL(""),
		}
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Author", Value: e.BeforeDelete.Author.Mention(), Inline: true},
			&discordgo.MessageEmbedField{Name: "Content", Value: codeBlock(e.BeforeDelete.Content), Inline: false},
		)
	}
	h.sendWebhookLog(s, h.Cfg.MessageLoggerWebhook, embed)
}

func (h *EventHandler) handleGuildMemberAdd(s *discordgo.Session, e *discordgo.GuildMemberAdd) {
	embed := &discordgo.MessageEmbed{
		Title:       "✅ Member Joined",
		Description: fmt.Sprintf("**<@%s>** joined the server.", e.User.ID),
		Author:      &discordgo.MessageEmbedAuthor{Name: e.User.String(), IconURL: e.User.AvatarURL("")},
		Color:       config.GetEmbedColor("success"),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Account Created", Value: fmt.Sprintf("<t:%d:R>", userCreatedAt(e.User.ID).Unix()), Inline: true},
		},
	}
	h.sendWebhookLog(s, h.Cfg.JoinLeaveLoggerWebhook, embed)
}

func (h *EventHandler) handleGuildMemberRemove(s *discordgo.Session, e *discordgo.GuildMemberRemove) {
	executorID := h.getExecutor(s, e.GuildID, e.User.ID, discordgo.AuditLogActionMemberKick)
	if executorID != "" {
		embed := &discordgo.MessageEmbed{
			Title: "👢 Member Kicked", Color: config.GetEmbedColor("kick"),
			Author: &discordgo.MessageEmbedAuthor{Name: e.User.String(), IconURL: e.User.AvatarURL("")},
			Fields: []*discordgo.MessageEmbedField{
				{Name: "User", Value: e.User.String(), Inline: true},
				{Name: "Moderator", Value: fmt.Sprintf("<@%s>", executorID), Inline: true},
			},
		}
		h.sendWebhookLog(s, h.Cfg.JoinLeaveLoggerWebhook, embed)
		return
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🚪 Member Left",
		Description: fmt.Sprintf("**<@%s>** left the server.", e.User.ID),
		Author:      &discordgo.MessageEmbedAuthor{Name: e.User.String(), IconURL: e.User.AvatarURL("")},
		Color:       config.GetEmbedColor("info"),
	}
	h.sendWebhookLog(s, h.Cfg.JoinLeaveLoggerWebhook, embed)
}

func (h *EventHandler) handleGuildMemberUpdate(s *discordgo.Session, e *discordgo.GuildMemberUpdate) {
	if e.BeforeUpdate == nil {
		return
	}

	added, removed := diffRoles(e.BeforeUpdate.Roles, e.Roles)
	if len(added) == 0 && len(removed) == 0 {
		return
	}

	executorID := h.getExecutor(s, e.GuildID, e.User.ID, discordgo.AuditLogActionMemberRoleUpdate)
	executorMention := "unknown"
	if executorID != "" {
		executorMention = fmt.Sprintf("<@%s>", executorID)
	}

	var fields []*discordgo.MessageEmbedField
	if len(added) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Roles Added", Value: mentionRoles(added), Inline: false})
	}
	if len(removed) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Roles Removed", Value: mentionRoles(removed), Inline: false})
	}
	fields = append(fields, &discordgo.MessageEmbedField{Name: "Moderator", Value: executorMention, Inline: true})

	embed := &discordgo.MessageEmbed{
		Title: "🎭 Roles Updated", Color: config.GetEmbedColor("info"),
		Author: &discordgo.MessageEmbedAuthor{Name: e.User.String(), IconURL: e.User.AvatarURL("")},
		Fields: fields,
	}
	h.sendWebhookLog(s, h.Cfg.RoleLoggerWebhook, embed)
}

func (h *EventHandler) handleGuildBanAdd(s *discordgo.Session, e *discordgo.GuildBanAdd) {
	embed := &discordgo.MessageEmbed{
		Title: "🔨 Member Banned", Color: config.GetEmbedColor("ban"),
		Author: &discordgo.MessageEmbedAuthor{Name: e.User.String(), IconURL: e.User.AvatarURL("")},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: fmt.Sprintf("%s (`%s`)", e.User.String(), e.User.ID)},
		},
	}
	h.sendWebhookLog(s, h.Cfg.JoinLeaveLoggerWebhook, embed)
}

func (h *EventHandler) handleGuildBanRemove(s *discordgo.Session, e *discordgo.GuildBanRemove) {
	embed := &discordgo.MessageEmbed{
		Title: "🕊️ Member Unbanned", Color: config.GetEmbedColor("unban"),
		Author: &discordgo.MessageEmbedAuthor{Name: e.User.String(), IconURL: e.User.AvatarURL("")},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: fmt.Sprintf("%s (`%s`)", e.User.String(), e.User.ID)},
		},
	}
	h.sendWebhookLog(s, h.Cfg.JoinLeaveLoggerWebhook, embed)
}

func codeBlock(s string) string {
	if s == "" {
		s = "(empty)"
	}
	return "```\n" + s + "\n```"
}

func diffRoles(before, after []string) (added, removed []string) {
	beforeSet := make(map[string]bool, len(before))
	for _, r := range before {
		beforeSet[r] = true
	}
	afterSet := make(map[string]bool, len(after))
	for _, r := range after {
		afterSet[r] = true
		if !beforeSet[r] {
			added = append(added, r)
		}
	}
	for _, r := range before {
		if !afterSet[r] {
			removed = append(removed, r)
		}
	}
	return added, removed
}

func mentionRoles(ids []string) string {
	mentions := make([]string, len(ids))
	for i, id := range ids {
		mentions[i] = fmt.Sprintf("<@&%s>", id)
	}
	return strings.Join(mentions, " ")
}

func userCreatedAt(id string) time.Time {
	t, err := discordgo.SnowflakeTimestamp(id)
	if err != nil {
		return time.Time{}
	}
	return t
}
