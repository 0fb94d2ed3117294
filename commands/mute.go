package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"lunabot/config"
	"lunabot/storage"
)

// MuteCommand はDiscordのタイムアウトを使ったミュートを管理します。
// 期限はDBにも記録され、cronの失効スイープで自動解除されます。
type MuteCommand struct {
	Ctx *AppContext
}

func (c *MuteCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     "mute",
		Description:              "ユーザーのミュートを管理します。",
		DefaultMemberPermissions: int64Ptr(discordgo.PermissionModerateMembers),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "set",
				Description: "ユーザーをミュートします。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "ミュートするユーザー", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "duration", Description: "期間 (例: 10m, 1h)", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "理由", Required: false},
				},
			},
			{
				Name:        "remove",
				Description: "ユーザーのミュートを解除します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "解除するユーザー", Required: true},
				},
			},
		},
	}
}

func (c *MuteCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub := i.ApplicationCommandData().Options[0]
	opts := optionMap(sub.Options)

	switch sub.Name {
	case "set":
		reason := "理由なし"
		if o, ok := opts["reason"]; ok {
			reason = o.StringValue()
		}
		c.mute(s, i, opts["user"].UserValue(s), opts["duration"].StringValue(), reason)
	case "remove":
		c.unmute(s, i, opts["user"].UserValue(s))
	}
}

func (c *MuteCommand) mute(s *discordgo.Session, i *discordgo.InteractionCreate, target *discordgo.User, durationStr, reason string) {
	duration, err := time.ParseDuration(durationStr)
	if err != nil || duration <= 0 {
		_ = respondError(s, i, "期間の形式が不正です。例: 10m, 1h")
		return
	}

	expiresAt := time.Now().Add(duration)
	if err := s.GuildMemberTimeout(i.GuildID, target.ID, &expiresAt); err != nil {
		c.Ctx.Log.Error("ミュートに失敗", "error", err, "target", target.ID)
		_ = respondError(s, i, "ミュートに失敗しました。権限を確認してください。")
		return
	}

	if err := c.Ctx.Store.UpsertMute(&storage.Mute{
		GuildID:     i.GuildID,
		UserID:      target.ID,
		ModeratorID: interactionUser(i).ID,
		Reason:      reason,
		ExpiresAt:   expiresAt,
		Active:      true,
	}); err != nil {
		c.Ctx.Log.Error("ミュート記録の保存に失敗", "error", err)
	}

	embed := &discordgo.MessageEmbed{
		Title: "🔇 Mute",
		Color: config.GetEmbedColor("mute"),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "対象", Value: target.Mention(), Inline: true},
			{Name: "解除", Value: fmt.Sprintf("<t:%d:R>", expiresAt.Unix()), Inline: true},
			{Name: "理由", Value: reason, Inline: false},
		},
	}
	_ = respondEmbed(s, i, embed)
}

func (c *MuteCommand) unmute(s *discordgo.Session, i *discordgo.InteractionCreate, target *discordgo.User) {
	if err := s.GuildMemberTimeout(i.GuildID, target.ID, nil); err != nil {
		c.Ctx.Log.Error("ミュート解除に失敗", "error", err, "target", target.ID)
		_ = respondError(s, i, "ミュート解除に失敗しました。")
		return
	}
	if err := c.Ctx.Store.DeactivateMute(i.GuildID, target.ID); err != nil {
		c.Ctx.Log.Error("ミュート記録の更新に失敗", "error", err)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🔊 Unmute",
		Description: fmt.Sprintf("%s のミュートを解除しました。", target.Mention()),
		Color:       config.GetEmbedColor("unmute"),
	}
	_ = respondEmbed(s, i, embed)
}

func (c *MuteCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *MuteCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *MuteCommand) GetComponentIDs() []string                                            { return []string{} }
func (c *MuteCommand) GetCategory() string                                                  { return "Moderation" }
