package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"lunabot/config"
)

// ModerateCommand はkick/ban/unban/timeoutなどの管理操作をまとめたコマンドです。
type ModerateCommand struct {
	Ctx *AppContext
}

func (c *ModerateCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     "moderate",
		Description:              "ユーザーに対する管理操作を行います。",
		DefaultMemberPermissions: int64Ptr(discordgo.PermissionKickMembers | discordgo.PermissionBanMembers | discordgo.PermissionModerateMembers),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "kick",
				Description: "ユーザーをサーバーから追放します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "追放するユーザー", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "追放する理由", Required: false},
				},
			},
			{
				Name:        "ban",
				Description: "ユーザーをサーバーからBANします。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "BANするユーザー", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "BANする理由", Required: false},
				},
			},
			{
				Name:        "unban",
				Description: "ユーザーのBANを解除します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "user_id", Description: "BANを解除するユーザーのID", Required: true},
				},
			},
			{
				Name:        "timeout",
				Description: "ユーザーをタイムアウトさせます。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "タイムアウトさせるユーザー", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "duration", Description: "期間 (例: 5m, 1h, 72h)", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "タイムアウトさせる理由", Required: false},
				},
			},
			{
				Name:        "untimeout",
				Description: "ユーザーのタイムアウトを解除します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "解除するユーザー", Required: true},
				},
			},
		},
	}
}

func (c *ModerateCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub := i.ApplicationCommandData().Options[0]
	opts := optionMap(sub.Options)

	reason := "理由なし"
	if o, ok := opts["reason"]; ok {
		reason = o.StringValue()
	}

	switch sub.Name {
	case "kick":
		c.kick(s, i, opts["user"].UserValue(s), reason)
	case "ban":
		c.ban(s, i, opts["user"].UserValue(s), reason)
	case "unban":
		c.unban(s, i, opts["user_id"].StringValue())
	case "timeout":
		c.timeout(s, i, opts["user"].UserValue(s), opts["duration"].StringValue(), reason)
	case "untimeout":
		c.untimeout(s, i, opts["user"].UserValue(s))
	}
}

func (c *ModerateCommand) kick(s *discordgo.Session, i *discordgo.InteractionCreate, target *discordgo.User, reason string) {
	if err := s.GuildMemberDeleteWithReason(i.GuildID, target.ID, reason); err != nil {
		c.Ctx.Log.Error("キックに失敗", "error", err, "target", target.ID)
		_ = respondError(s, i, "キックに失敗しました。権限を確認してください。")
		return
	}
	c.respondAction(s, i, "kick", "👢 Kick", target, reason)
}

func (c *ModerateCommand) ban(s *discordgo.Session, i *discordgo.InteractionCreate, target *discordgo.User, reason string) {
	if err := s.GuildBanCreateWithReason(i.GuildID, target.ID, reason, 0); err != nil {
		c.Ctx.Log.Error("BANに失敗", "error", err, "target", target.ID)
		_ = respondError(s, i, "BANに失敗しました。権限を確認してください。")
		return
	}
	if err := c.Ctx.Store.RecordBan(i.GuildID, target.ID, interactionUser(i).ID, reason); err != nil {
		c.Ctx.Log.Error("BAN履歴の保存に失敗", "error", err)
	}
	c.respondAction(s, i, "ban", "🔨 Ban", target, reason)
}

func (c *ModerateCommand) unban(s *discordgo.Session, i *discordgo.InteractionCreate, userID string) {
	if err := s.GuildBanDelete(i.GuildID, userID); err != nil {
		c.Ctx.Log.Error("BAN解除に失敗", "error", err, "target", userID)
		_ = respondError(s, i, "BAN解除に失敗しました。IDを確認してください。")
		return
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🕊️ Unban",
		Description: fmt.Sprintf("<@%s> のBANを解除しました。", userID),
		Color:       config.GetEmbedColor("unban"),
	}
	_ = respondEmbed(s, i, embed)
}

func (c *ModerateCommand) timeout(s *discordgo.Session, i *discordgo.InteractionCreate, target *discordgo.User, durationStr, reason string) {
	duration, err := time.ParseDuration(durationStr)
	if err != nil || duration <= 0 {
		_ = respondError(s, i, "期間の形式が不正です。例: 5m, 1h, 72h")
		return
	}
	// Discordのタイムアウト上限は28日
	if duration > 28*24*time.Hour {
		_ = respondError(s, i, "タイムアウト期間は最大28日です。")
		return
	}

	until := time.Now().Add(duration)
	if err := s.GuildMemberTimeout(i.GuildID, target.ID, &until); err != nil {
		c.Ctx.Log.Error("タイムアウトに失敗", "error", err, "target", target.ID)
		_ = respondError(s, i, "タイムアウトに失敗しました。権限を確認してください。")
		return
	}
	c.respondAction(s, i, "timeout", "⏱️ Timeout", target, fmt.Sprintf("%s（%s）", reason, duration))
}

func (c *ModerateCommand) untimeout(s *discordgo.Session, i *discordgo.InteractionCreate, target *discordgo.User) {
	if err := s.GuildMemberTimeout(i.GuildID, target.ID, nil); err != nil {
		c.Ctx.Log.Error("タイムアウト解除に失敗", "error", err, "target", target.ID)
		_ = respondError(s, i, "タイムアウト解除に失敗しました。")
		return
	}
	embed := &discordgo.MessageEmbed{
		Title:       "⏱️ Untimeout",
		Description: fmt.Sprintf("<@%s> のタイムアウトを解除しました。", target.ID),
		Color:       config.GetEmbedColor("untimeout"),
	}
	_ = respondEmbed(s, i, embed)
}

func (c *ModerateCommand) respondAction(s *discordgo.Session, i *discordgo.InteractionCreate, action, title string, target *discordgo.User, reason string) {
	embed := &discordgo.MessageEmbed{
		Title: title,
		Color: config.GetEmbedColor(action),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "対象", Value: fmt.Sprintf("%s (`%s`)", target.String(), target.ID), Inline: true},
			{Name: "実行者", Value: interactionUser(i).Mention(), Inline: true},
			{Name: "理由", Value: reason, Inline: false},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	_ = respondEmbed(s, i, embed)
}

func (c *ModerateCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *ModerateCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *ModerateCommand) GetComponentIDs() []string                                            { return []string{} }
func (c *ModerateCommand) GetCategory() string                                                  { return "Moderation" }
