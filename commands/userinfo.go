package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"lunabot/config"
)

// UserInfoCommand はユーザーのプロフィールとモデレーション履歴を表示します。
type UserInfoCommand struct {
	Ctx *AppContext
}

func (c *UserInfoCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "userinfo",
		Description: "ユーザーの情報を表示します。",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "対象ユーザー（省略時は自分）", Required: false},
		},
	}
}

func (c *UserInfoCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	target := interactionUser(i)
	if opts := i.ApplicationCommandData().Options; len(opts) > 0 {
		target = opts[0].UserValue(s)
	}

	created, _ := discordgo.SnowflakeTimestamp(target.ID)
	fields := []*discordgo.MessageEmbedField{
		{Name: "ID", Value: fmt.Sprintf("`%s`", target.ID), Inline: true},
		{Name: "アカウント作成", Value: fmt.Sprintf("<t:%d:R>", created.Unix()), Inline: true},
	}

	if member, err := s.GuildMember(i.GuildID, target.ID); err == nil {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "サーバー参加", Value: fmt.Sprintf("<t:%d:R>", member.JoinedAt.Unix()), Inline: true,
		})
		if len(member.Roles) > 0 {
			mentions := make([]string, 0, len(member.Roles))
			for _, r := range member.Roles {
				mentions = append(mentions, fmt.Sprintf("<@&%s>", r))
			}
			fields = append(fields, &discordgo.MessageEmbedField{
				Name: fmt.Sprintf("ロール (%d)", len(member.Roles)), Value: strings.Join(mentions, " "), Inline: false,
			})
		}
	}

	// モデレーション履歴のサマリ
	if warns, err := c.Ctx.Store.GetWarns(i.GuildID, target.ID); err == nil && len(warns) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "⚠️ 警告", Value: fmt.Sprintf("%d件", len(warns)), Inline: true,
		})
	}
	if banned, err := c.Ctx.Store.WasBanned(i.GuildID, target.ID); err == nil && banned {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "🔨 BAN歴", Value: "あり", Inline: true,
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:     target.String(),
		Color:     config.GetEmbedColor("userinfo"),
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: target.AvatarURL("256")},
		Fields:    fields,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	_ = respondEmbed(s, i, embed)
}

func (c *UserInfoCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *UserInfoCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *UserInfoCommand) GetComponentIDs() []string                                            { return []string{} }
func (c *UserInfoCommand) GetCategory() string                                                  { return "Utility" }

// CheckAvatarCommand はユーザーのアバターを原寸で表示します。
type CheckAvatarCommand struct {
	Ctx *AppContext
}

func (c *CheckAvatarCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "checkavatar",
		Description: "ユーザーのアバターを表示します。",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "対象ユーザー（省略時は自分）", Required: false},
		},
	}
}

func (c *CheckAvatarCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	target := interactionUser(i)
	if opts := i.ApplicationCommandData().Options; len(opts) > 0 {
		target = opts[0].UserValue(s)
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s のアバター", target.Username),
		Color: config.GetEmbedColor("checkavatar"),
		Image: &discordgo.MessageEmbedImage{URL: target.AvatarURL("1024")},
	}
	_ = respondEmbed(s, i, embed)
}

func (c *CheckAvatarCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *CheckAvatarCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *CheckAvatarCommand) GetComponentIDs() []string                                            { return []string{} }
func (c *CheckAvatarCommand) GetCategory() string                                                  { return "Utility" }
