package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"lunabot/config"
)

// スタッフフラグの有効期間
const staffFlagTTL = 30 * 24 * time.Hour

// FlagCommand はスタッフへの注意フラグを管理します。
// 有効なフラグが MaxStaffFlags 件に達すると警告が表示されます。
type FlagCommand struct {
	Ctx *AppContext
}

func (c *FlagCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     "flag",
		Description:              "スタッフへの注意フラグを管理します。",
		DefaultMemberPermissions: int64Ptr(discordgo.PermissionAdministrator),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "add",
				Description: "スタッフにフラグを付与します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "対象のスタッフ", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "フラグの理由", Required: true},
				},
			},
			{
				Name:        "clear",
				Description: "スタッフのフラグをすべて解除します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "対象のスタッフ", Required: true},
				},
			},
			{
				Name:        "count",
				Description: "スタッフの有効なフラグ数を表示します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "対象のスタッフ", Required: true},
				},
			},
		},
	}
}

func (c *FlagCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub := i.ApplicationCommandData().Options[0]
	opts := optionMap(sub.Options)
	target := opts["user"].UserValue(s)

	switch sub.Name {
	case "add":
		c.add(s, i, target, opts["reason"].StringValue())
	case "clear":
		c.clear(s, i, target)
	case "count":
		c.count(s, i, target)
	}
}

func (c *FlagCommand) add(s *discordgo.Session, i *discordgo.InteractionCreate, target *discordgo.User, reason string) {
	_, err := c.Ctx.Store.AddStaffFlag(i.GuildID, target.ID, interactionUser(i).ID, reason, time.Now().Add(staffFlagTTL))
	if err != nil {
		c.Ctx.Log.Error("フラグの保存に失敗", "error", err)
		_ = respondError(s, i, "フラグの保存に失敗しました。")
		return
	}

	count, err := c.Ctx.Store.CountActiveFlags(i.GuildID, target.ID)
	if err != nil {
		c.Ctx.Log.Error("フラグ数の取得に失敗", "error", err)
	}

	embed := &discordgo.MessageEmbed{
		Title: "🚩 Staff Flag",
		Color: config.GetEmbedColor("flag"),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "対象", Value: target.Mention(), Inline: true},
			{Name: "有効フラグ", Value: fmt.Sprintf("%d / %d", count, config.MaxStaffFlags), Inline: true},
			{Name: "理由", Value: reason, Inline: false},
		},
	}
	if count >= config.MaxStaffFlags {
		embed.Description = "⚠️ フラグが上限に達しました。対応を検討してください。"
		embed.Color = config.GetEmbedColor("terminate")
	}
	_ = respondEmbed(s, i, embed)
}

func (c *FlagCommand) clear(s *discordgo.Session, i *discordgo.InteractionCreate, target *discordgo.User) {
	if err := c.Ctx.Store.ClearStaffFlags(i.GuildID, target.ID); err != nil {
		c.Ctx.Log.Error("フラグの解除に失敗", "error", err)
		_ = respondError(s, i, "フラグの解除に失敗しました。")
		return
	}
	embed := &discordgo.MessageEmbed{
		Title:       "✅ Flags Cleared",
		Description: fmt.Sprintf("%s のフラグをすべて解除しました。", target.Mention()),
		Color:       config.GetEmbedColor("unflag"),
	}
	_ = respondEmbed(s, i, embed)
}

func (c *FlagCommand) count(s *discordgo.Session, i *discordgo.InteractionCreate, target *discordgo.User) {
	count, err := c.Ctx.Store.CountActiveFlags(i.GuildID, target.ID)
	if err != nil {
		c.Ctx.Log.Error("フラグ数の取得に失敗", "error", err)
		_ = respondError(s, i, "フラグ数の取得に失敗しました。")
		return
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🚩 Staff Flags",
		Description: fmt.Sprintf("%s の有効なフラグ: **%d / %d**", target.Mention(), count, config.MaxStaffFlags),
		Color:       config.GetEmbedColor("stafflist"),
	}
	_ = respondEmbed(s, i, embed)
}

func (c *FlagCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *FlagCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *FlagCommand) GetComponentIDs() []string                                            { return []string{} }
func (c *FlagCommand) GetCategory() string                                                  { return "Admin" }
