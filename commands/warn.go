package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"lunabot/config"
)

// WarnCommand は警告の追加・削除・一覧を扱います。
type WarnCommand struct {
	Ctx *AppContext
}

func (c *WarnCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     "warn",
		Description:              "ユーザーの警告を管理します。",
		DefaultMemberPermissions: int64Ptr(discordgo.PermissionModerateMembers),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "add",
				Description: "ユーザーに警告を与えます。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "警告するユーザー", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "警告の理由", Required: true},
				},
			},
			{
				Name:        "remove",
				Description: "警告をIDで削除します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "id", Description: "削除する警告のID", Required: true},
				},
			},
			{
				Name:        "list",
				Description: "ユーザーの警告一覧を表示します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "対象ユーザー", Required: true},
				},
			},
		},
	}
}

func (c *WarnCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub := i.ApplicationCommandData().Options[0]
	opts := optionMap(sub.Options)

	switch sub.Name {
	case "add":
		c.add(s, i, opts["user"].UserValue(s), opts["reason"].StringValue())
	case "remove":
		c.remove(s, i, opts["id"].IntValue())
	case "list":
		c.list(s, i, opts["user"].UserValue(s))
	}
}

func (c *WarnCommand) add(s *discordgo.Session, i *discordgo.InteractionCreate, target *discordgo.User, reason string) {
	id, err := c.Ctx.Store.AddWarn(i.GuildID, target.ID, interactionUser(i).ID, reason)
	if err != nil {
		c.Ctx.Log.Error("警告の保存に失敗", "error", err)
		_ = respondError(s, i, "警告の保存に失敗しました。")
		return
	}

	warns, _ := c.Ctx.Store.GetWarns(i.GuildID, target.ID)
	embed := &discordgo.MessageEmbed{
		Title: "⚠️ Warn",
		Color: config.GetEmbedColor("warn"),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "対象", Value: target.Mention(), Inline: true},
			{Name: "警告ID", Value: fmt.Sprintf("`%d`", id), Inline: true},
			{Name: "累計", Value: fmt.Sprintf("%d件", len(warns)), Inline: true},
			{Name: "理由", Value: reason, Inline: false},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	_ = respondEmbed(s, i, embed)
}

func (c *WarnCommand) remove(s *discordgo.Session, i *discordgo.InteractionCreate, id int64) {
	deleted, err := c.Ctx.Store.DeleteWarn(id)
	if err != nil {
		c.Ctx.Log.Error("警告の削除に失敗", "error", err)
		_ = respondError(s, i, "警告の削除に失敗しました。")
		return
	}
	if !deleted {
		_ = respondError(s, i, fmt.Sprintf("ID `%d` の警告は見つかりませんでした。", id))
		return
	}
	embed := &discordgo.MessageEmbed{
		Title:       "✅ Unwarn",
		Description: fmt.Sprintf("警告 `%d` を削除しました。", id),
		Color:       config.GetEmbedColor("unwarn"),
	}
	_ = respondEmbed(s, i, embed)
}

func (c *WarnCommand) list(s *discordgo.Session, i *discordgo.InteractionCreate, target *discordgo.User) {
	warns, err := c.Ctx.Store.GetWarns(i.GuildID, target.ID)
	if err != nil {
		c.Ctx.Log.Error("警告一覧の取得に失敗", "error", err)
		_ = respondError(s, i, "警告一覧の取得に失敗しました。")
		return
	}
	if len(warns) == 0 {
		_ = respondEphemeral(s, i, fmt.Sprintf("%s に警告はありません。", target.Mention()))
		return
	}

	var b strings.Builder
	for n, w := range warns {
		if n >= config.PaginationItemsPerPage {
			fmt.Fprintf(&b, "...他 %d 件\n", len(warns)-n)
			break
		}
		fmt.Fprintf(&b, "`%d` <t:%d:d> by <@%s> — %s\n", w.ID, w.CreatedAt.Unix(), w.ModeratorID, w.Reason)
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("⚠️ %s の警告 (%d件)", target.Username, len(warns)),
		Description: b.String(),
		Color:       config.GetEmbedColor("warn"),
	}
	_ = respondEmbed(s, i, embed)
}

func (c *WarnCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *WarnCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *WarnCommand) GetComponentIDs() []string                                            { return []string{} }
func (c *WarnCommand) GetCategory() string                                                  { return "Moderation" }
