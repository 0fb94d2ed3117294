package commands

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"lunabot/config"
)

// BlacklistCommand はボットの利用をユーザー単位で禁止します。オーナー専用です。
type BlacklistCommand struct {
	Ctx *AppContext
}

func (c *BlacklistCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "blacklist",
		Description: "ボットの利用をユーザー単位で禁止します（オーナー専用）。",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "add",
				Description: "ユーザーをブラックリストに追加します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "対象ユーザー", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "理由", Required: false},
				},
			},
			{
				Name:        "remove",
				Description: "ユーザーをブラックリストから削除します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "対象ユーザー", Required: true},
				},
			},
		},
	}
}

func (c *BlacklistCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !c.isOwner(interactionUser(i).ID) {
		_ = respondError(s, i, "このコマンドはボットのオーナーのみ実行できます。")
		return
	}

	sub := i.ApplicationCommandData().Options[0]
	opts := optionMap(sub.Options)
	target := opts["user"].UserValue(s)

	switch sub.Name {
	case "add":
		reason := "理由なし"
		if o, ok := opts["reason"]; ok {
			reason = o.StringValue()
		}
		if err := c.Ctx.Store.AddBlacklist(target.ID, reason); err != nil {
			c.Ctx.Log.Error("ブラックリストの保存に失敗", "error", err)
			_ = respondError(s, i, "ブラックリストの保存に失敗しました。")
			return
		}
		embed := &discordgo.MessageEmbed{
			Title:       "⛔ Blacklisted",
			Description: fmt.Sprintf("%s をブラックリストに追加しました。\n理由: %s", target.Mention(), reason),
			Color:       config.GetEmbedColor("blacklist"),
		}
		_ = respondEmbed(s, i, embed)

	case "remove":
		removed, err := c.Ctx.Store.RemoveBlacklist(target.ID)
		if err != nil {
			c.Ctx.Log.Error("ブラックリストの削除に失敗", "error", err)
			_ = respondError(s, i, "ブラックリストの削除に失敗しました。")
			return
		}
		if !removed {
			_ = respondError(s, i, fmt.Sprintf("%s はブラックリストに登録されていません。", target.Mention()))
			return
		}
		embed := &discordgo.MessageEmbed{
			Title:       "✅ Unblacklisted",
			Description: fmt.Sprintf("%s をブラックリストから削除しました。", target.Mention()),
			Color:       config.GetEmbedColor("unblacklist"),
		}
		_ = respondEmbed(s, i, embed)
	}
}

func (c *BlacklistCommand) isOwner(userID string) bool {
	return userID == strconv.FormatInt(c.Ctx.Cfg.OwnerID, 10)
}

func (c *BlacklistCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *BlacklistCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *BlacklistCommand) GetComponentIDs() []string                                            { return []string{} }
func (c *BlacklistCommand) GetCategory() string                                                  { return "Owner" }
