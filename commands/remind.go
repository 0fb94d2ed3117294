package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"lunabot/config"
	"lunabot/storage"
)

// RemindCommand はリマインダーの登録・一覧・削除を扱います。
// 期限が来たものはcronのスイープがチャンネルに通知します。
type RemindCommand struct {
	Ctx *AppContext
}

func (c *RemindCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "remind",
		Description: "リマインダーを管理します。",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "me",
				Description: "リマインダーを登録します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "in", Description: "通知までの時間 (例: 30m, 2h, 24h)", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "message", Description: "通知するメッセージ", Required: true},
				},
			},
			{Name: "list", Description: "自分のリマインダーを一覧表示します。", Type: discordgo.ApplicationCommandOptionSubCommand},
			{
				Name:        "delete",
				Description: "リマインダーをIDで削除します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "id", Description: "削除するリマインダーのID", Required: true},
				},
			},
		},
	}
}

func (c *RemindCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub := i.ApplicationCommandData().Options[0]
	opts := optionMap(sub.Options)

	switch sub.Name {
	case "me":
		c.create(s, i, opts["in"].StringValue(), opts["message"].StringValue())
	case "list":
		c.list(s, i)
	case "delete":
		c.delete(s, i, opts["id"].IntValue())
	}
}

func (c *RemindCommand) create(s *discordgo.Session, i *discordgo.InteractionCreate, inStr, message string) {
	duration, err := time.ParseDuration(inStr)
	if err != nil || duration < time.Minute {
		_ = respondError(s, i, "時間の形式が不正です。最短1分、例: 30m, 2h, 24h")
		return
	}

	expiresAt := time.Now().Add(duration)
	id, err := c.Ctx.Store.CreateReminder(&storage.Reminder{
		UserID:    interactionUser(i).ID,
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Text:      message,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		c.Ctx.Log.Error("リマインダーの保存に失敗", "error", err)
		_ = respondError(s, i, "リマインダーの保存に失敗しました。")
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "⏰ Reminder Set",
		Description: fmt.Sprintf("<t:%d:R> に通知します。\n> %s", expiresAt.Unix(), message),
		Color:       config.GetEmbedColor("remindme"),
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("ID: %d", id)},
	}
	_ = respondEmbed(s, i, embed)
}

func (c *RemindCommand) list(s *discordgo.Session, i *discordgo.InteractionCreate) {
	reminders, err := c.Ctx.Store.ListReminders(interactionUser(i).ID)
	if err != nil {
		c.Ctx.Log.Error("リマインダー一覧の取得に失敗", "error", err)
		_ = respondError(s, i, "リマインダー一覧の取得に失敗しました。")
		return
	}
	if len(reminders) == 0 {
		_ = respondEphemeral(s, i, "登録されているリマインダーはありません。")
		return
	}

	var b strings.Builder
	for n, r := range reminders {
		if n >= config.PaginationItemsPerPage {
			fmt.Fprintf(&b, "...他 %d 件\n", len(reminders)-n)
			break
		}
		fmt.Fprintf(&b, "`%d` <t:%d:R> — %s\n", r.ID, r.ExpiresAt.Unix(), r.Text)
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("⏰ リマインダー (%d件)", len(reminders)),
		Description: b.String(),
		Color:       config.GetEmbedColor("reminders"),
	}
	_ = respondEmbed(s, i, embed)
}

func (c *RemindCommand) delete(s *discordgo.Session, i *discordgo.InteractionCreate, id int64) {
	deleted, err := c.Ctx.Store.DeleteReminder(id, interactionUser(i).ID)
	if err != nil {
		c.Ctx.Log.Error("リマインダーの削除に失敗", "error", err)
		_ = respondError(s, i, "リマインダーの削除に失敗しました。")
		return
	}
	if !deleted {
		_ = respondError(s, i, fmt.Sprintf("ID `%d` のリマインダーは見つかりませんでした。", id))
		return
	}
	_ = respondEphemeral(s, i, fmt.Sprintf("🗑️ リマインダー `%d` を削除しました。", id))
}

func (c *RemindCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *RemindCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *RemindCommand) GetComponentIDs() []string                                            { return []string{} }
func (c *RemindCommand) GetCategory() string                                                  { return "Utility" }
