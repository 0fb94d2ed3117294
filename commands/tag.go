package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"lunabot/config"
	"lunabot/storage"
)

// TagCommand はヘルパー向けの定型文（タグ）を管理します。
type TagCommand struct {
	Ctx *AppContext
}

func (c *TagCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "tag",
		Description: "定型文タグを管理・表示します。",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "show",
				Description: "タグの内容を表示します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "category", Description: "カテゴリ", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "title", Description: "タイトル", Required: true},
				},
			},
			{
				Name:        "list",
				Description: "カテゴリ内のタグを一覧表示します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "category", Description: "カテゴリ", Required: true},
				},
			},
			{
				Name:        "create",
				Description: "タグを作成します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "category", Description: "カテゴリ", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "title", Description: "タイトル", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "description", Description: "本文", Required: true},
				},
			},
			{
				Name:        "edit",
				Description: "タグの本文を変更します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "category", Description: "カテゴリ", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "title", Description: "タイトル", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "description", Description: "新しい本文", Required: true},
				},
			},
			{
				Name:        "delete",
				Description: "タグを削除します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "category", Description: "カテゴリ", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "title", Description: "タイトル", Required: true},
				},
			},
		},
	}
}

func (c *TagCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub := i.ApplicationCommandData().Options[0]
	opts := optionMap(sub.Options)
	category := opts["category"].StringValue()

	switch sub.Name {
	case "show":
		c.show(s, i, category, opts["title"].StringValue())
	case "list":
		c.list(s, i, category)
	case "create":
		c.create(s, i, category, opts["title"].StringValue(), opts["description"].StringValue())
	case "edit":
		c.edit(s, i, category, opts["title"].StringValue(), opts["description"].StringValue())
	case "delete":
		c.delete(s, i, category, opts["title"].StringValue())
	}
}

func (c *TagCommand) show(s *discordgo.Session, i *discordgo.InteractionCreate, category, title string) {
	tag, err := c.Ctx.Store.GetTag(i.GuildID, category, title)
	if err != nil {
		c.Ctx.Log.Error("タグの取得に失敗", "error", err)
		_ = respondError(s, i, "タグの取得に失敗しました。")
		return
	}
	if tag == nil {
		_ = respondError(s, i, fmt.Sprintf("タグ `%s/%s` は見つかりませんでした。", category, title))
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       tag.Title,
		Description: tag.Description,
		Color:       config.GetEmbedColor("tag"),
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("カテゴリ: %s", tag.Category)},
	}
	_ = respondEmbed(s, i, embed)
}

func (c *TagCommand) list(s *discordgo.Session, i *discordgo.InteractionCreate, category string) {
	tags, err := c.Ctx.Store.ListTags(i.GuildID, category)
	if err != nil {
		c.Ctx.Log.Error("タグ一覧の取得に失敗", "error", err)
		_ = respondError(s, i, "タグ一覧の取得に失敗しました。")
		return
	}
	if len(tags) == 0 {
		_ = respondEphemeral(s, i, fmt.Sprintf("カテゴリ `%s` にタグはありません。", category))
		return
	}

	var b strings.Builder
	for n, tag := range tags {
		if n >= config.PaginationItemsPerPage {
			fmt.Fprintf(&b, "...他 %d 件\n", len(tags)-n)
			break
		}
		fmt.Fprintf(&b, "• **%s**\n", tag.Title)
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🏷️ %s のタグ (%d件)", category, len(tags)),
		Description: b.String(),
		Color:       config.GetEmbedColor("tags"),
	}
	_ = respondEmbed(s, i, embed)
}

func (c *TagCommand) create(s *discordgo.Session, i *discordgo.InteractionCreate, category, title, description string) {
	err := c.Ctx.Store.CreateTag(&storage.Tag{
		GuildID:     i.GuildID,
		Category:    category,
		Title:       title,
		Description: description,
		CreatorID:   interactionUser(i).ID,
	})
	if err != nil {
		_ = respondError(s, i, fmt.Sprintf("タグ `%s/%s` を作成できませんでした。既に存在する可能性があります。", category, title))
		return
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🏷️ Tag Created",
		Description: fmt.Sprintf("タグ `%s/%s` を作成しました。", category, title),
		Color:       config.GetEmbedColor("tag_create"),
	}
	_ = respondEmbed(s, i, embed)
}

func (c *TagCommand) edit(s *discordgo.Session, i *discordgo.InteractionCreate, category, title, description string) {
	updated, err := c.Ctx.Store.EditTag(i.GuildID, category, title, description)
	if err != nil {
		c.Ctx.Log.Error("タグの更新に失敗", "error", err)
		_ = respondError(s, i, "タグの更新に失敗しました。")
		return
	}
	if !updated {
		_ = respondError(s, i, fmt.Sprintf("タグ `%s/%s` は見つかりませんでした。", category, title))
		return
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🏷️ Tag Updated",
		Description: fmt.Sprintf("タグ `%s/%s` を更新しました。", category, title),
		Color:       config.GetEmbedColor("tag_edit"),
	}
	_ = respondEmbed(s, i, embed)
}

func (c *TagCommand) delete(s *discordgo.Session, i *discordgo.InteractionCreate, category, title string) {
	deleted, err := c.Ctx.Store.DeleteTag(i.GuildID, category, title)
	if err != nil {
		c.Ctx.Log.Error("タグの削除に失敗", "error", err)
		_ = respondError(s, i, "タグの削除に失敗しました。")
		return
	}
	if !deleted {
		_ = respondError(s, i, fmt.Sprintf("タグ `%s/%s` は見つかりませんでした。", category, title))
		return
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🗑️ Tag Deleted",
		Description: fmt.Sprintf("タグ `%s/%s` を削除しました。", category, title),
		Color:       config.GetEmbedColor("tag_delete"),
	}
	_ = respondEmbed(s, i, embed)
}

func (c *TagCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *TagCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *TagCommand) GetComponentIDs() []string                                            { return []string{} }
func (c *TagCommand) GetCategory() string                                                  { return "Helper" }
