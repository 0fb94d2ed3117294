package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"lunabot/config"
	"lunabot/interfaces"
)

// HelpCommand は登録済みコマンドをカテゴリ別に表示します。
type HelpCommand struct {
	Ctx      *AppContext
	registry map[string]interfaces.CommandHandler
}

func (c *HelpCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "help",
		Description: "利用できるコマンドの一覧を表示します。",
	}
}

func (c *HelpCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	byCategory := make(map[string][]string)
	for name, h := range c.registry {
		category := h.GetCategory()
		def := h.GetCommandDef()
		byCategory[category] = append(byCategory[category], fmt.Sprintf("`/%s` — %s", name, def.Description))
	}

	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	fields := make([]*discordgo.MessageEmbedField, 0, len(categories))
	for _, category := range categories {
		lines := byCategory[category]
		sort.Strings(lines)
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  category,
			Value: strings.Join(lines, "\n"),
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🌙 %s コマンド一覧", c.Ctx.Cfg.BotName),
		Description: "メンションするとAIとして応答します。",
		Color:       config.GetEmbedColor("help"),
		Fields:      fields,
	}
	_ = respondEmbed(s, i, embed)
}

func (c *HelpCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *HelpCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *HelpCommand) GetComponentIDs() []string                                            { return []string{} }
func (c *HelpCommand) GetCategory() string                                                  { return "Help" }
