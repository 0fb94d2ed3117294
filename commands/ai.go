package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"lunabot/config"
)

// AskAICommand はGeminiに質問を投げるコマンドです。
type AskAICommand struct {
	Ctx *AppContext
}

func (c *AskAICommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "askai",
		Description: "AIに質問します。",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "prompt",
				Description: "AIへの質問",
				Required:    true,
			},
		},
	}
}

func (c *AskAICommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if c.Ctx.AI == nil {
		_ = respondError(s, i, "AI機能は現在無効です。")
		return
	}

	settings, err := c.Ctx.Store.GetAISettings(i.GuildID, c.Ctx.Cfg.AIEnabledByDefault)
	if err != nil {
		c.Ctx.Log.Error("AI設定の取得に失敗", "error", err)
		_ = respondError(s, i, "AI設定の取得に失敗しました。")
		return
	}
	if !settings.Enabled {
		_ = respondError(s, i, "このサーバーではAI機能が無効になっています。")
		return
	}

	prompt := i.ApplicationCommandData().Options[0].StringValue()

	// 生成に時間がかかるため応答を保留する
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		c.Ctx.Log.Error("askaiの応答保留に失敗", "error", err)
		return
	}

	reply, err := c.Ctx.AI.GenerateContent(context.Background(), prompt, config.GetPersonality(settings.Personality))
	if err != nil {
		c.Ctx.Log.Error("AI応答の生成に失敗", "error", err)
		reply = "❌ AI応答の生成に失敗しました。時間をおいて再試行してください。"
	}

	embed := &discordgo.MessageEmbed{
		Author:      &discordgo.MessageEmbedAuthor{Name: interactionUser(i).Username, IconURL: interactionUser(i).AvatarURL("")},
		Description: reply,
		Color:       config.GetEmbedColor("askai"),
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("パーソナリティ: %s", settings.Personality)},
	}
	_, _ = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
}

func (c *AskAICommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *AskAICommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *AskAICommand) GetComponentIDs() []string                                            { return []string{} }
func (c *AskAICommand) GetCategory() string                                                  { return "AI" }

// AIPanelCommand はAIの有効化とパーソナリティをセレクトメニューで設定します。
type AIPanelCommand struct {
	Ctx *AppContext
}

const (
	aiPanelPersonalityID = "aipanel_personality"
	aiPanelToggleID      = "aipanel_toggle"
)

func (c *AIPanelCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     "aipanel",
		Description:              "このサーバーのAI設定パネルを表示します。",
		DefaultMemberPermissions: int64Ptr(discordgo.PermissionManageGuild),
	}
}

func (c *AIPanelCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	settings, err := c.Ctx.Store.GetAISettings(i.GuildID, c.Ctx.Cfg.AIEnabledByDefault)
	if err != nil {
		c.Ctx.Log.Error("AI設定の取得に失敗", "error", err)
		_ = respondError(s, i, "AI設定の取得に失敗しました。")
		return
	}

	names := make([]string, 0, len(config.AIPersonalities))
	for name := range config.AIPersonalities {
		names = append(names, name)
	}
	sort.Strings(names)

	options := make([]discordgo.SelectMenuOption, 0, len(names))
	for _, name := range names {
		options = append(options, discordgo.SelectMenuOption{
			Label:   name,
			Value:   name,
			Default: name == settings.Personality,
		})
	}

	state := "🔴 無効"
	if settings.Enabled {
		state = "🟢 有効"
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{{
				Title: "🤖 AI設定パネル",
				Description: fmt.Sprintf("状態: **%s**\nパーソナリティ: **%s**",
					state, settings.Personality),
				Color: config.GetEmbedColor("aipanel"),
			}},
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						CustomID:    aiPanelPersonalityID,
						Placeholder: "パーソナリティを選択",
						Options:     options,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.Button{
						CustomID: aiPanelToggleID,
						Label:    "有効 / 無効を切り替え",
						Style:    discordgo.PrimaryButton,
					},
				}},
			},
		},
	})
	if err != nil {
		c.Ctx.Log.Error("AIパネルの表示に失敗", "error", err)
	}
}

func (c *AIPanelCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	switch {
	case customID == aiPanelPersonalityID:
		values := i.MessageComponentData().Values
		if len(values) == 0 {
			return
		}
		personality := strings.ToLower(values[0])
		if err := c.Ctx.Store.SetAIPersonality(i.GuildID, personality); err != nil {
			c.Ctx.Log.Error("パーソナリティの保存に失敗", "error", err)
			_ = respondError(s, i, "パーソナリティの保存に失敗しました。")
			return
		}
		_ = respondEphemeral(s, i, fmt.Sprintf("✅ パーソナリティを **%s** に変更しました。", personality))

	case customID == aiPanelToggleID:
		settings, err := c.Ctx.Store.GetAISettings(i.GuildID, c.Ctx.Cfg.AIEnabledByDefault)
		if err != nil {
			c.Ctx.Log.Error("AI設定の取得に失敗", "error", err)
			return
		}
		if err := c.Ctx.Store.SetAIEnabled(i.GuildID, !settings.Enabled); err != nil {
			c.Ctx.Log.Error("AI設定の保存に失敗", "error", err)
			_ = respondError(s, i, "AI設定の保存に失敗しました。")
			return
		}
		state := "無効"
		if !settings.Enabled {
			state = "有効"
		}
		_ = respondEphemeral(s, i, fmt.Sprintf("✅ AI機能を**%s**にしました。", state))
	}
}

func (c *AIPanelCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *AIPanelCommand) GetComponentIDs() []string {
	return []string{aiPanelPersonalityID, aiPanelToggleID}
}
func (c *AIPanelCommand) GetCategory() string { return "AI" }
