package commands

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"lunabot/config"
	"lunabot/gemini"
	"lunabot/interfaces"
)

// AppContext はコマンドが必要とする依存をまとめたものです。
type AppContext struct {
	Store     interfaces.DataStore
	Stats     interfaces.StatsStore
	Log       interfaces.Logger
	Cfg       *config.Config
	AI        *gemini.Client
	Scheduler interfaces.Scheduler
	StartTime time.Time
}

// RegisterAllCommands はすべてのコマンドハンドラを生成して返します。
func RegisterAllCommands(ctx *AppContext) map[string]interfaces.CommandHandler {
	handlers := []interfaces.CommandHandler{
		&PingCommand{Ctx: ctx},
		&UserInfoCommand{Ctx: ctx},
		&CheckAvatarCommand{Ctx: ctx},
		&CalcCommand{Ctx: ctx},
		&HelpCommand{Ctx: ctx, registry: nil},
		&ModerateCommand{Ctx: ctx},
		&WarnCommand{Ctx: ctx},
		&MuteCommand{Ctx: ctx},
		&FlagCommand{Ctx: ctx},
		&TagCommand{Ctx: ctx},
		&ShiftCommand{Ctx: ctx},
		&RemindCommand{Ctx: ctx},
		&AskAICommand{Ctx: ctx},
		&AIPanelCommand{Ctx: ctx},
		&BlacklistCommand{Ctx: ctx},
	}

	registry := make(map[string]interfaces.CommandHandler, len(handlers))
	for _, h := range handlers {
		registry[h.GetCommandDef().Name] = h
	}

	// helpコマンドは他のコマンド一覧を参照する
	if help, ok := registry["help"].(*HelpCommand); ok {
		help.registry = registry
	}
	return registry
}

func int64Ptr(i int64) *int64 {
	return &i
}

func strPtr(s string) *string {
	return &s
}

// respondEmbed は最初の応答として埋め込みを返します。
func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// respondEphemeral は実行者だけに見えるメッセージを返します。
func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// respondError はエラー用カラーの埋め込みを実行者だけに返します。
func respondError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{{
				Description: "❌ " + message,
				Color:       config.GetEmbedColor("error"),
			}},
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

// optionMap はサブコマンドのオプションを名前で引けるようにします。
func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

// interactionUser はギルド内・DMの両方で実行ユーザーを返します。
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}
