package commands

import (
	"fmt"
	"strconv"

	"github.com/Knetic/govaluate"
	"github.com/bwmarrin/discordgo"

	"lunabot/config"
)

type CalcCommand struct {
	Ctx *AppContext
}

func (c *CalcCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "calc",
		Description: "数式を計算します。",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "expression",
				Description: "計算したい数式 (例: (10 + 20) * 3 / 2)",
				Required:    true,
			},
		},
	}
}

func (c *CalcCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	expressionStr := i.ApplicationCommandData().Options[0].StringValue()

	expression, err := govaluate.NewEvaluableExpression(expressionStr)
	if err != nil {
		_ = respondError(s, i, "無効な数式です。もう一度確認してください。")
		return
	}

	result, err := expression.Evaluate(nil)
	if err != nil {
		_ = respondError(s, i, "計算中にエラーが発生しました。")
		return
	}

	num, ok := result.(float64)
	if !ok {
		_ = respondError(s, i, "数式は数値を返す必要があります。")
		return
	}
	// govaluateはfloat64で結果を返すので、整数なら小数点以下を消す
	resultStr := strconv.FormatFloat(num, 'f', -1, 64)

	user := interactionUser(i)
	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name:    user.Username,
			IconURL: user.AvatarURL(""),
		},
		Color: config.GetEmbedColor("calc"),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "問題", Value: fmt.Sprintf("```%s```", expressionStr)},
			{Name: "答え", Value: fmt.Sprintf("```%s```", resultStr)},
		},
	}
	_ = respondEmbed(s, i, embed)
}

func (c *CalcCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *CalcCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *CalcCommand) GetComponentIDs() []string                                            { return []string{} }
func (c *CalcCommand) GetCategory() string                                                  { return "Utility" }
