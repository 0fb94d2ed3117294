package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"lunabot/config"
	"lunabot/storage"
)

// ShiftCommand はスタッフ・ヘルパーのシフト勤務を管理します。
// 週の集計はGMT+8の月曜はじまりで行われます。
type ShiftCommand struct {
	Ctx *AppContext
}

func shiftTypeChoices() []*discordgo.ApplicationCommandOptionChoice {
	names := make([]string, 0, len(config.ShiftDurationHours))
	for name := range config.ShiftDurationHours {
		names = append(names, name)
	}
	sort.Strings(names)

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(names))
	for _, name := range names {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name})
	}
	return choices
}

func (c *ShiftCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "shift",
		Description: "シフト勤務を管理します。",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "start",
				Description: "シフトを開始します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type: discordgo.ApplicationCommandOptionString, Name: "type",
						Description: "シフトの種類", Required: true, Choices: shiftTypeChoices(),
					},
				},
			},
			{Name: "break", Description: "休憩を開始します。", Type: discordgo.ApplicationCommandOptionSubCommand},
			{Name: "resume", Description: "休憩を終了して勤務に戻ります。", Type: discordgo.ApplicationCommandOptionSubCommand},
			{Name: "end", Description: "シフトを終了します。", Type: discordgo.ApplicationCommandOptionSubCommand},
			{Name: "me", Description: "現在のシフトと今週の勤務時間を表示します。", Type: discordgo.ApplicationCommandOptionSubCommand},
			{Name: "leaderboard", Description: "今週の勤務時間ランキングを表示します。", Type: discordgo.ApplicationCommandOptionSubCommand},
		},
	}
}

func (c *ShiftCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub := i.ApplicationCommandData().Options[0]

	switch sub.Name {
	case "start":
		c.start(s, i, sub.Options[0].StringValue())
	case "break":
		c.startBreak(s, i)
	case "resume":
		c.resume(s, i)
	case "end":
		c.end(s, i)
	case "me":
		c.me(s, i)
	case "leaderboard":
		c.leaderboard(s, i)
	}
}

func (c *ShiftCommand) start(s *discordgo.Session, i *discordgo.InteractionCreate, shiftType string) {
	user := interactionUser(i)
	_, err := c.Ctx.Store.StartShift(i.GuildID, user.ID, shiftType, time.Now())
	if errors.Is(err, storage.ErrActiveShiftExists) {
		_ = respondError(s, i, "すでにシフト中です。先に `/shift end` で終了してください。")
		return
	}
	if err != nil {
		c.Ctx.Log.Error("シフトの開始に失敗", "error", err)
		_ = respondError(s, i, "シフトの開始に失敗しました。")
		return
	}

	quota := config.ShiftWeeklyQuotaHours[shiftType]
	embed := &discordgo.MessageEmbed{
		Title: "🟢 Shift Started",
		Color: config.GetEmbedColor("shift_create"),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "スタッフ", Value: user.Mention(), Inline: true},
			{Name: "種類", Value: shiftType, Inline: true},
			{Name: "週間ノルマ", Value: fmt.Sprintf("%d時間", quota), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	_ = respondEmbed(s, i, embed)
}

func (c *ShiftCommand) startBreak(s *discordgo.Session, i *discordgo.InteractionCreate) {
	shift, err := c.requireActiveShift(s, i)
	if shift == nil || err != nil {
		return
	}
	if err := c.Ctx.Store.StartBreak(shift.ID, time.Now()); err != nil {
		_ = respondError(s, i, "休憩を開始できませんでした。すでに休憩中の可能性があります。")
		return
	}
	_ = respondEphemeral(s, i, "☕ 休憩を開始しました。`/shift resume` で勤務に戻れます。")
}

func (c *ShiftCommand) resume(s *discordgo.Session, i *discordgo.InteractionCreate) {
	shift, err := c.requireActiveShift(s, i)
	if shift == nil || err != nil {
		return
	}
	if err := c.Ctx.Store.EndBreak(shift.ID, time.Now()); err != nil {
		_ = respondError(s, i, "休憩を終了できませんでした。休憩中ではない可能性があります。")
		return
	}
	_ = respondEphemeral(s, i, "🟢 勤務に戻りました。")
}

func (c *ShiftCommand) end(s *discordgo.Session, i *discordgo.InteractionCreate) {
	shift, err := c.requireActiveShift(s, i)
	if shift == nil || err != nil {
		return
	}

	ended, err := c.Ctx.Store.EndShift(shift.ID, time.Now())
	if err != nil {
		c.Ctx.Log.Error("シフトの終了に失敗", "error", err)
		_ = respondError(s, i, "シフトの終了に失敗しました。")
		return
	}

	user := interactionUser(i)
	week := storage.WeekKeyGMT8(time.Now())
	weekly, err := c.Ctx.Store.WeeklyHours(i.GuildID, user.ID, ended.ShiftType, week)
	if err != nil {
		c.Ctx.Log.Error("週間時間の取得に失敗", "error", err)
	}
	quota := config.ShiftWeeklyQuotaHours[ended.ShiftType]

	embed := &discordgo.MessageEmbed{
		Title: "🔴 Shift Ended",
		Color: config.GetEmbedColor("shift_delete"),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "スタッフ", Value: user.Mention(), Inline: true},
			{Name: "今回の勤務", Value: fmt.Sprintf("%.2f時間", ended.WorkedHours()), Inline: true},
			{Name: "今週の合計", Value: fmt.Sprintf("%.2f / %d時間", weekly, quota), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	_ = respondEmbed(s, i, embed)
}

func (c *ShiftCommand) me(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	shift, err := c.Ctx.Store.GetActiveShift(i.GuildID, user.ID)
	if err != nil {
		c.Ctx.Log.Error("シフトの取得に失敗", "error", err)
		_ = respondError(s, i, "シフト情報の取得に失敗しました。")
		return
	}

	week := storage.WeekKeyGMT8(time.Now())
	var fields []*discordgo.MessageEmbedField
	if shift == nil {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "状態", Value: "シフト外", Inline: true})
	} else {
		status := "勤務中"
		if shift.Status == storage.ShiftStatusBreak {
			status = "休憩中"
		}
		fields = append(fields,
			&discordgo.MessageEmbedField{Name: "状態", Value: status, Inline: true},
			&discordgo.MessageEmbedField{Name: "種類", Value: shift.ShiftType, Inline: true},
			&discordgo.MessageEmbedField{Name: "開始", Value: fmt.Sprintf("<t:%d:R>", shift.StartedAt.Unix()), Inline: true},
		)
	}

	for _, shiftType := range sortedShiftTypes() {
		weekly, err := c.Ctx.Store.WeeklyHours(i.GuildID, user.ID, shiftType, week)
		if err != nil || weekly == 0 {
			continue
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("今週 (%s)", shiftType),
			Value:  fmt.Sprintf("%.2f / %d時間", weekly, config.ShiftWeeklyQuotaHours[shiftType]),
			Inline: true,
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("📋 %s のシフト", user.Username),
		Color:  config.GetEmbedColor("myshift"),
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("週: %s (GMT+8)", week)},
	}
	_ = respondEmbed(s, i, embed)
}

func (c *ShiftCommand) leaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	week := storage.WeekKeyGMT8(time.Now())
	entries, err := c.Ctx.Store.ShiftLeaderboard(i.GuildID, week, config.LeaderboardTopN)
	if err != nil {
		c.Ctx.Log.Error("ランキングの取得に失敗", "error", err)
		_ = respondError(s, i, "ランキングの取得に失敗しました。")
		return
	}
	if len(entries) == 0 {
		_ = respondEphemeral(s, i, "今週の勤務記録はまだありません。")
		return
	}

	medals := []string{"🥇", "🥈", "🥉"}
	var b strings.Builder
	for n, e := range entries {
		rank := fmt.Sprintf("%d.", n+1)
		if n < len(medals) {
			rank = medals[n]
		}
		fmt.Fprintf(&b, "%s <@%s> — %.2f時間 (%s)\n", rank, e.UserID, e.Hours, e.ShiftType)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🏆 今週のシフトランキング",
		Description: b.String(),
		Color:       config.GetEmbedColor("shift_lb"),
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("週: %s (GMT+8)", week)},
	}
	_ = respondEmbed(s, i, embed)
}

func (c *ShiftCommand) requireActiveShift(s *discordgo.Session, i *discordgo.InteractionCreate) (*storage.Shift, error) {
	shift, err := c.Ctx.Store.GetActiveShift(i.GuildID, interactionUser(i).ID)
	if err != nil {
		c.Ctx.Log.Error("シフトの取得に失敗", "error", err)
		_ = respondError(s, i, "シフト情報の取得に失敗しました。")
		return nil, err
	}
	if shift == nil {
		_ = respondError(s, i, "シフト中ではありません。`/shift start` で開始してください。")
		return nil, nil
	}
	return shift, nil
}

func sortedShiftTypes() []string {
	names := make([]string, 0, len(config.ShiftDurationHours))
	for name := range config.ShiftDurationHours {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *ShiftCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *ShiftCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *ShiftCommand) GetComponentIDs() []string                                            { return []string{} }
func (c *ShiftCommand) GetCategory() string                                                  { return "Shifts" }
