package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"

	"lunabot/commands"
	"lunabot/config"
	"lunabot/dashboard"
	"lunabot/gemini"
	"lunabot/handlers"
	"lunabot/interfaces"
	"lunabot/servers"
	"lunabot/storage"
)

// Bot はDiscordボットのコアな状態とロジックを管理します。
type Bot struct {
	Session           *discordgo.Session
	cfg               *config.Config
	log               interfaces.Logger
	dbStore           *storage.DBStore
	statsStore        *storage.StatsStore
	ai                *gemini.Client
	dash              *dashboard.Client
	web               *servers.WebServer
	scheduler         *cron.Cron
	commandHandlers   map[string]interfaces.CommandHandler
	componentHandlers map[string]interfaces.CommandHandler
	startTime         time.Time
}

// New は新しいBotインスタンスを作成します。
func New(cfg *config.Config, log interfaces.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN が設定されていません")
	}

	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}

	// 編集・削除ログで元メッセージを参照するためStateにキャッシュを持たせる
	dg.State = discordgo.NewState()
	dg.State.MaxMessageCount = 2000
	dg.Identify.Intents = discordgo.IntentsAll

	dbStore, err := storage.NewDBStore(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	statsStore, err := storage.NewStatsStore(cfg.StatsDBFile)
	if err != nil {
		dbStore.Close()
		return nil, err
	}

	var ai *gemini.Client
	if cfg.GeminiAPIKey != "" {
		if ai, err = gemini.NewClient(cfg); err != nil {
			log.Warn("Geminiクライアントを初期化できませんでした。AI機能は無効です", "error", err)
			ai = nil
		}
	} else {
		log.Warn("GEMINI_API_KEY が未設定のためAI機能は無効です")
	}

	b := &Bot{
		Session:           dg,
		cfg:               cfg,
		log:               log,
		dbStore:           dbStore,
		statsStore:        statsStore,
		ai:                ai,
		dash:              dashboard.NewClient(cfg.APIURL),
		web:               servers.NewWebServer(log, cfg, statsStore),
		scheduler:         cron.New(),
		commandHandlers:   make(map[string]interfaces.CommandHandler),
		componentHandlers: make(map[string]interfaces.CommandHandler),
		startTime:         time.Now(),
	}
	return b, nil
}

// Start はBotを起動し、Discordに接続します。シグナルを受けるまでブロックします。
func (b *Bot) Start() error {
	eventHandler := handlers.NewEventHandler(b.dbStore, b.statsStore, b.log, b.cfg, b.ai)
	eventHandler.RegisterAllHandlers(b.Session)

	b.registerCommands()
	b.Session.AddHandler(b.interactionCreate)

	if err := b.Session.Open(); err != nil {
		return err
	}
	defer b.Session.Close()
	defer b.dbStore.Close()
	defer b.statsStore.Close()

	b.registerCronJobs()
	b.scheduler.Start()
	defer b.scheduler.Stop()

	go func() {
		if err := b.web.Start(); err != nil {
			b.log.Error("Webサーバーが停止しました", "error", err)
		}
	}()
	defer b.web.Stop()

	b.log.Info("Discord Botが起動しました。コマンドを登録します...")
	registeredCommands := make([]*discordgo.ApplicationCommand, 0, len(b.commandHandlers))
	for _, handler := range b.commandHandlers {
		registeredCommands = append(registeredCommands, handler.GetCommandDef())
	}
	if _, err := b.Session.ApplicationCommandBulkOverwrite(b.Session.State.User.ID, "", registeredCommands); err != nil {
		return fmt.Errorf("コマンドの登録に失敗しました: %w", err)
	}

	b.log.Info("コマンドの登録が完了しました。Ctrl+Cで終了します。")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	b.log.Info("Botをシャットダウンします...")
	return nil
}

func (b *Bot) registerCommands() {
	appContext := &commands.AppContext{
		Store:     b.dbStore,
		Stats:     b.statsStore,
		Log:       b.log,
		Cfg:       b.cfg,
		AI:        b.ai,
		Scheduler: b.scheduler,
		StartTime: b.startTime,
	}
	for _, cmd := range commands.RegisterAllCommands(appContext) {
		def := cmd.GetCommandDef()
		b.commandHandlers[def.Name] = cmd
		for _, id := range cmd.GetComponentIDs() {
			b.componentHandlers[id] = cmd
		}
	}
}

func (b *Bot) registerCronJobs() {
	mustAdd := func(spec string, job func()) {
		if _, err := b.scheduler.AddFunc(spec, job); err != nil {
			b.log.Fatal("cronジョブの登録に失敗しました", "spec", spec, "error", err)
		}
	}

	reminderSpec := fmt.Sprintf("@every %ds", config.ReminderCheckInterval)
	mustAdd(reminderSpec, b.sweepReminders)
	mustAdd("@every 1m", b.sweepExpiredMutes)
	mustAdd("@every 1m", b.sweepAFKShifts)
	mustAdd("@hourly", b.pushDashboardStats)
	// GMT+8の月曜0時 = UTCの日曜16時。先週分のノルマ集計を締める
	mustAdd("0 16 * * SUN", b.postWeeklyShiftSummary)
}

// sweepReminders は期限の来たリマインダーを通知します。通知は一度きりです。
func (b *Bot) sweepReminders() {
	due, err := b.dbStore.DueReminders(time.Now())
	if err != nil {
		b.log.Error("リマインダーの取得に失敗", "error", err)
		return
	}
	for _, r := range due {
		msg := fmt.Sprintf("⏰ <@%s> リマインダー: %s", r.UserID, r.Text)
		if _, err := b.Session.ChannelMessageSend(r.ChannelID, msg); err != nil {
			b.log.Error("リマインダーの送信に失敗", "error", err, "reminderID", r.ID)
		}
	}
}

// sweepExpiredMutes は期限切れのミュート記録を非アクティブ化します。
// Discord側のタイムアウトは自動で失効するため、DBの整合だけを取ります。
func (b *Bot) sweepExpiredMutes() {
	expired, err := b.dbStore.GetExpiredMutes(time.Now())
	if err != nil {
		b.log.Error("期限切れミュートの取得に失敗", "error", err)
		return
	}
	for _, m := range expired {
		if err := b.dbStore.DeactivateMute(m.GuildID, m.UserID); err != nil {
			b.log.Error("ミュート記録の更新に失敗", "error", err, "userID", m.UserID)
		}
	}
}

// sweepAFKShifts は無活動のシフトを自動終了します。
// しきい値はロール別AFKタイムアウトのShiftAutoEndThreshold倍です。
func (b *Bot) sweepAFKShifts() {
	timeoutFor := func(shiftType string) time.Duration {
		seconds, ok := config.ShiftAFKTimeoutSeconds[shiftType]
		if !ok {
			seconds = config.ShiftAFKTimeoutSeconds["helper"]
		}
		return time.Duration(seconds*config.ShiftAutoEndThreshold) * time.Second
	}

	swept, err := b.dbStore.SweepAFKShifts(time.Now(), timeoutFor)
	if err != nil {
		b.log.Error("AFKシフトのスイープに失敗", "error", err)
		return
	}
	if len(swept) == 0 {
		return
	}

	channelID := strconv.FormatInt(b.cfg.TargetChannelID, 10)
	for _, sh := range swept {
		b.log.Info("無活動のためシフトを自動終了しました", "userID", sh.UserID, "type", sh.ShiftType)
		msg := fmt.Sprintf("💤 <@%s> のシフト (%s) は無活動のため自動終了しました。勤務: %.2f時間",
			sh.UserID, sh.ShiftType, sh.WorkedHours())
		if _, err := b.Session.ChannelMessageSend(channelID, msg); err != nil {
			b.log.Error("自動終了通知の送信に失敗", "error", err)
		}
	}
}

// postWeeklyShiftSummary は締めた週のランキングをシフトチャンネルへ投稿します。
// quota_trackingは週キーで分かれているため、締め処理はこの通知だけです。
func (b *Bot) postWeeklyShiftSummary() {
	lastWeek := storage.WeekKeyGMT8(time.Now().Add(-24 * time.Hour))
	channelID := strconv.FormatInt(b.cfg.TargetChannelID, 10)

	for _, guild := range b.Session.State.Guilds {
		entries, err := b.dbStore.ShiftLeaderboard(guild.ID, lastWeek, config.LeaderboardTopN)
		if err != nil {
			b.log.Error("週間ランキングの取得に失敗", "error", err, "guildID", guild.ID)
			continue
		}
		if len(entries) == 0 {
			continue
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "📊 **週間シフト集計 (%s)**\n", lastWeek)
		for n, e := range entries {
			quota := config.ShiftWeeklyQuotaHours[e.ShiftType]
			mark := "✅"
			if e.Hours < float64(quota) {
				mark = "⚠️"
			}
			fmt.Fprintf(&sb, "%d. <@%s> — %.2f / %d時間 (%s) %s\n", n+1, e.UserID, e.Hours, quota, e.ShiftType, mark)
		}
		if _, err := b.Session.ChannelMessageSend(channelID, sb.String()); err != nil {
			b.log.Error("週間集計の送信に失敗", "error", err)
		}
	}
}

// pushDashboardStats はコマンド使用量のスナップショットを外部ワーカーへ送信します。
func (b *Bot) pushDashboardStats() {
	usage, err := b.statsStore.GetAndResetCommandUsage()
	if err != nil {
		b.log.Error("コマンド統計の取得に失敗", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = b.dash.PushStats(ctx, &dashboard.StatsPayload{
		BotName:      b.cfg.BotName,
		GeneratedAt:  time.Now().UTC(),
		GuildCount:   len(b.Session.State.Guilds),
		CommandUsage: usage,
	})
	if err != nil {
		b.log.Error("統計の送信に失敗", "error", err)
	}
}

func (b *Bot) interactionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if user := interactionUser(i); user != nil {
		if blocked, err := b.dbStore.IsBlacklisted(user.ID); err == nil && blocked {
			return
		}
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		if h, ok := b.commandHandlers[name]; ok {
			if err := b.statsStore.IncrementCommandUsage(name); err != nil {
				b.log.Error("コマンド統計の記録に失敗", "error", err)
			}
			h.Handle(s, i)
		}
	case discordgo.InteractionMessageComponent:
		for id, h := range b.componentHandlers {
			if strings.HasPrefix(i.MessageComponentData().CustomID, id) {
				h.HandleComponent(s, i)
				return
			}
		}
	case discordgo.InteractionModalSubmit:
		for id, h := range b.componentHandlers {
			if strings.HasPrefix(i.ModalSubmitData().CustomID, id) {
				h.HandleModal(s, i)
				return
			}
		}
	}
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}
