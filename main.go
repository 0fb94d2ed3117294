package main

import (
	"lunabot/bot"
	"lunabot/config"
	"lunabot/logger"
)

func main() {
	logger.Init()
	log := logger.Std{}

	cfg, err := config.Load(log)
	if err != nil {
		logger.Fatal("設定の読み込みに失敗しました", "error", err)
	}

	b, err := bot.New(cfg, log)
	if err != nil {
		logger.Fatal("Botの初期化に失敗しました", "error", err)
	}

	if err := b.Start(); err != nil {
		logger.Fatal("Botの実行中にエラーが発生しました", "error", err)
	}
}
