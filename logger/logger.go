package logger

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// シングルトンとしてロガーを保持。Init前は標準エラーに出力します。
var logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))

// Init はJSONロガーを初期化します。出力は標準出力とローテーション付きファイルの両方です。
func Init() {
	logFile := &lumberjack.Logger{
		Filename:   "luna.log",
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     30, // 日
		Compress:   true,
	}

	var out io.Writer = io.MultiWriter(os.Stdout, logFile)

	logger = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	}))
}

// Debugレベルのログを出力
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// Infoレベルのログを出力
// 例: logger.Info("Botが起動しました", "version", "1.2.3")
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// Warnレベルのログを出力
// 例: logger.Warn("APIキーが設定されていません", "env", "GEMINI_API_KEY")
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// Errorレベルのログを出力
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}

// Fatalレベルのログを出力（出力後にプログラムを終了）
func Fatal(msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}

// Std は interfaces.Logger として注入するための薄いラッパーです。
type Std struct{}

func (Std) Debug(msg string, args ...any) { Debug(msg, args...) }
func (Std) Info(msg string, args ...any)  { Info(msg, args...) }
func (Std) Warn(msg string, args ...any)  { Warn(msg, args...) }
func (Std) Error(msg string, args ...any) { Error(msg, args...) }
func (Std) Fatal(msg string, args ...any) { Fatal(msg, args...) }
