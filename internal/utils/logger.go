package utils

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Log 全局日志。包初始化时即可用，Init 之后换成带样式、带级别的版本。
var Log = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      time.DateTime,
})

// Init 按配置设置日志级别与级别徽标
func Init(level string) error {
	return InitWriter(os.Stderr, level)
}

// InitWriter 同 Init，输出到指定 writer（测试用）
func InitWriter(w io.Writer, level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	l := log.NewWithOptions(w, log.Options{
		//ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           lvl,
		Prefix:          "sequence",
	})
	styles := log.DefaultStyles()
	styles.Levels[log.DebugLevel] = badge("DEBUG🔍", "#4682B4FF", "#FFFFFFFF")
	styles.Levels[log.InfoLevel] = badge("INFO🌟", "#90EE9080", "#006400FF")
	styles.Levels[log.WarnLevel] = badge("WARN🧩", "#FFD700FF", "#000000FF")
	styles.Levels[log.ErrorLevel] = badge("ERROR🔥", "#FF0000FF", "#00FFFF00")
	styles.Levels[log.FatalLevel] = badge("FATAL⚡️", "#000000FF", "#00FFFF00")
	l.SetStyles(styles)

	Log = l
	return nil
}

func badge(text, bg, fg string) lipgloss.Style {
	return lipgloss.NewStyle().
		SetString(text).
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color(bg)).
		Foreground(lipgloss.Color(fg)).Bold(true)
}
