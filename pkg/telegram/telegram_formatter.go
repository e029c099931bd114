package telegram

import (
	"fmt"
	"strings"
	"time"

	"golang-stock-calls/pkg/utils"
)

// AlertType represents the type of alert
type AlertType string

const (
	TakeProfit AlertType = "TAKE_PROFIT"
	StopLoss   AlertType = "STOP_LOSS"
)

// PositionClosedAlert describes a position that an evaluation run closed.
type PositionClosedAlert struct {
	Type         AlertType
	Symbol       string
	CompanyName  string
	InitialPrice float64
	TriggerPrice float64
	LevelPrice   float64
	Date         time.Time
}

// FormatPositionClosedForTelegram formats a closed position into a Markdown string for Telegram.
func FormatPositionClosedForTelegram(alert PositionClosedAlert) string {
	var builder strings.Builder

	var title, emoji, levelLabel string
	switch alert.Type {
	case TakeProfit:
		title = "Target Reached!"
		emoji = "🎯"
		levelLabel = "target"
	case StopLoss:
		title = "Stop Loss Triggered!"
		emoji = "⚠️"
		levelLabel = "stop loss"
	default:
		title = "Price Alert"
		emoji = "🔔"
		levelLabel = "level"
	}

	name := alert.Symbol
	if alert.CompanyName != "" {
		name = fmt.Sprintf("%s (%s)", alert.Symbol, alert.CompanyName)
	}

	builder.WriteString(fmt.Sprintf("%s [%s] %s\n", emoji, name, title))
	builder.WriteString(fmt.Sprintf("💰 Price reached: %.2f (%s: %.2f)\n", alert.TriggerPrice, levelLabel, alert.LevelPrice))
	if alert.InitialPrice > 0 {
		change := (alert.TriggerPrice - alert.InitialPrice) / alert.InitialPrice * 100
		builder.WriteString(fmt.Sprintf("📈 Since call: %+.2f%%\n", change))
	}
	builder.WriteString(fmt.Sprintf("%s\n", utils.PrettyDate(alert.Date)))
	return builder.String()
}

func FormatErrorAlertMessage(time time.Time, errType string, errMsg string, data string) string {
	return fmt.Sprintf(`📛 [ERROR ALERT]
%s
🔧 %s
⚠️ %s

📄 Data: %s
`, utils.PrettyDate(time), errType, errMsg, data)
}
