package service

import (
	"strings"

	"golang-stock-calls/internal/evaluator/dto"
	"golang-stock-calls/pkg/utils"
)

// ScanResult is the outcome of walking a price series for target and stop-loss crossings.
type ScanResult struct {
	TargetReached         bool
	TargetReachedDate     string
	TargetHitTime         string
	HighPriceAtTarget     float64
	StopLossTriggered     bool
	StopLossTriggeredDate string
	// StopLossOverridden is set when a stop-loss crossing was seen before a later
	// target crossing. The target wins and the stop-loss fields are cleared.
	StopLossOverridden bool
}

// Scan walks series oldest first and records the first bar whose high reaches
// targetPrice and the first bar whose low reaches stopLossPrice. Within one bar
// the target is checked first.
func Scan(series []dto.OHLC, targetPrice, stopLossPrice float64) ScanResult {
	var result ScanResult

	for _, bar := range series {
		if bar.High >= targetPrice {
			result.TargetReached = true
			result.TargetReachedDate = dateOnly(bar.Date)
			result.TargetHitTime = timeOfDay(bar.Date)
			result.HighPriceAtTarget = bar.High
			break
		}
		if !result.StopLossTriggered && bar.Low <= stopLossPrice {
			result.StopLossTriggered = true
			result.StopLossTriggeredDate = dateOnly(bar.Date)
		}
	}

	if result.TargetReached && result.StopLossTriggered {
		result.StopLossOverridden = true
		result.StopLossTriggered = false
		result.StopLossTriggeredDate = ""
	}

	return result
}

func dateOnly(value string) string {
	if len(value) >= 10 {
		return value[:10]
	}
	return value
}

// timeOfDay returns HH:MM when the bar date carries a time component.
func timeOfDay(value string) string {
	if len(value) <= 10 || !strings.ContainsAny(value[10:], "T ") {
		return ""
	}
	t, err := utils.ParseDate(value)
	if err != nil {
		return ""
	}
	return t.Format("15:04")
}
