package service

import (
	"golang-stock-calls/internal/evaluator/dto"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MetricsInput carries what the calculator needs about one position and its series.
type MetricsInput struct {
	Series        []dto.OHLC
	Scan          ScanResult
	InitialPrice  float64
	TargetPrice   float64
	StopLossPrice float64
	PreviousPrice *float64
	PreviousHigh  *float64
	// Fallback marks a synthetic series built from the stored price.
	Fallback bool
}

// Metrics are the display values and write decisions for one position.
type Metrics struct {
	CurrentPrice      float64
	HighPrice         float64
	PercentToTarget   string
	PercentToStopLoss float64
	ShouldClose       bool
	ShouldUpdate      bool
}

func ComputeMetrics(in MetricsInput) Metrics {
	var m Metrics
	if len(in.Series) == 0 {
		return m
	}

	m.CurrentPrice = in.Series[len(in.Series)-1].Close
	for i, bar := range in.Series {
		if i == 0 || bar.High > m.HighPrice {
			m.HighPrice = bar.High
		}
	}
	// a synthetic point must not pull the high-water mark down
	if in.Fallback && in.PreviousHigh != nil && *in.PreviousHigh > m.HighPrice {
		m.HighPrice = *in.PreviousHigh
	}

	m.PercentToTarget = PercentToTarget(in.TargetPrice, m.CurrentPrice, in.InitialPrice, in.StopLossPrice)
	m.PercentToStopLoss = PercentToStopLoss(in.StopLossPrice, m.CurrentPrice, in.Scan.StopLossTriggered)
	m.ShouldClose = in.Scan.TargetReached || in.Scan.StopLossTriggered
	m.ShouldUpdate = m.ShouldClose || in.PreviousPrice == nil || *in.PreviousPrice != m.CurrentPrice

	return m
}

// PercentToTarget is the unsigned distance from current to target as a percent of
// current, formatted with two decimals. The call is upward when the target is above
// the initial price, or above the stop-loss when no initial price is known.
func PercentToTarget(target, current, initial, stopLoss float64) string {
	if current <= 0 || target == current {
		return "0.00"
	}

	upward := target > initial
	if initial <= 0 {
		upward = target > stopLoss
	}

	t := decimal.NewFromFloat(target)
	c := decimal.NewFromFloat(current)
	diff := t.Sub(c)
	if !upward {
		diff = c.Sub(t)
	}
	return diff.Div(c).Mul(hundred).StringFixed(2)
}

// PercentToStopLoss is the distance from current down to the stop-loss, or 0 once
// the stop-loss is triggered or at or above the current price.
func PercentToStopLoss(stopLoss, current float64, triggered bool) float64 {
	if triggered || current <= 0 || stopLoss >= current {
		return 0
	}
	s := decimal.NewFromFloat(stopLoss)
	c := decimal.NewFromFloat(current)
	return c.Sub(s).Div(c).Mul(hundred).Round(2).InexactFloat64()
}
