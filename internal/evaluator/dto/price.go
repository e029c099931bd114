package dto

import (
	"time"

	"golang-stock-calls/pkg/utils"
)

// OHLC is one daily bar. Date is YYYY-MM-DD, optionally followed by a time of day.
type OHLC struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Day returns the UTC calendar date of the bar.
func (o OHLC) Day() (time.Time, error) {
	value := o.Date
	if len(value) > 10 {
		t, err := utils.ParseDate(value)
		if err != nil {
			return time.Time{}, err
		}
		return utils.StartOfDay(t), nil
	}
	return utils.ParseDate(value)
}

// PriceQuery asks a provider for daily bars between From and To inclusive.
type PriceQuery struct {
	Symbol   string
	Exchange string
	From     time.Time
	To       time.Time
}

// QualifiedSymbol returns SYMBOL.EXCHANGE, or the bare symbol when no exchange is set.
func (q PriceQuery) QualifiedSymbol() string {
	if q.Exchange == "" {
		return q.Symbol
	}
	return q.Symbol + "." + q.Exchange
}

const (
	APICallStatusSuccess  = "success"
	APICallStatusCached   = "cached"
	APICallStatusFallback = "fallback"
	APICallStatusNoData   = "no_data"
)

// APICallDetail is a diagnostic record of one price request.
type APICallDetail struct {
	PositionID string `json:"positionId"`
	Symbol     string `json:"symbol"`
	Provider   string `json:"provider"`
	FromDate   string `json:"fromDate"`
	ToDate     string `json:"toDate"`
	Status     string `json:"status"`
	Points     int    `json:"points"`
	DurationMs int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}
