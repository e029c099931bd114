package service

import (
	"sort"
	"strings"
	"time"

	"golang-stock-calls/internal/entity"
	"golang-stock-calls/internal/evaluator/config"
	"golang-stock-calls/internal/evaluator/dto"
	"golang-stock-calls/pkg/utils"
)

// Validity says whether a fetched series can be compared against a position.
type Validity int

const (
	ValidityUsable Validity = iota
	ValidityPostAfterPriceDate
	ValidityPostAfterMarketClose
)

func (v Validity) String() string {
	switch v {
	case ValidityUsable:
		return "usable"
	case ValidityPostAfterPriceDate:
		return "post_after_price_date"
	case ValidityPostAfterMarketClose:
		return "post_after_market_close"
	default:
		return "unknown"
	}
}

// Classifier decides whether the newest bar of a series postdates the position.
type Classifier struct {
	closeHour          int
	exchangeCloseHours map[string]int
	location           *time.Location
}

func NewClassifier(cfg config.Evaluation, location *time.Location) *Classifier {
	if location == nil {
		location = time.UTC
	}
	hours := make(map[string]int, len(cfg.ExchangeCloseHours))
	for exchange, hour := range cfg.ExchangeCloseHours {
		hours[strings.ToLower(exchange)] = hour
	}
	return &Classifier{
		closeHour:          cfg.MarketCloseHour,
		exchangeCloseHours: hours,
		location:           location,
	}
}

// Classify compares the position's creation date with the date of the last bar.
// A series with no dated bar is treated like a post newer than the data.
func (c *Classifier) Classify(position entity.Position, series []dto.OHLC) Validity {
	lastPriceDate, ok := lastBarDate(series)
	if !ok {
		return ValidityPostAfterPriceDate
	}

	postDate := utils.StartOfDay(position.CreatedAt)
	switch {
	case postDate.After(lastPriceDate):
		return ValidityPostAfterPriceDate
	case postDate.Equal(lastPriceDate):
		if position.CreatedAt.In(c.location).Hour() >= c.CloseHour(position.Exchange) {
			return ValidityPostAfterMarketClose
		}
		return ValidityUsable
	default:
		return ValidityUsable
	}
}

// CloseHour returns the market-close hour used for exchange.
func (c *Classifier) CloseHour(exchange string) int {
	if hour, ok := c.exchangeCloseHours[strings.ToLower(exchange)]; ok {
		return hour
	}
	return c.closeHour
}

func lastBarDate(series []dto.OHLC) (time.Time, bool) {
	for i := len(series) - 1; i >= 0; i-- {
		if day, err := series[i].Day(); err == nil {
			return day, true
		}
	}
	return time.Time{}, false
}

// SortSeries orders series by date ascending, copying only when it is out of order.
func SortSeries(series []dto.OHLC) []dto.OHLC {
	less := func(s []dto.OHLC) func(i, j int) bool {
		return func(i, j int) bool { return s[i].Date < s[j].Date }
	}
	if sort.SliceIsSorted(series, less(series)) {
		return series
	}
	sorted := make([]dto.OHLC, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, less(sorted))
	return sorted
}
