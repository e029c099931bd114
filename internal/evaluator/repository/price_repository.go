package repository

import (
	"context"
	"errors"

	"golang-stock-calls/internal/evaluator/dto"
)

// ErrEmptyPriceSeries is returned when a provider answers successfully with no bars.
var ErrEmptyPriceSeries = errors.New("price provider returned an empty series")

// PriceRepository fetches daily OHLC bars from a market data provider.
type PriceRepository interface {
	GetDailyBars(ctx context.Context, query dto.PriceQuery) ([]dto.OHLC, error)
}
