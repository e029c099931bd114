package repository

import (
	"context"
	"fmt"

	"golang-stock-calls/internal/evaluator/config"
	"golang-stock-calls/internal/evaluator/dto"
	"golang-stock-calls/pkg/logger"
	"golang-stock-calls/pkg/utils"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

type alpacaBarsResult struct {
	bars []marketdata.Bar
	err  error
}

type alpacaPriceRepository struct {
	client *marketdata.Client
	log    *logger.Logger
}

// NewAlpacaPriceRepository creates a PriceRepository backed by the Alpaca market data API.
// Alpaca addresses US listings by bare symbol, so the exchange is ignored.
func NewAlpacaPriceRepository(cfg config.PriceAPI, log *logger.Logger) PriceRepository {
	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
	})
	return &alpacaPriceRepository{
		client: client,
		log:    log,
	}
}

func (r *alpacaPriceRepository) GetDailyBars(ctx context.Context, query dto.PriceQuery) ([]dto.OHLC, error) {
	// The SDK call takes no context; the buffered channel lets the goroutine finish after a timeout.
	done := make(chan alpacaBarsResult, 1)
	go func() {
		bars, err := r.client.GetBars(query.Symbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     query.From,
			End:       query.To,
		})
		done <- alpacaBarsResult{bars: bars, err: err}
	}()

	var result alpacaBarsResult
	select {
	case <-ctx.Done():
		r.log.WarnContext(ctx, "Alpaca request cancelled", logger.StringField("symbol", query.Symbol), logger.ErrorField(ctx.Err()))
		return nil, ctx.Err()
	case result = <-done:
	}

	if result.err != nil {
		r.log.ErrorContext(ctx, "Failed to get bars from Alpaca", logger.StringField("symbol", query.Symbol), logger.ErrorField(result.err))
		return nil, fmt.Errorf("alpaca bars for %s: %w", query.Symbol, result.err)
	}
	if len(result.bars) == 0 {
		return nil, ErrEmptyPriceSeries
	}

	series := make([]dto.OHLC, 0, len(result.bars))
	for _, b := range result.bars {
		series = append(series, dto.OHLC{
			Date:   utils.FormatDate(b.Timestamp),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		})
	}
	return series, nil
}
