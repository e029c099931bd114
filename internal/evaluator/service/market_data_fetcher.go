package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang-stock-calls/internal/evaluator/dto"
	"golang-stock-calls/internal/evaluator/repository"
	"golang-stock-calls/pkg/logger"
	"golang-stock-calls/pkg/utils"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// FetchRequest identifies the bars needed for one position.
type FetchRequest struct {
	PositionID     uuid.UUID
	Symbol         string
	Exchange       string
	From           time.Time
	To             time.Time
	LastKnownPrice *float64
}

// FetchResult is either a real series, a synthetic fallback series, or no data.
type FetchResult struct {
	Series   []dto.OHLC
	Fallback bool
	NoData   bool
	Detail   dto.APICallDetail
}

// MarketDataFetcher loads daily bars and degrades to the last known price on failure.
type MarketDataFetcher interface {
	Fetch(ctx context.Context, req FetchRequest) FetchResult
}

type marketDataFetcher struct {
	priceRepo repository.PriceRepository
	provider  string
	timeout   time.Duration
	cache     *cache.Cache
	log       *logger.Logger
}

// NewMarketDataFetcher wraps priceRepo with a per-call timeout and a short-lived
// cache so positions sharing a symbol and window trigger one request.
func NewMarketDataFetcher(priceRepo repository.PriceRepository, provider string, timeout time.Duration, cacheTTL time.Duration, log *logger.Logger) MarketDataFetcher {
	return &marketDataFetcher{
		priceRepo: priceRepo,
		provider:  provider,
		timeout:   timeout,
		cache:     cache.New(cacheTTL, 2*cacheTTL),
		log:       log,
	}
}

func (f *marketDataFetcher) Fetch(ctx context.Context, req FetchRequest) FetchResult {
	query := dto.PriceQuery{
		Symbol:   req.Symbol,
		Exchange: req.Exchange,
		From:     utils.StartOfDay(req.From),
		To:       req.To,
	}
	detail := dto.APICallDetail{
		PositionID: req.PositionID.String(),
		Symbol:     query.QualifiedSymbol(),
		Provider:   f.provider,
		FromDate:   utils.FormatDate(query.From),
		ToDate:     utils.FormatDate(query.To),
	}
	key := fmt.Sprintf("%s|%s|%s", detail.Symbol, detail.FromDate, detail.ToDate)

	if cached, ok := f.cache.Get(key); ok {
		series := cached.([]dto.OHLC)
		detail.Status = dto.APICallStatusCached
		detail.Points = len(series)
		return FetchResult{Series: series, Detail: detail}
	}

	start := time.Now()
	series, err := f.getBars(ctx, query)
	detail.DurationMs = time.Since(start).Milliseconds()

	if err == nil {
		series = SortSeries(series)
		f.cache.Set(key, series, cache.DefaultExpiration)
		detail.Status = dto.APICallStatusSuccess
		detail.Points = len(series)
		return FetchResult{Series: series, Detail: detail}
	}

	detail.Error = err.Error()
	f.log.WarnContext(ctx, "Price fetch failed, falling back to last known price",
		logger.StringField("symbol", detail.Symbol),
		logger.StringField("position_id", detail.PositionID),
		logger.ErrorField(err))

	if req.LastKnownPrice == nil || *req.LastKnownPrice <= 0 {
		detail.Status = dto.APICallStatusNoData
		return FetchResult{NoData: true, Detail: detail}
	}

	price := *req.LastKnownPrice
	detail.Status = dto.APICallStatusFallback
	detail.Points = 1
	return FetchResult{
		Series: []dto.OHLC{{
			Date:   utils.FormatDate(req.To),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 0,
		}},
		Fallback: true,
		Detail:   detail,
	}
}

func (f *marketDataFetcher) getBars(ctx context.Context, query dto.PriceQuery) ([]dto.OHLC, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	series, err := f.priceRepo.GetDailyBars(ctxTimeout, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("price request timed out after %s: %w", f.timeout, err)
		}
		return nil, err
	}
	if len(series) == 0 {
		return nil, repository.ErrEmptyPriceSeries
	}
	return series, nil
}
