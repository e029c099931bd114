package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang-stock-calls/internal/evaluator/config"
	"golang-stock-calls/internal/evaluator/dto"
	"golang-stock-calls/pkg/logger"
	"golang-stock-calls/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type eodBar struct {
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        float64 `json:"volume"`
}

type eodPriceRepository struct {
	cfg            config.PriceAPI
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewEODPriceRepository creates a PriceRepository backed by an EOD-style HTTP API
// (GET {base_url}/eod/{SYMBOL.EXCHANGE}).
func NewEODPriceRepository(cfg config.PriceAPI, timeout time.Duration, log *logger.Logger) PriceRepository {
	limit := rate.Inf
	if cfg.MaxRequestPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.MaxRequestPerMinute))
	}
	return &eodPriceRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		requestLimiter: rate.NewLimiter(limit, 1),
	}
}

func (r *eodPriceRepository) GetDailyBars(ctx context.Context, query dto.PriceQuery) ([]dto.OHLC, error) {
	params := url.Values{}
	params.Set("api_token", r.cfg.APIKey)
	params.Set("fmt", "json")
	params.Set("period", "d")
	params.Set("from", utils.FormatDate(query.From))
	params.Set("to", utils.FormatDate(query.To))

	endpoint := fmt.Sprintf("%s/eod/%s?%s",
		strings.TrimRight(r.cfg.BaseURL, "/"),
		url.PathEscape(query.QualifiedSymbol()),
		params.Encode())

	body, err := r.sendRequest(ctx, endpoint, query.QualifiedSymbol())
	if err != nil {
		return nil, err
	}

	var bars []eodBar
	if err := json.Unmarshal(body, &bars); err != nil {
		return nil, fmt.Errorf("malformed price response for %s: %w", query.QualifiedSymbol(), err)
	}
	if len(bars) == 0 {
		return nil, ErrEmptyPriceSeries
	}

	series := make([]dto.OHLC, 0, len(bars))
	for _, b := range bars {
		series = append(series, dto.OHLC{
			Date:   b.Date,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		})
	}
	return series, nil
}

func (r *eodPriceRepository) sendRequest(ctx context.Context, endpoint string, symbol string) ([]byte, error) {
	fields := []zap.Field{
		zap.String("symbol", symbol),
		zap.Int("max_request_per_minute", r.cfg.MaxRequestPerMinute),
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to wait for request limit", fields...)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to create new http request", fields...)
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to send request to price API", fields...)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fields = append(fields, zap.Int("status_code", resp.StatusCode))
		r.log.ErrorContext(ctx, "Received non-OK response from price API", fields...)
		return nil, fmt.Errorf("price API returned status %d for %s", resp.StatusCode, symbol)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to read response body from price API", fields...)
		return nil, err
	}

	return body, nil
}
