package consumer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang-stock-calls/internal/evaluator/config"
	"golang-stock-calls/internal/evaluator/service"
	"golang-stock-calls/pkg/common"
	"golang-stock-calls/pkg/logger"
	"golang-stock-calls/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisConsumer drives scheduled evaluations from the position evaluation stream.
type RedisConsumer struct {
	cfg                        *config.Config
	redisClient                *redis.Client
	scheduledEvaluationService service.ScheduledEvaluationService
	logger                     *logger.Logger
	stopChan                   chan struct{}
	wg                         sync.WaitGroup
}

// NewRedisConsumer creates a new RedisConsumer.
func NewRedisConsumer(
	cfg *config.Config,
	redisClient *redis.Client,
	scheduledEvaluationService service.ScheduledEvaluationService,
	log *logger.Logger,
) *RedisConsumer {
	return &RedisConsumer{
		cfg:                        cfg,
		redisClient:                redisClient,
		scheduledEvaluationService: scheduledEvaluationService,
		logger:                     log,
		stopChan:                   make(chan struct{}),
	}
}

// Start creates the consumer group if needed and begins the processing loops.
func (c *RedisConsumer) Start(ctx context.Context) error {
	if err := c.ensureGroup(ctx, common.RedisStreamPositionEvaluation); err != nil {
		return err
	}

	c.logger.Info("Redis consumer started")
	c.RegisterStreamHandler(ctx, c.scheduledEvaluationService.ProcessTask, common.RedisStreamPositionEvaluation, c.cfg.Consumer.Timeout)

	//handle retry
	c.RegisterTickerHandler(ctx, c.scheduledEvaluationService.ProcessRetries, c.cfg.Consumer.RetryInterval, c.cfg.Consumer.Timeout, common.RedisStreamPositionEvaluation+"-retry")
	return nil
}

func (c *RedisConsumer) ensureGroup(ctx context.Context, streamName string) error {
	err := c.redisClient.XGroupCreateMkStream(ctx, streamName, common.RedisStreamGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (c *RedisConsumer) RegisterStreamHandler(ctx context.Context, fn func(ctx context.Context), streamName string, timeout time.Duration) {
	c.logger.Info("Registering stream handler", logger.Field("stream", streamName))
	c.wg.Add(1)
	utils.GoSafe(c.logger, func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Redis consumer stopping due to context cancellation", logger.Field("stream", streamName))
				return
			case <-c.stopChan:
				c.logger.Info("Redis consumer stopping", logger.Field("stream", streamName))
				return
			default:
				ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
				fn(ctxTimeout)
				cancel()
				if errors.Is(ctx.Err(), context.Canceled) {
					return
				}
			}
		}
	})
}

func (c *RedisConsumer) RegisterTickerHandler(ctx context.Context, fn func(ctx context.Context), interval time.Duration, timeout time.Duration, name string) {
	c.logger.Info("Registering ticker handler",
		logger.Field("name", name),
		logger.Field("interval", interval),
		logger.Field("timeout", timeout))
	c.wg.Add(1)
	utils.GoSafe(c.logger, func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
				fn(ctxTimeout)
				cancel()
			case <-ctx.Done():
				c.logger.Info("Ticker handler stopping due to context cancellation", logger.Field("name", name))
				return
			case <-c.stopChan:
				c.logger.Info("Ticker handler stopping", logger.Field("name", name))
				return
			}
		}
	})
}

// Stop gracefully shuts down the consumer.
func (c *RedisConsumer) Stop() {
	close(c.stopChan)
	c.wg.Wait()
	c.logger.Info("Redis consumer stopped")
}
