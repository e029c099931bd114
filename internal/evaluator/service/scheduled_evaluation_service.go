package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang-stock-calls/internal/entity"
	"golang-stock-calls/internal/evaluator/config"
	"golang-stock-calls/internal/evaluator/dto"
	"golang-stock-calls/pkg/common"
	"golang-stock-calls/pkg/logger"
	"golang-stock-calls/pkg/telegram"
	"golang-stock-calls/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ScheduledEvaluationService consumes evaluation requests published on the
// position evaluation stream.
type ScheduledEvaluationService interface {
	ProcessTask(ctx context.Context)
	ProcessRetries(ctx context.Context)
	Execute(ctx context.Context, streamData dto.StreamDataPositionEvaluation) error
}

type scheduledEvaluationService struct {
	cfg               *config.Config
	log               *logger.Logger
	redisClient       *redis.Client
	evaluationService EvaluationService
	telegramBot       telegram.Notifier
}

func NewScheduledEvaluationService(cfg *config.Config, log *logger.Logger,
	redisClient *redis.Client,
	evaluationService EvaluationService,
	telegramBot telegram.Notifier) ScheduledEvaluationService {
	return &scheduledEvaluationService{
		cfg:               cfg,
		log:               log,
		redisClient:       redisClient,
		evaluationService: evaluationService,
		telegramBot:       telegramBot,
	}
}

func (s *scheduledEvaluationService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamPositionEvaluation, ">"},
		Count:    1,
		Block:    2 * time.Second,
	}).Result()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return
		}
		s.log.Error("Failed to read from stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}

	message := streams[0].Messages[0]
	streamData, ok := s.decode(message)
	if !ok {
		// an undecodable payload will never succeed
		_ = s.AckNDel(ctx, common.RedisStreamPositionEvaluation, message.ID)
		return
	}

	loggerFields := []zap.Field{
		logger.StringField("user_id", streamData.UserID),
		logger.StringField("trigger", streamData.Trigger),
		logger.StringField("message_id", message.ID),
	}

	s.log.Debug("Processing position evaluation task", loggerFields...)

	if err := s.Execute(ctx, streamData); err != nil {
		loggerFields = append(loggerFields, logger.ErrorField(err))
		s.log.Error("Failed to execute position evaluation task", loggerFields...)
		return
	}

	if err := s.AckNDel(ctx, common.RedisStreamPositionEvaluation, message.ID); err != nil {
		return
	}

	s.log.Debug("Position evaluation task processed successfully", loggerFields...)
}

// Execute runs one evaluation. Outcomes that a retry cannot change, such as an
// exhausted quota or an unknown user, are not reported as errors.
func (s *scheduledEvaluationService) Execute(ctx context.Context, streamData dto.StreamDataPositionEvaluation) error {
	userID, err := uuid.Parse(streamData.UserID)
	if err != nil {
		s.log.Warn("Dropping evaluation task with invalid user id", logger.StringField("user_id", streamData.UserID))
		return nil
	}

	req := RunRequest{
		UserID:  userID,
		Trigger: entity.RunTrigger(streamData.Trigger),
	}
	if req.Trigger == "" {
		req.Trigger = entity.RunTriggerSchedule
	}
	if streamData.RequestDate != "" {
		if referenceDate, err := utils.ParseDate(streamData.RequestDate); err == nil {
			req.ReferenceDate = &referenceDate
		}
	}

	resp, err := s.evaluationService.Run(ctx, req)
	var quotaErr *QuotaExceededError
	switch {
	case errors.As(err, &quotaErr):
		s.log.Info("Skipping scheduled evaluation, quota exhausted",
			logger.StringField("user_id", streamData.UserID),
			logger.IntField("usage_count", quotaErr.UsedCount))
		return nil
	case errors.Is(err, ErrUnauthorized):
		return nil
	case err != nil:
		return err
	}

	s.log.Info("Scheduled evaluation completed",
		logger.StringField("user_id", streamData.UserID),
		logger.IntField("checked_posts", resp.CheckedPosts),
		logger.IntField("updated_posts", resp.UpdatedPosts),
		logger.Field("update_success", resp.UpdateSuccess))
	return nil
}

func (s *scheduledEvaluationService) ProcessRetries(ctx context.Context) {
	msgs, _, err := s.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   common.RedisStreamPositionEvaluation,
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer + "-retry",
		MinIdle:  s.cfg.Consumer.MaxIdleDuration,
		Start:    "0",
		Count:    1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to claim position evaluation task on retry", logger.ErrorField(err))
		return
	}

	if len(msgs) == 0 {
		s.log.Debug("Retry no pending messages found", logger.StringField("stream", common.RedisStreamPositionEvaluation))
		return
	}

	pendingInfo, err := s.redisClient.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: common.RedisStreamPositionEvaluation,
		Group:  common.RedisStreamGroup,
		Start:  msgs[0].ID,
		End:    msgs[0].ID,
		Count:  1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to get pending info", logger.ErrorField(err))
		return
	}

	if len(pendingInfo) == 0 {
		s.log.Warn("pending msg not found, but exist on xautoclaim",
			logger.StringField("stream", common.RedisStreamPositionEvaluation),
			logger.StringField("message_id", msgs[0].ID))
		return
	}

	msg := msgs[0]
	streamData, ok := s.decode(msg)
	if !ok {
		_ = s.AckNDel(ctx, common.RedisStreamPositionEvaluation, msg.ID)
		return
	}

	if err := s.Execute(ctx, streamData); err != nil {
		retryCount := int(pendingInfo[0].RetryCount + 1)
		s.log.Error("Failed to retry position evaluation",
			logger.ErrorField(err),
			logger.StringField("message_id", msg.ID),
			logger.StringField("user_id", streamData.UserID),
			logger.IntField("retry_count", retryCount))

		if !ShouldDropRetry(pendingInfo[0].RetryCount, s.cfg.Consumer.MaxRetry) {
			return
		}

		s.log.Error("pending msg retry count exceeded",
			logger.StringField("stream", common.RedisStreamPositionEvaluation),
			logger.StringField("message_id", msg.ID),
			logger.IntField("max_retry", s.cfg.Consumer.MaxRetry))
		if s.telegramBot != nil {
			errType := fmt.Sprintf("Retry count exceeded for event %s", common.RedisStreamPositionEvaluation)
			msgTelegram := telegram.FormatErrorAlertMessage(time.Now(), errType, err.Error(), streamData.UserID)
			if err := s.telegramBot.SendMessage(msgTelegram); err != nil {
				s.log.Error("Failed to send telegram message retry exceeded", logger.ErrorField(err), logger.StringField("user_id", streamData.UserID))
			}
		}
		_ = s.AckNDel(ctx, common.RedisStreamPositionEvaluation, msg.ID)
		return
	}

	if err := s.AckNDel(ctx, common.RedisStreamPositionEvaluation, msg.ID); err != nil {
		return
	}
	s.log.Info("Retry position evaluation processed successfully", logger.StringField("user_id", streamData.UserID))
}

// ShouldDropRetry reports whether a message that has already been delivered
// retryCount times must be given up after this failure.
func ShouldDropRetry(retryCount int64, maxRetry int) bool {
	return retryCount+1 >= int64(maxRetry)
}

func (s *scheduledEvaluationService) decode(message redis.XMessage) (dto.StreamDataPositionEvaluation, bool) {
	var streamData dto.StreamDataPositionEvaluation

	taskData, ok := message.Values["payload"].(string)
	if !ok {
		s.log.Error("field 'payload' not found or not a string in stream message", logger.Field("message_id", message.ID))
		return streamData, false
	}

	if err := json.Unmarshal([]byte(taskData), &streamData); err != nil {
		s.log.Error("Failed to unmarshal task data", logger.ErrorField(err), logger.Field("message_id", message.ID))
		return streamData, false
	}
	return streamData, true
}

func (s *scheduledEvaluationService) AckNDel(ctx context.Context, streamName string, messageID string) error {
	loggerFields := []zap.Field{
		logger.StringField("stream_name", streamName),
		logger.StringField("message_id", messageID),
	}
	if err := s.redisClient.XAck(ctx, streamName, common.RedisStreamGroup, messageID).Err(); err != nil {
		s.log.Error("Failed to acknowledge position evaluation task", append(loggerFields, logger.ErrorField(err))...)
		return err
	}
	if err := s.redisClient.XDel(ctx, streamName, messageID).Err(); err != nil {
		s.log.Error("Failed to delete position evaluation task", append(loggerFields, logger.ErrorField(err))...)
		return err
	}
	return nil
}
