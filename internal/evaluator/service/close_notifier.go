package service

import (
	"context"
	"time"

	"golang-stock-calls/internal/entity"
	"golang-stock-calls/internal/evaluator/repository"
	"golang-stock-calls/pkg/logger"
	"golang-stock-calls/pkg/telegram"

	"github.com/google/uuid"
)

// CloseNotifier tells a position's owner that a run closed it.
type CloseNotifier interface {
	NotifyClosed(ctx context.Context, userID uuid.UUID, positions []entity.Position) int
}

type telegramCloseNotifier struct {
	profileRepo repository.UserProfileRepository
	telegramBot telegram.Notifier
	log         *logger.Logger
}

// NewCloseNotifier returns a no-op notifier when telegramBot is nil.
func NewCloseNotifier(profileRepo repository.UserProfileRepository, telegramBot telegram.Notifier, log *logger.Logger) CloseNotifier {
	if telegramBot == nil || profileRepo == nil {
		return noopCloseNotifier{}
	}
	return &telegramCloseNotifier{
		profileRepo: profileRepo,
		telegramBot: telegramBot,
		log:         log,
	}
}

// NotifyClosed sends one message per position and returns how many were delivered.
// Users without a linked Telegram chat are skipped.
func (n *telegramCloseNotifier) NotifyClosed(ctx context.Context, userID uuid.UUID, positions []entity.Position) int {
	if len(positions) == 0 {
		return 0
	}

	profile, err := n.profileRepo.FindByID(ctx, userID)
	if err != nil {
		n.log.WarnContext(ctx, "Failed to load profile for close notification",
			logger.StringField("user_id", userID.String()),
			logger.ErrorField(err))
		return 0
	}
	if profile.TelegramID == 0 {
		return 0
	}

	sent := 0
	for _, p := range positions {
		msg := telegram.FormatPositionClosedForTelegram(closedAlert(p))
		if err := n.telegramBot.SendMessageUser(msg, profile.TelegramID); err != nil {
			n.log.ErrorContext(ctx, "Failed to send close notification",
				logger.StringField("position_id", p.ID.String()),
				logger.ErrorField(err))
			continue
		}
		sent++
	}
	return sent
}

func closedAlert(p entity.Position) telegram.PositionClosedAlert {
	alert := telegram.PositionClosedAlert{
		Symbol:       p.Symbol,
		CompanyName:  p.CompanyName,
		InitialPrice: p.InitialPrice,
		Date:         time.Now(),
	}
	if p.CurrentPrice != nil {
		alert.TriggerPrice = *p.CurrentPrice
	}
	if p.TargetReached {
		alert.Type = telegram.TakeProfit
		alert.LevelPrice = p.TargetPrice
		if p.TargetHighPrice != nil {
			alert.TriggerPrice = *p.TargetHighPrice
		}
		if p.TargetReachedDate != nil {
			alert.Date = *p.TargetReachedDate
		}
		return alert
	}
	alert.Type = telegram.StopLoss
	alert.LevelPrice = p.StopLossPrice
	if p.StopLossTriggeredDate != nil {
		alert.Date = *p.StopLossTriggeredDate
	}
	return alert
}

type noopCloseNotifier struct{}

func (noopCloseNotifier) NotifyClosed(context.Context, uuid.UUID, []entity.Position) int {
	return 0
}
