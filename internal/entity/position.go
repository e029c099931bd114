package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PositionEvaluationColumns lists the only columns an evaluation run may write.
// Identity, ownership and call levels are never part of an evaluation update.
var PositionEvaluationColumns = []string{
	"current_price",
	"high_price",
	"target_high_price",
	"target_reached",
	"target_reached_date",
	"target_hit_time",
	"stop_loss_triggered",
	"stop_loss_triggered_date",
	"closed",
	"last_price_check_at",
	"status_message",
	"post_date_after_price_date",
	"post_after_market_close",
	"no_data_available",
	"price_history",
	"updated_at",
}

// Position is a published stock call tracked until it hits its target or stop-loss.
type Position struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Symbol        string    `gorm:"type:varchar(20);not null" json:"symbol"`
	Exchange      string    `gorm:"type:varchar(20)" json:"exchange"`
	CompanyName   string    `gorm:"type:varchar(255)" json:"company_name"`
	InitialPrice  float64   `gorm:"not null" json:"initial_price"`
	TargetPrice   float64   `gorm:"not null" json:"target_price"`
	StopLossPrice float64   `gorm:"not null" json:"stop_loss_price"`

	CurrentPrice          *float64   `json:"current_price"`
	HighPrice             *float64   `json:"high_price"`
	TargetHighPrice       *float64   `json:"target_high_price"`
	TargetReached         bool       `gorm:"not null" json:"target_reached"`
	TargetReachedDate     *time.Time `gorm:"type:date" json:"target_reached_date"`
	TargetHitTime         *string    `gorm:"type:varchar(8)" json:"target_hit_time"`
	StopLossTriggered     bool       `gorm:"not null" json:"stop_loss_triggered"`
	StopLossTriggeredDate *time.Time `gorm:"type:date" json:"stop_loss_triggered_date"`
	Closed                bool       `gorm:"not null;index" json:"closed"`

	LastPriceCheckAt       *time.Time     `json:"last_price_check_at"`
	StatusMessage          string         `gorm:"type:text" json:"status_message"`
	PostDateAfterPriceDate bool           `gorm:"not null" json:"post_date_after_price_date"`
	PostAfterMarketClose   bool           `gorm:"not null" json:"post_after_market_close"`
	NoDataAvailable        bool           `gorm:"not null" json:"no_data_available"`
	PriceHistory           datatypes.JSON `gorm:"type:jsonb" json:"price_history"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Position) TableName() string {
	return "positions"
}

// QualifiedSymbol returns SYMBOL.EXCHANGE, or the bare symbol when no exchange is set.
func (p Position) QualifiedSymbol() string {
	if p.Exchange == "" {
		return p.Symbol
	}
	return p.Symbol + "." + p.Exchange
}
