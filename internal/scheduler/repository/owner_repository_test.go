package repository

import (
	"context"
	"testing"

	"golang-stock-calls/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&entity.Position{}))
	return db
}

func TestOwnerRepository_FindOwnersWithOpenPositions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOwnerRepository(db)

	withOpen := uuid.New()
	onlyClosed := uuid.New()
	positions := []entity.Position{
		{ID: uuid.New(), UserID: withOpen, Symbol: "AAPL", Exchange: "US", TargetPrice: 110, StopLossPrice: 90},
		{ID: uuid.New(), UserID: withOpen, Symbol: "MSFT", Exchange: "US", TargetPrice: 110, StopLossPrice: 90},
		{ID: uuid.New(), UserID: onlyClosed, Symbol: "TSLA", Exchange: "US", TargetPrice: 110, StopLossPrice: 90, Closed: true},
	}
	require.NoError(t, db.Create(&positions).Error)

	owners, err := repo.FindOwnersWithOpenPositions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{withOpen}, owners)
}
