package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-booking/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMigrate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:migrate?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	// A second run on an up-to-date schema is a no-op.
	require.NoError(t, Migrate(db))

	m := db.Migrator()
	for _, model := range Models() {
		assert.True(t, m.HasTable(model))
	}
	assert.True(t, m.HasIndex(&models.Reservation{}, "idx_reservation_slot"))
	assert.True(t, m.HasColumn(&models.Reservation{}, "trang_thai"))
}
