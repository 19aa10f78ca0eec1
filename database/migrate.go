package database

import (
	"fmt"

	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

// Models is every table the server owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Food{},
		&models.Customer{},
		&models.Reservation{},
	}
}

// requiredIndexes are checked after migration. The slot index backs the
// duplicate-booking lookup.
var requiredIndexes = []struct {
	model interface{}
	name  string
}{
	{&models.Reservation{}, "idx_reservation_slot"},
	{&models.Category{}, "Name"},
	{&models.Customer{}, "Phone"},
	{&models.User{}, "Email"},
}

// Migrate creates or updates the schema and verifies the indexes the
// queries rely on.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	m := db.Migrator()
	for _, idx := range requiredIndexes {
		if !m.HasIndex(idx.model, idx.name) {
			if err := m.CreateIndex(idx.model, idx.name); err != nil {
				return fmt.Errorf("create index %s: %w", idx.name, err)
			}
		}
		utils.Log.WithField("index", idx.name).Debug("Index verified")
	}

	utils.Log.WithField("tables", len(Models())).Info("AutoMigrate completed")
	return nil
}
