package migrations

import (
	"github.com/Effectys/rmrp-army-bot/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Division{},
		&models.Position{},
		&models.Member{},
		&models.RoleRequest{},
		&models.TransferRequest{},
		&models.DismissalRequest{},
		&models.ReinstatementRequest{},
		&models.TimeoffRequest{},
		&models.SupplyRequest{},
		&models.Counter{},
		&models.BottomMessage{},
	)
}
