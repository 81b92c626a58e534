package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"p9e.in/gaugewatch/models"
)

// Migrations applies the schema migrations in order.
func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "01112025_create_readings",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Reading{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("readings")
			},
		},
		{
			ID: "05112025_add_readings_site_created_index",
			Migrate: func(tx *gorm.DB) error {
				if tx.Migrator().HasIndex(&models.Reading{}, "idx_readings_site_created") {
					return nil
				}
				return tx.Exec("CREATE INDEX idx_readings_site_created ON readings (site_id, created_at)").Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropIndex(&models.Reading{}, "idx_readings_site_created")
			},
		},
		{
			ID: "12112025_add_readings_device",
			Migrate: func(tx *gorm.DB) error {
				if tx.Migrator().HasColumn(&models.Reading{}, "Device") {
					return nil
				}
				return tx.Migrator().AddColumn(&models.Reading{}, "Device")
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropColumn(&models.Reading{}, "Device")
			},
		},
	})

	return m.Migrate()
}
