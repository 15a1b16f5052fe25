package database

import (
	"go-pos-inventory/internal/model"

	"gorm.io/gorm"
)

// Migrate creates or updates the schema. Products come first so the foreign
// keys of sales and requests can reference them.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Privilege{},
		&model.Role{},
		&model.User{},
		&model.Product{},
		&model.Sale{},
		&model.Request{},
	)
}
