// Package testutil provides an in-memory store for package tests.
package testutil

import (
	"testing"
	"time"

	"go-pos-inventory/internal/model"
	"go-pos-inventory/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite store. The pool is pinned to a single
// connection, so concurrent transactions queue behind each other the way
// row-locked transactions against one product do in Postgres.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, database.Migrate(db))
	return db
}

// SeedProduct inserts a product with the given stock, threshold and selling price.
func SeedProduct(t *testing.T, db *gorm.DB, name string, stock, threshold int, price string) *model.Product {
	t.Helper()

	p := &model.Product{
		Name:           name,
		BuyingPrice:    decimal.RequireFromString(price).Div(decimal.NewFromInt(2)).Round(2),
		SellingPrice:   decimal.RequireFromString(price),
		StockQuantity:  stock,
		ThresholdValue: threshold,
	}
	p.CreatedBy = "test"
	require.NoError(t, db.Create(p).Error)
	return p
}

// SeedUser inserts an active user without a role.
func SeedUser(t *testing.T, db *gorm.DB, username, fullName string) *model.User {
	t.Helper()

	u := &model.User{Username: username, FullName: fullName, IsActive: true}
	require.NoError(t, u.SetPassword("secret123"))
	require.NoError(t, db.Create(u).Error)
	return u
}

// ActorFor builds the actor identity of u.
func ActorFor(u *model.User) model.Actor {
	return model.Actor{UserID: u.ID, Username: u.Username, Name: u.FullName, Role: u.RoleCode()}
}

// Stock re-reads a product's quantity from the store.
func Stock(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()

	var p model.Product
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return p.StockQuantity
}

// CountSales returns the number of sale rows for a product.
func CountSales(t *testing.T, db *gorm.DB, productID uuid.UUID) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&model.Sale{}).Where("product_id = ?", productID).Count(&n).Error)
	return n
}
