// Package testutil builds throwaway SQLite databases with the service schema
// and seeds the rows most tests need.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"nexogym/internal/model"
	"nexogym/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database. One connection keeps
// every transaction serialized, which is what row locks give us on Postgres.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Gym{},
		&model.User{},
		&model.Shift{},
		&model.Product{},
		&model.ReceiptCounter{},
		&model.Sale{},
		&model.SaleItem{},
		&model.Expense{},
		&model.InventoryMovement{},
		&model.AuditLog{},
	))
	// Constraints the SQL migrations declare and AutoMigrate cannot.
	require.NoError(t, db.Exec(
		`CREATE UNIQUE INDEX uniq_shifts_open_per_user ON shifts (gym_id, user_id) WHERE status = 'OPEN'`).Error)
	require.NoError(t, db.Exec(
		`CREATE UNIQUE INDEX sales_folio_per_gym ON sales (gym_id, receipt_folio)`).Error)

	return db
}

func SeedGym(t *testing.T, db *gorm.DB, tier model.Tier) *model.Gym {
	t.Helper()
	g := &model.Gym{Name: "Gym " + uuid.NewString()[:8], Tier: tier, Status: model.GymActive}
	require.NoError(t, repository.NewGymRepository(db).Create(context.Background(), g))
	return g
}

func SeedUser(t *testing.T, db *gorm.DB, gymID *uuid.UUID, role model.Role, name string) *model.User {
	t.Helper()
	u := &model.User{
		GymID:        gymID,
		Username:     name + "-" + uuid.NewString()[:8],
		Name:         name,
		PasswordHash: "x",
		Role:         role,
		Status:       model.UserActive,
	}
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), u))
	return u
}

func SeedProduct(t *testing.T, db *gorm.DB, gymID uuid.UUID, name, price string, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		GymID:  gymID,
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Active: true,
	}
	require.NoError(t, repository.NewProductRepository(db).Create(context.Background(), p))
	return p
}

// Stock reads the current stock of a product straight from the table.
func Stock(t *testing.T, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()
	var p model.Product
	require.NoError(t, db.Where("id = ?", productID).First(&p).Error)
	return p.Stock
}

// Count returns the number of rows of model matching the optional query.
func Count(t *testing.T, db *gorm.DB, m any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(m)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
