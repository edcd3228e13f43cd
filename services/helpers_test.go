package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/restaurant-ordering/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

type fixture struct {
	restaurant models.Restaurant
	burger     models.Menu
	salad      models.Menu
	soldOut    models.Menu
}

func seedFixture(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	f := fixture{restaurant: models.Restaurant{Name: "Test Bistro", Email: uuid.NewString() + "@test.local"}}
	require.NoError(t, db.Create(&f.restaurant).Error)

	for i := 1; i <= 3; i++ {
		require.NoError(t, db.Create(&models.Table{RestaurantID: f.restaurant.ID, TableNumber: i, Status: models.TableFree, Capacity: 4}).Error)
	}

	f.burger = models.Menu{RestaurantID: f.restaurant.ID, Name: "Burger", Category: "Main", BasePrice: decimal.RequireFromString("50.00"), IsAvailable: true}
	f.salad = models.Menu{RestaurantID: f.restaurant.ID, Name: "Salad", Category: "Starter", BasePrice: decimal.RequireFromString("30.00"), IsAvailable: true}
	f.soldOut = models.Menu{RestaurantID: f.restaurant.ID, Name: "Lobster", Category: "Main", BasePrice: decimal.RequireFromString("99.00"), IsAvailable: true}
	require.NoError(t, db.Create(&f.burger).Error)
	require.NoError(t, db.Create(&f.salad).Error)
	require.NoError(t, db.Create(&f.soldOut).Error)
	// default:true would override a false zero value on insert.
	require.NoError(t, db.Model(&f.soldOut).Update("is_available", false).Error)
	f.soldOut.IsAvailable = false
	return f
}

func orderInput(table int, lines ...OrderItemInput) CreateOrderInput {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.PriceAtOrder.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return CreateOrderInput{TableNumber: table, TotalAmount: total, Items: lines}
}

func line(menu models.Menu, qty int) OrderItemInput {
	return OrderItemInput{MenuID: menu.ID, Quantity: qty, PriceAtOrder: menu.BasePrice}
}
