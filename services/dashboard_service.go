package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

const topItemsLimit = 5

type TopItem struct {
	Name          string          `json:"name"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

type CategorySales struct {
	Category    string          `json:"category"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type Dashboard struct {
	Month           string          `json:"month,omitempty"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	TopItems        []TopItem       `json:"top_items"`
	SalesByCategory []CategorySales `json:"sales_by_category"`
}

type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// ParseMonth parses YYYY-MM into the half-open range [start, end).
func ParseMonth(month string) (start, end time.Time, err error) {
	start, err = time.ParseInLocation("2006-01", month, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, utils.ValidationError("month must be in YYYY-MM format")
	}
	return start, start.AddDate(0, 1, 0), nil
}

// Summary aggregates paid orders, optionally restricted to one month.
func (s *DashboardService) Summary(ctx context.Context, restaurantID uint, month string) (*Dashboard, error) {
	paidOrders := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Order{}).
			Where("orders.restaurant_id = ? AND orders.payment_status = ?", restaurantID, models.PaymentStatusPaid)
	}

	scope := func(db *gorm.DB) *gorm.DB { return db }
	if month != "" {
		start, end, err := ParseMonth(month)
		if err != nil {
			return nil, err
		}
		scope = func(db *gorm.DB) *gorm.DB {
			return db.Where("orders.order_time >= ? AND orders.order_time < ?", start, end)
		}
	}

	dash := Dashboard{
		Month:           month,
		TopItems:        []TopItem{},
		SalesByCategory: []CategorySales{},
	}

	var total struct{ TotalSales decimal.Decimal }
	if err := paidOrders().Scopes(scope).
		Select("COALESCE(SUM(orders.total_amount), 0) AS total_sales").
		Scan(&total).Error; err != nil {
		return nil, utils.InternalError("failed to compute total sales", err)
	}
	dash.TotalSales = utils.Round2(total.TotalSales)

	if err := paidOrders().Scopes(scope).
		Select("menus.name AS name, SUM(order_items.quantity) AS total_quantity, " +
			"SUM(order_items.quantity * order_items.price_at_order) AS total_amount").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Joins("JOIN menus ON menus.id = order_items.menu_id").
		Group("menus.name").
		Order("total_quantity DESC").
		Limit(topItemsLimit).
		Scan(&dash.TopItems).Error; err != nil {
		return nil, utils.InternalError("failed to compute top items", err)
	}

	if err := paidOrders().Scopes(scope).
		Select("menus.category AS category, SUM(order_items.quantity * order_items.price_at_order) AS total_amount").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Joins("JOIN menus ON menus.id = order_items.menu_id").
		Group("menus.category").
		Order("total_amount DESC").
		Scan(&dash.SalesByCategory).Error; err != nil {
		return nil, utils.InternalError("failed to compute sales by category", err)
	}

	for i := range dash.TopItems {
		dash.TopItems[i].TotalAmount = utils.Round2(dash.TopItems[i].TotalAmount)
	}
	for i := range dash.SalesByCategory {
		dash.SalesByCategory[i].TotalAmount = utils.Round2(dash.SalesByCategory[i].TotalAmount)
	}
	return &dash, nil
}
