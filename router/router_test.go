package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/restaurant-ordering/config"
	"github.com/yeremiapane/restaurant-ordering/kds"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/payment"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

const webhookSecret = "router-test-secret"

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testApp struct {
	router *gin.Engine
	db     *gorm.DB

	restaurant models.Restaurant
	burger     models.Menu
	salad      models.Menu

	adminToken string
	kioskToken string
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.InitJWT("router-test-jwt", time.Hour)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	app := &testApp{db: db}
	app.restaurant = models.Restaurant{Name: "Router Bistro", Email: "router@test.local"}
	require.NoError(t, db.Create(&app.restaurant).Error)
	rid := app.restaurant.ID

	require.NoError(t, db.Create(&models.Table{RestaurantID: rid, TableNumber: 1, Status: models.TableFree, Capacity: 4}).Error)
	app.burger = models.Menu{RestaurantID: rid, Name: "Burger", Category: "Main", BasePrice: decimal.RequireFromString("50.00"), IsAvailable: true}
	app.salad = models.Menu{RestaurantID: rid, Name: "Salad", Category: "Starter", BasePrice: decimal.RequireFromString("30.00"), IsAvailable: true}
	require.NoError(t, db.Create(&app.burger).Error)
	require.NoError(t, db.Create(&app.salad).Error)

	hashed, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := models.User{Username: "admin", Email: "admin@test.local", Password: string(hashed), Role: models.RoleAdmin, RestaurantID: rid}
	kiosk := models.User{Username: "kiosk", Password: string(hashed), Role: models.RoleCustomer, RestaurantID: rid}
	require.NoError(t, db.Create(&admin).Error)
	require.NoError(t, db.Create(&kiosk).Error)

	cfg := &config.Config{
		DefaultRestaurantID:  rid,
		PromptPayID:          "0812345678",
		PaymentWebhookSecret: webhookSecret,
	}
	app.router = SetupRouter(db, cfg, utils.NewMemoryBlacklist(), kds.NewHub())

	app.adminToken = app.login(t, "admin", "secret-pass")
	app.kioskToken = app.login(t, "kiosk", "secret-pass")
	return app
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Header().Get("Content-Type") != "application/pdf" && w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func (a *testApp) login(t *testing.T, username, password string) string {
	t.Helper()
	w, resp := a.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func (a *testApp) createOrder(t *testing.T) models.Order {
	t.Helper()
	payload := gin.H{
		"table_number":   1,
		"total_amount":   "160.00",
		"status":         models.OrderStatusPending,
		"payment_status": models.PaymentStatusUnpaid,
		"items": []gin.H{
			{"menu_id": a.burger.ID, "quantity": 2, "price_at_order": "50.00"},
			{"menu_id": a.salad.ID, "quantity": 2, "price_at_order": "30.00", "notes": "no onion"},
		},
	}
	w, resp := a.do(t, http.MethodPost, "/api/orders", a.kioskToken, payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		OrderID uint         `json:"order_id"`
		Order   models.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Equal(t, data.OrderID, data.Order.ID)
	return data.Order
}

func decodeOrder(t *testing.T, resp apiResponse) models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, json.Unmarshal(resp.Data, &order))
	return order
}

func TestHealth(t *testing.T) {
	app := setupApp(t)
	w, resp := app.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Status)
}

func TestCreateAndGetOrder(t *testing.T) {
	app := setupApp(t)
	created := app.createOrder(t)

	w, resp := app.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d", created.ID), app.kioskToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	order := decodeOrder(t, resp)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, order.PaymentStatus)
	assert.Equal(t, "160.00", order.TotalAmount.StringFixed(2))
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Burger", order.Items[0].MenuName)

	w, _ = app.do(t, http.MethodGet, "/api/orders/999", app.kioskToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = app.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d", created.ID), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateOrderValidation(t *testing.T) {
	app := setupApp(t)

	cases := map[string]gin.H{
		"no items": {"table_number": 1, "total_amount": "0", "items": []gin.H{}},
		"total mismatch": {"table_number": 1, "total_amount": "10.00", "items": []gin.H{
			{"menu_id": app.burger.ID, "quantity": 1, "price_at_order": "50.00"},
		}},
		"unknown table": {"table_number": 7, "total_amount": "50.00", "items": []gin.H{
			{"menu_id": app.burger.ID, "quantity": 1, "price_at_order": "50.00"},
		}},
		"zero quantity": {"table_number": 1, "total_amount": "0", "items": []gin.H{
			{"menu_id": app.burger.ID, "quantity": 0, "price_at_order": "50.00"},
		}},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			w, resp := app.do(t, http.MethodPost, "/api/orders", app.kioskToken, payload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, resp.Status)
		})
	}

	var count int64
	require.NoError(t, app.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMarkPaidTwice(t *testing.T) {
	app := setupApp(t)
	order := app.createOrder(t)
	path := fmt.Sprintf("/api/orders/%d", order.ID)
	body := gin.H{"payment_status": "paid", "payment_method": "cash"}

	w, resp := app.do(t, http.MethodPatch, path, app.kioskToken, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decodeOrder(t, resp)
	assert.Equal(t, models.PaymentStatusPaid, first.PaymentStatus)
	assert.Equal(t, models.OrderStatusPending, first.Status)
	require.NotNil(t, first.PaidAt)

	w, resp = app.do(t, http.MethodPatch, path, app.kioskToken, body)
	require.Equal(t, http.StatusOK, w.Code)
	second := decodeOrder(t, resp)
	assert.Equal(t, first.PaymentReference, second.PaymentReference)

	var payments int64
	require.NoError(t, app.db.Model(&models.Payment{}).Where("order_id = ?", order.ID).Count(&payments).Error)
	assert.Equal(t, int64(1), payments)

	w, _ = app.do(t, http.MethodPatch, path, app.kioskToken, gin.H{"payment_status": "unpaid"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = app.do(t, http.MethodPatch, path, app.kioskToken, gin.H{"payment_status": "refunded"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(t, http.MethodGet, path+"/receipt", app.kioskToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestOrderStatusChange(t *testing.T) {
	app := setupApp(t)
	order := app.createOrder(t)
	path := fmt.Sprintf("/api/orders/%d", order.ID)

	w, _ := app.do(t, http.MethodPatch, path, app.kioskToken, gin.H{"status": "completed"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = app.do(t, http.MethodPatch, path, app.adminToken, gin.H{"status": "ready"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = app.do(t, http.MethodPatch, path, app.adminToken, gin.H{"status": "eaten"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := app.do(t, http.MethodPatch, path, app.adminToken, gin.H{"status": "cancelled"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.OrderStatusCancelled, decodeOrder(t, resp).Status)

	w, _ = app.do(t, http.MethodPatch, path, app.adminToken, gin.H{"status": "completed"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = app.do(t, http.MethodPatch, path, app.kioskToken, gin.H{"payment_status": "paid"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateOrderRejectsCombinedChange(t *testing.T) {
	app := setupApp(t)
	order := app.createOrder(t)
	path := fmt.Sprintf("/api/orders/%d", order.ID)

	w, _ := app.do(t, http.MethodPatch, path, app.adminToken, gin.H{"status": "cancelled", "payment_status": "paid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var stored models.Order
	require.NoError(t, app.db.First(&stored, order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, stored.PaymentStatus)

	var payments int64
	require.NoError(t, app.db.Model(&models.Payment{}).Where("order_id = ?", order.ID).Count(&payments).Error)
	assert.Zero(t, payments)
}

func TestListOrdersAdminOnly(t *testing.T) {
	app := setupApp(t)
	app.createOrder(t)
	app.createOrder(t)

	w, _ := app.do(t, http.MethodGet, "/api/orders", app.kioskToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp := app.do(t, http.MethodGet, "/api/orders?status=pending&limit=1", app.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-Total-Count"))
	var orders []models.Order
	require.NoError(t, json.Unmarshal(resp.Data, &orders))
	assert.Len(t, orders, 1)
}

func TestPaymentWebhook(t *testing.T) {
	app := setupApp(t)
	order := app.createOrder(t)

	w, resp := app.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d/payment/qr", order.ID), app.kioskToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var qr struct {
		QRImageURL string `json:"qr_image_url"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &qr))
	assert.Equal(t, "https://promptpay.io/0812345678/160.00.png", qr.QRImageURL)

	amount := decimal.RequireFromString("160.00")
	confirm := func(amount decimal.Decimal, signAmount decimal.Decimal) int {
		body := payment.Confirmation{
			OrderID:   order.ID,
			Amount:    amount,
			Reference: "PP-42",
			Signature: payment.Sign(order.ID, signAmount, "PP-42", webhookSecret),
		}
		w, _ := app.do(t, http.MethodPost, "/api/payments/webhook", "", body)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, confirm(amount, decimal.RequireFromString("1.00")))
	wrong := decimal.RequireFromString("150.00")
	assert.Equal(t, http.StatusBadRequest, confirm(wrong, wrong))
	assert.Equal(t, http.StatusOK, confirm(amount, amount))
	assert.Equal(t, http.StatusOK, confirm(amount, amount))

	w, resp = app.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d", order.ID), app.kioskToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	paid := decodeOrder(t, resp)
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, models.PaymentMethodQRCode, paid.PaymentMethod)
	assert.Equal(t, "PP-42", paid.PaymentReference)

	w, _ = app.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d/payment/qr", order.ID), app.kioskToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	app := setupApp(t)

	w, _ := app.do(t, http.MethodGet, "/api/auth/me", app.kioskToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(t, http.MethodPost, "/api/auth/logout", app.kioskToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(t, http.MethodGet, "/api/auth/me", app.kioskToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = app.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "kiosk", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister(t *testing.T) {
	app := setupApp(t)
	body := gin.H{"username": "owner", "password": "owner-pass", "email": "owner@test.local", "restaurant_name": "Owner Diner"}

	w, _ := app.do(t, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = app.do(t, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = app.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "x", "password": "1", "email": "bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMenuManagement(t *testing.T) {
	app := setupApp(t)

	w, resp := app.do(t, http.MethodGet, "/api/menus?category=Main", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var menus []models.Menu
	require.NoError(t, json.Unmarshal(resp.Data, &menus))
	require.Len(t, menus, 1)
	assert.Equal(t, "Burger", menus[0].Name)

	newMenu := gin.H{"name": "Soup", "base_price": "25.50", "category": "Starter", "is_available": false}
	w, _ = app.do(t, http.MethodPost, "/api/menus", app.kioskToken, newMenu)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp = app.do(t, http.MethodPost, "/api/menus", app.adminToken, newMenu)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var soup models.Menu
	require.NoError(t, json.Unmarshal(resp.Data, &soup))
	assert.False(t, soup.IsAvailable)

	w, resp = app.do(t, http.MethodGet, "/api/menus?available=false", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &menus))
	require.Len(t, menus, 1)
	assert.Equal(t, soup.ID, menus[0].ID)

	w, _ = app.do(t, http.MethodDelete, fmt.Sprintf("/api/menus/%d", soup.ID), app.adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	app.createOrder(t)
	w, _ = app.do(t, http.MethodDelete, fmt.Sprintf("/api/menus/%d", app.burger.ID), app.adminToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTables(t *testing.T) {
	app := setupApp(t)

	w, _ := app.do(t, http.MethodPost, "/api/tables", app.adminToken, gin.H{"table_number": 1})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, resp := app.do(t, http.MethodGet, "/api/tables", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tables []models.Table
	require.NoError(t, json.Unmarshal(resp.Data, &tables))
	require.Len(t, tables, 1)
	path := fmt.Sprintf("/api/tables/%d", tables[0].ID)

	w, _ = app.do(t, http.MethodPatch, path, app.kioskToken, gin.H{"status": "broken"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(t, http.MethodPatch, path, app.kioskToken, gin.H{"status": "occupied"})
	require.Equal(t, http.StatusOK, w.Code)

	// A customer cannot claim a table that is already taken.
	w, _ = app.do(t, http.MethodPatch, path, app.kioskToken, gin.H{"status": "occupied"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = app.do(t, http.MethodPatch, path, app.adminToken, gin.H{"status": "occupied"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(t, http.MethodDelete, path, app.adminToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDashboard(t *testing.T) {
	app := setupApp(t)
	paid := app.createOrder(t)
	app.createOrder(t)

	w, _ := app.do(t, http.MethodPatch, fmt.Sprintf("/api/orders/%d", paid.ID), app.kioskToken, gin.H{"payment_status": "paid"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(t, http.MethodGet, "/api/admin/dashboard", app.kioskToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp := app.do(t, http.MethodGet, "/api/admin/dashboard", app.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var dash struct {
		TotalSales decimal.Decimal `json:"total_sales"`
		TopItems   []struct {
			Name          string `json:"name"`
			TotalQuantity int64  `json:"total_quantity"`
		} `json:"top_items"`
		SalesByCategory []struct {
			Category    string          `json:"category"`
			TotalAmount decimal.Decimal `json:"total_amount"`
		} `json:"sales_by_category"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &dash))
	assert.Equal(t, "160.00", dash.TotalSales.StringFixed(2))
	require.Len(t, dash.TopItems, 2)
	require.Len(t, dash.SalesByCategory, 2)
	assert.Equal(t, "Main", dash.SalesByCategory[0].Category)
	assert.Equal(t, "100.00", dash.SalesByCategory[0].TotalAmount.StringFixed(2))

	w, _ = app.do(t, http.MethodGet, "/api/admin/dashboard?month=2024-13", app.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmployees(t *testing.T) {
	app := setupApp(t)

	body := gin.H{"full_name": "Ana", "position": "Chef", "salary": "1500.00", "hire_date": "2024-03-01"}
	w, _ := app.do(t, http.MethodPost, "/api/employees", app.kioskToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp := app.do(t, http.MethodPost, "/api/employees", app.adminToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var emp models.Employee
	require.NoError(t, json.Unmarshal(resp.Data, &emp))

	w, _ = app.do(t, http.MethodPatch, fmt.Sprintf("/api/employees/%d", emp.ID), app.adminToken, gin.H{"hire_date": "03/01/2024"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(t, http.MethodDelete, fmt.Sprintf("/api/employees/%d", emp.ID), app.adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = app.do(t, http.MethodGet, fmt.Sprintf("/api/employees/%d", emp.ID), app.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
