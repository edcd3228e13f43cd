package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/restaurant-ordering/config"
	"github.com/yeremiapane/restaurant-ordering/database"
	"github.com/yeremiapane/restaurant-ordering/kds"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/router"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

const (
	testPayee         = "0812345678"
	testWebhookSecret = "test-webhook-secret"
)

const testSeed = `
restaurant:
  name: Test Bistro
  email: bistro@test.local
admin:
  username: admin
  password: admin-pass
  email: admin@test.local
kiosk:
  username: kiosk
  password: kiosk-pass
tables:
  - table_number: 1
    capacity: 4
  - table_number: 2
    capacity: 2
menus:
  - name: Burger
    base_price: "50.00"
    category: Main
  - name: Salad
    base_price: "30.00"
    category: Starter
  - name: Lobster
    base_price: "99.00"
    category: Main
    is_available: false
`

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB

	// orderReads counts GET /api/orders/:id requests.
	orderReads int32
}

func (e *testEnv) orderReadCount() int32 {
	return atomic.LoadInt32(&e.orderReads)
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.InitJWT("client-test-secret", time.Hour)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	seed, err := database.ParseSeed([]byte(testSeed))
	require.NoError(t, err)
	res, err := database.Seed(db, seed)
	require.NoError(t, err)

	cfg := &config.Config{
		DefaultRestaurantID:  res.RestaurantID,
		PromptPayID:          testPayee,
		PaymentWebhookSecret: testWebhookSecret,
	}
	r := router.SetupRouter(db, cfg, utils.NewMemoryBlacklist(), kds.NewHub())
	env := &testEnv{db: db}
	env.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodGet && strings.HasPrefix(req.URL.Path, "/api/orders/") {
			atomic.AddInt32(&env.orderReads, 1)
		}
		r.ServeHTTP(w, req)
	}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		env.server.Close()
		sqlDB.Close()
	})
	return env
}

func (e *testEnv) login(t *testing.T, username, password string) *Client {
	t.Helper()
	c := New(e.server.URL, NewSession(NewMemoryStore()))
	_, err := c.Login(context.Background(), username, password)
	require.NoError(t, err)
	return c
}

func (e *testEnv) kiosk(t *testing.T) *Client {
	return e.login(t, "kiosk", "kiosk-pass")
}

func (e *testEnv) admin(t *testing.T) *Client {
	return e.login(t, "admin", "admin-pass")
}

func menuByName(t *testing.T, menus []models.Menu, name string) models.Menu {
	t.Helper()
	for _, m := range menus {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("menu %q not found", name)
	return models.Menu{}
}
