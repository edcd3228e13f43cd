package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/config"
	"github.com/yeremiapane/restaurant-ordering/controllers"
	"github.com/yeremiapane/restaurant-ordering/kds"
	"github.com/yeremiapane/restaurant-ordering/metrics"
	"github.com/yeremiapane/restaurant-ordering/middlewares"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// SetupRouter wires every route. A RateLimitPerSecond of zero disables rate limiting.
func SetupRouter(db *gorm.DB, cfg *config.Config, blacklist utils.TokenBlacklist, hub *kds.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.MetricsMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.CorsAllowOrigins))

	strict := func(c *gin.Context) { c.Next() }
	if cfg.RateLimitPerSecond > 0 {
		r.Use(middlewares.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst).RateLimit())
		strict = middlewares.NewStrictRateLimiter().RateLimit()
	}

	orderService := services.NewOrderService(db)
	paymentService := services.NewPaymentService(db, cfg.PromptPayID, cfg.PaymentWebhookSecret)
	receiptService := services.NewReceiptService(db, orderService)
	dashboardService := services.NewDashboardService(db)

	userController := controllers.NewUserController(db, blacklist, cfg.DefaultRestaurantID)
	menuController := controllers.NewMenuController(db, hub, cfg.DefaultRestaurantID)
	tableController := controllers.NewTableController(db, hub, cfg.DefaultRestaurantID)
	orderController := controllers.NewOrderController(orderService, paymentService, hub)
	paymentController := controllers.NewPaymentController(paymentService, hub)
	receiptController := controllers.NewReceiptController(receiptService)
	employeeController := controllers.NewEmployeeController(db)
	adminController := controllers.NewAdminController(dashboardService)
	kdsController := controllers.NewKDSController(hub, cfg.CorsAllowOrigins)

	auth := middlewares.AuthMiddleware(blacklist)
	optionalAuth := middlewares.OptionalAuthMiddleware(blacklist)
	adminOnly := middlewares.RequireRole(models.RoleAdmin)

	r.GET("/health", func(c *gin.Context) {
		utils.RespondJSON(c, http.StatusOK, "ok", nil)
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", strict, userController.Register)
		authRoutes.POST("/login", strict, userController.Login)
		authRoutes.POST("/logout", auth, userController.Logout)
		authRoutes.GET("/me", auth, userController.GetProfile)
	}

	menus := api.Group("/menus")
	{
		menus.GET("", optionalAuth, menuController.GetAllMenus)
		menus.GET("/categories", optionalAuth, menuController.GetMenuCategories)
		menus.GET("/:id", optionalAuth, menuController.GetMenuByID)
		menus.GET("/:id/options", optionalAuth, menuController.GetMenuOptions)
		menus.POST("", auth, adminOnly, menuController.CreateMenu)
		menus.PATCH("/:id", auth, adminOnly, menuController.UpdateMenu)
		menus.PUT("/:id", auth, adminOnly, menuController.UpdateMenu)
		menus.DELETE("/:id", auth, adminOnly, menuController.DeleteMenu)
		menus.POST("/:id/options", auth, adminOnly, menuController.CreateMenuOption)
		menus.DELETE("/:id/options/:option_id", auth, adminOnly, menuController.DeleteMenuOption)
	}

	tables := api.Group("/tables")
	{
		tables.GET("", optionalAuth, tableController.GetAllTables)
		tables.PATCH("/:id", auth, tableController.UpdateTableStatus)
		tables.POST("", auth, adminOnly, tableController.CreateTable)
		tables.DELETE("/:id", auth, adminOnly, tableController.DeleteTable)
	}

	orders := api.Group("/orders", auth)
	{
		orders.POST("", orderController.CreateOrder)
		orders.GET("", adminOnly, orderController.GetAllOrders)
		orders.GET("/:id", orderController.GetOrderByID)
		orders.GET("/:id/items", orderController.GetOrderItems)
		orders.PATCH("/:id", orderController.UpdateOrder)
		orders.PUT("/:id", orderController.UpdateOrder)
		orders.DELETE("/:id", adminOnly, orderController.DeleteOrder)
		orders.GET("/:id/payment/qr", paymentController.GetQRCode)
		orders.GET("/:id/payments", paymentController.GetOrderPayments)
		orders.GET("/:id/receipt", receiptController.GetReceipt)
	}

	// Called by the payment provider, authenticated by signature.
	api.POST("/payments/webhook", paymentController.Webhook)

	employees := api.Group("/employees", auth, adminOnly)
	{
		employees.GET("", employeeController.GetAllEmployees)
		employees.GET("/:id", employeeController.GetEmployeeByID)
		employees.POST("", employeeController.CreateEmployee)
		employees.PATCH("/:id", employeeController.UpdateEmployee)
		employees.PUT("/:id", employeeController.UpdateEmployee)
		employees.DELETE("/:id", employeeController.DeleteEmployee)
	}

	admin := api.Group("/admin", auth, adminOnly)
	{
		admin.GET("/dashboard", adminController.GetDashboard)
	}

	r.GET("/ws/events", auth, adminOnly, kdsController.Events)

	return r
}
