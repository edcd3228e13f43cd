package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type AdminController struct {
	Dashboard *services.DashboardService
}

func NewAdminController(dashboard *services.DashboardService) *AdminController {
	return &AdminController{Dashboard: dashboard}
}

// GetDashboard returns total sales, top items and sales by category of paid
// orders, for ?month=YYYY-MM or all time.
func (ac *AdminController) GetDashboard(c *gin.Context) {
	summary, err := ac.Dashboard.Summary(c.Request.Context(), restaurantID(c), c.Query("month"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard data", summary)
}
