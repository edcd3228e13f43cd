package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/middlewares"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, utils.ValidationError("invalid %s", name)
	}
	return uint(id), nil
}

func restaurantID(c *gin.Context) uint {
	if v, ok := c.Get(middlewares.ContextRestaurantID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

func userID(c *gin.Context) uint {
	if v, ok := c.Get(middlewares.ContextUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

func isAdmin(c *gin.Context) bool {
	return c.GetString(middlewares.ContextRole) == models.RoleAdmin
}

func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return utils.ValidationError("invalid request body: %s", err.Error())
	}
	return nil
}

func notFound(what string, id uint) error {
	return utils.NotFoundError("%s %d not found", what, id)
}
