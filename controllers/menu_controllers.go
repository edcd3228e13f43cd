package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/kds"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type MenuController struct {
	DB                  *gorm.DB
	Hub                 *kds.Hub
	DefaultRestaurantID uint
}

func NewMenuController(db *gorm.DB, hub *kds.Hub, defaultRestaurantID uint) *MenuController {
	return &MenuController{DB: db, Hub: hub, DefaultRestaurantID: defaultRestaurantID}
}

// readRestaurantID scopes public reads: the caller's restaurant when a token
// was presented, otherwise the default one.
func (mc *MenuController) readRestaurantID(c *gin.Context) uint {
	if id := restaurantID(c); id != 0 {
		return id
	}
	return mc.DefaultRestaurantID
}

// GetAllMenus lists menus, optionally filtered by category and availability.
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	query := mc.DB.WithContext(c.Request.Context()).
		Where("restaurant_id = ?", mc.readRestaurantID(c)).
		Order("category ASC").Order("name ASC")

	if category := strings.TrimSpace(c.Query("category")); category != "" && !strings.EqualFold(category, "all") {
		query = query.Where("category = ?", category)
	}
	if available := c.Query("available"); available != "" {
		v, err := strconv.ParseBool(available)
		if err != nil {
			utils.RespondAppError(c, utils.ValidationError("available must be true or false"))
			return
		}
		query = query.Where("is_available = ?", v)
	}

	var menus []models.Menu
	if err := query.Find(&menus).Error; err != nil {
		utils.RespondAppError(c, utils.InternalError("failed to list menus", err))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of menus", menus)
}

// GetMenuCategories lists the distinct categories in use.
func (mc *MenuController) GetMenuCategories(c *gin.Context) {
	categories := []string{}
	if err := mc.DB.WithContext(c.Request.Context()).Model(&models.Menu{}).
		Where("restaurant_id = ? AND category <> ''", mc.readRestaurantID(c)).
		Distinct().Order("category ASC").
		Pluck("category", &categories).Error; err != nil {
		utils.RespondAppError(c, utils.InternalError("failed to list categories", err))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of categories", categories)
}

func (mc *MenuController) GetMenuByID(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var menu models.Menu
	if err := mc.DB.WithContext(c.Request.Context()).Preload("Options").
		Where("id = ? AND restaurant_id = ?", id, mc.readRestaurantID(c)).
		First(&menu).Error; err != nil {
		utils.RespondAppError(c, utils.NotFoundOr(err, "menu"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu detail", menu)
}

type menuRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	BasePrice   *decimal.Decimal `json:"base_price"`
	Category    *string          `json:"category"`
	ImageURL    *string          `json:"image_url"`
	IsAvailable *bool            `json:"is_available"`
}

func (r *menuRequest) validate(creating bool) error {
	if creating && (r.Name == nil || strings.TrimSpace(*r.Name) == "") {
		return utils.ValidationError("name is required")
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return utils.ValidationError("name must not be empty")
	}
	if creating && r.BasePrice == nil {
		return utils.ValidationError("base_price is required")
	}
	if r.BasePrice != nil && r.BasePrice.IsNegative() {
		return utils.ValidationError("base_price must not be negative")
	}
	return nil
}

func (r *menuRequest) apply(menu *models.Menu) {
	if r.Name != nil {
		menu.Name = strings.TrimSpace(*r.Name)
	}
	if r.Description != nil {
		menu.Description = *r.Description
	}
	if r.BasePrice != nil {
		menu.BasePrice = utils.Round2(*r.BasePrice)
	}
	if r.Category != nil {
		menu.Category = strings.TrimSpace(*r.Category)
	}
	if r.ImageURL != nil {
		menu.ImageURL = *r.ImageURL
	}
	if r.IsAvailable != nil {
		menu.IsAvailable = *r.IsAvailable
	}
}

func (mc *MenuController) CreateMenu(c *gin.Context) {
	var req menuRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	if err := req.validate(true); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	menu := models.Menu{RestaurantID: restaurantID(c), IsAvailable: true}
	req.apply(&menu)

	available := menu.IsAvailable
	err := mc.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&menu).Error; err != nil {
			return err
		}
		// gorm substitutes the column default for a false bool on insert.
		if !available {
			menu.IsAvailable = false
			return tx.Model(&menu).Update("is_available", false).Error
		}
		return nil
	})
	if err != nil {
		utils.RespondAppError(c, utils.InternalError("failed to create menu", err))
		return
	}

	mc.Hub.MenuUpdate(menu)
	utils.RespondJSON(c, http.StatusCreated, "Menu created", menu)
}

func (mc *MenuController) UpdateMenu(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var req menuRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	if err := req.validate(false); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var menu models.Menu
	if err := mc.DB.WithContext(c.Request.Context()).
		Where("id = ? AND restaurant_id = ?", id, restaurantID(c)).First(&menu).Error; err != nil {
		utils.RespondAppError(c, utils.NotFoundOr(err, "menu"))
		return
	}

	req.apply(&menu)
	if err := mc.DB.WithContext(c.Request.Context()).Save(&menu).Error; err != nil {
		utils.RespondAppError(c, utils.InternalError("failed to update menu", err))
		return
	}

	mc.Hub.MenuUpdate(menu)
	utils.RespondJSON(c, http.StatusOK, "Menu updated", menu)
}

// DeleteMenu removes a menu and its options. Menus that appear on orders are kept.
func (mc *MenuController) DeleteMenu(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	err = mc.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var menu models.Menu
		if err := tx.Where("id = ? AND restaurant_id = ?", id, restaurantID(c)).First(&menu).Error; err != nil {
			return utils.NotFoundOr(err, "menu")
		}

		var used int64
		if err := tx.Model(&models.OrderItem{}).Where("menu_id = ?", id).Count(&used).Error; err != nil {
			return utils.InternalError("failed to check menu usage", err)
		}
		if used > 0 {
			return utils.ConflictError("menu %d is referenced by existing orders; mark it unavailable instead", id)
		}

		if err := tx.Where("menu_id = ?", id).Delete(&models.MenuOption{}).Error; err != nil {
			return utils.InternalError("failed to delete menu options", err)
		}
		if err := tx.Delete(&menu).Error; err != nil {
			return utils.InternalError("failed to delete menu", err)
		}
		return nil
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu deleted", nil)
}

func (mc *MenuController) GetMenuOptions(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var menu models.Menu
	if err := mc.DB.WithContext(c.Request.Context()).Preload("Options").
		Where("id = ? AND restaurant_id = ?", id, mc.readRestaurantID(c)).First(&menu).Error; err != nil {
		utils.RespondAppError(c, utils.NotFoundOr(err, "menu"))
		return
	}

	options := menu.Options
	if options == nil {
		options = []models.MenuOption{}
	}
	utils.RespondJSON(c, http.StatusOK, "Menu options", options)
}

func (mc *MenuController) CreateMenuOption(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var req struct {
		OptionGroupName string          `json:"option_group_name" binding:"required"`
		OptionType      string          `json:"option_type"`
		OptionName      string          `json:"option_name" binding:"required"`
		PriceAdjustment decimal.Decimal `json:"price_adjustment"`
	}
	if err := bindJSON(c, &req); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	if req.OptionType == "" {
		req.OptionType = models.OptionSingleChoice
	}
	if !models.ValidOptionType(req.OptionType) {
		utils.RespondAppError(c, utils.ValidationError("option_type must be single_choice or multiple_choice"))
		return
	}

	var menu models.Menu
	if err := mc.DB.WithContext(c.Request.Context()).
		Where("id = ? AND restaurant_id = ?", id, restaurantID(c)).First(&menu).Error; err != nil {
		utils.RespondAppError(c, utils.NotFoundOr(err, "menu"))
		return
	}

	option := models.MenuOption{
		MenuID:          menu.ID,
		OptionGroupName: req.OptionGroupName,
		OptionType:      req.OptionType,
		OptionName:      req.OptionName,
		PriceAdjustment: utils.Round2(req.PriceAdjustment),
	}
	if err := mc.DB.WithContext(c.Request.Context()).Create(&option).Error; err != nil {
		utils.RespondAppError(c, utils.InternalError("failed to create menu option", err))
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Menu option created", option)
}

func (mc *MenuController) DeleteMenuOption(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	optionID, err := parseID(c, "option_id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var menu models.Menu
	if err := mc.DB.WithContext(c.Request.Context()).
		Where("id = ? AND restaurant_id = ?", id, restaurantID(c)).First(&menu).Error; err != nil {
		utils.RespondAppError(c, utils.NotFoundOr(err, "menu"))
		return
	}

	res := mc.DB.WithContext(c.Request.Context()).
		Where("id = ? AND menu_id = ?", optionID, menu.ID).Delete(&models.MenuOption{})
	if res.Error != nil {
		utils.RespondAppError(c, utils.InternalError("failed to delete menu option", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondAppError(c, notFound("menu option", optionID))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu option deleted", nil)
}
