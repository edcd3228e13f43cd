package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/kds"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type TableController struct {
	DB                  *gorm.DB
	Hub                 *kds.Hub
	DefaultRestaurantID uint
}

func NewTableController(db *gorm.DB, hub *kds.Hub, defaultRestaurantID uint) *TableController {
	return &TableController{DB: db, Hub: hub, DefaultRestaurantID: defaultRestaurantID}
}

// GetAllTables lists tables by number, for the caller's restaurant or the default one.
func (tc *TableController) GetAllTables(c *gin.Context) {
	rid := restaurantID(c)
	if rid == 0 {
		rid = tc.DefaultRestaurantID
	}

	tables := []models.Table{}
	if err := tc.DB.WithContext(c.Request.Context()).Where("restaurant_id = ?", rid).
		Order("table_number ASC").Find(&tables).Error; err != nil {
		utils.RespondAppError(c, utils.InternalError("failed to list tables", err))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// CreateTable adds a table. Numbers are unique within a restaurant.
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		TableNumber int `json:"table_number" binding:"required,min=1"`
		Capacity    int `json:"capacity"`
	}
	if err := bindJSON(c, &req); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	if req.Capacity < 0 {
		utils.RespondAppError(c, utils.ValidationError("capacity must not be negative"))
		return
	}

	rid := restaurantID(c)
	var count int64
	if err := tc.DB.WithContext(c.Request.Context()).Model(&models.Table{}).
		Where("restaurant_id = ? AND table_number = ?", rid, req.TableNumber).Count(&count).Error; err != nil {
		utils.RespondAppError(c, utils.InternalError("failed to check table number", err))
		return
	}
	if count > 0 {
		utils.RespondAppError(c, utils.ConflictError("table %d already exists", req.TableNumber))
		return
	}

	table := models.Table{
		RestaurantID: rid,
		TableNumber:  req.TableNumber,
		Status:       models.TableFree,
		Capacity:     req.Capacity,
	}
	if err := tc.DB.WithContext(c.Request.Context()).Create(&table).Error; err != nil {
		utils.RespondAppError(c, utils.InternalError("failed to create table", err))
		return
	}

	tc.Hub.TableCreate(table)
	utils.InfoLogger.WithField("table_number", table.TableNumber).Info("table created")
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// UpdateTableStatus sets a table free or occupied. Customers can only occupy a
// free table; admins may set either status at any time.
func (tc *TableController) UpdateTableStatus(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := bindJSON(c, &req); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	if !models.ValidTableStatus(req.Status) {
		utils.RespondAppError(c, utils.ValidationError("status must be free or occupied"))
		return
	}

	var table models.Table
	if err := tc.DB.WithContext(c.Request.Context()).
		Where("id = ? AND restaurant_id = ?", id, restaurantID(c)).First(&table).Error; err != nil {
		utils.RespondAppError(c, utils.NotFoundOr(err, "table"))
		return
	}

	query := tc.DB.WithContext(c.Request.Context()).Model(&models.Table{}).Where("id = ?", table.ID)
	claimsTable := req.Status == models.TableOccupied && !isAdmin(c)
	if claimsTable {
		// Two kiosks racing for one table: only the first claim matches.
		query = query.Where("status = ?", models.TableFree)
	}
	res := query.Updates(map[string]interface{}{"status": req.Status, "updated_at": time.Now()})
	if res.Error != nil {
		utils.RespondAppError(c, utils.InternalError("failed to update table", res.Error))
		return
	}
	if claimsTable && res.RowsAffected == 0 {
		utils.RespondAppError(c, utils.ConflictError("table %d is already occupied", table.TableNumber))
		return
	}
	table.Status = req.Status

	tc.Hub.TableUpdate(table)
	utils.RespondJSON(c, http.StatusOK, "Table status updated", table)
}

func (tc *TableController) DeleteTable(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var table models.Table
	if err := tc.DB.WithContext(c.Request.Context()).
		Where("id = ? AND restaurant_id = ?", id, restaurantID(c)).First(&table).Error; err != nil {
		utils.RespondAppError(c, utils.NotFoundOr(err, "table"))
		return
	}
	if table.Status == models.TableOccupied {
		utils.RespondAppError(c, utils.ConflictError("table %d is occupied", table.TableNumber))
		return
	}

	if err := tc.DB.WithContext(c.Request.Context()).Delete(&table).Error; err != nil {
		utils.RespondAppError(c, utils.InternalError("failed to delete table", err))
		return
	}

	tc.Hub.TableDelete(table)
	utils.RespondJSON(c, http.StatusOK, "Table deleted successfully", nil)
}
