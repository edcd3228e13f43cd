package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

const hireDateLayout = "2006-01-02"

type EmployeeController struct {
	DB *gorm.DB
}

func NewEmployeeController(db *gorm.DB) *EmployeeController {
	return &EmployeeController{DB: db}
}

type employeeRequest struct {
	FullName    *string          `json:"full_name"`
	Position    *string          `json:"position"`
	PhoneNumber *string          `json:"phone_number"`
	Salary      *decimal.Decimal `json:"salary"`
	HireDate    *string          `json:"hire_date"`
}

func (r *employeeRequest) apply(e *models.Employee, creating bool) error {
	if creating && (r.FullName == nil || strings.TrimSpace(*r.FullName) == "") {
		return utils.ValidationError("full_name is required")
	}
	if r.FullName != nil {
		if strings.TrimSpace(*r.FullName) == "" {
			return utils.ValidationError("full_name must not be empty")
		}
		e.FullName = strings.TrimSpace(*r.FullName)
	}
	if r.Position != nil {
		e.Position = *r.Position
	}
	if r.PhoneNumber != nil {
		e.PhoneNumber = *r.PhoneNumber
	}
	if r.Salary != nil {
		if r.Salary.IsNegative() {
			return utils.ValidationError("salary must not be negative")
		}
		e.Salary = utils.Round2(*r.Salary)
	}
	if r.HireDate != nil {
		if *r.HireDate == "" {
			e.HireDate = nil
		} else {
			d, err := time.Parse(hireDateLayout, *r.HireDate)
			if err != nil {
				return utils.ValidationError("hire_date must be YYYY-MM-DD")
			}
			e.HireDate = &d
		}
	}
	return nil
}

func (ec *EmployeeController) GetAllEmployees(c *gin.Context) {
	employees := []models.Employee{}
	if err := ec.DB.WithContext(c.Request.Context()).Where("restaurant_id = ?", restaurantID(c)).
		Order("full_name ASC").Find(&employees).Error; err != nil {
		utils.RespondAppError(c, utils.InternalError("failed to list employees", err))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of employees", employees)
}

func (ec *EmployeeController) GetEmployeeByID(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var employee models.Employee
	if err := ec.DB.WithContext(c.Request.Context()).
		Where("id = ? AND restaurant_id = ?", id, restaurantID(c)).First(&employee).Error; err != nil {
		utils.RespondAppError(c, utils.NotFoundOr(err, "employee"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Employee detail", employee)
}

func (ec *EmployeeController) CreateEmployee(c *gin.Context) {
	var req employeeRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	employee := models.Employee{RestaurantID: restaurantID(c)}
	if err := req.apply(&employee, true); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	if err := ec.DB.WithContext(c.Request.Context()).Create(&employee).Error; err != nil {
		utils.RespondAppError(c, utils.InternalError("failed to create employee", err))
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Employee created", employee)
}

func (ec *EmployeeController) UpdateEmployee(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var req employeeRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var employee models.Employee
	if err := ec.DB.WithContext(c.Request.Context()).
		Where("id = ? AND restaurant_id = ?", id, restaurantID(c)).First(&employee).Error; err != nil {
		utils.RespondAppError(c, utils.NotFoundOr(err, "employee"))
		return
	}

	if err := req.apply(&employee, false); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	if err := ec.DB.WithContext(c.Request.Context()).Save(&employee).Error; err != nil {
		utils.RespondAppError(c, utils.InternalError("failed to update employee", err))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Employee updated", employee)
}

func (ec *EmployeeController) DeleteEmployee(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	res := ec.DB.WithContext(c.Request.Context()).
		Where("id = ? AND restaurant_id = ?", id, restaurantID(c)).Delete(&models.Employee{})
	if res.Error != nil {
		utils.RespondAppError(c, utils.InternalError("failed to delete employee", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondAppError(c, notFound("employee", id))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Employee deleted", nil)
}
