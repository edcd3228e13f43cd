package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/middlewares"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type UserController struct {
	DB                  *gorm.DB
	Blacklist           utils.TokenBlacklist
	DefaultRestaurantID uint
}

func NewUserController(db *gorm.DB, blacklist utils.TokenBlacklist, defaultRestaurantID uint) *UserController {
	return &UserController{DB: db, Blacklist: blacklist, DefaultRestaurantID: defaultRestaurantID}
}

type registerRequest struct {
	Username       string `json:"username" binding:"required,min=3,max=100"`
	Password       string `json:"password" binding:"required,min=6"`
	Email          string `json:"email" binding:"required,email"`
	Role           string `json:"role"`
	RestaurantID   uint   `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	Address        string `json:"address"`
	PhoneNumber    string `json:"phone_number"`
}

// Register creates an admin together with a new restaurant, or a customer
// (kiosk) account attached to an existing restaurant.
func (uc *UserController) Register(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Role == "" {
		req.Role = models.RoleAdmin
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleCustomer {
		utils.RespondAppError(c, utils.ValidationError("role must be admin or customer"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondAppError(c, utils.InternalError("failed to hash password", err))
		return
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
		Role:     req.Role,
	}

	err = uc.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return utils.ConflictError("username already exists")
		}

		if req.Role == models.RoleCustomer {
			id := req.RestaurantID
			if id == 0 {
				id = uc.DefaultRestaurantID
			}
			var restaurant models.Restaurant
			if err := tx.First(&restaurant, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return utils.ValidationError("restaurant %d does not exist", id)
				}
				return err
			}
			user.RestaurantID = restaurant.ID
			return tx.Create(&user).Error
		}

		if err := tx.Model(&models.Restaurant{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return utils.ConflictError("email already exists")
		}

		name := req.RestaurantName
		if name == "" {
			name = fmt.Sprintf("%s's restaurant", req.Username)
		}
		restaurant := models.Restaurant{
			Name:        name,
			Address:     req.Address,
			PhoneNumber: req.PhoneNumber,
			Email:       req.Email,
		}
		if err := tx.Create(&restaurant).Error; err != nil {
			return err
		}
		user.RestaurantID = restaurant.ID
		return tx.Create(&user).Error
	})
	if err != nil {
		var appErr *utils.AppError
		if !errors.As(err, &appErr) {
			err = utils.InternalError("failed to register user", err)
		}
		utils.RespondAppError(c, err)
		return
	}

	utils.InfoLogger.WithField("username", user.Username).WithField("role", user.Role).Info("user registered")

	utils.RespondJSON(c, http.StatusCreated, "User registered", gin.H{
		"user_id":       user.ID,
		"username":      user.Username,
		"role":          user.Role,
		"restaurant_id": user.RestaurantID,
	})
}

// Login checks credentials and returns a bearer token.
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := bindJSON(c, &input); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var user models.User
	if err := uc.DB.WithContext(c.Request.Context()).Where("username = ?", strings.TrimSpace(input.Username)).
		First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, user.RestaurantID)
	if err != nil {
		utils.RespondAppError(c, utils.InternalError("failed to issue token", err))
		return
	}

	utils.InfoLogger.WithField("username", user.Username).Info("login successful")

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":         token,
		"username":      user.Username,
		"role":          user.Role,
		"is_customer":   user.IsCustomer(),
		"restaurant_id": user.RestaurantID,
	})
}

// Logout revokes the caller's token until it would have expired anyway.
func (uc *UserController) Logout(c *gin.Context) {
	claims, ok := middlewares.Claims(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	if uc.Blacklist != nil {
		if err := uc.Blacklist.Add(c.Request.Context(), c.GetString(middlewares.ContextToken), claims.Expiry()); err != nil {
			utils.RespondAppError(c, utils.InternalError("failed to revoke token", err))
			return
		}
	}

	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

// GetProfile returns the caller's account.
func (uc *UserController) GetProfile(c *gin.Context) {
	var user models.User
	if err := uc.DB.WithContext(c.Request.Context()).First(&user, userID(c)).Error; err != nil {
		utils.RespondAppError(c, utils.NotFoundOr(err, "user"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", gin.H{
		"id":            user.ID,
		"username":      user.Username,
		"email":         user.Email,
		"role":          user.Role,
		"is_customer":   user.IsCustomer(),
		"restaurant_id": user.RestaurantID,
	})
}
