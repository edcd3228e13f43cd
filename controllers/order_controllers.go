package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/kds"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type OrderController struct {
	Orders   *services.OrderService
	Payments *services.PaymentService
	Hub      *kds.Hub
}

func NewOrderController(orders *services.OrderService, payments *services.PaymentService, hub *kds.Hub) *OrderController {
	return &OrderController{Orders: orders, Payments: payments, Hub: hub}
}

// CreateOrder places an order with its items for the caller's restaurant.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req services.CreateOrderInput
	if err := bindJSON(c, &req); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	order, err := oc.Orders.Create(c.Request.Context(), restaurantID(c), req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	oc.Hub.OrderCreated(*order)
	utils.RespondJSON(c, http.StatusCreated, "Order created", gin.H{
		"order_id": order.ID,
		"order":    order,
	})
}

// GetAllOrders lists orders newest first. Supports ?status=&page=&limit=.
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	orders, total, err := oc.Orders.List(c.Request.Context(), restaurantID(c), services.OrderFilter{
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	c.Header("X-Total-Count", strconv.FormatInt(total, 10))
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	order, err := oc.Orders.Get(c.Request.Context(), restaurantID(c), id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

func (oc *OrderController) GetOrderItems(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	items, err := oc.Orders.Items(c.Request.Context(), restaurantID(c), id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	if items == nil {
		items = []models.OrderItem{}
	}

	utils.RespondJSON(c, http.StatusOK, "Order items", items)
}

type updateOrderRequest struct {
	Status           *string `json:"status"`
	PaymentStatus    *string `json:"payment_status"`
	PaymentMethod    string  `json:"payment_method"`
	PaymentReference string  `json:"payment_reference"`
}

// UpdateOrder changes either an order's status (admins only) or its payment status.
func (oc *OrderController) UpdateOrder(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var req updateOrderRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	if req.Status == nil && req.PaymentStatus == nil {
		utils.RespondAppError(c, utils.ValidationError("status or payment_status is required"))
		return
	}
	// Each change commits on its own, so a combined body could fail half way.
	if req.Status != nil && req.PaymentStatus != nil {
		utils.RespondAppError(c, utils.ValidationError("send status and payment_status in separate requests"))
		return
	}
	if req.Status != nil && !isAdmin(c) {
		utils.RespondAppError(c, utils.ForbiddenError("only admins can change order status"))
		return
	}
	if req.PaymentStatus != nil && !models.ValidPaymentStatus(*req.PaymentStatus) {
		utils.RespondAppError(c, utils.ValidationError("payment_status must be paid or unpaid"))
		return
	}

	ctx := c.Request.Context()
	rid := restaurantID(c)
	var order *models.Order

	if req.Status != nil {
		order, err = oc.Orders.UpdateStatus(ctx, rid, id, *req.Status)
		if err != nil {
			utils.RespondAppError(c, err)
			return
		}
		oc.Hub.OrderStatus(*order)
	}

	if req.PaymentStatus != nil {
		switch *req.PaymentStatus {
		case models.PaymentStatusPaid:
			confirmedBy := userID(c)
			res, err := oc.Payments.MarkPaid(ctx, rid, id, req.PaymentMethod, req.PaymentReference, &confirmedBy)
			if err != nil {
				utils.RespondAppError(c, err)
				return
			}
			if res.Changed {
				oc.Hub.PaymentPaid(*res.Order)
			}
			order = res.Order
		case models.PaymentStatusUnpaid:
			order, err = oc.Payments.MarkUnpaid(ctx, rid, id)
			if err != nil {
				utils.RespondAppError(c, err)
				return
			}
		}
	}

	utils.RespondJSON(c, http.StatusOK, "Order updated", order)
}

func (oc *OrderController) DeleteOrder(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	rid := restaurantID(c)
	if err := oc.Orders.Delete(c.Request.Context(), rid, id); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	oc.Hub.OrderDeleted(rid, id)
	utils.RespondJSON(c, http.StatusOK, "Order deleted", nil)
}
