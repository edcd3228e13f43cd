package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/kds"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/payment"
	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type PaymentController struct {
	Payments *services.PaymentService
	Hub      *kds.Hub
}

func NewPaymentController(payments *services.PaymentService, hub *kds.Hub) *PaymentController {
	return &PaymentController{Payments: payments, Hub: hub}
}

// GetQRCode returns the PromptPay QR for an unpaid order.
func (pc *PaymentController) GetQRCode(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	qr, err := pc.Payments.QRCode(c.Request.Context(), restaurantID(c), id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "QR code", qr)
}

// GetOrderPayments lists recorded payments of an order.
func (pc *PaymentController) GetOrderPayments(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	payments, err := pc.Payments.Payments(c.Request.Context(), restaurantID(c), id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	if payments == nil {
		payments = []models.Payment{}
	}

	utils.RespondJSON(c, http.StatusOK, "Order payments", payments)
}

// Webhook receives settlement notices from the QR payment provider.
func (pc *PaymentController) Webhook(c *gin.Context) {
	var conf payment.Confirmation
	if err := bindJSON(c, &conf); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	res, err := pc.Payments.ConfirmWebhook(c.Request.Context(), conf)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	if res.Changed {
		pc.Hub.PaymentPaid(*res.Order)
	}

	utils.RespondJSON(c, http.StatusOK, "Payment confirmed", gin.H{
		"order_id":       res.Order.ID,
		"payment_status": res.Order.PaymentStatus,
	})
}
