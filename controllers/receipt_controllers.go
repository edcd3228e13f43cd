package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type ReceiptController struct {
	Receipts *services.ReceiptService
}

func NewReceiptController(receipts *services.ReceiptService) *ReceiptController {
	return &ReceiptController{Receipts: receipts}
}

// GetReceipt streams the PDF receipt of a paid order.
func (rc *ReceiptController) GetReceipt(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	pdf, err := rc.Receipts.Render(c.Request.Context(), restaurantID(c), id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="receipt-%d.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
