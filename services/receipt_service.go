package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type ReceiptService struct {
	db     *gorm.DB
	orders *OrderService
}

func NewReceiptService(db *gorm.DB, orders *OrderService) *ReceiptService {
	return &ReceiptService{db: db, orders: orders}
}

// Render builds a PDF receipt for a paid order.
func (s *ReceiptService) Render(ctx context.Context, restaurantID, orderID uint) ([]byte, error) {
	order, err := s.orders.Get(ctx, restaurantID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsPaid() {
		return nil, utils.ConflictError("order %d is not paid yet", orderID)
	}

	var restaurant models.Restaurant
	if err := s.db.WithContext(ctx).First(&restaurant, restaurantID).Error; err != nil {
		return nil, utils.NotFoundOr(err, "restaurant")
	}

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetTitle(fmt.Sprintf("Receipt %s", order.Reference()), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, restaurant.Name, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if restaurant.Address != "" {
		pdf.CellFormat(0, 5, restaurant.Address, "", 1, "C", false, 0, "")
	}
	if restaurant.PhoneNumber != "" {
		pdf.CellFormat(0, 5, restaurant.PhoneNumber, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Receipt: "+order.Reference(), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Table: %d", order.TableNumber), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Ordered: "+order.OrderTime.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	if order.PaidAt != nil {
		pdf.CellFormat(0, 6, "Paid: "+order.PaidAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, "Method: "+order.PaymentMethod, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(64, 7, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(14, 7, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(25, 7, "Price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(25, 7, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range order.Items {
		pdf.CellFormat(64, 6, item.MenuName, "", 0, "L", false, 0, "")
		pdf.CellFormat(14, 6, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, utils.FormatCurrency(item.PriceAtOrder), "", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, utils.FormatCurrency(utils.Round2(item.Subtotal())), "", 1, "R", false, 0, "")
		if item.Notes != "" {
			pdf.SetFont("Helvetica", "I", 8)
			pdf.CellFormat(0, 5, "  "+item.Notes, "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
		}
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(103, 8, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(25, 8, utils.FormatCurrency(order.TotalAmount), "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, utils.InternalError("failed to render receipt", err)
	}
	return buf.Bytes(), nil
}
