// Package client talks to the ordering API on behalf of a kiosk or an admin
// screen and implements the customer checkout and payment workflow.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yeremiapane/restaurant-ordering/models"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, session *Session, opts ...Option) *Client {
	if session == nil {
		session = NewSession(nil)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		session:    session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *Session {
	return c.session
}

// do sends a JSON request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// Login authenticates and stores the credentials in the session.
func (c *Client) Login(ctx context.Context, username, password string) (*Credentials, error) {
	var creds Credentials
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &creds); err != nil {
		return nil, err
	}
	if err := c.session.Save(&creds); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &creds, nil
}

// Logout revokes the token on the server and always clears the local session.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	if clearErr := c.session.Clear(); clearErr != nil && err == nil {
		err = clearErr
	}
	if IsUnauthorized(err) {
		return nil
	}
	return err
}

// Menus lists menus. An empty category or "All" lists every category.
func (c *Client) Menus(ctx context.Context, category string) ([]models.Menu, error) {
	path := "/api/menus"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var menus []models.Menu
	if err := c.do(ctx, http.MethodGet, path, nil, &menus); err != nil {
		return nil, err
	}
	return menus, nil
}

func (c *Client) Tables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := c.do(ctx, http.MethodGet, "/api/tables", nil, &tables); err != nil {
		return nil, err
	}
	return tables, nil
}

func (c *Client) SetTableStatus(ctx context.Context, tableID uint, status string) (*models.Table, error) {
	var table models.Table
	body := map[string]string{"status": status}
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/tables/%d", tableID), body, &table); err != nil {
		return nil, err
	}
	return &table, nil
}

type OrderItemRequest struct {
	MenuID       uint            `json:"menu_id"`
	Quantity     int             `json:"quantity"`
	PriceAtOrder decimal.Decimal `json:"price_at_order"`
	Notes        string          `json:"notes"`
}

type OrderRequest struct {
	TableNumber   int                `json:"table_number"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	Status        string             `json:"status"`
	PaymentStatus string             `json:"payment_status"`
	Items         []OrderItemRequest `json:"items"`
}

// CreateOrder submits an order and returns its id.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (uint, error) {
	var out struct {
		OrderID uint `json:"order_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &out); err != nil {
		return 0, err
	}
	return out.OrderID, nil
}

func (c *Client) Order(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Orders lists the restaurant's orders, newest first. Admin only.
func (c *Client) Orders(ctx context.Context, status string) ([]models.Order, error) {
	path := "/api/orders"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, path, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkPaid records payment of an order. Repeating it is harmless.
func (c *Client) MarkPaid(ctx context.Context, orderID uint, method string) (*models.Order, error) {
	var order models.Order
	body := map[string]string{"payment_status": models.PaymentStatusPaid, "payment_method": method}
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/orders/%d", orderID), body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

type QRCode struct {
	OrderID    uint            `json:"order_id"`
	Amount     decimal.Decimal `json:"amount"`
	Payee      string          `json:"payee"`
	QRImageURL string          `json:"qr_image_url"`
}

func (c *Client) QRCode(ctx context.Context, orderID uint) (*QRCode, error) {
	var qr QRCode
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/orders/%d/payment/qr", orderID), nil, &qr); err != nil {
		return nil, err
	}
	return &qr, nil
}

// UpdateOrderStatus applies an admin status change.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID uint, status string) (*models.Order, error) {
	var order models.Order
	body := map[string]string{"status": status}
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/orders/%d", orderID), body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
