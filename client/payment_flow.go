package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/payment"
)

type PaymentState int

const (
	NoMethodChosen PaymentState = iota
	MethodChosen
	Confirming
	Success
	Failed
)

func (s PaymentState) String() string {
	switch s {
	case NoMethodChosen:
		return "no_method_chosen"
	case MethodChosen:
		return "method_chosen"
	case Confirming:
		return "confirming"
	case Success:
		return "success"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("PaymentState(%d)", int(s))
}

var (
	ErrOrderUnavailable    = errors.New("order could not be loaded")
	ErrPaymentNotConfirmed = errors.New("payment was not confirmed in time")
	ErrInvalidState        = errors.New("action not allowed in current payment state")
	ErrUnknownMethod       = errors.New("unknown payment method")
)

// PollPolicy bounds how long AwaitPayment waits for a QR payment.
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
	Timeout     time.Duration
}

func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Interval:    3 * time.Second,
		MaxAttempts: 100,
		Timeout:     5 * time.Minute,
	}
}

func (p PollPolicy) withDefaults() PollPolicy {
	d := DefaultPollPolicy()
	if p.Interval <= 0 {
		p.Interval = d.Interval
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.Timeout <= 0 {
		p.Timeout = d.Timeout
	}
	return p
}

// PaymentFlow walks one order through choosing a method and confirming payment.
type PaymentFlow struct {
	client *Client
	payee  string

	mu     sync.Mutex
	state  PaymentState
	order  *models.Order
	method string
	qrURL  string
}

// NewPaymentFlow creates a flow whose QR codes pay payee (a PromptPay id).
func NewPaymentFlow(client *Client, payee string) *PaymentFlow {
	return &PaymentFlow{client: client, payee: payee}
}

func (f *PaymentFlow) State() PaymentState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *PaymentFlow) Order() *models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.order == nil {
		return nil
	}
	o := *f.order
	return &o
}

func (f *PaymentFlow) Method() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.method
}

// StartPayment loads the order to pay. If it cannot be loaded the flow ends in Failed.
func (f *PaymentFlow) StartPayment(ctx context.Context, orderID uint) error {
	order, err := f.client.Order(ctx, orderID)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = Failed
		f.order = nil
		return fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
	}

	f.order = order
	f.method = ""
	f.qrURL = ""
	if order.IsPaid() {
		f.state = Success
		return nil
	}
	f.state = NoMethodChosen
	return nil
}

// Choose selects cash or qrcode. The choice can be changed until Confirm.
func (f *PaymentFlow) Choose(method string) error {
	if !models.ValidPaymentMethod(method) {
		return ErrUnknownMethod
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.order == nil || (f.state != NoMethodChosen && f.state != MethodChosen) {
		return ErrInvalidState
	}
	f.method = method
	f.state = MethodChosen
	return nil
}

// Confirm acts on the chosen method and moves the flow to Confirming. Cash is
// marked paid right away; on failure the flow returns to MethodChosen so the
// customer can retry. QR code stays in Confirming and returns the image URL.
func (f *PaymentFlow) Confirm(ctx context.Context) (string, error) {
	f.mu.Lock()
	if f.state != MethodChosen {
		f.mu.Unlock()
		return "", ErrInvalidState
	}
	method := f.method
	order := *f.order
	f.state = Confirming
	f.mu.Unlock()

	switch method {
	case models.PaymentMethodCash:
		paid, err := f.client.MarkPaid(ctx, order.ID, models.PaymentMethodCash)
		if err != nil {
			f.mu.Lock()
			f.state = MethodChosen
			f.mu.Unlock()
			return "", err
		}
		f.mu.Lock()
		f.order = paid
		f.state = Success
		f.mu.Unlock()
		return "", nil

	case models.PaymentMethodQRCode:
		url := payment.QRImageURL(f.payee, order.TotalAmount)
		f.mu.Lock()
		f.qrURL = url
		f.state = Confirming
		f.mu.Unlock()
		return url, nil
	}
	f.mu.Lock()
	f.state = MethodChosen
	f.mu.Unlock()
	return "", ErrUnknownMethod
}

// AwaitPayment polls the order until it is paid, the policy runs out, or ctx
// is cancelled. Cancellation leaves the flow in Confirming and returns ctx.Err().
func (f *PaymentFlow) AwaitPayment(ctx context.Context, policy PollPolicy) error {
	f.mu.Lock()
	if f.state != Confirming {
		f.mu.Unlock()
		return ErrInvalidState
	}
	orderID := f.order.ID
	f.mu.Unlock()

	policy = policy.withDefaults()
	deadline := time.NewTimer(policy.Timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(policy.Interval)
	defer ticker.Stop()

	for attempt := 0; attempt < policy.MaxAttempts; {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return f.fail()
		case <-ticker.C:
		}

		attempt++
		order, err := f.client.Order(ctx, orderID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Keep polling through transient errors.
			continue
		}
		if order.IsPaid() {
			f.mu.Lock()
			f.order = order
			f.state = Success
			f.mu.Unlock()
			return nil
		}
	}
	return f.fail()
}

func (f *PaymentFlow) fail() error {
	f.mu.Lock()
	f.state = Failed
	f.mu.Unlock()
	return ErrPaymentNotConfirmed
}

// Cancel abandons the chosen method. The order itself stays pending.
func (f *PaymentFlow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Success || f.order == nil {
		return
	}
	f.state = NoMethodChosen
	f.method = ""
	f.qrURL = ""
}

// QRImageURL returns the QR shown while confirming, or "".
func (f *PaymentFlow) QRImageURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.qrURL
}
