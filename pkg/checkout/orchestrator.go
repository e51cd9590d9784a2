// Package checkout turns the current cart into an order and dispatches it to
// one of three payment protocols: immediate completion (cash on delivery), a
// callback-driven widget (Khalti), or a redirect gateway (eSewa). All three
// branches converge on one outcome type.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"bookpasal/pkg/cart"
	"bookpasal/pkg/domain"
)

// State names one position in the checkout machine:
// Idle -> Validating -> Placing -> {CashComplete | AwaitingExternalPayment ->
// ExternalResolved} -> terminal.
type State string

const (
	StateIdle             State = "Idle"
	StateValidating       State = "Validating"
	StatePlacing          State = "Placing"
	StateCashComplete     State = "CashComplete"
	StateAwaitingExternal State = "AwaitingExternalPayment"
	StateExternalResolved State = "ExternalResolved"
	StateSuccess          State = "Success"
	StateFailure          State = "Failure"
)

// PlacedOrder is the server's answer to a successful Placing transition.
type PlacedOrder struct {
	OrderID     int64              `json:"order_id"`
	TotalAmount domain.Amount      `json:"total_amount"`
	Status      domain.OrderStatus `json:"status"`
}

// Request carries the shipping fields and the chosen payment method.
type Request struct {
	ShippingAddress string
	ContactNumber   string
	Method          domain.PaymentMethod
}

// Outcome is the tagged union of the three branch results.
type Outcome interface {
	outcome()
}

// CashOutcome: order creation was itself terminal success.
type CashOutcome struct {
	Order PlacedOrder
}

// WidgetOutcome: the Khalti widget resolved. Closed means the user dismissed
// the widget without paying; the attempt is discarded and the flow returns to
// Idle with no error.
type WidgetOutcome struct {
	Order    PlacedOrder
	Verified bool
	Closed   bool
}

// RedirectOutcome: the eSewa hand-off form. No client-side terminal state;
// ResolveReturn finishes the flow on the return-URL page load.
type RedirectOutcome struct {
	Order PlacedOrder
	Form  EsewaForm
}

func (CashOutcome) outcome()     {}
func (WidgetOutcome) outcome()   {}
func (RedirectOutcome) outcome() {}

// Config holds the gateway-specific knobs.
type Config struct {
	KhaltiPublicKey   string
	EsewaMerchantCode string
	EsewaGatewayURL   string
	// ReturnURLBase is the origin the payment gateways send the user back to.
	ReturnURLBase string
}

// Orchestrator drives the checkout state machine. One order per invocation;
// after a failure in Placing the caller re-validates and re-creates, there is
// no resumable partial order.
type Orchestrator struct {
	gw           cart.Gateway
	carts        *cart.Synchronizer
	widget       KhaltiWidget
	cfg          Config
	logger       *slog.Logger
	onTransition func(State)
}

func NewOrchestrator(gw cart.Gateway, carts *cart.Synchronizer, widget KhaltiWidget, cfg Config) *Orchestrator {
	return &Orchestrator{gw: gw, carts: carts, widget: widget, cfg: cfg, logger: slog.Default()}
}

// OnTransition registers a listener invoked at every state change of a
// checkout attempt. The UI uses this to render progress.
func (o *Orchestrator) OnTransition(fn func(State)) {
	o.onTransition = fn
}

func (o *Orchestrator) transition(attemptID string, s State) {
	o.logger.Debug("checkout transition", "attempt", attemptID, "state", s)
	if o.onTransition != nil {
		o.onTransition(s)
	}
}

// PlaceOrder runs one checkout attempt end to end. It returns a terminal
// outcome, or an error mapped to a single user-visible failure.
func (o *Orchestrator) PlaceOrder(ctx context.Context, req Request) (Outcome, error) {
	attemptID := uuid.NewString()

	o.transition(attemptID, StateValidating)
	if err := o.validate(ctx, req); err != nil {
		return nil, err
	}

	o.transition(attemptID, StatePlacing)
	order, err := o.place(ctx, req)
	if err != nil {
		// Nothing was created; nothing to roll back.
		o.logger.Warn("order placement failed", "attempt", attemptID, "err", err)
		return nil, err
	}
	o.logger.Info("order placed", "attempt", attemptID, "order", order.OrderID,
		"method", req.Method, "total", order.TotalAmount.Display())

	switch req.Method {
	case domain.PaymentCash:
		// The server clears the cart atomically with order creation on this
		// path, so the local view can drop immediately.
		o.transition(attemptID, StateCashComplete)
		o.carts.Clear()
		return CashOutcome{Order: order}, nil
	case domain.PaymentKhalti:
		o.transition(attemptID, StateAwaitingExternal)
		return o.runKhalti(ctx, attemptID, order)
	case domain.PaymentEsewa:
		o.transition(attemptID, StateAwaitingExternal)
		form := buildEsewaForm(o.cfg.EsewaGatewayURL, o.cfg.EsewaMerchantCode,
			order.TotalAmount, order.OrderID, o.cfg.ReturnURLBase)
		return RedirectOutcome{Order: order, Form: form}, nil
	default:
		// validate already rejected unknown methods.
		return nil, fmt.Errorf("unhandled payment method %q", req.Method)
	}
}

func (o *Orchestrator) validate(ctx context.Context, req Request) error {
	switch req.Method {
	case domain.PaymentCash, domain.PaymentKhalti, domain.PaymentEsewa:
	default:
		return &ValidationError{Reason: fmt.Sprintf("unsupported payment method %q", req.Method)}
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		return &ValidationError{Reason: "shipping address is required"}
	}
	if strings.TrimSpace(req.ContactNumber) == "" {
		return &ValidationError{Reason: "contact number is required"}
	}
	// Re-fetch rather than trusting a stale snapshot: the cart may have
	// emptied between page load and the checkout click.
	current, err := o.carts.Current(ctx)
	if err != nil {
		return err
	}
	if len(current.Items) == 0 {
		return &ValidationError{Reason: "cart is empty"}
	}
	return nil
}

func (o *Orchestrator) place(ctx context.Context, req Request) (PlacedOrder, error) {
	payload := map[string]any{
		"shipping_address": req.ShippingAddress,
		"contact_number":   req.ContactNumber,
		"payment_method":   req.Method,
	}
	var order PlacedOrder
	if err := o.gw.Do(ctx, http.MethodPost, "/orders/checkout/", payload, &order); err != nil {
		return PlacedOrder{}, err
	}
	return order, nil
}

func (o *Orchestrator) runKhalti(ctx context.Context, attemptID string, order PlacedOrder) (Outcome, error) {
	paisa, err := order.TotalAmount.Paisa()
	if err != nil {
		return nil, fmt.Errorf("khalti amount: %w", err)
	}
	cfg := KhaltiConfig{
		PublicKey:       o.cfg.KhaltiPublicKey,
		ProductIdentity: fmt.Sprintf("%d", order.OrderID),
		ProductName:     "Book Order",
		AmountPaisa:     paisa,
	}

	var (
		outcome Outcome
		outErr  error
	)
	o.widget.Show(ctx, cfg, KhaltiHandlers{
		OnSuccess: func(payload KhaltiPayload) {
			o.transition(attemptID, StateExternalResolved)
			if err := o.verifyKhalti(ctx, order.OrderID, payload); err != nil {
				o.transition(attemptID, StateFailure)
				outErr = err
				return
			}
			o.transition(attemptID, StateSuccess)
			o.carts.Clear()
			outcome = WidgetOutcome{Order: order, Verified: true}
		},
		OnError: func(err error) {
			// Terminal failure, no retry. The order stays unpaid server-side
			// and the cart view is left intact.
			o.transition(attemptID, StateFailure)
			outErr = &ExternalPaymentError{Method: domain.PaymentKhalti, Err: err}
		},
		OnClose: func() {
			// Dismissal is neither success nor failure: back to Idle.
			o.transition(attemptID, StateIdle)
			outcome = WidgetOutcome{Order: order, Closed: true}
		},
	})
	if outErr != nil {
		return nil, outErr
	}
	if outcome == nil {
		return nil, &ExternalPaymentError{Method: domain.PaymentKhalti,
			Err: fmt.Errorf("widget returned without invoking a handler")}
	}
	return outcome, nil
}

func (o *Orchestrator) verifyKhalti(ctx context.Context, orderID int64, payload KhaltiPayload) error {
	body := map[string]any{
		"order_id": orderID,
		"token":    payload.Token,
		"amount":   payload.AmountPaisa,
	}
	if err := o.gw.Do(ctx, http.MethodPost, "/payments/verify/", body, nil); err != nil {
		return fmt.Errorf("verify khalti payment: %w", err)
	}
	return nil
}

// ResolveReturn reconciles a redirect-gateway return page. The redirect's
// query parameters are carried only as a hint; payment status comes from the
// server, never from the URL.
func (o *Orchestrator) ResolveReturn(ctx context.Context, orderID int64) (domain.Payment, error) {
	var payment domain.Payment
	path := fmt.Sprintf("/payments/order/%d/", orderID)
	if err := o.gw.Do(ctx, http.MethodGet, path, nil, &payment); err != nil {
		return domain.Payment{}, err
	}
	if payment.Status == domain.PaymentStatusCompleted {
		o.carts.Clear()
	}
	return payment, nil
}
