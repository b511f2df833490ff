package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tenantsync/internal/models"

	"github.com/plutov/paypal/v4"
)

// PayPal creates Orders v2 checkouts paid to the landlord's PayPal e-mail.
type PayPal struct {
	client *paypal.Client

	mu     sync.Mutex
	authed bool
}

// NewPayPal connects to the sandbox unless mode is "live". A non-empty
// baseURL overrides both.
func NewPayPal(clientID, secret, mode, baseURL string) (*PayPal, error) {
	if baseURL == "" {
		baseURL = paypal.APIBaseSandBox
		if strings.EqualFold(mode, "live") {
			baseURL = paypal.APIBaseLive
		}
	}
	c, err := paypal.NewClient(clientID, secret, baseURL)
	if err != nil {
		return nil, fmt.Errorf("paypal client: %w", err)
	}
	return &PayPal{client: c}, nil
}

func (p *PayPal) Name() string { return models.ProviderPayPal }

// authenticate fetches the first access token; the client refreshes it afterwards.
func (p *PayPal) authenticate(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.authed {
		return nil
	}
	if _, err := p.client.GetAccessToken(ctx); err != nil {
		return fmt.Errorf("paypal auth: %w", err)
	}
	p.authed = true
	return nil
}

func (p *PayPal) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if req.PayeeEmail == "" {
		return nil, ErrPayeeNotLinked
	}
	if err := p.authenticate(ctx); err != nil {
		return nil, err
	}

	units := []paypal.PurchaseUnitRequest{{
		Amount: &paypal.PurchaseUnitAmount{
			Currency: req.Currency,
			Value:    req.Amount.StringFixed(2),
		},
		Payee: &paypal.PayeeForOrders{EmailAddress: req.PayeeEmail},
	}}
	appCtx := &paypal.ApplicationContext{ReturnURL: req.ReturnURL, CancelURL: req.CancelURL}

	order, err := p.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, appCtx)
	if err != nil {
		return nil, fmt.Errorf("paypal create order: %w", err)
	}

	out := &Order{ID: order.ID, Status: order.Status, Links: make([]Link, 0, len(order.Links))}
	for _, l := range order.Links {
		out.Links = append(out.Links, Link{Href: l.Href, Rel: l.Rel})
	}
	return out, nil
}

func (p *PayPal) CaptureOrder(ctx context.Context, orderID string) (*Order, error) {
	if err := p.authenticate(ctx); err != nil {
		return nil, err
	}
	res, err := p.client.CaptureOrder(ctx, orderID, paypal.CaptureOrderRequest{})
	if err != nil {
		return nil, fmt.Errorf("paypal capture order: %w", err)
	}
	return &Order{ID: res.ID, Status: res.Status, Links: []Link{}}, nil
}
