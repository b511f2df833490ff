package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrPayeeNotLinked = errors.New("landlord has not linked a payout account")
	ErrNotConfigured  = errors.New("payment provider is not configured")
)

type Link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

// Order is a provider-side checkout the payer approves out of band.
type Order struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []Link `json:"links"`
}

type OrderRequest struct {
	Amount     decimal.Decimal
	Currency   string
	PayeeEmail string
	ReturnURL  string
	CancelURL  string
}

// OrderProvider creates and captures approval-based orders (PayPal).
type OrderProvider interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*Order, error)
}

// Intent is a card payment confirmed client-side with ClientSecret.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// IntentProvider issues payment intents (Stripe).
type IntentProvider interface {
	Name() string
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (*Intent, error)
}

// MinorUnits converts amount to the smallest currency unit, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

type disabled struct{ name string }

// Disabled returns a provider whose calls fail with ErrNotConfigured.
func Disabled(name string) interface {
	OrderProvider
	IntentProvider
} {
	return disabled{name: name}
}

func (d disabled) Name() string { return d.name }

func (disabled) CreateOrder(context.Context, OrderRequest) (*Order, error) {
	return nil, ErrNotConfigured
}

func (disabled) CaptureOrder(context.Context, string) (*Order, error) {
	return nil, ErrNotConfigured
}

func (disabled) CreateIntent(context.Context, decimal.Decimal, string) (*Intent, error) {
	return nil, ErrNotConfigured
}
