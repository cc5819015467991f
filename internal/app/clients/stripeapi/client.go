// internal/app/clients/stripeapi/client.go
package stripeapi

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/acm-uiuc/core-sub001/internal/domain/models"
)

// PaymentLink is the result of creating a one-off payment link, including
// the intermediate Stripe objects so they can be cleaned up later.
type PaymentLink struct {
	LinkID    string `json:"linkId"`
	PriceID   string `json:"priceId"`
	ProductID string `json:"productId"`
	URL       string `json:"url"`
}

// Client wraps the Stripe SDK behind the small surface the invoicing
// features need.
type Client struct {
	sc *client.API
}

func New(apiKey string) *Client {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &Client{sc: sc}
}

// CreateCustomer creates a Stripe customer and returns its id.
func (c *Client) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	params := &stripe.CustomerParams{
		Name:  stripe.String(name),
		Email: stripe.String(email),
	}
	params.Context = ctx

	cust, err := c.sc.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer for %s: %w", email, err)
	}
	return cust.ID, nil
}

// GetCustomer fetches the live identity of an existing Stripe customer.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (models.CustomerIdentity, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	cust, err := c.sc.Customers.Get(customerID, params)
	if err != nil {
		return models.CustomerIdentity{}, fmt.Errorf("get stripe customer %s: %w", customerID, err)
	}
	return models.CustomerIdentity{Name: cust.Name, Email: cust.Email}, nil
}

// CreatePaymentLink builds a product, a one-time price, and a payment link
// for an invoice. Amount is in cents.
func (c *Client) CreatePaymentLink(ctx context.Context, invoiceID string, amount int64, contactName, contactEmail, createdBy string) (PaymentLink, error) {
	productParams := &stripe.ProductParams{
		Name:        stripe.String("Payment for Invoice: " + invoiceID),
		Description: stripe.String(fmt.Sprintf("Created For: %s (%s) by %s.", contactName, contactEmail, createdBy)),
	}
	productParams.Context = ctx
	product, err := c.sc.Products.New(productParams)
	if err != nil {
		return PaymentLink{}, fmt.Errorf("create product for invoice %s: %w", invoiceID, err)
	}

	priceParams := &stripe.PriceParams{
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
		UnitAmount: stripe.Int64(amount),
		Product:    stripe.String(product.ID),
	}
	priceParams.Context = ctx
	price, err := c.sc.Prices.New(priceParams)
	if err != nil {
		return PaymentLink{}, fmt.Errorf("create price for invoice %s: %w", invoiceID, err)
	}

	linkParams := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{
				Price:    stripe.String(price.ID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	linkParams.Context = ctx
	link, err := c.sc.PaymentLinks.New(linkParams)
	if err != nil {
		return PaymentLink{}, fmt.Errorf("create payment link for invoice %s: %w", invoiceID, err)
	}

	return PaymentLink{
		LinkID:    link.ID,
		PriceID:   price.ID,
		ProductID: product.ID,
		URL:       link.URL,
	}, nil
}
