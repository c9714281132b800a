package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Order statuses reported by the PayPal Orders v2 API.
const (
	OrderCreated   = "CREATED"
	OrderApproved  = "APPROVED"
	OrderCompleted = "COMPLETED"
)

type Order struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	ApproveURL string `json:"approve_url,omitempty"`
}

type paypalLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type paypalOrder struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Links  []paypalLink `json:"links"`
}

type paypalError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

type PayPalClient struct {
	client *resty.Client
	tokens *tokenSource
}

func NewPayPalClient(baseURL, clientID, clientSecret string) *PayPalClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetHeader("Accept", "application/json")

	return &PayPalClient{
		client: client,
		tokens: &tokenSource{
			client:       client,
			clientID:     clientID,
			clientSecret: clientSecret,
			now:          time.Now,
		},
	}
}

// CreateOrder opens a CAPTURE-intent order for amount. referenceID is echoed
// back by PayPal and set to our transaction id.
func (p *PayPalClient) CreateOrder(ctx context.Context, amount float64, currency, referenceID string) (*Order, error) {
	token, err := p.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"reference_id": referenceID,
				"amount": map[string]string{
					"currency_code": currency,
					"value":         fmt.Sprintf("%.2f", amount),
				},
			},
		},
	}

	var result paypalOrder
	var apiErr paypalError
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("PayPal-Request-Id", referenceID).
		SetBody(payload).
		SetResult(&result).
		SetError(&apiErr).
		Post("/v2/checkout/orders")
	if err != nil {
		return nil, fmt.Errorf("creating paypal order: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to create order: %s %s", apiErr.Name, apiErr.Message)
	}
	return toOrder(result), nil
}

func (p *PayPalClient) CaptureOrder(ctx context.Context, orderID string) (*Order, error) {
	token, err := p.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var result paypalOrder
	var apiErr paypalError
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetResult(&result).
		SetError(&apiErr).
		Post("/v2/checkout/orders/" + orderID + "/capture")
	if err != nil {
		return nil, fmt.Errorf("capturing paypal order: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to capture order: %s %s", apiErr.Name, apiErr.Message)
	}
	return toOrder(result), nil
}

func toOrder(o paypalOrder) *Order {
	order := &Order{ID: o.ID, Status: o.Status}
	for _, l := range o.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			order.ApproveURL = l.Href
		}
	}
	return order
}
