package services

import (
	"log"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// CheckoutLineItem is one purchasable line in a hosted checkout session.
// UnitAmount is in minor currency units (cents).
type CheckoutLineItem struct {
	Name        string
	Description string
	ImageURL    string
	UnitAmount  int64
	Quantity    int64
}

// CheckoutSessionRequest describes the hosted checkout session to create.
type CheckoutSessionRequest struct {
	SuccessURL        string
	CancelURL         string
	CustomerEmail     string
	ClientReferenceID string
	Metadata          map[string]string
	Items             []CheckoutLineItem
}

// CheckoutSession is the created session the customer is redirected to.
// PaymentIntentID is populated once the processor has attached an intent,
// which happens by the time the success redirect fires.
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID string
}

// PaymentIntent is the processor's authoritative view of a payment attempt.
// Status "succeeded" means the charge went through; anything else is treated
// as a failure by the reconciliation flow.
type PaymentIntent struct {
	ID       string
	Status   string
	Amount   int64
	Currency string
}

// PaymentGateway abstracts the external payment processor so workflow code
// and tests never talk to Stripe directly.
type PaymentGateway interface {
	// CreateCheckoutSession creates a hosted checkout session and returns its
	// id and redirect URL.
	CreateCheckoutSession(req *CheckoutSessionRequest) (*CheckoutSession, error)

	// GetCheckoutSession retrieves an existing checkout session, including
	// the payment intent it produced.
	GetCheckoutSession(sessionID string) (*CheckoutSession, error)

	// GetPaymentIntent retrieves the current state of a payment intent.
	GetPaymentIntent(paymentIntentID string) (*PaymentIntent, error)
}

// StripeGateway implements PaymentGateway against the Stripe API.
type StripeGateway struct {
	api *client.API
}

var paymentGatewayInstance PaymentGateway

// InitPaymentGateway initializes the Stripe-backed payment gateway. Outbound
// calls are bounded by a 30 second timeout so a stalled processor surfaces as
// an error instead of hanging the request.
func InitPaymentGateway(secretKey string) PaymentGateway {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	backends := stripe.NewBackends(httpClient)
	paymentGatewayInstance = &StripeGateway{
		api: client.New(secretKey, backends),
	}
	return paymentGatewayInstance
}

// GetPaymentGateway returns the initialized payment gateway instance
func GetPaymentGateway() PaymentGateway {
	return paymentGatewayInstance
}

// SetPaymentGateway sets the payment gateway instance (primarily for testing)
func SetPaymentGateway(gateway PaymentGateway) {
	paymentGatewayInstance = gateway
}

// CreateCheckoutSession creates a Stripe Checkout session in payment mode with
// one line item per request item.
func (g *StripeGateway) CreateCheckoutSession(req *CheckoutSessionRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}

	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(req.ClientReferenceID)
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if len(req.Metadata) > 0 {
		params.Metadata = make(map[string]string, len(req.Metadata))
		for k, v := range req.Metadata {
			params.Metadata[k] = v
		}
	}

	for _, item := range req.Items {
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		line := &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("usd"),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		}
		if item.Description != "" {
			line.PriceData.ProductData.Description = stripe.String(item.Description)
		}
		if item.ImageURL != "" {
			line.PriceData.ProductData.Images = stripe.StringSlice([]string{item.ImageURL})
		}
		params.LineItems = append(params.LineItems, line)
	}

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		log.Printf("Stripe checkout session creation failed: %v", err)
		return nil, ExternalError("Failed to create checkout session with payment processor")
	}

	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// GetCheckoutSession retrieves a checkout session from Stripe by id.
func (g *StripeGateway) GetCheckoutSession(sessionID string) (*CheckoutSession, error) {
	session, err := g.api.CheckoutSessions.Get(sessionID, nil)
	if err != nil {
		if stripeErr, ok := err.(*stripe.Error); ok && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return nil, NotFoundError("Checkout session " + sessionID + " not found")
		}
		log.Printf("Stripe checkout session lookup failed: %v", err)
		return nil, ExternalError("Failed to retrieve checkout session from payment processor")
	}

	result := &CheckoutSession{ID: session.ID, URL: session.URL}
	if session.PaymentIntent != nil {
		result.PaymentIntentID = session.PaymentIntent.ID
	}
	return result, nil
}

// GetPaymentIntent retrieves a payment intent from Stripe by id.
func (g *StripeGateway) GetPaymentIntent(paymentIntentID string) (*PaymentIntent, error) {
	intent, err := g.api.PaymentIntents.Get(paymentIntentID, nil)
	if err != nil {
		if stripeErr, ok := err.(*stripe.Error); ok && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return nil, NotFoundError("Payment intent " + paymentIntentID + " not found")
		}
		log.Printf("Stripe payment intent lookup failed: %v", err)
		return nil, ExternalError("Failed to retrieve payment intent from payment processor")
	}

	return &PaymentIntent{
		ID:       intent.ID,
		Status:   string(intent.Status),
		Amount:   intent.Amount,
		Currency: string(intent.Currency),
	}, nil
}
