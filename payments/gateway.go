package payments

import (
	"context"
	"errors"
)

// Order states as reported by a gateway, normalized across providers.
const (
	OrderStateCompleted = "COMPLETED"
	OrderStateFailed    = "FAILED"
	OrderStatePending   = "PENDING"
)

// ErrGatewayUnavailable marks transport-level failures: the gateway could
// not be reached or answered garbage, so the payment state is unknown
// rather than negative.
var ErrGatewayUnavailable = errors.New("payment gateway unreachable")

// ErrNotConfigured means credentials for the gateway are missing entirely.
var ErrNotConfigured = errors.New("payment gateway not configured")

// ErrConfigInvalid means credentials are present but unusable.
var ErrConfigInvalid = errors.New("payment gateway configuration invalid")

type PaymentDetail struct {
	TransactionID string `json:"transaction_id"`
	PaymentMode   string `json:"payment_mode"`
	State         string `json:"state"`
	Timestamp     int64  `json:"timestamp,omitempty"`
}

type OrderStatus struct {
	OrderID        string          `json:"order_id"`
	State          string          `json:"state"`
	Amount         Money           `json:"-"`
	PaymentDetails []PaymentDetail `json:"payment_details,omitempty"`
}

type CheckoutOrder struct {
	GatewayOrderID string `json:"gateway_order_id"`
	CheckoutURL    string `json:"checkout_url,omitempty"`
}

type RefundRequest struct {
	MerchantRefundID string
	// OriginalRef identifies the payment being refunded: the merchant
	// order id for PhonePe, the gateway payment id for Razorpay.
	OriginalRef string
	Amount      Money
	Reason      string
}

type RefundStatus struct {
	RefundID         string `json:"refundId"`
	MerchantRefundID string `json:"merchantRefundId"`
	State            string `json:"state"`
	Amount           Money  `json:"-"`
}

// Client is the surface the orchestrator needs from a payment gateway.
// orderRef is the reference the gateway itself keys orders by; see
// RefundRequest.OriginalRef for which identifier that is per provider.
type Client interface {
	Name() string
	CreateOrder(ctx context.Context, merchantOrderID string, amount Money, redirectURL string) (*CheckoutOrder, error)
	GetOrderStatus(ctx context.Context, orderRef string) (*OrderStatus, error)
	InitiateRefund(ctx context.Context, req RefundRequest) (*RefundStatus, error)
	GetRefundStatus(ctx context.Context, refundID string) (*RefundStatus, error)
}
