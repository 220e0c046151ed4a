package payments

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

type RazorpayClient struct {
	client *razorpay.Client
}

func NewRazorpayClient(keyID, keySecret string) (*RazorpayClient, error) {
	if keyID == "" || keySecret == "" {
		return nil, ErrNotConfigured
	}

	client := razorpay.NewClient(keyID, keySecret)
	client.SetTimeout(15) // seconds
	return &RazorpayClient{client: client}, nil
}

func (r *RazorpayClient) Name() string { return "razorpay" }

func (r *RazorpayClient) CreateOrder(ctx context.Context, merchantOrderID string, amount Money, redirectURL string) (*CheckoutOrder, error) {
	data := map[string]interface{}{
		"amount":   amount.MinorUnits,
		"currency": amount.Currency,
		"receipt":  merchantOrderID,
	}

	order, err := r.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order create failed: %v: %w", err, ErrGatewayUnavailable)
	}

	orderID, _ := order["id"].(string)
	if orderID == "" {
		return nil, fmt.Errorf("razorpay order create returned no id: %w", ErrGatewayUnavailable)
	}
	// Razorpay checkout happens client-side with the order id; there is no
	// hosted redirect URL to hand back.
	return &CheckoutOrder{GatewayOrderID: orderID}, nil
}

// GetOrderStatus takes the Razorpay order id (orders are not addressable by
// receipt) and normalizes "paid" to the common COMPLETED state.
func (r *RazorpayClient) GetOrderStatus(ctx context.Context, orderRef string) (*OrderStatus, error) {
	order, err := r.client.Order.Fetch(orderRef, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order fetch failed: %v: %w", err, ErrGatewayUnavailable)
	}

	status := &OrderStatus{OrderID: orderRef}
	currency, _ := order["currency"].(string)
	if amount, ok := order["amount"].(float64); ok {
		status.Amount = FromMinor(int64(amount), currency)
	}

	switch orderState, _ := order["status"].(string); orderState {
	case "paid":
		status.State = OrderStateCompleted
	case "attempted", "created":
		status.State = OrderStatePending
	default:
		status.State = OrderStateFailed
	}

	payments, err := r.client.Order.Payments(orderRef, nil, nil)
	if err == nil {
		if items, ok := payments["items"].([]interface{}); ok {
			for _, raw := range items {
				item, ok := raw.(map[string]interface{})
				if !ok {
					continue
				}
				detail := PaymentDetail{}
				detail.TransactionID, _ = item["id"].(string)
				detail.PaymentMode, _ = item["method"].(string)
				detail.State, _ = item["status"].(string)
				if createdAt, ok := item["created_at"].(float64); ok {
					detail.Timestamp = int64(createdAt) * 1000
				}
				status.PaymentDetails = append(status.PaymentDetails, detail)
			}
		}
	}

	return status, nil
}

// InitiateRefund refunds against the captured payment id, which is what
// OriginalRef carries for this provider.
func (r *RazorpayClient) InitiateRefund(ctx context.Context, req RefundRequest) (*RefundStatus, error) {
	data := map[string]interface{}{
		"notes": map[string]interface{}{
			"merchant_refund_id": req.MerchantRefundID,
			"reason":             req.Reason,
		},
	}

	refund, err := r.client.Payment.Refund(req.OriginalRef, int(req.Amount.MinorUnits), data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay refund failed: %v: %w", err, ErrGatewayUnavailable)
	}

	return r.refundStatusFromResponse(refund, req.MerchantRefundID), nil
}

func (r *RazorpayClient) GetRefundStatus(ctx context.Context, refundID string) (*RefundStatus, error) {
	refund, err := r.client.Refund.Fetch(refundID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay refund fetch failed: %v: %w", err, ErrGatewayUnavailable)
	}
	return r.refundStatusFromResponse(refund, ""), nil
}

func (r *RazorpayClient) refundStatusFromResponse(refund map[string]interface{}, merchantRefundID string) *RefundStatus {
	status := &RefundStatus{MerchantRefundID: merchantRefundID}
	status.RefundID, _ = refund["id"].(string)
	currency, _ := refund["currency"].(string)
	if amount, ok := refund["amount"].(float64); ok {
		status.Amount = FromMinor(int64(amount), currency)
	}
	switch state, _ := refund["status"].(string); state {
	case "processed":
		status.State = OrderStateCompleted
	case "failed":
		status.State = OrderStateFailed
	default:
		status.State = OrderStatePending
	}
	return status
}
