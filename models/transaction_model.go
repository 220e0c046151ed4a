package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	GatewayPhonePe  = "phonepe"
	GatewayRazorpay = "razorpay"

	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Transaction is the financial record of a payment attempt. Status moves
// forward only (pending -> completed|failed) and rows are never deleted.
type Transaction struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	MerchantOrderID string     `gorm:"size:255;not null;unique" json:"merchant_order_id"`
	BookingID       *uuid.UUID `gorm:"unique" json:"booking_id"`

	ServiceID   uuid.UUID `gorm:"not null" json:"service_id"`
	ServiceType string    `gorm:"size:20;not null" json:"service_type"`

	Amount   float64 `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency string  `gorm:"size:3;not null;default:'INR'" json:"currency"`

	PaymentGateway       string  `gorm:"size:20;not null" json:"payment_gateway"`
	GatewayOrderID       *string `gorm:"size:255" json:"gateway_order_id"`
	GatewayTransactionID *string `gorm:"size:255" json:"gateway_transaction_id"`
	GatewayPaymentID     *string `gorm:"size:255" json:"gateway_payment_id"`

	Status   string `gorm:"size:20;not null;default:'pending'" json:"status"`
	Metadata []byte `gorm:"type:jsonb" json:"metadata,omitempty"`

	RefundStatus *string `gorm:"size:20" json:"refund_status"`
	RefundReason *string `gorm:"type:text" json:"refund_reason"`

	Booking Booking `gorm:"foreignkey:BookingID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal reports whether the transaction already reached a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusFailed
}
