package services

import (
	"errors"
	"time"

	"github.com/devadarsh07/drive_academy/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServiceDetails is what the confirmation email needs to know about the
// purchased item.
type ServiceDetails struct {
	Title    string
	Currency string
}

// ConfirmedPaymentDetails carries the gateway's view of a confirmed
// payment into the store update.
type ConfirmedPaymentDetails struct {
	GatewayTransactionID string
	GatewayOrderID       string
	PaymentMethod        string
	AmountPaid           float64
	PaidAt               time.Time
	Metadata             []byte
}

// PaymentStore serializes concurrent confirmation attempts at the
// persistence boundary: terminal-state flips are conditional updates, not
// read-then-write.
type PaymentStore interface {
	FindTransactionByMerchantOrderID(merchantOrderID string) (*models.Transaction, error)
	// ApplyConfirmedPayment moves the transaction and its booking to
	// terminal success in a single database transaction, only when the
	// transaction is not already terminal. It reports whether this call
	// performed the flip.
	ApplyConfirmedPayment(merchantOrderID string, details ConfirmedPaymentDetails) (bool, error)
	MarkPaymentFailed(merchantOrderID string) (bool, error)
	ResolveServiceDetails(serviceID uuid.UUID, serviceType string) (*ServiceDetails, error)
}

type GormPaymentStore struct {
	db *gorm.DB
}

func NewGormPaymentStore(db *gorm.DB) *GormPaymentStore {
	return &GormPaymentStore{db: db}
}

var terminalStatuses = []string{models.TransactionStatusCompleted, models.TransactionStatusFailed}

func (s *GormPaymentStore) FindTransactionByMerchantOrderID(merchantOrderID string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.Preload("Booking").Where("merchant_order_id = ?", merchantOrderID).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (s *GormPaymentStore) ApplyConfirmedPayment(merchantOrderID string, details ConfirmedPaymentDetails) (bool, error) {
	applied := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status": models.TransactionStatusCompleted,
		}
		if details.GatewayTransactionID != "" {
			updates["gateway_transaction_id"] = details.GatewayTransactionID
			updates["gateway_payment_id"] = details.GatewayTransactionID
		}
		if details.GatewayOrderID != "" {
			updates["gateway_order_id"] = details.GatewayOrderID
		}
		if len(details.Metadata) > 0 {
			updates["metadata"] = details.Metadata
		}

		res := tx.Model(&models.Transaction{}).
			Where("merchant_order_id = ? AND status NOT IN ?", merchantOrderID, terminalStatuses).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// already terminal; nothing to do and no email should follow
			return nil
		}
		applied = true

		var txn models.Transaction
		if err := tx.Where("merchant_order_id = ?", merchantOrderID).First(&txn).Error; err != nil {
			return err
		}
		if txn.BookingID == nil {
			return nil
		}

		paidAt := details.PaidAt
		if paidAt.IsZero() {
			paidAt = time.Now()
		}
		bookingUpdates := map[string]interface{}{
			"status":                 models.BookingStatusConfirmed,
			"payment_status":         models.PaymentStatusPaid,
			"payment_transaction_id": txn.ID,
			"paid_amount":            details.AmountPaid,
			"paid_at":                paidAt,
		}
		if details.PaymentMethod != "" {
			bookingUpdates["payment_method"] = details.PaymentMethod
		}
		if details.GatewayTransactionID != "" {
			bookingUpdates["gateway_reference"] = details.GatewayTransactionID
		}

		return tx.Model(&models.Booking{}).
			Where("id = ?", txn.BookingID).
			Updates(bookingUpdates).Error
	})

	return applied, err
}

func (s *GormPaymentStore) MarkPaymentFailed(merchantOrderID string) (bool, error) {
	applied := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Transaction{}).
			Where("merchant_order_id = ? AND status NOT IN ?", merchantOrderID, terminalStatuses).
			Update("status", models.TransactionStatusFailed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true

		var txn models.Transaction
		if err := tx.Where("merchant_order_id = ?", merchantOrderID).First(&txn).Error; err != nil {
			return err
		}
		if txn.BookingID == nil {
			return nil
		}

		return tx.Model(&models.Booking{}).
			Where("id = ?", txn.BookingID).
			Update("payment_status", models.PaymentStatusFailed).Error
	})

	return applied, err
}

func (s *GormPaymentStore) ResolveServiceDetails(serviceID uuid.UUID, serviceType string) (*ServiceDetails, error) {
	var course models.Course
	err := s.db.Where("id = ?", serviceID).First(&course).Error
	if err == nil {
		return &ServiceDetails{Title: course.Title, Currency: course.Currency}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var svc models.DrivingService
	if err := s.db.Where("id = ?", serviceID).First(&svc).Error; err != nil {
		return nil, err
	}
	return &ServiceDetails{Title: svc.Title, Currency: svc.Currency}, nil
}
