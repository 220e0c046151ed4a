package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/devadarsh07/drive_academy/models"
	"github.com/devadarsh07/drive_academy/notifications"
	"github.com/devadarsh07/drive_academy/payments"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Error codes surfaced to API callers. The handler maps each to its HTTP
// status.
const (
	CodeValidationError     = "VALIDATION_ERROR"
	CodeSDKNotConfigured    = "SDK_NOT_CONFIGURED"
	CodeSDKConfigInvalid    = "SDK_CONFIG_INVALID"
	CodeVerificationFailed  = "PAYMENT_VERIFICATION_FAILED"
	CodePaymentNotConfirmed = "PAYMENT_NOT_CONFIRMED"
	CodePhonePeAPIError     = "PHONEPE_API_ERROR"
	CodeRazorpayAPIError    = "RAZORPAY_API_ERROR"
	CodeMockConfirmDisabled = "MOCK_CONFIRM_DISABLED"
	CodeTransactionNotFound = "TRANSACTION_NOT_FOUND"
	CodeConfirmationFailed  = "CONFIRMATION_PROCESS_FAILED"
)

type ConfirmationError struct {
	Code    string `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (e *ConfirmationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type ConfirmationRequest struct {
	MerchantOrderID string  `json:"merchantOrderId" validate:"required"`
	Gateway         string  `json:"gateway" validate:"required,oneof=phonepe razorpay"`
	BookingID       string  `json:"bookingId" validate:"required"`
	TransactionID   string  `json:"transactionId" validate:"required"`
	ServiceID       string  `json:"serviceId" validate:"required"`
	ServiceType     string  `json:"serviceType" validate:"required,oneof=training online"`
	CustomerEmail   string  `json:"customerEmail" validate:"required,email"`
	CustomerName    string  `json:"customerName" validate:"required"`
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	ForceConfirm    bool    `json:"forceConfirm,omitempty"`
}

type MockConfirmationRequest struct {
	MerchantTransactionID string `json:"merchantTransactionId" validate:"required"`
	BookingID             string `json:"bookingId" validate:"required"`
	Status                string `json:"status" validate:"required,oneof=success failed"`
}

type RefundInitiationRequest struct {
	OriginalMerchantOrderID string  `json:"originalMerchantOrderId" validate:"required"`
	Amount                  float64 `json:"amount" validate:"required,gt=0"`
	Reason                  string  `json:"reason,omitempty"`
}

// ConfirmationResult reports granular outcomes so a confirmed payment with
// a failed side effect is distinguishable from a hard failure.
type ConfirmationResult struct {
	PaymentVerified bool                     `json:"paymentVerified"`
	DatabaseUpdated bool                     `json:"databaseUpdated"`
	EmailSent       bool                     `json:"emailSent"`
	EmailError      string                   `json:"emailError,omitempty"`
	PaymentDetails  []payments.PaymentDetail `json:"paymentDetails,omitempty"`
	BookingID       string                   `json:"bookingId"`
	TransactionID   string                   `json:"transactionId"`
	MockPayment     bool                     `json:"mockPayment,omitempty"`
}

// EmailSender delivers the payment confirmation email and reports the
// delivery error to the caller.
type EmailSender func(notifications.PaymentConfirmationPayload) error

// StatusNotifier pushes a payment status change to anyone watching the
// merchant order (websocket hub). May be nil.
type StatusNotifier func(merchantOrderID, status string)

type ConfirmationService struct {
	store     PaymentStore
	gateways  map[string]payments.Client
	sendEmail EmailSender
	audit     AuditRecorder
	notify    StatusNotifier
	validate  *validator.Validate

	// AllowTestConfirm gates the forceConfirm escape hatch and the mock
	// confirmation endpoint. Must stay off in production.
	allowTestConfirm bool
}

func NewConfirmationService(
	store PaymentStore,
	gateways map[string]payments.Client,
	sendEmail EmailSender,
	audit AuditRecorder,
	notify StatusNotifier,
	allowTestConfirm bool,
) *ConfirmationService {
	return &ConfirmationService{
		store:            store,
		gateways:         gateways,
		sendEmail:        sendEmail,
		audit:            audit,
		notify:           notify,
		validate:         validator.New(),
		allowTestConfirm: allowTestConfirm,
	}
}

// ConfirmPayment verifies a payment with its gateway and drives the store
// update, confirmation email and audit record. Once verification succeeds
// the flow runs to completion: store and email failures are reported in
// the result, never as a hard error.
func (s *ConfirmationService) ConfirmPayment(ctx context.Context, req ConfirmationRequest) (*ConfirmationResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, &ConfirmationError{
			Code:    CodeValidationError,
			Status:  400,
			Message: "Invalid confirmation request",
			Details: err.Error(),
		}
	}

	gw, ok := s.gateways[req.Gateway]
	if !ok {
		return nil, &ConfirmationError{
			Code:    CodeSDKNotConfigured,
			Status:  503,
			Message: fmt.Sprintf("Payment gateway %q is not configured", req.Gateway),
		}
	}

	// The stored transaction supplies the gateway-side order reference
	// (Razorpay orders are not addressable by our merchant order id).
	orderRef := req.MerchantOrderID
	txn, err := s.store.FindTransactionByMerchantOrderID(req.MerchantOrderID)
	if err != nil {
		log.Printf("Transaction lookup failed for %s: %v", req.MerchantOrderID, err)
	} else if req.Gateway == models.GatewayRazorpay && txn.GatewayOrderID != nil {
		orderRef = *txn.GatewayOrderID
	}

	status, verifyErr := gw.GetOrderStatus(ctx, orderRef)
	forceConfirmed := false
	if verifyErr != nil {
		if !(req.ForceConfirm && s.allowTestConfirm) {
			s.recordAudit("payment_confirmation", req, txn, "verification_failed", map[string]string{"error": verifyErr.Error()})
			return nil, &ConfirmationError{
				Code:    CodeVerificationFailed,
				Status:  400,
				Message: "Could not verify payment with the gateway",
				Details: verifyErr.Error(),
			}
		}
		log.Printf("⚠️ forceConfirm: proceeding without gateway verification for %s (%v)", req.MerchantOrderID, verifyErr)
		forceConfirmed = true
	} else if status.State != payments.OrderStateCompleted {
		s.recordAudit("payment_confirmation", req, txn, "not_confirmed", map[string]string{"gateway_state": status.State})
		return nil, &ConfirmationError{
			Code:    CodePaymentNotConfirmed,
			Status:  400,
			Message: "Payment is not confirmed by the gateway",
			Details: fmt.Sprintf("gateway reported state %s", status.State),
		}
	}

	// Service details are only needed for the email; resolve them while
	// the store update runs.
	detailsCh := make(chan *ServiceDetails, 1)
	go func() {
		serviceID, err := uuid.Parse(req.ServiceID)
		if err != nil {
			detailsCh <- nil
			return
		}
		d, err := s.store.ResolveServiceDetails(serviceID, req.ServiceType)
		if err != nil {
			log.Printf("Service detail lookup failed for %s: %v", req.ServiceID, err)
			detailsCh <- nil
			return
		}
		detailsCh <- d
	}()

	confirmed := ConfirmedPaymentDetails{AmountPaid: req.Amount, PaidAt: time.Now()}
	var paymentDetails []payments.PaymentDetail
	if status != nil {
		paymentDetails = status.PaymentDetails
		confirmed.GatewayOrderID = status.OrderID
		if status.Amount.MinorUnits > 0 {
			confirmed.AmountPaid = status.Amount.Major()
		}
		if len(status.PaymentDetails) > 0 {
			confirmed.GatewayTransactionID = status.PaymentDetails[0].TransactionID
			confirmed.PaymentMethod = status.PaymentDetails[0].PaymentMode
		}
		if raw, err := json.Marshal(status); err == nil {
			confirmed.Metadata = raw
		}
	}
	if confirmed.PaymentMethod == "" {
		confirmed.PaymentMethod = req.Gateway
	}

	applied, updateErr := s.store.ApplyConfirmedPayment(req.MerchantOrderID, confirmed)
	if updateErr != nil {
		// Deliberate: a verified payment is never failed because our own
		// bookkeeping broke. The customer still gets notified.
		log.Printf("🔥 CRITICAL: store update failed for confirmed payment %s: %v", req.MerchantOrderID, updateErr)
	}

	svcDetails := <-detailsCh
	title := "your driving course"
	currency := "INR"
	if svcDetails != nil {
		title = svcDetails.Title
		currency = svcDetails.Currency
	}

	result := &ConfirmationResult{
		PaymentVerified: true,
		DatabaseUpdated: updateErr == nil && applied,
		PaymentDetails:  paymentDetails,
		BookingID:       req.BookingID,
		TransactionID:   req.TransactionID,
	}

	// Send the email only when this call performed the flip (or tried to
	// and failed): a repeat confirmation of an already-terminal order must
	// not mail the customer twice.
	if applied || updateErr != nil {
		emailErr := s.sendEmail(notifications.PaymentConfirmationPayload{
			CustomerName:    req.CustomerName,
			CustomerEmail:   req.CustomerEmail,
			ServiceTitle:    title,
			Amount:          confirmed.AmountPaid,
			Currency:        currency,
			MerchantOrderID: req.MerchantOrderID,
			PaymentMethod:   confirmed.PaymentMethod,
		})
		if emailErr != nil {
			log.Printf("🔥 Confirmation email failed for %s: %v", req.MerchantOrderID, emailErr)
			result.EmailError = emailErr.Error()
		} else {
			result.EmailSent = true
		}
	}

	outcome := "confirmed"
	if forceConfirmed {
		outcome = "force_confirmed"
	}
	s.recordAudit("payment_confirmation", req, txn, outcome, result)

	if s.notify != nil {
		s.notify(req.MerchantOrderID, models.PaymentStatusPaid)
	}

	return result, nil
}

// ConfirmMockPayment exercises the same update and notification paths as
// the real flow without a gateway; the caller supplies the outcome.
func (s *ConfirmationService) ConfirmMockPayment(ctx context.Context, req MockConfirmationRequest) (*ConfirmationResult, error) {
	if !s.allowTestConfirm {
		return nil, &ConfirmationError{
			Code:    CodeMockConfirmDisabled,
			Status:  403,
			Message: "Mock confirmation is disabled in this environment",
		}
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, &ConfirmationError{
			Code:    CodeValidationError,
			Status:  400,
			Message: "Invalid mock confirmation request",
			Details: err.Error(),
		}
	}

	txn, err := s.store.FindTransactionByMerchantOrderID(req.MerchantTransactionID)
	if err != nil {
		return nil, &ConfirmationError{
			Code:    CodeTransactionNotFound,
			Status:  404,
			Message: "Transaction not found",
			Details: err.Error(),
		}
	}

	result := &ConfirmationResult{
		BookingID:     req.BookingID,
		TransactionID: txn.ID.String(),
		MockPayment:   true,
	}

	if req.Status == "failed" {
		applied, err := s.store.MarkPaymentFailed(req.MerchantTransactionID)
		if err != nil {
			log.Printf("🔥 Failed to mark mock payment %s as failed: %v", req.MerchantTransactionID, err)
		}
		result.DatabaseUpdated = err == nil && applied
		s.recordAuditTxn("mock_payment", txn, "failed", result)
		if s.notify != nil {
			s.notify(req.MerchantTransactionID, models.PaymentStatusFailed)
		}
		return result, nil
	}

	confirmed := ConfirmedPaymentDetails{
		GatewayTransactionID: "MOCK-" + req.MerchantTransactionID,
		PaymentMethod:        "mock",
		AmountPaid:           txn.Amount,
		PaidAt:               time.Now(),
	}

	applied, updateErr := s.store.ApplyConfirmedPayment(req.MerchantTransactionID, confirmed)
	if updateErr != nil {
		log.Printf("🔥 Store update failed for mock payment %s: %v", req.MerchantTransactionID, updateErr)
	}

	result.PaymentVerified = true
	result.DatabaseUpdated = updateErr == nil && applied

	if applied || updateErr != nil {
		details, _ := s.resolveForEmail(txn)
		emailErr := s.sendEmail(notifications.PaymentConfirmationPayload{
			CustomerName:    txn.Booking.CustomerName,
			CustomerEmail:   txn.Booking.CustomerEmail,
			ServiceTitle:    details.Title,
			Amount:          txn.Amount,
			Currency:        txn.Currency,
			MerchantOrderID: req.MerchantTransactionID,
			PaymentMethod:   "mock",
		})
		if emailErr != nil {
			result.EmailError = emailErr.Error()
		} else {
			result.EmailSent = true
		}
	}

	s.recordAuditTxn("mock_payment", txn, "confirmed", result)
	if s.notify != nil {
		s.notify(req.MerchantTransactionID, models.PaymentStatusPaid)
	}
	return result, nil
}

// OrderStatus is a pure read-through to the gateway: no store mutation.
func (s *ConfirmationService) OrderStatus(ctx context.Context, merchantOrderID string) (*payments.OrderStatus, *models.Transaction, error) {
	txn, err := s.store.FindTransactionByMerchantOrderID(merchantOrderID)
	if err != nil {
		return nil, nil, &ConfirmationError{
			Code:    CodeTransactionNotFound,
			Status:  404,
			Message: "No transaction for this merchant order id",
		}
	}

	gw, ok := s.gateways[txn.PaymentGateway]
	if !ok {
		return nil, nil, &ConfirmationError{
			Code:    CodeSDKNotConfigured,
			Status:  503,
			Message: fmt.Sprintf("Payment gateway %q is not configured", txn.PaymentGateway),
		}
	}

	orderRef := merchantOrderID
	if txn.PaymentGateway == models.GatewayRazorpay && txn.GatewayOrderID != nil {
		orderRef = *txn.GatewayOrderID
	}

	status, err := gw.GetOrderStatus(ctx, orderRef)
	if err != nil {
		return nil, nil, s.gatewayError(txn.PaymentGateway, err)
	}
	return status, txn, nil
}

// ConfirmFromGateway rebuilds a confirmation request from the stored
// transaction and runs the normal ConfirmPayment flow. Used by the
// PhonePe webhook and the reconciliation job, where the caller only
// knows the merchant order id.
func (s *ConfirmationService) ConfirmFromGateway(ctx context.Context, merchantOrderID string) (*ConfirmationResult, error) {
	txn, err := s.store.FindTransactionByMerchantOrderID(merchantOrderID)
	if err != nil {
		return nil, &ConfirmationError{
			Code:    CodeTransactionNotFound,
			Status:  404,
			Message: "No transaction for this merchant order id",
		}
	}

	bookingID := ""
	if txn.BookingID != nil {
		bookingID = txn.BookingID.String()
	}
	req := ConfirmationRequest{
		MerchantOrderID: merchantOrderID,
		Gateway:         txn.PaymentGateway,
		BookingID:       bookingID,
		TransactionID:   txn.ID.String(),
		ServiceID:       txn.ServiceID.String(),
		ServiceType:     txn.ServiceType,
		CustomerEmail:   txn.Booking.CustomerEmail,
		CustomerName:    txn.Booking.CustomerName,
		Amount:          txn.Amount,
	}
	return s.ConfirmPayment(ctx, req)
}

// FailFromGateway marks a transaction failed after the gateway reported a
// terminal non-success state.
func (s *ConfirmationService) FailFromGateway(merchantOrderID, gatewayState string) error {
	txn, err := s.store.FindTransactionByMerchantOrderID(merchantOrderID)
	if err != nil {
		return &ConfirmationError{
			Code:    CodeTransactionNotFound,
			Status:  404,
			Message: "No transaction for this merchant order id",
		}
	}

	applied, err := s.store.MarkPaymentFailed(merchantOrderID)
	if err != nil {
		log.Printf("🔥 Failed to mark payment %s as failed: %v", merchantOrderID, err)
		return &ConfirmationError{
			Code:    CodeConfirmationFailed,
			Status:  500,
			Message: "Failed to record payment failure",
		}
	}

	s.recordAuditTxn("payment_failed", txn, "failed", map[string]interface{}{
		"gatewayState": gatewayState,
		"applied":      applied,
	})
	if applied && s.notify != nil {
		s.notify(merchantOrderID, models.PaymentStatusFailed)
	}
	return nil
}

// InitiateRefund asks the gateway to refund a captured payment. Booking
// and Transaction rows are left to the reconciliation pass; only an audit
// record is written here.
func (s *ConfirmationService) InitiateRefund(ctx context.Context, req RefundInitiationRequest) (*payments.RefundStatus, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, &ConfirmationError{
			Code:    CodeValidationError,
			Status:  400,
			Message: "Invalid refund request",
			Details: err.Error(),
		}
	}

	txn, err := s.store.FindTransactionByMerchantOrderID(req.OriginalMerchantOrderID)
	if err != nil {
		return nil, &ConfirmationError{
			Code:    CodeTransactionNotFound,
			Status:  404,
			Message: "No transaction for this merchant order id",
		}
	}

	gw, ok := s.gateways[txn.PaymentGateway]
	if !ok {
		return nil, &ConfirmationError{
			Code:    CodeSDKNotConfigured,
			Status:  503,
			Message: fmt.Sprintf("Payment gateway %q is not configured", txn.PaymentGateway),
		}
	}

	originalRef := req.OriginalMerchantOrderID
	if txn.PaymentGateway == models.GatewayRazorpay {
		if txn.GatewayPaymentID == nil {
			return nil, &ConfirmationError{
				Code:    CodeRazorpayAPIError,
				Status:  502,
				Message: "Transaction has no captured Razorpay payment to refund",
			}
		}
		originalRef = *txn.GatewayPaymentID
	}

	refund, err := gw.InitiateRefund(ctx, payments.RefundRequest{
		MerchantRefundID: "RF-" + uuid.New().String(),
		OriginalRef:      originalRef,
		Amount:           payments.FromMajor(req.Amount, txn.Currency),
		Reason:           req.Reason,
	})
	if err != nil {
		return nil, s.gatewayError(txn.PaymentGateway, err)
	}

	s.recordAuditTxn("refund_initiated", txn, refund.State, map[string]interface{}{
		"refund_id": refund.RefundID,
		"amount":    req.Amount,
		"reason":    req.Reason,
	})
	return refund, nil
}

func (s *ConfirmationService) RefundStatus(ctx context.Context, merchantOrderID, refundID string) (*payments.RefundStatus, error) {
	txn, err := s.store.FindTransactionByMerchantOrderID(merchantOrderID)
	if err != nil {
		return nil, &ConfirmationError{
			Code:    CodeTransactionNotFound,
			Status:  404,
			Message: "No transaction for this merchant order id",
		}
	}

	gw, ok := s.gateways[txn.PaymentGateway]
	if !ok {
		return nil, &ConfirmationError{
			Code:    CodeSDKNotConfigured,
			Status:  503,
			Message: fmt.Sprintf("Payment gateway %q is not configured", txn.PaymentGateway),
		}
	}

	refund, err := gw.GetRefundStatus(ctx, refundID)
	if err != nil {
		return nil, s.gatewayError(txn.PaymentGateway, err)
	}
	return refund, nil
}

func (s *ConfirmationService) gatewayError(gateway string, err error) *ConfirmationError {
	code := CodePhonePeAPIError
	if gateway == models.GatewayRazorpay {
		code = CodeRazorpayAPIError
	}
	status := 502
	if errors.Is(err, payments.ErrNotConfigured) {
		code = CodeSDKNotConfigured
		status = 503
	} else if errors.Is(err, payments.ErrConfigInvalid) {
		code = CodeSDKConfigInvalid
		status = 503
	}
	return &ConfirmationError{
		Code:    code,
		Status:  status,
		Message: "Payment gateway request failed",
		Details: err.Error(),
	}
}

func (s *ConfirmationService) resolveForEmail(txn *models.Transaction) (ServiceDetails, error) {
	details := ServiceDetails{Title: "your driving course", Currency: txn.Currency}
	resolved, err := s.store.ResolveServiceDetails(txn.ServiceID, txn.ServiceType)
	if err != nil {
		return details, err
	}
	details.Title = resolved.Title
	details.Currency = resolved.Currency
	return details, nil
}

func (s *ConfirmationService) recordAudit(eventType string, req ConfirmationRequest, txn *models.Transaction, outcome string, detail interface{}) {
	if s.audit == nil {
		return
	}
	entry := AuditEntry{
		EventType:       eventType,
		MerchantOrderID: req.MerchantOrderID,
		Gateway:         req.Gateway,
		Amount:          req.Amount,
		Outcome:         outcome,
		Detail:          detail,
	}
	if txn != nil {
		entry.TransactionID = &txn.ID
		entry.BookingID = txn.BookingID
	}
	s.audit.RecordTransaction(entry)
}

func (s *ConfirmationService) recordAuditTxn(eventType string, txn *models.Transaction, outcome string, detail interface{}) {
	if s.audit == nil {
		return
	}
	s.audit.RecordTransaction(AuditEntry{
		EventType:       eventType,
		MerchantOrderID: txn.MerchantOrderID,
		BookingID:       txn.BookingID,
		TransactionID:   &txn.ID,
		Gateway:         txn.PaymentGateway,
		Amount:          txn.Amount,
		Outcome:         outcome,
		Detail:          detail,
	})
}
