package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/devadarsh07/drive_academy/models"
	"github.com/devadarsh07/drive_academy/notifications"
	"github.com/devadarsh07/drive_academy/payments"
	"github.com/devadarsh07/drive_academy/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	name         string
	status       *payments.OrderStatus
	statusErr    error
	refund       *payments.RefundStatus
	refundErr    error
	lastOrderRef string
	statusCalls  int
}

func (g *stubGateway) Name() string { return g.name }

func (g *stubGateway) CreateOrder(ctx context.Context, merchantOrderID string, amount payments.Money, redirectURL string) (*payments.CheckoutOrder, error) {
	return &payments.CheckoutOrder{GatewayOrderID: "stub-order"}, nil
}

func (g *stubGateway) GetOrderStatus(ctx context.Context, orderRef string) (*payments.OrderStatus, error) {
	g.statusCalls++
	g.lastOrderRef = orderRef
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	return g.status, nil
}

func (g *stubGateway) InitiateRefund(ctx context.Context, req payments.RefundRequest) (*payments.RefundStatus, error) {
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	return g.refund, nil
}

func (g *stubGateway) GetRefundStatus(ctx context.Context, refundID string) (*payments.RefundStatus, error) {
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	return g.refund, nil
}

type stubStore struct {
	txn         *models.Transaction
	findErr     error
	applied     bool
	applyErr    error
	applyCalls  int
	lastApplied services.ConfirmedPaymentDetails
	failApplied bool
	failErr     error
	failCalls   int
	details     *services.ServiceDetails
}

func (s *stubStore) FindTransactionByMerchantOrderID(merchantOrderID string) (*models.Transaction, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.txn, nil
}

func (s *stubStore) ApplyConfirmedPayment(merchantOrderID string, details services.ConfirmedPaymentDetails) (bool, error) {
	s.applyCalls++
	s.lastApplied = details
	return s.applied, s.applyErr
}

func (s *stubStore) MarkPaymentFailed(merchantOrderID string) (bool, error) {
	s.failCalls++
	return s.failApplied, s.failErr
}

func (s *stubStore) ResolveServiceDetails(serviceID uuid.UUID, serviceType string) (*services.ServiceDetails, error) {
	if s.details == nil {
		return nil, errors.New("no such service")
	}
	return s.details, nil
}

type stubAudit struct {
	entries []services.AuditEntry
}

func (a *stubAudit) RecordTransaction(entry services.AuditEntry) {
	a.entries = append(a.entries, entry)
}

type emailRecorder struct {
	payloads []notifications.PaymentConfirmationPayload
	err      error
}

func (e *emailRecorder) send(p notifications.PaymentConfirmationPayload) error {
	e.payloads = append(e.payloads, p)
	return e.err
}

func completedStatus(amountPaise int64) *payments.OrderStatus {
	return &payments.OrderStatus{
		OrderID: "OMO-123",
		State:   payments.OrderStateCompleted,
		Amount:  payments.FromMinor(amountPaise, "INR"),
		PaymentDetails: []payments.PaymentDetail{
			{TransactionID: "T123", PaymentMode: "UPI", State: payments.OrderStateCompleted},
		},
	}
}

func pendingTransaction(gateway string) *models.Transaction {
	bookingID := uuid.New()
	return &models.Transaction{
		ID:              uuid.New(),
		MerchantOrderID: "DRV1724900000ABC123",
		BookingID:       &bookingID,
		ServiceID:       uuid.New(),
		ServiceType:     models.ServiceTypeTraining,
		Amount:          4999.00,
		Currency:        "INR",
		PaymentGateway:  gateway,
		Status:          models.TransactionStatusPending,
		Booking: models.Booking{
			ID:            bookingID,
			CustomerName:  "Asha Verma",
			CustomerEmail: "asha@example.com",
		},
	}
}

func confirmationRequest(txn *models.Transaction) services.ConfirmationRequest {
	return services.ConfirmationRequest{
		MerchantOrderID: txn.MerchantOrderID,
		Gateway:         txn.PaymentGateway,
		BookingID:       txn.BookingID.String(),
		TransactionID:   txn.ID.String(),
		ServiceID:       txn.ServiceID.String(),
		ServiceType:     txn.ServiceType,
		CustomerEmail:   txn.Booking.CustomerEmail,
		CustomerName:    txn.Booking.CustomerName,
		Amount:          txn.Amount,
	}
}

func TestConfirmPaymentSuccess(t *testing.T) {
	txn := pendingTransaction(models.GatewayPhonePe)
	store := &stubStore{
		txn:     txn,
		applied: true,
		details: &services.ServiceDetails{Title: "LMV Beginner Course", Currency: "INR"},
	}
	gateway := &stubGateway{name: "phonepe", status: completedStatus(499900)}
	emails := &emailRecorder{}
	audit := &stubAudit{}

	var notified []string
	svc := services.NewConfirmationService(
		store,
		map[string]payments.Client{"phonepe": gateway},
		emails.send,
		audit,
		func(orderID, status string) { notified = append(notified, status) },
		false,
	)

	result, err := svc.ConfirmPayment(context.Background(), confirmationRequest(txn))
	require.NoError(t, err)

	assert.True(t, result.PaymentVerified)
	assert.True(t, result.DatabaseUpdated)
	assert.True(t, result.EmailSent)
	assert.Empty(t, result.EmailError)
	assert.Equal(t, txn.BookingID.String(), result.BookingID)

	require.Len(t, emails.payloads, 1)
	assert.Equal(t, "LMV Beginner Course", emails.payloads[0].ServiceTitle)
	assert.Equal(t, "asha@example.com", emails.payloads[0].CustomerEmail)
	assert.Equal(t, 4999.00, emails.payloads[0].Amount)
	assert.Equal(t, "UPI", emails.payloads[0].PaymentMethod)

	assert.Equal(t, 1, store.applyCalls)
	assert.Equal(t, "T123", store.lastApplied.GatewayTransactionID)

	assert.Equal(t, []string{models.PaymentStatusPaid}, notified)

	require.NotEmpty(t, audit.entries)
	assert.Equal(t, "confirmed", audit.entries[len(audit.entries)-1].Outcome)
}

func TestConfirmPaymentAcceptsOpaqueServiceID(t *testing.T) {
	txn := pendingTransaction(models.GatewayPhonePe)
	store := &stubStore{txn: txn, applied: true}
	gateway := &stubGateway{name: "phonepe", status: completedStatus(100000)}
	emails := &emailRecorder{}

	svc := services.NewConfirmationService(store, map[string]payments.Client{"phonepe": gateway}, emails.send, &stubAudit{}, nil, false)

	req := confirmationRequest(txn)
	req.ServiceID = "S1"
	req.Amount = 1000.00

	result, err := svc.ConfirmPayment(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, result.PaymentVerified)
	assert.True(t, result.DatabaseUpdated)

	// Service lookup cannot resolve an opaque id; the email falls back to
	// generic details instead of the flow failing.
	require.Len(t, emails.payloads, 1)
	assert.Equal(t, "your driving course", emails.payloads[0].ServiceTitle)
}

func TestConfirmPaymentGatewayReportsPending(t *testing.T) {
	txn := pendingTransaction(models.GatewayPhonePe)
	store := &stubStore{txn: txn, applied: true}
	gateway := &stubGateway{name: "phonepe", status: &payments.OrderStatus{
		OrderID: "OMO-123",
		State:   payments.OrderStatePending,
	}}
	emails := &emailRecorder{}

	svc := services.NewConfirmationService(store, map[string]payments.Client{"phonepe": gateway}, emails.send, &stubAudit{}, nil, false)

	_, err := svc.ConfirmPayment(context.Background(), confirmationRequest(txn))
	require.Error(t, err)

	var cerr *services.ConfirmationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, services.CodePaymentNotConfirmed, cerr.Code)
	assert.Equal(t, 400, cerr.Status)

	assert.Zero(t, store.applyCalls)
	assert.Zero(t, store.failCalls)
	assert.Empty(t, emails.payloads)
}

func TestConfirmPaymentGatewayUnreachable(t *testing.T) {
	txn := pendingTransaction(models.GatewayPhonePe)
	store := &stubStore{txn: txn, applied: true}
	gateway := &stubGateway{name: "phonepe", statusErr: payments.ErrGatewayUnavailable}
	emails := &emailRecorder{}

	svc := services.NewConfirmationService(store, map[string]payments.Client{"phonepe": gateway}, emails.send, &stubAudit{}, nil, false)

	_, err := svc.ConfirmPayment(context.Background(), confirmationRequest(txn))
	require.Error(t, err)

	var cerr *services.ConfirmationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, services.CodeVerificationFailed, cerr.Code)
	assert.Equal(t, 400, cerr.Status)

	assert.Zero(t, store.applyCalls)
	assert.Empty(t, emails.payloads)
}

func TestConfirmPaymentEmailFailureDoesNotFailConfirmation(t *testing.T) {
	txn := pendingTransaction(models.GatewayPhonePe)
	store := &stubStore{txn: txn, applied: true}
	gateway := &stubGateway{name: "phonepe", status: completedStatus(499900)}
	emails := &emailRecorder{err: errors.New("smtp unavailable")}

	svc := services.NewConfirmationService(store, map[string]payments.Client{"phonepe": gateway}, emails.send, &stubAudit{}, nil, false)

	result, err := svc.ConfirmPayment(context.Background(), confirmationRequest(txn))
	require.NoError(t, err)

	assert.True(t, result.PaymentVerified)
	assert.True(t, result.DatabaseUpdated)
	assert.False(t, result.EmailSent)
	assert.Contains(t, result.EmailError, "smtp unavailable")
}

func TestConfirmPaymentStoreFailureStillNotifiesCustomer(t *testing.T) {
	txn := pendingTransaction(models.GatewayPhonePe)
	store := &stubStore{txn: txn, applyErr: errors.New("connection reset")}
	gateway := &stubGateway{name: "phonepe", status: completedStatus(499900)}
	emails := &emailRecorder{}

	svc := services.NewConfirmationService(store, map[string]payments.Client{"phonepe": gateway}, emails.send, &stubAudit{}, nil, false)

	result, err := svc.ConfirmPayment(context.Background(), confirmationRequest(txn))
	require.NoError(t, err)

	assert.True(t, result.PaymentVerified)
	assert.False(t, result.DatabaseUpdated)
	assert.True(t, result.EmailSent)
	require.Len(t, emails.payloads, 1)
}

func TestConfirmPaymentRepeatDoesNotResendEmail(t *testing.T) {
	txn := pendingTransaction(models.GatewayPhonePe)
	txn.Status = models.TransactionStatusCompleted
	store := &stubStore{txn: txn, applied: false}
	gateway := &stubGateway{name: "phonepe", status: completedStatus(499900)}
	emails := &emailRecorder{}

	svc := services.NewConfirmationService(store, map[string]payments.Client{"phonepe": gateway}, emails.send, &stubAudit{}, nil, false)

	result, err := svc.ConfirmPayment(context.Background(), confirmationRequest(txn))
	require.NoError(t, err)

	assert.True(t, result.PaymentVerified)
	assert.False(t, result.DatabaseUpdated)
	assert.False(t, result.EmailSent)
	assert.Empty(t, emails.payloads)
}

func TestConfirmPaymentRejectsInvalidRequest(t *testing.T) {
	svc := services.NewConfirmationService(&stubStore{}, map[string]payments.Client{}, (&emailRecorder{}).send, &stubAudit{}, nil, false)

	_, err := svc.ConfirmPayment(context.Background(), services.ConfirmationRequest{
		MerchantOrderID: "DRV123",
		Gateway:         "paypal",
	})
	require.Error(t, err)

	var cerr *services.ConfirmationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, services.CodeValidationError, cerr.Code)
	assert.Equal(t, 400, cerr.Status)
}

func TestConfirmPaymentUnknownGateway(t *testing.T) {
	txn := pendingTransaction(models.GatewayRazorpay)
	svc := services.NewConfirmationService(&stubStore{txn: txn}, map[string]payments.Client{}, (&emailRecorder{}).send, &stubAudit{}, nil, false)

	_, err := svc.ConfirmPayment(context.Background(), confirmationRequest(txn))
	require.Error(t, err)

	var cerr *services.ConfirmationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, services.CodeSDKNotConfigured, cerr.Code)
	assert.Equal(t, 503, cerr.Status)
}

func TestConfirmPaymentUsesGatewayOrderRefForRazorpay(t *testing.T) {
	txn := pendingTransaction(models.GatewayRazorpay)
	gatewayOrderID := "order_Nxq7abc"
	txn.GatewayOrderID = &gatewayOrderID

	store := &stubStore{txn: txn, applied: true}
	gateway := &stubGateway{name: "razorpay", status: completedStatus(499900)}

	svc := services.NewConfirmationService(store, map[string]payments.Client{"razorpay": gateway}, (&emailRecorder{}).send, &stubAudit{}, nil, false)

	_, err := svc.ConfirmPayment(context.Background(), confirmationRequest(txn))
	require.NoError(t, err)

	assert.Equal(t, "order_Nxq7abc", gateway.lastOrderRef)
}

func TestForceConfirmIgnoredWhenDisabled(t *testing.T) {
	txn := pendingTransaction(models.GatewayPhonePe)
	store := &stubStore{txn: txn, applied: true}
	gateway := &stubGateway{name: "phonepe", statusErr: payments.ErrGatewayUnavailable}

	svc := services.NewConfirmationService(store, map[string]payments.Client{"phonepe": gateway}, (&emailRecorder{}).send, &stubAudit{}, nil, false)

	req := confirmationRequest(txn)
	req.ForceConfirm = true
	_, err := svc.ConfirmPayment(context.Background(), req)
	require.Error(t, err)

	var cerr *services.ConfirmationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, services.CodeVerificationFailed, cerr.Code)
	assert.Zero(t, store.applyCalls)
}

func TestForceConfirmProceedsWhenAllowed(t *testing.T) {
	txn := pendingTransaction(models.GatewayPhonePe)
	store := &stubStore{txn: txn, applied: true}
	gateway := &stubGateway{name: "phonepe", statusErr: payments.ErrGatewayUnavailable}
	emails := &emailRecorder{}
	audit := &stubAudit{}

	svc := services.NewConfirmationService(store, map[string]payments.Client{"phonepe": gateway}, emails.send, audit, nil, true)

	req := confirmationRequest(txn)
	req.ForceConfirm = true
	result, err := svc.ConfirmPayment(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, result.PaymentVerified)
	assert.True(t, result.DatabaseUpdated)
	assert.Equal(t, 1, store.applyCalls)
	// No gateway data, so the method falls back to the gateway name.
	assert.Equal(t, "phonepe", store.lastApplied.PaymentMethod)

	require.NotEmpty(t, audit.entries)
	assert.Equal(t, "force_confirmed", audit.entries[len(audit.entries)-1].Outcome)
}

func TestMockConfirmDisabledByDefault(t *testing.T) {
	svc := services.NewConfirmationService(&stubStore{}, map[string]payments.Client{}, (&emailRecorder{}).send, &stubAudit{}, nil, false)

	_, err := svc.ConfirmMockPayment(context.Background(), services.MockConfirmationRequest{
		MerchantTransactionID: "DRV123",
		BookingID:             uuid.New().String(),
		Status:                "success",
	})
	require.Error(t, err)

	var cerr *services.ConfirmationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, services.CodeMockConfirmDisabled, cerr.Code)
	assert.Equal(t, 403, cerr.Status)
}

func TestMockConfirmSuccess(t *testing.T) {
	txn := pendingTransaction(models.GatewayPhonePe)
	store := &stubStore{txn: txn, applied: true, details: &services.ServiceDetails{Title: "LMV Beginner Course", Currency: "INR"}}
	emails := &emailRecorder{}

	var notified []string
	svc := services.NewConfirmationService(store, map[string]payments.Client{}, emails.send, &stubAudit{},
		func(orderID, status string) { notified = append(notified, status) }, true)

	result, err := svc.ConfirmMockPayment(context.Background(), services.MockConfirmationRequest{
		MerchantTransactionID: txn.MerchantOrderID,
		BookingID:             txn.BookingID.String(),
		Status:                "success",
	})
	require.NoError(t, err)

	assert.True(t, result.MockPayment)
	assert.True(t, result.PaymentVerified)
	assert.True(t, result.DatabaseUpdated)
	assert.True(t, result.EmailSent)
	assert.Equal(t, "MOCK-"+txn.MerchantOrderID, store.lastApplied.GatewayTransactionID)
	assert.Equal(t, []string{models.PaymentStatusPaid}, notified)
}

func TestMockConfirmFailedMarksPaymentFailed(t *testing.T) {
	txn := pendingTransaction(models.GatewayPhonePe)
	store := &stubStore{txn: txn, failApplied: true}
	emails := &emailRecorder{}

	var notified []string
	svc := services.NewConfirmationService(store, map[string]payments.Client{}, emails.send, &stubAudit{},
		func(orderID, status string) { notified = append(notified, status) }, true)

	result, err := svc.ConfirmMockPayment(context.Background(), services.MockConfirmationRequest{
		MerchantTransactionID: txn.MerchantOrderID,
		BookingID:             txn.BookingID.String(),
		Status:                "failed",
	})
	require.NoError(t, err)

	assert.False(t, result.PaymentVerified)
	assert.True(t, result.DatabaseUpdated)
	assert.Equal(t, 1, store.failCalls)
	assert.Zero(t, store.applyCalls)
	assert.Empty(t, emails.payloads)
	assert.Equal(t, []string{models.PaymentStatusFailed}, notified)
}

func TestOrderStatusUnknownTransaction(t *testing.T) {
	store := &stubStore{findErr: errors.New("record not found")}
	svc := services.NewConfirmationService(store, map[string]payments.Client{}, (&emailRecorder{}).send, &stubAudit{}, nil, false)

	_, _, err := svc.OrderStatus(context.Background(), "DRV-missing")
	require.Error(t, err)

	var cerr *services.ConfirmationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, services.CodeTransactionNotFound, cerr.Code)
	assert.Equal(t, 404, cerr.Status)
}

func TestOrderStatusMapsGatewayFailureTo502(t *testing.T) {
	txn := pendingTransaction(models.GatewayPhonePe)
	store := &stubStore{txn: txn}
	gateway := &stubGateway{name: "phonepe", statusErr: payments.ErrGatewayUnavailable}

	svc := services.NewConfirmationService(store, map[string]payments.Client{"phonepe": gateway}, (&emailRecorder{}).send, &stubAudit{}, nil, false)

	_, _, err := svc.OrderStatus(context.Background(), txn.MerchantOrderID)
	require.Error(t, err)

	var cerr *services.ConfirmationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, services.CodePhonePeAPIError, cerr.Code)
	assert.Equal(t, 502, cerr.Status)
}

func TestFailFromGatewayMarksPaymentFailed(t *testing.T) {
	txn := pendingTransaction(models.GatewayPhonePe)
	store := &stubStore{txn: txn, failApplied: true}

	var notified []string
	svc := services.NewConfirmationService(store, map[string]payments.Client{}, (&emailRecorder{}).send, &stubAudit{},
		func(orderID, status string) { notified = append(notified, status) }, false)

	err := svc.FailFromGateway(txn.MerchantOrderID, "EXPIRED")
	require.NoError(t, err)

	assert.Equal(t, 1, store.failCalls)
	assert.Equal(t, []string{models.PaymentStatusFailed}, notified)
}

func TestFailFromGatewayAlreadyTerminalSkipsNotify(t *testing.T) {
	txn := pendingTransaction(models.GatewayPhonePe)
	txn.Status = models.TransactionStatusCompleted
	store := &stubStore{txn: txn, failApplied: false}

	var notified []string
	svc := services.NewConfirmationService(store, map[string]payments.Client{}, (&emailRecorder{}).send, &stubAudit{},
		func(orderID, status string) { notified = append(notified, status) }, false)

	err := svc.FailFromGateway(txn.MerchantOrderID, "FAILED")
	require.NoError(t, err)
	assert.Empty(t, notified)
}

func TestConfirmFromGatewayRebuildsRequest(t *testing.T) {
	txn := pendingTransaction(models.GatewayPhonePe)
	store := &stubStore{txn: txn, applied: true}
	gateway := &stubGateway{name: "phonepe", status: completedStatus(499900)}
	emails := &emailRecorder{}

	svc := services.NewConfirmationService(store, map[string]payments.Client{"phonepe": gateway}, emails.send, &stubAudit{}, nil, false)

	result, err := svc.ConfirmFromGateway(context.Background(), txn.MerchantOrderID)
	require.NoError(t, err)

	assert.True(t, result.DatabaseUpdated)
	assert.Equal(t, txn.BookingID.String(), result.BookingID)
	require.Len(t, emails.payloads, 1)
	assert.Equal(t, txn.Booking.CustomerEmail, emails.payloads[0].CustomerEmail)
}
