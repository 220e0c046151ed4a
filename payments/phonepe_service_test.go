package payments_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devadarsh07/drive_academy/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonDecode(r *http.Request, out interface{}) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func phonePeTestConfig(apiURL, authURL string) payments.PhonePeConfig {
	return payments.PhonePeConfig{
		ClientID:      "client-id",
		ClientSecret:  "client-secret",
		ClientVersion: "1",
		MerchantID:    "M12345",
		BaseURL:       apiURL,
		AuthBaseURL:   authURL,
	}
}

func newAuthServer(t *testing.T, tokenCalls *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(tokenCalls, 1)
		assert.Equal(t, "/v1/oauth/token", r.URL.Path)
		fmt.Fprintf(w, `{"access_token":"test-token","expires_at":%d}`, time.Now().Add(time.Hour).Unix())
	}))
}

func TestNewPhonePeClientMissingCredentials(t *testing.T) {
	_, err := payments.NewPhonePeClient(payments.PhonePeConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, payments.ErrNotConfigured)
}

func TestNewPhonePeClientBadBaseURL(t *testing.T) {
	cfg := phonePeTestConfig("not a url", "https://auth.example.com")
	_, err := payments.NewPhonePeClient(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, payments.ErrConfigInvalid)
}

func TestGetOrderStatusParsesResponse(t *testing.T) {
	var tokenCalls int64
	authSrv := newAuthServer(t, &tokenCalls)
	defer authSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkout/v2/order/DRV123/status", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("details"))
		assert.Equal(t, "O-Bearer test-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{
			"orderId": "OMO2024",
			"state": "COMPLETED",
			"amount": 499900,
			"paymentDetails": [
				{"transactionId": "T555", "paymentMode": "UPI", "state": "COMPLETED", "timestamp": 1724900000}
			]
		}`)
	}))
	defer apiSrv.Close()

	client, err := payments.NewPhonePeClient(phonePeTestConfig(apiSrv.URL, authSrv.URL))
	require.NoError(t, err)

	status, err := client.GetOrderStatus(context.Background(), "DRV123")
	require.NoError(t, err)

	assert.Equal(t, "OMO2024", status.OrderID)
	assert.Equal(t, payments.OrderStateCompleted, status.State)
	assert.Equal(t, int64(499900), status.Amount.MinorUnits)
	assert.InDelta(t, 4999.0, status.Amount.Major(), 0.01)
	require.Len(t, status.PaymentDetails, 1)
	assert.Equal(t, "T555", status.PaymentDetails[0].TransactionID)
	assert.Equal(t, "UPI", status.PaymentDetails[0].PaymentMode)
}

func TestAccessTokenIsCached(t *testing.T) {
	var tokenCalls int64
	authSrv := newAuthServer(t, &tokenCalls)
	defer authSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"orderId": "OMO1", "state": "PENDING", "amount": 100}`)
	}))
	defer apiSrv.Close()

	client, err := payments.NewPhonePeClient(phonePeTestConfig(apiSrv.URL, authSrv.URL))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := client.GetOrderStatus(context.Background(), "DRV123")
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), atomic.LoadInt64(&tokenCalls))
}

func TestTransientFailureIsRetriedOnce(t *testing.T) {
	var tokenCalls int64
	authSrv := newAuthServer(t, &tokenCalls)
	defer authSrv.Close()

	var apiCalls int64
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&apiCalls, 1) == 1 {
			// Kill the connection mid-response to simulate a network blip.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		fmt.Fprint(w, `{"orderId": "OMO1", "state": "COMPLETED", "amount": 100}`)
	}))
	defer apiSrv.Close()

	client, err := payments.NewPhonePeClient(phonePeTestConfig(apiSrv.URL, authSrv.URL))
	require.NoError(t, err)

	status, err := client.GetOrderStatus(context.Background(), "DRV123")
	require.NoError(t, err)
	assert.Equal(t, payments.OrderStateCompleted, status.State)
	assert.Equal(t, int64(2), atomic.LoadInt64(&apiCalls))
}

func TestPersistentFailureSurfacesGatewayUnavailable(t *testing.T) {
	var tokenCalls int64
	authSrv := newAuthServer(t, &tokenCalls)
	defer authSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, _, err := hj.Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	defer apiSrv.Close()

	client, err := payments.NewPhonePeClient(phonePeTestConfig(apiSrv.URL, authSrv.URL))
	require.NoError(t, err)

	_, err = client.GetOrderStatus(context.Background(), "DRV123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, payments.ErrGatewayUnavailable))
}

func TestAPIErrorIsNotRetried(t *testing.T) {
	var tokenCalls int64
	authSrv := newAuthServer(t, &tokenCalls)
	defer authSrv.Close()

	var apiCalls int64
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&apiCalls, 1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code": "ORDER_NOT_FOUND"}`)
	}))
	defer apiSrv.Close()

	client, err := payments.NewPhonePeClient(phonePeTestConfig(apiSrv.URL, authSrv.URL))
	require.NoError(t, err)

	_, err = client.GetOrderStatus(context.Background(), "DRV123")
	require.Error(t, err)
	assert.False(t, errors.Is(err, payments.ErrGatewayUnavailable))
	assert.Equal(t, int64(1), atomic.LoadInt64(&apiCalls))
}

func TestCreateOrderSendsMinorUnits(t *testing.T) {
	var tokenCalls int64
	authSrv := newAuthServer(t, &tokenCalls)
	defer authSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkout/v2/pay", r.URL.Path)
		var payload map[string]interface{}
		require.NoError(t, jsonDecode(r, &payload))
		assert.Equal(t, float64(499900), payload["amount"])
		fmt.Fprint(w, `{"orderId": "OMO9", "state": "PENDING", "redirectUrl": "https://pay.example.com/OMO9"}`)
	}))
	defer apiSrv.Close()

	client, err := payments.NewPhonePeClient(phonePeTestConfig(apiSrv.URL, authSrv.URL))
	require.NoError(t, err)

	order, err := client.CreateOrder(context.Background(), "DRV123", payments.FromMajor(4999, "INR"), "https://shop.example.com/callback")
	require.NoError(t, err)
	assert.Equal(t, "OMO9", order.GatewayOrderID)
	assert.Equal(t, "https://pay.example.com/OMO9", order.CheckoutURL)
}
