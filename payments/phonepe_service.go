package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// PhonePeConfig is built once in main from the environment and injected.
// No process-wide singleton: tests construct their own value.
type PhonePeConfig struct {
	ClientID      string
	ClientSecret  string
	ClientVersion string
	MerchantID    string
	BaseURL       string
	AuthBaseURL   string
}

type PhonePeClient struct {
	cfg        PhonePeConfig
	httpClient *http.Client

	tokenMu     sync.RWMutex
	token       string
	tokenExpiry time.Time
}

type phonePeTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

type phonePeOrderStatusResponse struct {
	OrderID        string `json:"orderId"`
	State          string `json:"state"`
	Amount         int64  `json:"amount"`
	PaymentDetails []struct {
		TransactionID string `json:"transactionId"`
		PaymentMode   string `json:"paymentMode"`
		State         string `json:"state"`
		Timestamp     int64  `json:"timestamp"`
	} `json:"paymentDetails"`
}

type phonePeRefundResponse struct {
	RefundID string `json:"refundId"`
	State    string `json:"state"`
	Amount   int64  `json:"amount"`
}

func NewPhonePeClient(cfg PhonePeConfig) (*PhonePeClient, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.MerchantID == "" {
		return nil, ErrNotConfigured
	}
	if cfg.ClientVersion == "" {
		cfg.ClientVersion = "1"
	}
	for _, raw := range []string{cfg.BaseURL, cfg.AuthBaseURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("bad PhonePe base URL %q: %w", raw, ErrConfigInvalid)
		}
	}

	return &PhonePeClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (p *PhonePeClient) Name() string { return "phonepe" }

func (p *PhonePeClient) accessToken(ctx context.Context) (string, error) {
	p.tokenMu.RLock()
	if p.token != "" && time.Now().Before(p.tokenExpiry) {
		token := p.token
		p.tokenMu.RUnlock()
		return token, nil
	}
	p.tokenMu.RUnlock()

	p.tokenMu.Lock()
	defer p.tokenMu.Unlock()

	if p.token != "" && time.Now().Before(p.tokenExpiry) {
		return p.token, nil
	}

	log.Println("Fetching new PhonePe access token...")
	form := url.Values{}
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)
	form.Set("client_version", p.cfg.ClientVersion)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, "POST", p.cfg.AuthBaseURL+"/v1/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("PhonePe token request failed: %v: %w", err, ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("PhonePe token API returned non-200 status: %s", resp.Status)
	}

	var tokenResp phonePeTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode PhonePe token response: %v: %w", err, ErrGatewayUnavailable)
	}

	p.token = tokenResp.AccessToken
	// expires_at is an epoch; renew five minutes early
	p.tokenExpiry = time.Unix(tokenResp.ExpiresAt, 0).Add(-5 * time.Minute)
	log.Println("✅ Cached PhonePe access token.")

	return p.token, nil
}

// doJSON performs an authorized API call, retrying once on transport
// errors. A definitive non-2xx answer is returned as-is, not retried.
func (p *PhonePeClient) doJSON(ctx context.Context, method, apiURL string, payload interface{}, out interface{}) error {
	token, err := p.accessToken(ctx)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		var body io.Reader
		if payload != nil {
			raw, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("failed to marshal PhonePe payload: %v", err)
			}
			body = bytes.NewBuffer(raw)
		}

		req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "O-Bearer "+token)

		resp, err := p.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("PhonePe request failed: %v: %w", err, ErrGatewayUnavailable)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read PhonePe response: %v: %w", err, ErrGatewayUnavailable)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			log.Printf("PhonePe API error: %s", string(respBody))
			return fmt.Errorf("PhonePe API returned status %d: %s", resp.StatusCode, string(respBody))
		}

		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal PhonePe response: %v: %w", err, ErrGatewayUnavailable)
		}
		return nil
	}
	return lastErr
}

func (p *PhonePeClient) CreateOrder(ctx context.Context, merchantOrderID string, amount Money, redirectURL string) (*CheckoutOrder, error) {
	payload := map[string]interface{}{
		"merchantOrderId": merchantOrderID,
		"amount":          amount.MinorUnits,
		"paymentFlow": map[string]interface{}{
			"type": "PG_CHECKOUT",
			"merchantUrls": map[string]string{
				"redirectUrl": redirectURL,
			},
		},
	}

	var resp struct {
		OrderID     string `json:"orderId"`
		State       string `json:"state"`
		RedirectURL string `json:"redirectUrl"`
	}
	if err := p.doJSON(ctx, "POST", p.cfg.BaseURL+"/checkout/v2/pay", payload, &resp); err != nil {
		return nil, err
	}

	log.Println("✅ PhonePe order created for", merchantOrderID)
	return &CheckoutOrder{GatewayOrderID: resp.OrderID, CheckoutURL: resp.RedirectURL}, nil
}

func (p *PhonePeClient) GetOrderStatus(ctx context.Context, orderRef string) (*OrderStatus, error) {
	apiURL := fmt.Sprintf("%s/checkout/v2/order/%s/status?details=true", p.cfg.BaseURL, orderRef)

	var resp phonePeOrderStatusResponse
	if err := p.doJSON(ctx, "GET", apiURL, nil, &resp); err != nil {
		return nil, err
	}

	status := &OrderStatus{
		OrderID: resp.OrderID,
		State:   resp.State,
		Amount:  FromMinor(resp.Amount, "INR"),
	}
	for _, d := range resp.PaymentDetails {
		status.PaymentDetails = append(status.PaymentDetails, PaymentDetail{
			TransactionID: d.TransactionID,
			PaymentMode:   d.PaymentMode,
			State:         d.State,
			Timestamp:     d.Timestamp,
		})
	}
	return status, nil
}

func (p *PhonePeClient) InitiateRefund(ctx context.Context, req RefundRequest) (*RefundStatus, error) {
	payload := map[string]interface{}{
		"merchantRefundId":        req.MerchantRefundID,
		"originalMerchantOrderId": req.OriginalRef,
		"amount":                  req.Amount.MinorUnits,
	}

	var resp phonePeRefundResponse
	if err := p.doJSON(ctx, "POST", p.cfg.BaseURL+"/payments/v2/refund", payload, &resp); err != nil {
		return nil, err
	}

	return &RefundStatus{
		RefundID:         resp.RefundID,
		MerchantRefundID: req.MerchantRefundID,
		State:            resp.State,
		Amount:           FromMinor(resp.Amount, "INR"),
	}, nil
}

func (p *PhonePeClient) GetRefundStatus(ctx context.Context, refundID string) (*RefundStatus, error) {
	apiURL := fmt.Sprintf("%s/payments/v2/refund/%s/status", p.cfg.BaseURL, refundID)

	var resp phonePeRefundResponse
	if err := p.doJSON(ctx, "GET", apiURL, nil, &resp); err != nil {
		return nil, err
	}

	return &RefundStatus{
		RefundID:         resp.RefundID,
		MerchantRefundID: refundID,
		State:            resp.State,
		Amount:           FromMinor(resp.Amount, "INR"),
	}, nil
}
