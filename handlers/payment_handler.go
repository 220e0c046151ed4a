package handlers

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/devadarsh07/drive_academy/payments"
	"github.com/devadarsh07/drive_academy/services"
	"github.com/gofiber/fiber/v2"
)

type PaymentHandler struct {
	svc *services.ConfirmationService
}

func NewPaymentHandler(svc *services.ConfirmationService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func respondPaymentError(c *fiber.Ctx, err error) error {
	var cerr *services.ConfirmationError
	if errors.As(err, &cerr) {
		resp := fiber.Map{"success": false, "error": cerr.Message, "code": cerr.Code}
		if cerr.Details != "" {
			resp["details"] = cerr.Details
		}
		return c.Status(cerr.Status).JSON(resp)
	}

	log.Printf("🔥 Unexpected payment error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "Payment confirmation failed",
		"code":    services.CodeConfirmationFailed,
	})
}

func (h *PaymentHandler) ConfirmPayment(c *fiber.Ctx) error {
	var req services.ConfirmationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Cannot parse JSON",
			"code":    services.CodeValidationError,
		})
	}

	result, err := h.svc.ConfirmPayment(c.Context(), req)
	if err != nil {
		return respondPaymentError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Payment confirmed successfully",
		"data":    result,
	})
}

func (h *PaymentHandler) MockConfirmPayment(c *fiber.Ctx) error {
	var req services.MockConfirmationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Cannot parse JSON",
			"code":    services.CodeValidationError,
		})
	}

	result, err := h.svc.ConfirmMockPayment(c.Context(), req)
	if err != nil {
		return respondPaymentError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Mock payment processed",
		"data":    result,
	})
}

func (h *PaymentHandler) GetOrderStatus(c *fiber.Ctx) error {
	merchantOrderID := c.Params("merchantOrderId")

	status, txn, err := h.svc.OrderStatus(c.Context(), merchantOrderID)
	if err != nil {
		return respondPaymentError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"state":           status.State,
			"orderId":         status.OrderID,
			"amount":          status.Amount.MinorUnits,
			"amountInRupees":  status.Amount.Major(),
			"currency":        status.Amount.Currency,
			"gateway":         txn.PaymentGateway,
			"merchantOrderId": txn.MerchantOrderID,
			"paymentDetails":  status.PaymentDetails,
		},
	})
}

func (h *PaymentHandler) InitiateRefund(c *fiber.Ctx) error {
	var req services.RefundInitiationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Cannot parse JSON",
			"code":    services.CodeValidationError,
		})
	}

	refund, err := h.svc.InitiateRefund(c.Context(), req)
	if err != nil {
		return respondPaymentError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Refund initiated",
		"data":    refundResponse(refund),
	})
}

func refundResponse(refund *payments.RefundStatus) fiber.Map {
	return fiber.Map{
		"refundId":         refund.RefundID,
		"merchantRefundId": refund.MerchantRefundID,
		"state":            refund.State,
		"amount":           refund.Amount.MinorUnits,
		"amountInRupees":   refund.Amount.Major(),
		"currency":         refund.Amount.Currency,
	}
}

func (h *PaymentHandler) GetRefundStatus(c *fiber.Ctx) error {
	refundID := c.Params("refundId")
	merchantOrderID := c.Query("merchantOrderId")
	if merchantOrderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "merchantOrderId query parameter is required",
			"code":    services.CodeValidationError,
		})
	}

	refund, err := h.svc.RefundStatus(c.Context(), merchantOrderID, refundID)
	if err != nil {
		return respondPaymentError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": refundResponse(refund)})
}

type phonePeWebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		MerchantOrderID string `json:"merchantOrderId"`
		OrderID         string `json:"orderId"`
		State           string `json:"state"`
		Amount          int64  `json:"amount"`
	} `json:"payload"`
}

// HandlePhonePeWebhook processes server-to-server callbacks. The reported
// state is never trusted directly: a success callback triggers the full
// verification flow against the gateway API.
func (h *PaymentHandler) HandlePhonePeWebhook(c *fiber.Ctx) error {
	var event phonePeWebhookEvent
	if err := json.Unmarshal(c.Body(), &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid webhook payload"})
	}
	if event.Payload.MerchantOrderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Missing merchantOrderId"})
	}

	log.Printf("✅ PhonePe webhook for %s: state=%s", event.Payload.MerchantOrderID, event.Payload.State)

	switch event.Payload.State {
	case "COMPLETED":
		if _, err := h.svc.ConfirmFromGateway(c.Context(), event.Payload.MerchantOrderID); err != nil {
			log.Printf("⚠️ Webhook confirmation for %s did not complete: %v", event.Payload.MerchantOrderID, err)
		}
	case "FAILED", "EXPIRED":
		if err := h.svc.FailFromGateway(event.Payload.MerchantOrderID, event.Payload.State); err != nil {
			log.Printf("⚠️ Webhook failure handling for %s: %v", event.Payload.MerchantOrderID, err)
		}
	}

	// Always acknowledge so the gateway stops retrying; reconciliation
	// picks up anything we could not apply here.
	return c.JSON(fiber.Map{"success": true})
}
