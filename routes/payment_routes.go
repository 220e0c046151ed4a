package routes

import (
	"github.com/devadarsh07/drive_academy/handlers"
	"github.com/devadarsh07/drive_academy/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App, paymentHandler *handlers.PaymentHandler) {
	api := app.Group("/api/v1")

	payments := api.Group("/payments")
	payments.Post("/confirm", paymentHandler.ConfirmPayment)
	payments.Post("/mock-confirm", paymentHandler.MockConfirmPayment)
	payments.Get("/status/:merchantOrderId", paymentHandler.GetOrderStatus)
	payments.Post("/webhook/phonepe", paymentHandler.HandlePhonePeWebhook)

	refunds := payments.Group("/refund", middleware.Protected(), middleware.AdminRequired())
	refunds.Post("", paymentHandler.InitiateRefund)
	refunds.Get("/:refundId", paymentHandler.GetRefundStatus)

	api.Use("/ws/payments/:merchantOrderId", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws/payments/:merchantOrderId", websocket.New(handlers.ServePaymentStatus))
}
