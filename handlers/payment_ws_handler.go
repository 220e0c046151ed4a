package handlers

import (
	"log"

	"github.com/devadarsh07/drive_academy/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
)

// ServePaymentStatus streams payment status updates for one merchant order.
// The checkout page opens this after redirecting to the gateway so it can
// react the moment the webhook or reconciler flips the transaction.
func ServePaymentStatus(c *websocketcontrib.Conn) {
	merchantOrderID := c.Params("merchantOrderId")
	if merchantOrderID == "" {
		c.Close()
		return
	}

	client := &websocket.Client{MerchantOrderID: merchantOrderID, Conn: c}
	websocket.Register <- client
	defer func() {
		websocket.Unregister <- client
		c.Close()
	}()

	// Keep the connection open; the hub does all the writing. Read until
	// the client hangs up.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if !websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure) {
				log.Printf("Payment status socket closed for %s: %v", merchantOrderID, err)
			}
			break
		}
	}
}
