package websocket

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Client is a checkout page watching one merchant order for its payment
// outcome.
type Client struct {
	MerchantOrderID string
	Conn            *websocket.Conn
}

type StatusUpdate struct {
	MerchantOrderID string `json:"merchant_order_id"`
	PaymentStatus   string `json:"payment_status"`
}

var clients = make(map[string][]*websocket.Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var statusUpdates = make(chan StatusUpdate, 16)

// PublishPaymentStatus pushes a payment status change to every connection
// watching the order. Safe to call from any goroutine; drops the update
// if the hub is backed up rather than blocking a confirmation flow.
func PublishPaymentStatus(merchantOrderID, status string) {
	select {
	case statusUpdates <- StatusUpdate{MerchantOrderID: merchantOrderID, PaymentStatus: status}:
	default:
		log.Printf("Payment status hub busy, dropped update for %s", merchantOrderID)
	}
}

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Status watcher registered for order %s", client.MerchantOrderID)
			clientsMu.Lock()
			clients[client.MerchantOrderID] = append(clients[client.MerchantOrderID], client.Conn)
			clientsMu.Unlock()
		case client := <-Unregister:
			clientsMu.Lock()
			conns := clients[client.MerchantOrderID]
			for i, conn := range conns {
				if conn == client.Conn {
					clients[client.MerchantOrderID] = append(conns[:i], conns[i+1:]...)
					break
				}
			}
			if len(clients[client.MerchantOrderID]) == 0 {
				delete(clients, client.MerchantOrderID)
			}
			clientsMu.Unlock()
		case update := <-statusUpdates:
			clientsMu.RLock()
			conns := append([]*websocket.Conn(nil), clients[update.MerchantOrderID]...)
			clientsMu.RUnlock()
			for _, conn := range conns {
				if err := conn.WriteJSON(update); err != nil {
					log.Printf("Error pushing status for order %s: %v", update.MerchantOrderID, err)
					conn.Close()
				}
			}
		}
	}
}
