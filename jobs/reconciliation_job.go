package jobs

import (
	"context"
	"log"
	"time"

	"github.com/devadarsh07/drive_academy/database"
	"github.com/devadarsh07/drive_academy/models"
	"github.com/devadarsh07/drive_academy/payments"
	"github.com/devadarsh07/drive_academy/services"
)

// ReconcilePendingPayments sweeps transactions stuck in pending and asks
// their gateway what actually happened. Customers who paid but never
// returned to the callback page get confirmed here; abandoned checkouts
// older than a day get failed.
func ReconcilePendingPayments(svc *services.ConfirmationService, gateways map[string]payments.Client) {
	log.Println("Running job: ReconcilePendingPayments...")

	cutoff := time.Now().Add(-10 * time.Minute)
	abandonCutoff := time.Now().Add(-24 * time.Hour)

	var pending []models.Transaction
	err := database.DB.
		Where("status = ? AND created_at < ?", models.TransactionStatusPending, cutoff).
		Limit(50).
		Find(&pending).Error
	if err != nil {
		log.Printf("🔥 Reconciliation query failed: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, txn := range pending {
		gw, ok := gateways[txn.PaymentGateway]
		if !ok {
			continue
		}

		orderRef := txn.MerchantOrderID
		if txn.PaymentGateway == models.GatewayRazorpay && txn.GatewayOrderID != nil {
			orderRef = *txn.GatewayOrderID
		}

		status, err := gw.GetOrderStatus(ctx, orderRef)
		if err != nil {
			// Transport trouble; leave the row for the next sweep.
			log.Printf("⚠️ Reconciliation skipped %s: %v", txn.MerchantOrderID, err)
			continue
		}

		switch status.State {
		case payments.OrderStateCompleted:
			log.Printf("✅ Reconciliation found completed payment for %s", txn.MerchantOrderID)
			if _, err := svc.ConfirmFromGateway(ctx, txn.MerchantOrderID); err != nil {
				log.Printf("🔥 Reconciliation could not confirm %s: %v", txn.MerchantOrderID, err)
			}
		case payments.OrderStateFailed:
			if err := svc.FailFromGateway(txn.MerchantOrderID, status.State); err != nil {
				log.Printf("🔥 Reconciliation could not fail %s: %v", txn.MerchantOrderID, err)
			}
		default:
			// Still pending at the gateway. Give up after a day.
			if txn.CreatedAt.Before(abandonCutoff) {
				log.Printf("⚠️ Abandoning stale checkout %s", txn.MerchantOrderID)
				if err := svc.FailFromGateway(txn.MerchantOrderID, "EXPIRED"); err != nil {
					log.Printf("🔥 Reconciliation could not expire %s: %v", txn.MerchantOrderID, err)
				}
			}
		}
	}
}
