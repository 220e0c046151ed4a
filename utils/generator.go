package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/devadarsh07/drive_academy/models"
	"gorm.io/gorm"
)

const orderSuffixLength = 6
const letterBytes = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateMerchantOrderID produces a unique caller-assigned order id that
// correlates a local transaction with its gateway-side payment attempt.
func GenerateMerchantOrderID(tx *gorm.DB) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		b := make([]byte, orderSuffixLength)
		for i := range b {
			b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
		}
		orderID := fmt.Sprintf("DRV%d%s", time.Now().Unix(), string(b))

		var txn models.Transaction
		err := tx.Where("merchant_order_id = ?", orderID).First(&txn).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return orderID, nil
			}
			return "", err
		}
	}
}
