package services

import (
	"encoding/json"
	"log"

	"github.com/devadarsh07/drive_academy/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditEntry struct {
	EventType       string
	MerchantOrderID string
	BookingID       *uuid.UUID
	TransactionID   *uuid.UUID
	Gateway         string
	Amount          float64
	Outcome         string
	Detail          interface{}
}

// AuditRecorder records payment events for operational visibility.
// Implementations must swallow their own failures.
type AuditRecorder interface {
	RecordTransaction(entry AuditEntry)
}

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

func (a *AuditService) RecordTransaction(entry AuditEntry) {
	var detail []byte
	if entry.Detail != nil {
		raw, err := json.Marshal(entry.Detail)
		if err != nil {
			log.Printf("Failed to marshal audit detail for %s: %v", entry.MerchantOrderID, err)
		} else {
			detail = raw
		}
	}

	row := models.AuditLog{
		EventType:       entry.EventType,
		MerchantOrderID: entry.MerchantOrderID,
		BookingID:       entry.BookingID,
		TransactionID:   entry.TransactionID,
		Gateway:         entry.Gateway,
		Amount:          entry.Amount,
		Outcome:         entry.Outcome,
		Detail:          detail,
	}

	if err := a.db.Create(&row).Error; err != nil {
		log.Printf("🔥 Failed to record audit entry for %s: %v", entry.MerchantOrderID, err)
	}
}
