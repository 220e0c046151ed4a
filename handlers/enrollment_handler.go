package handlers

import (
	"errors"
	"fmt"
	"log"
	"time"

	config "github.com/devadarsh07/drive_academy/configs"
	"github.com/devadarsh07/drive_academy/database"
	"github.com/devadarsh07/drive_academy/models"
	"github.com/devadarsh07/drive_academy/payments"
	"github.com/devadarsh07/drive_academy/services"
	"github.com/devadarsh07/drive_academy/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EnrollmentHandler creates the Student/Enrollment/Booking/Transaction
// chain and opens a checkout order with the chosen gateway.
type EnrollmentHandler struct {
	gateways map[string]payments.Client
}

func NewEnrollmentHandler(gateways map[string]payments.Client) *EnrollmentHandler {
	return &EnrollmentHandler{gateways: gateways}
}

type EnrollmentRequest struct {
	CourseID           string  `json:"course_id" validate:"required,uuid"`
	FullName           string  `json:"full_name" validate:"required,min=3"`
	Email              string  `json:"email" validate:"required,email"`
	Phone              string  `json:"phone" validate:"required,min=10"`
	Address            *string `json:"address,omitempty"`
	PreferredStartDate *string `json:"preferred_start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PaymentGateway     string  `json:"payment_gateway" validate:"required,oneof=phonepe razorpay"`
}

func (h *EnrollmentHandler) CreateEnrollment(c *fiber.Ctx) error {
	var req EnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	gateway, ok := h.gateways[req.PaymentGateway]
	if !ok {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": fmt.Sprintf("Payment gateway %q is not available", req.PaymentGateway)})
	}

	courseID, _ := uuid.Parse(req.CourseID)
	var course models.Course
	if err := database.DB.First(&course, "id = ? AND is_active = ?", courseID, true).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}

	// International course pricing is in USD; the gateways charge INR.
	amountINR := course.Price
	if course.Currency == "USD" {
		converted, err := services.ConvertUSDToINR(course.Price)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not determine course price"})
		}
		amountINR = converted
	}

	var (
		booking         models.Booking
		enrollment      models.Enrollment
		txnRecord       models.Transaction
		merchantOrderID string
	)
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var student models.Student
		if err := tx.Where("email = ?", req.Email).First(&student).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			student = models.Student{
				FullName: req.FullName,
				Email:    req.Email,
				Phone:    req.Phone,
				Address:  req.Address,
			}
			if err := tx.Create(&student).Error; err != nil {
				return err
			}
		}

		booking = models.Booking{
			ServiceID:     course.ID,
			ServiceType:   course.ServiceType,
			StudentID:     &student.ID,
			CustomerName:  req.FullName,
			CustomerEmail: req.Email,
			CustomerPhone: req.Phone,
			Status:        models.BookingStatusPending,
			PaymentStatus: models.PaymentStatusPending,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}

		var startDate *time.Time
		if req.PreferredStartDate != nil {
			if parsed, err := time.Parse("2006-01-02", *req.PreferredStartDate); err == nil {
				startDate = &parsed
			}
		}
		enrollment = models.Enrollment{
			StudentID:          student.ID,
			CourseID:           course.ID,
			BookingID:          &booking.ID,
			PreferredStartDate: startDate,
			Status:             "pending",
		}
		if err := tx.Create(&enrollment).Error; err != nil {
			return err
		}

		var err error
		merchantOrderID, err = utils.GenerateMerchantOrderID(tx)
		if err != nil {
			return err
		}

		txnRecord = models.Transaction{
			MerchantOrderID: merchantOrderID,
			BookingID:       &booking.ID,
			ServiceID:       course.ID,
			ServiceType:     course.ServiceType,
			Amount:          amountINR,
			Currency:        "INR",
			PaymentGateway:  req.PaymentGateway,
			Status:          models.TransactionStatusPending,
		}
		if err := tx.Create(&txnRecord).Error; err != nil {
			return err
		}

		booking.PaymentTransactionID = &txnRecord.ID
		return tx.Model(&booking).Update("payment_transaction_id", txnRecord.ID).Error
	})
	if err != nil {
		log.Printf("🔥 Failed to create enrollment: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create enrollment"})
	}

	redirectURL := fmt.Sprintf("%s/payment/callback?merchantOrderId=%s", config.Config("FRONTEND_URL"), merchantOrderID)
	checkout, err := gateway.CreateOrder(c.Context(), merchantOrderID, payments.FromMajor(amountINR, "INR"), redirectURL)
	if err != nil {
		log.Printf("🔥 Gateway order creation failed for %s: %v", merchantOrderID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to initiate payment with the gateway"})
	}

	database.DB.Model(&txnRecord).Update("gateway_order_id", checkout.GatewayOrderID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":           "Enrollment created. Complete the payment to confirm your seat.",
		"enrollment_id":     enrollment.ID,
		"booking_id":        booking.ID,
		"transaction_id":    txnRecord.ID,
		"merchant_order_id": merchantOrderID,
		"amount":            amountINR,
		"currency":          "INR",
		"checkout": fiber.Map{
			"gateway":      req.PaymentGateway,
			"order_id":     checkout.GatewayOrderID,
			"checkout_url": checkout.CheckoutURL,
		},
	})
}

func (h *EnrollmentHandler) GetEnrollment(c *fiber.Ctx) error {
	enrollmentID := c.Params("enrollmentId")

	var enrollment models.Enrollment
	if err := database.DB.Preload("Student").Preload("Course").Preload("Booking").First(&enrollment, "id = ?", enrollmentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Enrollment not found"})
	}

	return c.JSON(enrollment)
}
