package main

import (
	"errors"
	"log"
	"time"

	config "github.com/devadarsh07/drive_academy/configs"
	"github.com/devadarsh07/drive_academy/database"
	"github.com/devadarsh07/drive_academy/handlers"
	"github.com/devadarsh07/drive_academy/jobs"
	"github.com/devadarsh07/drive_academy/notifications"
	"github.com/devadarsh07/drive_academy/payments"
	"github.com/devadarsh07/drive_academy/routes"
	"github.com/devadarsh07/drive_academy/services"
	"github.com/devadarsh07/drive_academy/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

func buildGateways() map[string]payments.Client {
	gateways := make(map[string]payments.Client)

	phonepe, err := payments.NewPhonePeClient(payments.PhonePeConfig{
		ClientID:      config.Config("PHONEPE_CLIENT_ID"),
		ClientSecret:  config.Config("PHONEPE_CLIENT_SECRET"),
		ClientVersion: config.Config("PHONEPE_CLIENT_VERSION"),
		MerchantID:    config.Config("PHONEPE_MERCHANT_ID"),
		BaseURL:       config.Config("PHONEPE_BASE_URL"),
		AuthBaseURL:   config.Config("PHONEPE_AUTH_BASE_URL"),
	})
	switch {
	case err == nil:
		gateways["phonepe"] = phonepe
		log.Println("✅ PhonePe gateway configured.")
	case errors.Is(err, payments.ErrNotConfigured):
		log.Println("⚠️ PhonePe credentials missing; gateway disabled.")
	default:
		log.Printf("🔥 PhonePe configuration invalid: %v", err)
	}

	razorpay, err := payments.NewRazorpayClient(config.Config("RAZORPAY_KEY_ID"), config.Config("RAZORPAY_KEY_SECRET"))
	switch {
	case err == nil:
		gateways["razorpay"] = razorpay
		log.Println("✅ Razorpay gateway configured.")
	case errors.Is(err, payments.ErrNotConfigured):
		log.Println("⚠️ Razorpay credentials missing; gateway disabled.")
	default:
		log.Printf("🔥 Razorpay configuration invalid: %v", err)
	}

	return gateways
}

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()
	notifications.InitEmailService()

	go services.FetchRates()

	gateways := buildGateways()
	store := services.NewGormPaymentStore(database.DB)
	audit := services.NewAuditService(database.DB)
	confirmationService := services.NewConfirmationService(
		store,
		gateways,
		notifications.SendPaymentConfirmation,
		audit,
		websocket.PublishPaymentStatus,
		config.Config("ALLOW_FORCE_CONFIRM") == "true",
	)

	paymentHandler := handlers.NewPaymentHandler(confirmationService)
	enrollmentHandler := handlers.NewEnrollmentHandler(gateways)

	c := cron.New()
	c.AddFunc("*/5 * * * *", func() { jobs.ReconcilePendingPayments(confirmationService, gateways) })
	c.AddFunc("0 18 * * *", jobs.SendLessonReminders)
	go c.Start()
	log.Println("✅ Cron jobs for reconciliation and reminders scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "Drive Academy",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Kolkata",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to Drive Academy API",
		})
	})

	routes.PublicRoutes(app)
	routes.AuthRoutes(app)
	routes.AdminRoutes(app)
	routes.EnrollmentRoutes(app, enrollmentHandler)
	routes.PaymentRoutes(app, paymentHandler)

	go websocket.RunHub()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	port := config.ConfigOr("PORT", "8080")
	log.Println("✅ Server is running on port " + port)
	err := app.Listen(":" + port)
	if err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
