package routes

import (
	"github.com/devadarsh07/drive_academy/handlers"
	"github.com/gofiber/fiber/v2"
)

func EnrollmentRoutes(app *fiber.App, enrollmentHandler *handlers.EnrollmentHandler) {
	api := app.Group("/api/v1")

	api.Post("/enrollments", enrollmentHandler.CreateEnrollment)
	api.Get("/enrollments/:enrollmentId", enrollmentHandler.GetEnrollment)

	api.Post("/students/:studentId/document", handlers.UploadStudentDocument)
}
