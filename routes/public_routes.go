package routes

import (
	"github.com/devadarsh07/drive_academy/handlers"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/courses", handlers.ListCourses)
	api.Get("/courses/:courseId", handlers.GetCourse)
	api.Get("/services", handlers.ListDrivingServices)
	api.Get("/instructors", handlers.ListInstructors)
	api.Get("/resources", handlers.ListResources)

	api.Get("/testimonials", handlers.ListTestimonials)
	api.Post("/testimonials", handlers.SubmitTestimonial)

	api.Post("/refresher-requests", handlers.SubmitRefresherRequest)
	api.Get("/exam-status/:applicationNumber", handlers.GetExamStatus)

	api.Get("/currency/rate", handlers.GetConversionRate)
}
