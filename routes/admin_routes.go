package routes

import (
	"github.com/devadarsh07/drive_academy/handlers"
	"github.com/devadarsh07/drive_academy/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	admin.Get("/dashboard-analytics", handlers.GetDashboardAnalytics)

	students := admin.Group("/students")
	students.Get("", handlers.ListStudents)
	students.Get("/:studentId", handlers.GetStudent)
	students.Put("/:studentId", handlers.UpdateStudent)

	instructors := admin.Group("/instructors")
	instructors.Post("", handlers.CreateInstructor)
	instructors.Put("/:instructorId", handlers.UpdateInstructor)
	instructors.Delete("/:instructorId", handlers.DeactivateInstructor)

	courses := admin.Group("/courses")
	courses.Post("", handlers.CreateCourse)
	courses.Put("/:courseId", handlers.UpdateCourse)
	courses.Delete("/:courseId", handlers.DeactivateCourse)

	services := admin.Group("/services")
	services.Post("", handlers.CreateDrivingService)
	services.Put("/:serviceId", handlers.UpdateDrivingService)
	services.Delete("/:serviceId", handlers.DeactivateDrivingService)

	testimonials := admin.Group("/testimonials")
	testimonials.Get("/pending", handlers.ListPendingTestimonials)
	testimonials.Post("/:testimonialId/moderate", handlers.ModerateTestimonial)

	enrollments := admin.Group("/enrollments")
	enrollments.Get("", handlers.ListEnrollments)
	enrollments.Put("/:enrollmentId/status", handlers.UpdateEnrollmentStatus)

	refreshers := admin.Group("/refresher-requests")
	refreshers.Get("", handlers.ListRefresherRequests)
	refreshers.Put("/:requestId", handlers.UpdateRefresherRequest)

	examChecks := admin.Group("/exam-checks")
	examChecks.Post("", handlers.CreateExamCheck)
	examChecks.Put("/:applicationNumber/result", handlers.RecordExamResult)

	resources := admin.Group("/resources")
	resources.Post("", handlers.UploadResource)
	resources.Delete("/:resourceId", handlers.DeleteResource)

	admin.Get("/bookings", handlers.ListBookings)
	admin.Get("/transactions", handlers.ListTransactions)
	admin.Get("/audit-logs", handlers.ListAuditLogs)

	reports := admin.Group("/reports")
	reports.Get("/transactions", handlers.GenerateTransactionReport)
}
