package handlers

import (
	"time"

	"github.com/devadarsh07/drive_academy/database"
	"github.com/devadarsh07/drive_academy/models"
	"github.com/devadarsh07/drive_academy/notifications"
	"github.com/devadarsh07/drive_academy/services"
	"github.com/gofiber/fiber/v2"
)

func ListCourses(c *fiber.Ctx) error {
	var courses []models.Course
	query := database.DB.Where("is_active = ?", true)
	if serviceType := c.Query("service_type"); serviceType != "" {
		query = query.Where("service_type = ?", serviceType)
	}
	query.Order("price asc").Find(&courses)
	return c.JSON(courses)
}

func GetCourse(c *fiber.Ctx) error {
	var course models.Course
	if err := database.DB.First(&course, "id = ? AND is_active = ?", c.Params("courseId"), true).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}
	return c.JSON(course)
}

func ListDrivingServices(c *fiber.Ctx) error {
	var drivingServices []models.DrivingService
	database.DB.Where("is_active = ?", true).Order("price asc").Find(&drivingServices)
	return c.JSON(drivingServices)
}

func ListInstructors(c *fiber.Ctx) error {
	var instructors []models.Instructor
	database.DB.Where("is_active = ?", true).Order("experience_years desc").Find(&instructors)
	return c.JSON(instructors)
}

func ListTestimonials(c *fiber.Ctx) error {
	var testimonials []models.Testimonial
	database.DB.Where("status = ?", "approved").Order("created_at desc").Find(&testimonials)
	return c.JSON(testimonials)
}

type TestimonialRequest struct {
	AuthorName string `json:"author_name" validate:"required,min=3"`
	Content    string `json:"content" validate:"required,min=10"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
}

func SubmitTestimonial(c *fiber.Ctx) error {
	var req TestimonialRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	testimonial := models.Testimonial{
		AuthorName: req.AuthorName,
		Content:    req.Content,
		Rating:     req.Rating,
		Status:     "pending",
	}
	if err := database.DB.Create(&testimonial).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit testimonial"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Thank you! Your testimonial will appear after review."})
}

func ListResources(c *fiber.Ctx) error {
	var resources []models.Resource
	query := database.DB.Order("created_at desc")
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	query.Find(&resources)
	return c.JSON(resources)
}

type RefresherRequestInput struct {
	FullName      string  `json:"full_name" validate:"required,min=3"`
	Email         string  `json:"email" validate:"required,email"`
	Phone         string  `json:"phone" validate:"required,min=10"`
	LicenceNumber string  `json:"licence_number" validate:"required"`
	PreferredDate *string `json:"preferred_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Note          *string `json:"note,omitempty"`
}

func SubmitRefresherRequest(c *fiber.Ctx) error {
	var req RefresherRequestInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var preferredDate *time.Time
	if req.PreferredDate != nil {
		if parsed, err := time.Parse("2006-01-02", *req.PreferredDate); err == nil {
			preferredDate = &parsed
		}
	}

	request := models.RefresherRequest{
		FullName:      req.FullName,
		Email:         req.Email,
		Phone:         req.Phone,
		LicenceNumber: req.LicenceNumber,
		PreferredDate: preferredDate,
		Note:          req.Note,
		Status:        "new",
	}
	if err := database.DB.Create(&request).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit request"})
	}

	go notifications.SendEmail(
		req.FullName,
		req.Email,
		"We Received Your Refresher Request",
		"<h1>Request Received</h1><p>Thanks for reaching out. Our team will call you to schedule your refresher sessions.</p>",
	)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Request received. We will contact you shortly.", "request_id": request.ID})
}

func GetExamStatus(c *fiber.Ctx) error {
	applicationNumber := c.Params("applicationNumber")

	var check models.LLExamCheck
	if err := database.DB.First(&check, "application_number = ?", applicationNumber).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No exam record for this application number"})
	}

	return c.JSON(fiber.Map{
		"application_number": check.ApplicationNumber,
		"applicant_name":     check.ApplicantName,
		"exam_date":          check.ExamDate,
		"result":             check.Result,
		"checked_at":         check.CheckedAt,
	})
}

func GetConversionRate(c *fiber.Ctx) error {
	rates, err := services.FetchRates()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch exchange rates"})
	}

	inrRate, ok := rates["INR"]
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "INR rate not available"})
	}

	return c.JSON(fiber.Map{"usd_to_inr": inrRate})
}
