package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/devadarsh07/drive_academy/database"
	"github.com/devadarsh07/drive_academy/models"
	"github.com/devadarsh07/drive_academy/notifications"
	"github.com/devadarsh07/drive_academy/services"
	"github.com/gofiber/fiber/v2"
)

// --- Students ---

func ListStudents(c *fiber.Ctx) error {
	var students []models.Student
	query := database.DB.Order("created_at desc")
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("full_name ILIKE ? OR email ILIKE ? OR phone ILIKE ?", like, like, like)
	}
	query.Find(&students)
	return c.JSON(students)
}

func GetStudent(c *fiber.Ctx) error {
	var student models.Student
	if err := database.DB.First(&student, "id = ?", c.Params("studentId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	var enrollments []models.Enrollment
	database.DB.Preload("Course").Preload("Booking").Where("student_id = ?", student.ID).Find(&enrollments)

	return c.JSON(fiber.Map{"student": student, "enrollments": enrollments})
}

type UpdateStudentRequest struct {
	FullName            *string `json:"full_name,omitempty" validate:"omitempty,min=3"`
	Phone               *string `json:"phone,omitempty" validate:"omitempty,min=10"`
	Address             *string `json:"address,omitempty"`
	LLApplicationNumber *string `json:"ll_application_number,omitempty"`
}

func UpdateStudent(c *fiber.Ctx) error {
	var student models.Student
	if err := database.DB.First(&student, "id = ?", c.Params("studentId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	var req UpdateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.FullName != nil {
		student.FullName = *req.FullName
	}
	if req.Phone != nil {
		student.Phone = *req.Phone
	}
	if req.Address != nil {
		student.Address = req.Address
	}
	if req.LLApplicationNumber != nil {
		student.LLApplicationNumber = req.LLApplicationNumber
	}
	database.DB.Save(&student)

	return c.JSON(student)
}

// --- Instructors ---

type InstructorRequest struct {
	FullName        string  `json:"full_name" validate:"required,min=3"`
	Phone           string  `json:"phone" validate:"required,min=10"`
	Bio             *string `json:"bio,omitempty"`
	ExperienceYears int     `json:"experience_years" validate:"min=0"`
	VehicleClass    string  `json:"vehicle_class" validate:"required,oneof=LMV MCWG HMV"`
}

func CreateInstructor(c *fiber.Ctx) error {
	var req InstructorRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	instructor := models.Instructor{
		FullName:        req.FullName,
		Phone:           req.Phone,
		Bio:             req.Bio,
		ExperienceYears: req.ExperienceYears,
		VehicleClass:    req.VehicleClass,
		IsActive:        true,
	}
	if err := database.DB.Create(&instructor).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create instructor"})
	}
	return c.Status(fiber.StatusCreated).JSON(instructor)
}

func UpdateInstructor(c *fiber.Ctx) error {
	var instructor models.Instructor
	if err := database.DB.First(&instructor, "id = ?", c.Params("instructorId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Instructor not found"})
	}

	var req InstructorRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	instructor.FullName = req.FullName
	instructor.Phone = req.Phone
	instructor.Bio = req.Bio
	instructor.ExperienceYears = req.ExperienceYears
	instructor.VehicleClass = req.VehicleClass
	database.DB.Save(&instructor)

	return c.JSON(instructor)
}

func DeactivateInstructor(c *fiber.Ctx) error {
	result := database.DB.Model(&models.Instructor{}).Where("id = ?", c.Params("instructorId")).Update("is_active", false)
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Instructor not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// --- Courses and driving services ---

type CourseRequest struct {
	Title        string  `json:"title" validate:"required,min=3"`
	Description  *string `json:"description,omitempty"`
	ServiceType  string  `json:"service_type" validate:"required,oneof=training online"`
	Price        float64 `json:"price" validate:"required,gt=0"`
	Currency     string  `json:"currency" validate:"required,oneof=INR USD"`
	DurationDays int     `json:"duration_days" validate:"min=1"`
}

func CreateCourse(c *fiber.Ctx) error {
	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	course := models.Course{
		Title:        req.Title,
		Description:  req.Description,
		ServiceType:  req.ServiceType,
		Price:        req.Price,
		Currency:     req.Currency,
		DurationDays: req.DurationDays,
		IsActive:     true,
	}
	if err := database.DB.Create(&course).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create course"})
	}
	return c.Status(fiber.StatusCreated).JSON(course)
}

func UpdateCourse(c *fiber.Ctx) error {
	var course models.Course
	if err := database.DB.First(&course, "id = ?", c.Params("courseId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}

	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	course.Title = req.Title
	course.Description = req.Description
	course.ServiceType = req.ServiceType
	course.Price = req.Price
	course.Currency = req.Currency
	course.DurationDays = req.DurationDays
	database.DB.Save(&course)

	return c.JSON(course)
}

func DeactivateCourse(c *fiber.Ctx) error {
	result := database.DB.Model(&models.Course{}).Where("id = ?", c.Params("courseId")).Update("is_active", false)
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type DrivingServiceRequest struct {
	Title       string  `json:"title" validate:"required,min=3"`
	Description *string `json:"description,omitempty"`
	Price       float64 `json:"price" validate:"required,gt=0"`
}

func CreateDrivingService(c *fiber.Ctx) error {
	var req DrivingServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	svc := models.DrivingService{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Currency:    "INR",
		IsActive:    true,
	}
	if err := database.DB.Create(&svc).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create service"})
	}
	return c.Status(fiber.StatusCreated).JSON(svc)
}

func UpdateDrivingService(c *fiber.Ctx) error {
	var svc models.DrivingService
	if err := database.DB.First(&svc, "id = ?", c.Params("serviceId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
	}

	var req DrivingServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	svc.Title = req.Title
	svc.Description = req.Description
	svc.Price = req.Price
	database.DB.Save(&svc)

	return c.JSON(svc)
}

func DeactivateDrivingService(c *fiber.Ctx) error {
	result := database.DB.Model(&models.DrivingService{}).Where("id = ?", c.Params("serviceId")).Update("is_active", false)
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// --- Testimonials ---

func ListPendingTestimonials(c *fiber.Ctx) error {
	var testimonials []models.Testimonial
	database.DB.Where("status = ?", "pending").Order("created_at asc").Find(&testimonials)
	return c.JSON(testimonials)
}

func ModerateTestimonial(c *fiber.Ctx) error {
	type ModerateRequest struct {
		Decision string `json:"decision" validate:"required,oneof=approve reject"`
	}
	var req ModerateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	status := "approved"
	if req.Decision == "reject" {
		status = "rejected"
	}
	result := database.DB.Model(&models.Testimonial{}).Where("id = ?", c.Params("testimonialId")).Update("status", status)
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Testimonial not found"})
	}

	return c.JSON(fiber.Map{"message": "Testimonial " + status})
}

// --- Enrollments ---

func ListEnrollments(c *fiber.Ctx) error {
	var enrollments []models.Enrollment
	query := database.DB.Preload("Student").Preload("Course").Preload("Booking").Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	query.Find(&enrollments)
	return c.JSON(enrollments)
}

type UpdateEnrollmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending active completed cancelled"`
}

func UpdateEnrollmentStatus(c *fiber.Ctx) error {
	var enrollment models.Enrollment
	if err := database.DB.Preload("Student").Preload("Course").First(&enrollment, "id = ?", c.Params("enrollmentId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Enrollment not found"})
	}

	var req UpdateEnrollmentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	enrollment.Status = req.Status
	if err := database.DB.Save(&enrollment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update enrollment"})
	}

	if req.Status == "completed" {
		go services.GenerateCourseCertificate(enrollment)

		go notifications.SendEmail(
			enrollment.Student.FullName,
			enrollment.Student.Email,
			"Congratulations on Completing Your Course!",
			fmt.Sprintf("<h1>Course Completed</h1><p>Well done on finishing <strong>%s</strong>. Your certificate is being prepared and will be available shortly.</p>", enrollment.Course.Title),
		)
	}

	return c.JSON(enrollment)
}

// --- Refresher requests and exam checks ---

func ListRefresherRequests(c *fiber.Ctx) error {
	var requests []models.RefresherRequest
	query := database.DB.Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	query.Find(&requests)
	return c.JSON(requests)
}

func UpdateRefresherRequest(c *fiber.Ctx) error {
	type StatusRequest struct {
		Status string `json:"status" validate:"required,oneof=new contacted scheduled closed"`
	}
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result := database.DB.Model(&models.RefresherRequest{}).Where("id = ?", c.Params("requestId")).Update("status", req.Status)
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Request not found"})
	}
	return c.JSON(fiber.Map{"message": "Request updated"})
}

type ExamCheckRequest struct {
	ApplicationNumber string  `json:"application_number" validate:"required"`
	ApplicantName     string  `json:"applicant_name" validate:"required,min=3"`
	DateOfBirth       *string `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ExamDate          *string `json:"exam_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func CreateExamCheck(c *fiber.Ctx) error {
	var req ExamCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	check := models.LLExamCheck{
		ApplicationNumber: req.ApplicationNumber,
		ApplicantName:     req.ApplicantName,
		Result:            "pending",
	}
	if req.DateOfBirth != nil {
		if parsed, err := time.Parse("2006-01-02", *req.DateOfBirth); err == nil {
			check.DateOfBirth = &parsed
		}
	}
	if req.ExamDate != nil {
		if parsed, err := time.Parse("2006-01-02", *req.ExamDate); err == nil {
			check.ExamDate = &parsed
		}
	}

	if err := database.DB.Create(&check).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "An exam record with this application number already exists"})
	}
	return c.Status(fiber.StatusCreated).JSON(check)
}

func RecordExamResult(c *fiber.Ctx) error {
	type ResultRequest struct {
		Result string `json:"result" validate:"required,oneof=pending passed failed absent"`
	}
	var req ResultRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	now := time.Now()
	result := database.DB.Model(&models.LLExamCheck{}).
		Where("application_number = ?", c.Params("applicationNumber")).
		Updates(map[string]interface{}{"result": req.Result, "checked_at": &now})
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Exam record not found"})
	}
	return c.JSON(fiber.Map{"message": "Result recorded"})
}

// --- Bookings and transactions ---

func ListBookings(c *fiber.Ctx) error {
	var bookings []models.Booking
	query := database.DB.Preload("Student").Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if paymentStatus := c.Query("payment_status"); paymentStatus != "" {
		query = query.Where("payment_status = ?", paymentStatus)
	}
	query.Find(&bookings)
	return c.JSON(bookings)
}

func ListTransactions(c *fiber.Ctx) error {
	var transactions []models.Transaction
	query := database.DB.Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if gateway := c.Query("gateway"); gateway != "" {
		query = query.Where("payment_gateway = ?", gateway)
	}
	query.Limit(200).Find(&transactions)
	return c.JSON(transactions)
}

func ListAuditLogs(c *fiber.Ctx) error {
	var logs []models.AuditLog
	query := database.DB.Order("created_at desc")
	if merchantOrderID := c.Query("merchant_order_id"); merchantOrderID != "" {
		query = query.Where("merchant_order_id = ?", merchantOrderID)
	}
	query.Limit(200).Find(&logs)
	return c.JSON(logs)
}

// --- Dashboard ---

type DashboardAnalyticsResponse struct {
	TotalStudents        int64                `json:"total_students"`
	TotalActiveCourses   int64                `json:"total_active_courses"`
	TotalRevenue         float64              `json:"total_revenue"`
	PendingEnrollments   int64                `json:"pending_enrollments"`
	PaymentsLast30Days   int64                `json:"payments_last_30_days"`
	RecentTransactions   []models.Transaction `json:"recent_transactions"`
	PendingRefresherReqs int64                `json:"pending_refresher_requests"`
}

func GetDashboardAnalytics(c *fiber.Ctx) error {
	var response DashboardAnalyticsResponse
	var totalRevenue float64

	database.DB.Model(&models.Student{}).Count(&response.TotalStudents)
	database.DB.Model(&models.Course{}).Where("is_active = ?", true).Count(&response.TotalActiveCourses)

	database.DB.Model(&models.Transaction{}).Where("status = ?", models.TransactionStatusCompleted).Select("COALESCE(SUM(amount), 0)").Row().Scan(&totalRevenue)
	response.TotalRevenue = totalRevenue

	database.DB.Model(&models.Enrollment{}).Where("status = ?", "pending").Count(&response.PendingEnrollments)
	database.DB.Model(&models.RefresherRequest{}).Where("status = ?", "new").Count(&response.PendingRefresherReqs)

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	database.DB.Model(&models.Transaction{}).Where("status = ? AND created_at > ?", models.TransactionStatusCompleted, thirtyDaysAgo).Count(&response.PaymentsLast30Days)

	database.DB.Order("created_at desc").Limit(5).Find(&response.RecentTransactions)

	return c.JSON(response)
}

func GenerateTransactionReport(c *fiber.Ctx) error {
	startDateStr := c.Query("start_date", time.Now().AddDate(0, -1, 0).Format("2006-01-02"))
	endDateStr := c.Query("end_date", time.Now().Format("2006-01-02"))

	startDate, err := time.Parse("2006-01-02", startDateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start_date format. Use YYYY-MM-DD."})
	}
	endDate, err := time.Parse("2006-01-02", endDateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid end_date format. Use YYYY-MM-DD."})
	}
	endDate = endDate.Add(23*time.Hour + 59*time.Minute + 59*time.Second)

	var transactions []models.Transaction
	database.DB.
		Preload("Booking").
		Where("status = ? AND created_at BETWEEN ? AND ?", models.TransactionStatusCompleted, startDate, endDate).
		Order("created_at desc").
		Find(&transactions)

	b := new(bytes.Buffer)
	w := csv.NewWriter(b)

	headers := []string{"Merchant Order ID", "Date", "Customer", "Amount", "Currency", "Gateway", "Gateway Transaction ID", "Service Type"}
	if err := w.Write(headers); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write CSV header"})
	}

	for _, t := range transactions {
		gatewayTxnID := ""
		if t.GatewayTransactionID != nil {
			gatewayTxnID = *t.GatewayTransactionID
		}

		row := []string{
			t.MerchantOrderID,
			t.CreatedAt.Format("2006-01-02 15:04"),
			t.Booking.CustomerName,
			fmt.Sprintf("%.2f", t.Amount),
			t.Currency,
			t.PaymentGateway,
			gatewayTxnID,
			t.ServiceType,
		}
		if err := w.Write(row); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write CSV row"})
		}
	}
	w.Flush()

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s_to_%s.csv\"", startDate.Format("2006-01-02"), endDate.Format("2006-01-02")))

	return c.Send(b.Bytes())
}
