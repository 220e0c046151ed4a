package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	config "github.com/devadarsh07/drive_academy/configs"
	"github.com/devadarsh07/drive_academy/database"
	"github.com/devadarsh07/drive_academy/models"
	"github.com/gofiber/fiber/v2"
)

// UploadStudentDocument stores an ID or licence photo against a student
// record. Called from the enrollment flow after the student row exists.
func UploadStudentDocument(c *fiber.Ctx) error {
	studentID := c.Params("studentId")

	var student models.Student
	if err := database.DB.First(&student, "id = ?", studentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	file, err := c.FormFile("document")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Document file is required."})
	}

	cld, _ := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadResult, err := cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:   "drive_academy_documents",
		PublicID: fmt.Sprintf("student_%s", studentID),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload file."})
	}

	student.DocumentPhotoURL = &uploadResult.SecureURL
	database.DB.Save(&student)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"document_photo_url": uploadResult.SecureURL})
}

// UploadResource publishes LL study material to the public resources list.
func UploadResource(c *fiber.Ctx) error {
	title := c.FormValue("title")
	if title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title is required."})
	}
	category := c.FormValue("category")
	if category == "" {
		category = "general"
	}

	file, err := c.FormFile("resource")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Resource file is required."})
	}

	cld, _ := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadResult, err := cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:   "drive_academy_resources",
		PublicID: fmt.Sprintf("resource_%s", file.Filename),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload file."})
	}

	resource := models.Resource{
		Title:    title,
		FileURL:  uploadResult.SecureURL,
		Category: category,
	}
	database.DB.Create(&resource)

	return c.Status(fiber.StatusCreated).JSON(resource)
}

func DeleteResource(c *fiber.Ctx) error {
	result := database.DB.Delete(&models.Resource{}, "id = ?", c.Params("resourceId"))
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete resource"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Resource not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
