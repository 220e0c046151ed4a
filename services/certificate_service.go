package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	config "github.com/devadarsh07/drive_academy/configs"
	"github.com/devadarsh07/drive_academy/database"
	"github.com/devadarsh07/drive_academy/models"
	"github.com/google/uuid"
)

// GenerateCourseCertificate renders a completion certificate for the
// enrollment, uploads it, and stores the URL on the enrollment and in the
// certificates table. Called when staff mark an enrollment completed.
func GenerateCourseCertificate(enrollment models.Enrollment) {
	var existingCert models.Certificate
	if err := database.DB.Where("student_id = ? AND course_id = ?", enrollment.StudentID, enrollment.CourseID).First(&existingCert).Error; err == nil {
		return
	}

	htmlData, err := generateCertificateHTML(enrollment.Student.FullName, enrollment.Course.Title)
	if err != nil {
		log.Printf("🔥 Failed to generate certificate HTML: %v", err)
		return
	}

	pdfBytes, err := generatePDFFromHTML(htmlData)
	if err != nil {
		log.Printf("🔥 Failed to generate PDF: %v", err)
		return
	}

	uploadURL, err := uploadToCloudinary(pdfBytes, enrollment.StudentID.String())
	if err != nil {
		log.Printf("🔥 Failed to upload certificate to Cloudinary: %v", err)
		return
	}

	newCertificate := models.Certificate{
		StudentID:      enrollment.StudentID,
		CourseID:       enrollment.CourseID,
		CourseTitle:    enrollment.Course.Title,
		CompletionDate: time.Now(),
		CertificateURL: uploadURL,
	}

	if err := database.DB.Create(&newCertificate).Error; err != nil {
		log.Printf("🔥 Failed to create certificate record for student %s: %v", enrollment.StudentID, err)
		return
	}

	if err := database.DB.Model(&models.Enrollment{}).Where("id = ?", enrollment.ID).Update("certificate_url", uploadURL).Error; err != nil {
		log.Printf("Failed to store certificate URL on enrollment %s: %v", enrollment.ID, err)
	}
	log.Printf("✅ Generated certificate for student %s, course %q.", enrollment.StudentID, enrollment.Course.Title)
}

func generateCertificateHTML(studentName, courseTitle string) (string, error) {
	tmpl, err := template.ParseFiles("templates/certificate.html")
	if err != nil {
		return "", err
	}

	data := struct {
		StudentName    string
		CourseTitle    string
		CompletionDate string
	}{
		StudentName:    studentName,
		CourseTitle:    courseTitle,
		CompletionDate: time.Now().Format("January 2, 2006"),
	}

	var renderedHTML bytes.Buffer
	if err := tmpl.Execute(&renderedHTML, data); err != nil {
		return "", err
	}
	return renderedHTML.String(), nil
}

func generatePDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadToCloudinary(fileBytes []byte, studentID string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("certificates/%s_%s", studentID, uuid.New().String()),
		Folder:       "drive_academy_certificates",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
