package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/devadarsh07/drive_academy/database"
	"github.com/devadarsh07/drive_academy/models"
	"github.com/devadarsh07/drive_academy/notifications"
)

// SendLessonReminders emails students whose course starts tomorrow.
func SendLessonReminders() {
	log.Println("Running job: SendLessonReminders...")

	tomorrowStart := time.Now().AddDate(0, 0, 1).Truncate(24 * time.Hour)
	tomorrowEnd := tomorrowStart.Add(24 * time.Hour)

	var upcoming []models.Enrollment
	err := database.DB.
		Preload("Student").
		Preload("Course").
		Where("status = ? AND reminder_sent = ? AND preferred_start_date >= ? AND preferred_start_date < ?",
			"active", false, tomorrowStart, tomorrowEnd).
		Find(&upcoming).Error
	if err != nil {
		log.Printf("Error checking for upcoming lessons: %v", err)
		return
	}
	if len(upcoming) == 0 {
		return
	}

	for _, enrollment := range upcoming {
		log.Printf("Sending lesson reminder for enrollment ID: %s", enrollment.ID)

		emailSubject := "Reminder: Your Driving Lessons Start Tomorrow!"
		emailBody := fmt.Sprintf(
			"<h1>Lesson Reminder</h1><p>Hi %s,</p><p>This is a friendly reminder that your course <strong>%s</strong> starts tomorrow. Please carry your learner's licence and arrive 10 minutes early.</p>",
			enrollment.Student.FullName,
			enrollment.Course.Title,
		)

		go notifications.SendEmail(enrollment.Student.FullName, enrollment.Student.Email, emailSubject, emailBody)

		database.DB.Model(&models.Enrollment{}).Where("id = ?", enrollment.ID).Update("reminder_sent", true)
	}
}
