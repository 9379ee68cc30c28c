package utils

import (
	"fmt"
	"net/smtp"
	"os"
	"time"

	"task-manager/models"
)

// sendEmail delivers one HTML mail through the configured SMTP relay.
func sendEmail(to, subject, body string) error {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = user
	}

	if host == "" || port == "" {
		return fmt.Errorf("SMTP_HOST or SMTP_PORT is not set")
	}

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", user, pass, host)

	if err := smtp.SendMail(host+":"+port, auth, from, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}

	return nil
}

func SendWelcomeEmail(user models.User) error {
	body := fmt.Sprintf(`
		<h1>Welcome to Task Manager, %s!</h1>
		<p>We're excited to have you on board. Here are some things you can do to get started:</p>
		<ul>
			<li>Create your first task</li>
			<li>Set up your notification preferences</li>
			<li>Explore the task categories</li>
			<li>Try typing due dates and priorities right into task titles</li>
		</ul>
		<p>If you have any questions, feel free to reach out to our support team.</p>`,
		user.FirstName)
	return sendEmail(user.Email, "Welcome to Task Manager!", body)
}

func SendPasswordResetEmail(user models.User, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password/%s", os.Getenv("FRONTEND_URL"), token)
	body := fmt.Sprintf(`
		<h1>Password Reset Request</h1>
		<p>Hi %s,</p>
		<p>You requested to reset your password. Click the link below to proceed:</p>
		<p><a href="%s">Reset Password</a></p>
		<p>This link will expire in 1 hour.</p>
		<p>If you didn't request this, please ignore this email.</p>`,
		user.FirstName, resetURL)
	return sendEmail(user.Email, "Password Reset Request", body)
}

func SendTaskReminder(task models.Task, user models.User) error {
	due := "soon"
	if task.DueDate != nil {
		due = task.DueDate.Format("Mon, 2 Jan 2006 at 15:04")
	}
	body := fmt.Sprintf(`
		<h1>Task Reminder</h1>
		<p>Hi %s,</p>
		<p>Your task <strong>%s</strong> is due %s.</p>
		<p>Priority: %s</p>`,
		user.FirstName, task.Title, due, task.Priority)
	return sendEmail(user.Email, fmt.Sprintf("Reminder: %q is due soon", task.Title), body)
}

// SendWeeklySummary mails the user an overview of their current task set.
func SendWeeklySummary(user models.User, tasks []models.Task) error {
	now := time.Now()
	completed, pending, overdue := 0, 0, 0
	for _, t := range tasks {
		switch {
		case t.Status == models.StatusCompleted:
			completed++
		case t.DueDate != nil && t.DueDate.Before(now):
			overdue++
		default:
			pending++
		}
	}

	body := fmt.Sprintf(`
		<h1>Your Weekly Summary</h1>
		<p>Hi %s, here is where your tasks stand:</p>
		<ul>
			<li>Completed: %d</li>
			<li>Open: %d</li>
			<li>Overdue: %d</li>
		</ul>`,
		user.FirstName, completed, pending, overdue)
	return sendEmail(user.Email, "Your Weekly Task Summary", body)
}
