package utils

import (
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// SendEmail sends a single HTML mail through the configured SMTP relay.
// Environment loading happens once at startup; this reads the variables
// directly.
func SendEmail(to, subject, body string) error {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}

	message := gomail.NewMessage()
	message.SetHeader("From", os.Getenv("EMAIL_USER"))
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)
	message.SetBody("text/html", body)

	dialer := gomail.NewDialer(os.Getenv("SMTP_HOST"), port,
		os.Getenv("EMAIL_USER"), os.Getenv("EMAIL_PASS"))
	return dialer.DialAndSend(message)
}
