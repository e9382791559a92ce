package mailer

import (
	"github.com/diagnosis/visitor-register/pkg/logger"
)

// DevMailer logs e-mails instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("[DEV MAIL] E-mail",
		"to", toEmail,
		"name", toName,
		"subject", subject,
		"text", text,
	)
	return "dev", nil
}

func (d *DevMailer) SendHostArrival(toEmail, toName string, a HostArrival) error {
	subject, text, body := arrivalContent(toName, a)
	_, err := d.Send(toEmail, toName, subject, text, body)
	return err
}
