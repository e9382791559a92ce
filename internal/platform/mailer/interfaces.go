package mailer

import "time"

type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
	SendHostArrival(toEmail, toName string, arrival HostArrival) error
}

// HostArrival describes a visitor who has just checked in for a host.
type HostArrival struct {
	VisitorName    string
	Organisation   string
	PurposeOfVisit string
	CheckInTime    time.Time
}

// New picks MailerSend when it is configured and the log-only mailer
// otherwise.
func New(apiKey, fromName, fromEmail string, devMode bool) Service {
	m := NewMailer(apiKey, fromName, fromEmail)
	if devMode || !m.Enabled {
		return NewDevMailer()
	}
	return m
}
