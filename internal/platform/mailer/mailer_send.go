package mailer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type Mailer struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	Enabled bool
}

func NewMailer(apiKey, fromName, fromEmail string) *Mailer {
	m := &Mailer{
		Enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}
	if m.Enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}
	return m
}

func (m *Mailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	if !m.Enabled {
		return "", errors.New("mailer disabled (missing MAILERSEND_API_KEY or MAILER_FROM)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)
	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	// MailerSend uses X-Message-Id
	return res.Header.Get("X-Message-Id"), nil
}

func (m *Mailer) SendHostArrival(toEmail, toName string, a HostArrival) error {
	subject, text, body := arrivalContent(toName, a)
	_, err := m.Send(toEmail, toName, subject, text, body)
	return err
}

func arrivalContent(hostName string, a HostArrival) (subject, text, body string) {
	subject = fmt.Sprintf("%s has arrived", a.VisitorName)

	from := ""
	if a.Organisation != "" {
		from = " from " + a.Organisation
	}
	at := a.CheckInTime.Format("15:04 MST")

	text = fmt.Sprintf("Hi %s,\n\n%s%s checked in at %s.\nPurpose of visit: %s\n",
		hostName, a.VisitorName, from, at, a.PurposeOfVisit)
	body = fmt.Sprintf(`<p>Hi %s,</p><p><b>%s</b>%s checked in at %s.</p><p>Purpose of visit: %s</p>`,
		html.EscapeString(hostName), html.EscapeString(a.VisitorName), html.EscapeString(from),
		at, html.EscapeString(a.PurposeOfVisit))
	return subject, text, body
}
