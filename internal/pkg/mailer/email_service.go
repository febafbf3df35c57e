package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendAfterHoursNotice(toEmail, tenantName, contactInfo, lastUserMessage string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: username,
		senderName:  senderName,
	}
}

// SendAfterHoursNotice tells the tenant inbox that a visitor asked for a
// human while nobody had capacity. Best-effort: the handoff record is the
// source of truth, this is just a nudge.
func (s *emailService) SendAfterHoursNotice(toEmail, tenantName, contactInfo, lastUserMessage string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.senderEmail, s.senderName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Missed chat: a visitor asked for an operator")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Missed handoff for %s</h2>
			<p>A visitor requested a human operator while no agent had spare capacity.</p>
			<p><b>Contact left by the visitor:</b> %s</p>
			<p><b>Last message:</b></p>
			<blockquote style="border-left: 3px solid #ccc; padding-left: 10px;">%s</blockquote>
			<p>The request is stored in the dashboard under After Hours.</p>
		</div>
	`, tenantName, contactInfo, lastUserMessage)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send after-hours notice to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] After-hours notice sent to %s\n", toEmail)
	return nil
}
