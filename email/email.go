package email

import (
	"fmt"
	"net/smtp"
)

type Links struct {
	ActivationURL string
	RecoveryURL   string
}

type Mail struct {
	address  string
	password string
	host     string
	port     string
	links    Links
}

func New(address, password, host, port string, links Links) *Mail {
	return &Mail{
		address:  address,
		password: password,
		host:     host,
		port:     port,
		links:    links,
	}
}

func (m *Mail) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.address, to, subject, body)

	var auth smtp.Auth
	if m.password != "" {
		auth = smtp.PlainAuth("", m.address, m.password, m.host)
	}

	addr := m.host + ":" + m.port
	if err := smtp.SendMail(addr, auth, m.address, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

func (m *Mail) SendActivationToken(token string, to string) error {
	body := fmt.Sprintf(
		"Welcome to Sprout!\n\nConfirm your address to start filling your first box:\n%s?token=%s\n",
		m.links.ActivationURL, token,
	)
	return m.send(to, "Activate your Sprout account", body)
}

func (m *Mail) SendRecoveryToken(token string, to string) error {
	body := fmt.Sprintf(
		"A password reset was requested for your account.\n\nChoose a new password here:\n%s?token=%s\n\nIf this wasn't you, ignore this mail.\n",
		m.links.RecoveryURL, token,
	)
	return m.send(to, "Reset your Sprout password", body)
}
