package services

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) Mailer {
	return &emailService{
		dialer: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
	}
}

func (s *emailService) SendVerificationCode(email, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Код подтверждения")
	m.SetBody("text/plain", fmt.Sprintf("%s — ваш код для авторизации на givemepillow.ru.", code))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send verification code: %w", err)
	}
	return nil
}
