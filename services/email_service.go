package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/profhack/profhack-backend/config"
)

type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		ServerName: s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Implicit TLS
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("TLS connection failed: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
	} else {
		// STARTTLS (usually port 587)
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("SMTP connection failed: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close DATA: %w", err)
	}

	return nil
}

func (s *EmailService) GenerateEmailBody(templatePath string, data interface{}) (string, error) {
	t, err := template.ParseFiles(templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", templatePath, err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templatePath, err)
	}

	return body.String(), nil
}

func (s *EmailService) SendOTPEmail(userEmail string, code string) error {
	subject := "Your ProfHack verification code"
	data := struct {
		Email string
		Code  string
	}{
		Email: userEmail,
		Code:  code,
	}

	htmlBody, err := s.GenerateEmailBody("templates/emails/otp_email.html", data)
	if err != nil {
		return fmt.Errorf("failed to render OTP email: %w", err)
	}

	return s.SendEmail([]string{userEmail}, subject, htmlBody)
}

func (s *EmailService) SendPasswordResetEmail(userEmail string, resetToken string) error {
	subject := "Reset your ProfHack password"
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.PublicURL, resetToken)
	data := struct {
		Email     string
		ResetLink string
	}{
		Email:     userEmail,
		ResetLink: resetLink,
	}

	htmlBody, err := s.GenerateEmailBody("templates/emails/password_reset_email.html", data)
	if err != nil {
		return fmt.Errorf("failed to render password reset email: %w", err)
	}

	return s.SendEmail([]string{userEmail}, subject, htmlBody)
}

func (s *EmailService) SendTeamInviteEmail(userEmail, teamName string) error {
	subject := fmt.Sprintf("Invitation to join team %s", teamName)
	data := struct {
		TeamName string
		Link     string
	}{
		TeamName: teamName,
		Link:     fmt.Sprintf("%s/teams", s.cfg.PublicURL),
	}
	htmlBody, err := s.GenerateEmailBody("templates/emails/team_invite_email.html", data)
	if err != nil {
		return fmt.Errorf("failed to render invite email: %w", err)
	}
	return s.SendEmail([]string{userEmail}, subject, htmlBody)
}
