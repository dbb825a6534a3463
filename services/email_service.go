package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/academy-system/config"
	"github.com/Dosada05/academy-system/models"
)

// RegistrationNotifier уведомляет родителя о получении заявки.
type RegistrationNotifier interface {
	RegistrationReceived(ctx context.Context, reg models.Registration) error
}

const smtpDialTimeout = 10 * time.Second

var registrationReceivedTmpl = template.Must(template.New("registration_received").Parse(`<!DOCTYPE html>
<html lang="ar" dir="rtl">
<body>
<p>مرحباً {{.ParentName}}،</p>
<p>تم استلام طلب تسجيل {{.ChildName}} في {{.Academy}}. سنتواصل معكم قريباً على الرقم {{.Phone}}.</p>
</body>
</html>`))

type EmailService struct {
	cfg     *config.Config
	academy string
}

func NewEmailService(cfg *config.Config, academyName string) *EmailService {
	if academyName == "" {
		academyName = "الأكاديمية"
	}
	return &EmailService{cfg: cfg, academy: academyName}
}

func (s *EmailService) RegistrationReceived(ctx context.Context, reg models.Registration) error {
	if strings.TrimSpace(reg.Email) == "" {
		return nil
	}

	var body bytes.Buffer
	err := registrationReceivedTmpl.Execute(&body, struct {
		ParentName string
		ChildName  string
		Phone      string
		Academy    string
	}{
		ParentName: reg.ParentName,
		ChildName:  reg.ChildName,
		Phone:      reg.Phone,
		Academy:    s.academy,
	})
	if err != nil {
		return fmt.Errorf("failed to render registration email: %w", err)
	}

	return s.SendEmail(ctx, []string{reg.Email}, "تم استلام طلب التسجيل", body.String())
}

// SendEmail отправляет HTML-письмо. Порт 465 - прямое TLS, иначе STARTTLS.
func (s *EmailService) SendEmail(ctx context.Context, to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}

	addr := net.JoinHostPort(s.cfg.SMTPHost, strconv.Itoa(s.cfg.SMTPPort))
	tlsConfig := &tls.Config{ServerName: s.cfg.SMTPHost}
	dialer := &net.Dialer{Timeout: smtpDialTimeout}

	var conn net.Conn
	var err error
	if s.cfg.SMTPPort == 465 {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Quit()

	if s.cfg.SMTPPort != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}

	if s.cfg.SMTPUser != "" {
		auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(buildMessage(s.cfg.SMTPFrom, to, subject, body)); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	return w.Close()
}

func buildMessage(from string, to []string, subject, body string) []byte {
	var b bytes.Buffer
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	b.WriteString("Subject: " + mime.BEncoding.Encode("UTF-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return b.Bytes()
}
