package smtp

import (
	"fmt"
	"net/smtp"

	"github.com/studiocoach/course-api/internal/config"
)

// Mailer delivers the platform's three transactional messages: sign-in
// codes, first-login welcomes, and chapter-completion notes. Auth treats a
// failed code delivery as fatal; every other send is best-effort.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

// NewMailer builds a plain SMTP mailer. With an empty username it connects
// unauthenticated, which is what the local mailcatcher expects.
func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendEmail(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}
