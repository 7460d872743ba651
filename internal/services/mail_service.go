package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"mime"
	"net/smtp"
	"path/filepath"
	"strings"

	"postly/internal/config"
)

type MailService struct {
	Host         string
	Port         string
	Username     string
	Password     string
	From         string
	TemplatesDir string
	Enabled      bool

	// send is smtp.SendMail outside of tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailService(cfg *config.Config) *MailService {
	enabled := cfg.SMTPHost != "" && cfg.SMTPPort != "" && cfg.SMTPUser != "" && cfg.SMTPPass != "" && cfg.SMTPFrom != ""
	if !enabled {
		log.Println("⚠️ MailService disabled: Missing SMTP environment variables.")
	}

	return &MailService{
		Host:         cfg.SMTPHost,
		Port:         cfg.SMTPPort,
		Username:     cfg.SMTPUser,
		Password:     cfg.SMTPPass,
		From:         cfg.SMTPFrom,
		TemplatesDir: cfg.TemplatesDir,
		Enabled:      enabled,
		send:         smtp.SendMail,
	}
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// encodeHeader folds line breaks away and Q-encodes anything outside
// printable ASCII, so a value can never start a new header line.
func encodeHeader(value string) string {
	return mime.QEncoding.Encode("utf-8", headerBreaks.Replace(value))
}

func (s *MailService) buildMessage(to, subject, body string) []byte {
	contentType := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: Postly <%s>\r\n"+
		"Subject: %s\r\n"+
		"%s\r\n%s", to, s.From, encodeHeader(subject), contentType, body))
}

// sendAsync sends one message per recipient so addresses are not disclosed to each other.
func (s *MailService) sendAsync(to []string, subject string, body string) {
	if !s.Enabled || len(to) == 0 {
		return
	}

	go func() {
		auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
		addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

		failed := 0
		for _, rcpt := range to {
			if err := s.send(addr, auth, s.From, []string{rcpt}, s.buildMessage(rcpt, subject, body)); err != nil {
				failed++
				log.Printf("[mail] ❌ Failed to send email to %s: %v", rcpt, err)
			}
		}
		log.Printf("[mail] ✅ %q sent to %d/%d recipients", subject, len(to)-failed, len(to))
	}()
}

func (s *MailService) parseTemplate(templateName string, data interface{}) (string, error) {
	path := filepath.Join(s.TemplatesDir, "email", templateName)
	t, err := template.ParseFiles(path)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return buf.String(), nil
}

// SendNewPostNotification mails every recipient about a freshly published post.
func (s *MailService) SendNewPostNotification(recipients []string, authorName, postTitle, postLink string) {
	if !s.Enabled {
		return
	}
	body, err := s.parseTemplate("new_post.html", map[string]string{
		"Author":   authorName,
		"Title":    postTitle,
		"PostLink": postLink,
	})
	if err != nil {
		log.Printf("[mail] Error rendering new post email: %v", err)
		return
	}
	s.sendAsync(recipients, "New Post from "+strings.TrimSpace(authorName), body)
}
