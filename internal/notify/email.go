// Package notify delivers run results by email. Delivery is at-most-once and
// best-effort: both operations report success as a bool and are never
// retried by the caller.
package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/CDMonsalveA/JobSearchTools/internal/config"
	"github.com/CDMonsalveA/JobSearchTools/internal/domain"
	"github.com/CDMonsalveA/JobSearchTools/internal/secrets"
)

type EmailNotifier struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	From     string
	To       string
	UseTLS   bool

	// Password is injected so tests never touch the OS keychain.
	Password func() (string, error)

	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailNotifier(cfg config.Config) *EmailNotifier {
	nc := cfg.Notifications
	return &EmailNotifier{
		Enabled:  nc.Enabled,
		Host:     nc.SMTPHost,
		Port:     nc.SMTPPort,
		Username: nc.Username,
		From:     nc.From,
		To:       nc.To,
		UseTLS:   nc.UseTLS,
		Password: func() (string, error) {
			return secrets.GetPassword(secrets.SMTPAccount(nc.Username, nc.SMTPHost))
		},
		send: smtp.SendMail,
	}
}

// NotifyNewPostings mails a digest of genuinely-new postings for one source.
func (n *EmailNotifier) NotifyNewPostings(ctx context.Context, postings []domain.Posting, source string, totalScraped int) bool {
	if !n.Enabled || len(postings) == 0 {
		return false
	}
	subject := fmt.Sprintf("New Job Listings Found - %s", strings.ToUpper(source))
	body, err := renderNewPostings(postings, source, totalScraped)
	if err != nil {
		log.Printf("[notify] render new-postings mail: %v", err)
		return false
	}
	return n.deliver(ctx, subject, body)
}

// NotifyZeroResults mails the "possible breakage" health warning: the source
// finished cleanly but yielded nothing, which usually means its markup moved.
func (n *EmailNotifier) NotifyZeroResults(ctx context.Context, source string) bool {
	if !n.Enabled {
		return false
	}
	subject := fmt.Sprintf("Health Warning - %s returned no results", strings.ToUpper(source))
	body, err := renderZeroResults(source)
	if err != nil {
		log.Printf("[notify] render zero-results mail: %v", err)
		return false
	}
	return n.deliver(ctx, subject, body)
}

func (n *EmailNotifier) deliver(ctx context.Context, subject, htmlBody string) bool {
	if err := ctx.Err(); err != nil {
		return false
	}

	pw, err := n.Password()
	if err != nil {
		log.Printf("[notify] smtp password: %v", err)
		return false
	}

	msg := buildMessage(n.From, n.To, subject, htmlBody)
	addr := fmt.Sprintf("%s:%d", n.Host, n.Port)
	auth := smtp.PlainAuth("", n.Username, pw, n.Host)

	sendFn := n.send
	if sendFn == nil {
		sendFn = smtp.SendMail
	}
	if err := sendFn(addr, auth, n.From, []string{n.To}, msg); err != nil {
		log.Printf("[notify] smtp send: %v", err)
		return false
	}
	return true
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}
