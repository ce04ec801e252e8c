// Package emailalert turns job-alert emails into postings. It reads unseen
// messages over IMAP, extracts posting links from the bodies, and emits one
// record per link. Identity falls back to the canonical URL hash, so the
// same listing arriving in two digests still deduplicates.
package emailalert

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/CDMonsalveA/JobSearchTools/internal/config"
	"github.com/CDMonsalveA/JobSearchTools/internal/scrape/types"
)

var urlRe = regexp.MustCompile(`https?://[^\s<>"']+`)

// jobHosts limits extraction to links that actually point at postings; alert
// mails are full of unsubscribe and tracking links.
var jobHosts = []string{
	"careers.", "jobs.", "myworkdayjobs.com", "greenhouse.io", "lever.co",
	"linkedin.com/jobs", "smartrecruiters.com",
}

type Scraper struct {
	cfg config.Config

	// Password is injected (keyring in production, fixed string in tests).
	Password func() (string, error)
}

func New(cfg config.Config, password func() (string, error)) *Scraper {
	return &Scraper{cfg: cfg, Password: password}
}

func (s *Scraper) Name() string { return "email_alerts" }

func (s *Scraper) Produce(ctx context.Context, emit func(types.Raw) error) error {
	ec := s.cfg.EmailAlerts
	pw, err := s.Password()
	if err != nil {
		return fmt.Errorf("email_alerts password: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", ec.IMAPHost, ec.IMAPPort)
	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: ec.IMAPHost},
	})
	if err != nil {
		return fmt.Errorf("imap dial: %w", err)
	}
	defer func() {
		_ = c.Logout().Wait()
		_ = c.Close()
	}()

	// best-effort close on cancel so Produce never outlives its run
	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	if err := c.Login(ec.Username, pw).Wait(); err != nil {
		return fmt.Errorf("imap login: %w", err)
	}
	if _, err := c.Select(ec.Mailbox, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		return fmt.Errorf("imap select %s: %w", ec.Mailbox, err)
	}

	msgs, err := fetchUnseen(ctx, c, ec.MaxFetch)
	if err != nil {
		return err
	}

	for _, m := range msgs {
		for _, link := range extractJobLinks(string(m.body)) {
			raw := types.Raw{
				Title:   m.subject,
				Company: "",
				URL:     link,
			}
			if err := emit(raw); err != nil {
				return err
			}
		}
		if err := markSeen(c, m.uid); err != nil {
			return err
		}
	}
	return nil
}

type message struct {
	uid     imap.UID
	subject string
	body    []byte
}

func fetchUnseen(ctx context.Context, c *imapclient.Client, max int) ([]message, error) {
	if max <= 0 {
		max = 50
	}

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   time.Now().AddDate(0, -1, 0),
	}
	searchData, err := c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search unseen: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	if len(uids) > max {
		uids = uids[len(uids)-max:] // newest last in UID order
	}

	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	fetchCmd := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	var out []message
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}

		m := message{uid: buf.UID}
		if buf.Envelope != nil {
			m.subject = buf.Envelope.Subject
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			m.body = append([]byte(nil), b...)
		}
		out = append(out, m)
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	return out, nil
}

func markSeen(c *imapclient.Client, uid imap.UID) error {
	if c == nil {
		return errors.New("imap client is nil")
	}
	cmd := c.Store(imap.UIDSetNum(uid), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("imap store add seen: %w", err)
	}
	return nil
}

func extractJobLinks(body string) []string {
	seen := map[string]bool{}
	var out []string
	for _, link := range urlRe.FindAllString(body, -1) {
		link = strings.TrimRight(link, ".,;)")
		if !looksLikeJobLink(link) || seen[link] {
			continue
		}
		seen[link] = true
		out = append(out, link)
	}
	return out
}

func looksLikeJobLink(link string) bool {
	l := strings.ToLower(link)
	for _, h := range jobHosts {
		if strings.Contains(l, h) {
			return true
		}
	}
	return false
}
