package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate fills defaults, trims board lists, and reports
// anything that would make a run misbehave.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	// ---- Defaults ----

	if out.App.Port == 0 {
		out.App.Port = 38472
	}
	if out.Scheduler.IntervalHours == 0 {
		out.Scheduler.IntervalHours = 4
	}
	if out.Scheduler.MaxConcurrentRuns == 0 {
		out.Scheduler.MaxConcurrentRuns = 1
	}
	if out.Database.Path == "" {
		out.Database.Path = "jobsearch.db"
	}
	if out.Limits.RequestsPerSecond == 0 {
		out.Limits.RequestsPerSecond = 1.0
	}
	if out.Limits.Burst == 0 {
		out.Limits.Burst = 2
	}
	if out.EmailAlerts.MaxFetch == 0 {
		out.EmailAlerts.MaxFetch = 50
	}
	if out.EmailAlerts.Mailbox == "" {
		out.EmailAlerts.Mailbox = "INBOX"
	}
	if out.Notifications.SMTPPort == 0 {
		out.Notifications.SMTPPort = 587
	}

	out.Sources.Phenom.Boards = trimBoards(out.Sources.Phenom.Boards, "sources.phenom", &res)
	out.Sources.Workday.Boards = trimBoards(out.Sources.Workday.Boards, "sources.workday", &res)

	// ---- Validation rules ----

	if out.App.Port < 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if out.Scheduler.IntervalHours < 1 {
		res.addErr("scheduler.interval_hours must be >= 1")
	}
	// one active run at a time is a hard invariant of the store and the
	// run-record lifecycle, not a tunable
	if out.Scheduler.MaxConcurrentRuns != 1 {
		res.addErr("scheduler.max_concurrent_runs must be 1")
	}

	if out.Limits.RequestsPerSecond < 0 {
		res.addErr("limits.requests_per_second must be >= 0")
	} else if out.Limits.RequestsPerSecond > 5 {
		res.addWarn("limits.requests_per_second is high (%.1f); career sites may rate-limit you.",
			out.Limits.RequestsPerSecond)
	}

	if !out.Sources.Phenom.Enabled && !out.Sources.Workday.Enabled &&
		!out.Sources.Static.Enabled && !out.EmailAlerts.Enabled {
		res.addWarn("no sources enabled; scheduled runs will scrape nothing.")
	}

	for i, s := range out.Sources.Static.Sites {
		if strings.TrimSpace(s.Name) == "" {
			res.addErr("sources.static.sites[%d].name is required", i)
		}
		if strings.TrimSpace(s.URL) == "" {
			res.addErr("sources.static.sites[%d].url is required", i)
		}
		if strings.TrimSpace(s.Selectors.Item) == "" {
			res.addErr("sources.static.sites[%d].selectors.item is required", i)
		}
		if strings.TrimSpace(s.Selectors.Title) == "" {
			res.addErr("sources.static.sites[%d].selectors.title is required", i)
		}
	}

	if out.Notifications.Enabled {
		if strings.TrimSpace(out.Notifications.SMTPHost) == "" {
			res.addErr("notifications.smtp_host is required when notifications.enabled=true")
		}
		if strings.TrimSpace(out.Notifications.Username) == "" {
			res.addErr("notifications.username is required when notifications.enabled=true")
		}
		if strings.TrimSpace(out.Notifications.To) == "" {
			res.addErr("notifications.to is required when notifications.enabled=true")
		}
		if strings.TrimSpace(out.Notifications.From) == "" {
			out.Notifications.From = out.Notifications.Username
		}
	}

	if out.EmailAlerts.Enabled {
		if strings.TrimSpace(out.EmailAlerts.IMAPHost) == "" {
			res.addErr("email_alerts.imap_host is required when email_alerts.enabled=true")
		}
		if out.EmailAlerts.IMAPPort == 0 {
			res.addErr("email_alerts.imap_port is required when email_alerts.enabled=true")
		}
		if strings.TrimSpace(out.EmailAlerts.Username) == "" {
			res.addErr("email_alerts.username is required when email_alerts.enabled=true")
		}
	}

	return out, res
}

func trimBoards(in []Board, section string, res *Validation) []Board {
	seen := map[string]bool{}
	var out []Board
	for i, b := range in {
		b.Name = strings.ToLower(strings.TrimSpace(b.Name))
		b.URL = strings.TrimSpace(b.URL)
		if b.Name == "" {
			res.addErr("%s.boards[%d].name is required", section, i)
			continue
		}
		if b.URL == "" {
			res.addErr("%s.boards[%d].url is required", section, i)
			continue
		}
		if seen[b.Name] {
			res.addWarn("%s has duplicate board name %q; keeping the first.", section, b.Name)
			continue
		}
		seen[b.Name] = true
		if strings.TrimSpace(b.Company) == "" {
			b.Company = b.Name
		}
		out = append(out, b)
	}
	return out
}
