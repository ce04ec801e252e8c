package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAndValidate_FillsDefaults(t *testing.T) {
	got, res := NormalizeAndValidate(Config{})
	require.True(t, res.OK(), "empty config should validate: %v", res.Errors)

	assert.Equal(t, 38472, got.App.Port)
	assert.Equal(t, 4, got.Scheduler.IntervalHours)
	assert.Equal(t, 1, got.Scheduler.MaxConcurrentRuns)
	assert.Equal(t, "jobsearch.db", got.Database.Path)
	assert.Equal(t, 1.0, got.Limits.RequestsPerSecond)
	assert.Equal(t, 2, got.Limits.Burst)
	assert.Equal(t, "INBOX", got.EmailAlerts.Mailbox)
	assert.Equal(t, 50, got.EmailAlerts.MaxFetch)
}

func TestNormalizeAndValidate_WarnsWhenNoSources(t *testing.T) {
	_, res := NormalizeAndValidate(Config{})
	require.True(t, res.OK())
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "no sources enabled")
}

func TestNormalizeAndValidate_RejectsSubHourInterval(t *testing.T) {
	var cfg Config
	cfg.Scheduler.IntervalHours = -1

	_, res := NormalizeAndValidate(cfg)
	assert.False(t, res.OK())
}

func TestNormalizeAndValidate_ConcurrencyIsFixed(t *testing.T) {
	var cfg Config
	cfg.Scheduler.MaxConcurrentRuns = 3

	_, res := NormalizeAndValidate(cfg)
	require.False(t, res.OK())
	assert.Contains(t, strings.Join(res.Errors, "\n"), "max_concurrent_runs")
}

func TestNormalizeAndValidate_BoardTrimming(t *testing.T) {
	var cfg Config
	cfg.Sources.Phenom.Enabled = true
	cfg.Sources.Phenom.Boards = []Board{
		{Name: "  Ecopetrol  ", URL: " https://jobs.ecopetrol.com.co "},
		{Name: "ecopetrol", URL: "https://other.example.com"}, // dup, dropped
		{Name: "terpel", URL: "https://jobs.terpel.com", Company: "Terpel"},
	}

	got, res := NormalizeAndValidate(cfg)
	require.True(t, res.OK(), "errors: %v", res.Errors)
	require.Len(t, got.Sources.Phenom.Boards, 2)
	assert.Equal(t, "ecopetrol", got.Sources.Phenom.Boards[0].Name)
	assert.Equal(t, "https://jobs.ecopetrol.com.co", got.Sources.Phenom.Boards[0].URL)
	assert.Equal(t, "ecopetrol", got.Sources.Phenom.Boards[0].Company, "company defaults to board name")
	assert.NotEmpty(t, res.Warnings, "duplicate board should warn")
}

func TestNormalizeAndValidate_StaticSiteSelectorsRequired(t *testing.T) {
	var cfg Config
	cfg.Sources.Static.Enabled = true
	cfg.Sources.Static.Sites = []StaticSite{{
		Board: Board{Name: "careers", URL: "https://example.com/careers"},
	}}

	_, res := NormalizeAndValidate(cfg)
	require.False(t, res.OK())
	all := strings.Join(res.Errors, "\n")
	assert.Contains(t, all, "selectors.item")
	assert.Contains(t, all, "selectors.title")
}

func TestNormalizeAndValidate_NotificationFieldsRequiredWhenEnabled(t *testing.T) {
	var cfg Config
	cfg.Notifications.Enabled = true

	_, res := NormalizeAndValidate(cfg)
	require.False(t, res.OK())
	all := strings.Join(res.Errors, "\n")
	assert.Contains(t, all, "smtp_host")
	assert.Contains(t, all, "username")
	assert.Contains(t, all, "notifications.to")
}

func TestNormalizeAndValidate_FromDefaultsToUsername(t *testing.T) {
	var cfg Config
	cfg.Notifications.Enabled = true
	cfg.Notifications.SMTPHost = "smtp.example.com"
	cfg.Notifications.Username = "me@example.com"
	cfg.Notifications.To = "me@example.com"

	got, res := NormalizeAndValidate(cfg)
	require.True(t, res.OK(), "errors: %v", res.Errors)
	assert.Equal(t, "me@example.com", got.Notifications.From)
}

func TestInterval(t *testing.T) {
	var cfg Config
	cfg.Scheduler.IntervalHours = 4
	assert.Equal(t, "4h0m0s", cfg.Interval().String())
}
