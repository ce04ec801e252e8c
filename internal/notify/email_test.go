package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CDMonsalveA/JobSearchTools/internal/domain"
)

func testNotifier(sent *[][]byte, sendErr error) *EmailNotifier {
	return &EmailNotifier{
		Enabled:  true,
		Host:     "smtp.example.com",
		Port:     587,
		Username: "me@example.com",
		From:     "me@example.com",
		To:       "me@example.com",
		Password: func() (string, error) { return "hunter2", nil },
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			if sendErr != nil {
				return sendErr
			}
			*sent = append(*sent, msg)
			return nil
		},
	}
}

func samplePostings() []domain.Posting {
	salary := "$90k"
	return []domain.Posting{
		{
			SourceID:      "phenom_1",
			Title:         "Data Engineer",
			Company:       "Acme",
			Location:      "Bogotá",
			Salary:        &salary,
			URL:           "https://jobs.example.com/1",
			DateExtracted: time.Now().UTC(),
		},
		{
			SourceID:      "phenom_2",
			Title:         "Backend Developer",
			Company:       "Acme",
			URL:           "https://jobs.example.com/2",
			DateExtracted: time.Now().UTC(),
		},
	}
}

func TestNotifyNewPostings_SendsHTMLDigest(t *testing.T) {
	var sent [][]byte
	n := testNotifier(&sent, nil)

	ok := n.NotifyNewPostings(context.Background(), samplePostings(), "phenom", 25)
	require.True(t, ok)
	require.Len(t, sent, 1)

	msg := string(sent[0])
	assert.Contains(t, msg, "Subject: New Job Listings Found - PHENOM")
	assert.Contains(t, msg, "Content-Type: text/html")
	assert.Contains(t, msg, "Data Engineer")
	assert.Contains(t, msg, "https://jobs.example.com/1")
	assert.Contains(t, msg, "$90k")
}

func TestNotifyNewPostings_DisabledOrEmptyIsNoop(t *testing.T) {
	var sent [][]byte

	n := testNotifier(&sent, nil)
	assert.False(t, n.NotifyNewPostings(context.Background(), nil, "phenom", 10))

	n.Enabled = false
	assert.False(t, n.NotifyNewPostings(context.Background(), samplePostings(), "phenom", 10))
	assert.Empty(t, sent)
}

func TestNotifyNewPostings_SendFailureReturnsFalse(t *testing.T) {
	var sent [][]byte
	n := testNotifier(&sent, errors.New("connection refused"))

	ok := n.NotifyNewPostings(context.Background(), samplePostings(), "phenom", 10)
	assert.False(t, ok, "delivery failure is reported, never retried")
}

func TestNotifyZeroResults_SendsHealthWarning(t *testing.T) {
	var sent [][]byte
	n := testNotifier(&sent, nil)

	ok := n.NotifyZeroResults(context.Background(), "workday")
	require.True(t, ok)
	require.Len(t, sent, 1)

	msg := string(sent[0])
	assert.Contains(t, msg, "Subject: Health Warning - WORKDAY returned no results")
	assert.Contains(t, msg, "zero results")
}

func TestDeliver_MissingPasswordFailsSoft(t *testing.T) {
	var sent [][]byte
	n := testNotifier(&sent, nil)
	n.Password = func() (string, error) { return "", errors.New("password not found in keychain") }

	assert.False(t, n.NotifyZeroResults(context.Background(), "workday"))
	assert.Empty(t, sent)
}

func TestRenderNewPostings_EscapesHTML(t *testing.T) {
	postings := []domain.Posting{{
		SourceID: "static_1",
		Title:    `<script>alert("x")</script>`,
		Company:  "Acme",
		URL:      "https://jobs.example.com/1",
	}}

	body, err := renderNewPostings(postings, "static", 1)
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}
