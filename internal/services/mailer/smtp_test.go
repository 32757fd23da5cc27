package mailer

import (
	"strings"
	"testing"
	"time"

	"github.com/amaumene/plexdigest/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	msg := string(buildMessage("digest@example.com", []string{"a@example.com", "b@example.com"},
		"Recently added to Plex", []byte("<html>hi</html>"), now))

	headers, body, found := strings.Cut(msg, "\r\n\r\n")
	require.True(t, found)

	assert.Contains(t, headers, "From: digest@example.com")
	assert.Contains(t, headers, "To: a@example.com, b@example.com")
	assert.Contains(t, headers, "Subject: Recently added to Plex")
	assert.Contains(t, headers, "Date: Sun, 10 Mar 2024 08:00:00 +0000")
	assert.Contains(t, headers, "@example.com>")
	assert.Contains(t, headers, "Content-Type: text/html; charset=UTF-8")
	assert.Equal(t, "<html>hi</html>", body)
}

func TestBuildMessageEncodesSubject(t *testing.T) {
	msg := string(buildMessage("d@example.com", []string{"a@example.com"}, "Nouveautés", nil, time.Now()))
	assert.Contains(t, msg, "Subject: =?utf-8?q?Nouveaut=C3=A9s?=")
}

func TestNewMailerValidates(t *testing.T) {
	_, err := NewMailer(&config.Config{}, logrus.New())
	assert.Error(t, err)

	m, err := NewMailer(&config.Config{
		SMTPHost: "smtp.example.com",
		SMTPPort: 587,
		MailFrom: "d@example.com",
		MailTo:   []string{"a@example.com"},
	}, logrus.New())
	require.NoError(t, err)
	assert.Equal(t, 587, m.port)
}
