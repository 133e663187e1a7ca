package waitlist

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/betbot/hypiq/pkg/config"
)

func TestNewMailer(t *testing.T) {
	assert.IsType(t, NoopMailer{}, NewMailer(config.MailerConfig{}))
	assert.IsType(t, &SMTPMailer{}, NewMailer(config.MailerConfig{Host: "smtp.gmail.com", Port: 587}))
	assert.NoError(t, NoopMailer{}.SendWelcome(context.Background(), "a@b.co"))
}

func TestEnvelopeAddress(t *testing.T) {
	assert.Equal(t, "hello@hypiq.xyz", envelopeAddress("HYPIQ <hello@hypiq.xyz>"))
	assert.Equal(t, "hello@hypiq.xyz", envelopeAddress(" hello@hypiq.xyz "))
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("HYPIQ <hello@hypiq.xyz>", "a@b.co", welcomeSubject, welcomeHTML))
	assert.True(t, strings.HasPrefix(msg, "From: HYPIQ <hello@hypiq.xyz>\r\nTo: a@b.co\r\n"))
	assert.Contains(t, msg, "Subject: =?UTF-8?b?")
	assert.Contains(t, msg, "Content-Type: text/html")
	assert.Contains(t, msg, "Thank you for joining the HYPIQ waitlist!")
}

func TestSMTPMailer_DialFailure(t *testing.T) {
	m := &SMTPMailer{cfg: config.MailerConfig{Host: "127.0.0.1", Port: 1, From: "hello@hypiq.xyz"}}
	assert.Error(t, m.SendWelcome(context.Background(), "a@b.co"))
}
