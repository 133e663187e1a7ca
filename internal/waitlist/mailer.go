package waitlist

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/betbot/hypiq/pkg/config"
)

// Mailer 发送欢迎邮件
type Mailer interface {
	SendWelcome(ctx context.Context, to string) error
}

// NoopMailer 未配置 SMTP 时使用
type NoopMailer struct{}

// SendWelcome 不做任何事
func (NoopMailer) SendWelcome(context.Context, string) error { return nil }

// NewMailer 按配置创建 Mailer；Host 为空返回 NoopMailer
func NewMailer(cfg config.MailerConfig) Mailer {
	if cfg.Host == "" {
		return NoopMailer{}
	}
	return &SMTPMailer{cfg: cfg}
}

const welcomeSubject = "Welcome to HYPIQ! 🐋"

const welcomeHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Welcome to HYPIQ</title>
</head>
<body style="margin:0;padding:0;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;background-color:#0a0a0a;color:#ffffff;">
  <div style="max-width:600px;margin:0 auto;padding:40px 20px;">
    <div style="text-align:center;margin-bottom:40px;">
      <div style="font-size:48px;margin-bottom:16px;">🐋</div>
      <h1 style="margin:0;font-size:32px;font-weight:700;color:#60a5fa;">HYPIQ</h1>
    </div>
    <div style="border:1px solid rgba(96,165,250,0.2);border-radius:16px;padding:32px;margin-bottom:32px;">
      <h2 style="margin:0 0 16px 0;font-size:24px;font-weight:600;">Welcome aboard! 🎉</h2>
      <p style="margin:0 0 16px 0;font-size:16px;line-height:1.6;color:#e5e7eb;">Thank you for joining the HYPIQ waitlist!</p>
      <p style="margin:0;font-size:16px;line-height:1.6;color:#e5e7eb;">We'll keep you updated on our progress and notify you as soon as HYPIQ is <strong style="color:#60a5fa;">ready for early access</strong>.</p>
    </div>
    <div style="text-align:center;padding-top:32px;border-top:1px solid rgba(96,165,250,0.2);">
      <p style="margin:0 0 20px 0;"><a href="https://hypiq.xyz" style="color:#60a5fa;">hypiq.xyz</a> · <a href="https://x.com/hypiq_hl" style="color:#60a5fa;">@hypiq_hl</a></p>
      <p style="margin:0 0 8px 0;font-size:14px;color:#9ca3af;">Best regards,</p>
      <p style="margin:0;font-size:14px;font-weight:600;color:#60a5fa;">The HYPIQ Team</p>
    </div>
  </div>
</body>
</html>
`

// SMTPMailer 通过 SMTP（STARTTLS / 465 隐式 TLS）发送
type SMTPMailer struct {
	cfg config.MailerConfig
}

// SendWelcome 发送欢迎邮件
func (m *SMTPMailer) SendWelcome(ctx context.Context, to string) error {
	return m.send(ctx, to, welcomeSubject, welcomeHTML)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, html string) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	var conn net.Conn
	var err error
	if m.cfg.Port == 465 {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: m.cfg.Host}}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok && m.cfg.Port != 465 {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if m.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	from := envelopeAddress(m.cfg.From)
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(buildMessage(m.cfg.From, to, subject, html)); err != nil {
		w.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close message: %w", err)
	}
	return c.Quit()
}

// envelopeAddress 从 "Name <addr>" 中取出 addr
func envelopeAddress(from string) string {
	if i := strings.LastIndexByte(from, '<'); i >= 0 {
		if j := strings.IndexByte(from[i:], '>'); j > 0 {
			return from[i+1 : i+j]
		}
	}
	return strings.TrimSpace(from)
}

func buildMessage(from, to, subject, html string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.BEncoding.Encode("UTF-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(html, "\n", "\r\n"))
	return []byte(b.String())
}
