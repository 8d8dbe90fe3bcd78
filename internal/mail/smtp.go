package mail

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/article-service/internal/config"
)

const codeSubject = "Your verification code"

type smtpSender struct {
	cfg    config.MailConfig
	logger *zap.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender delivers codes through an authenticated SMTP relay.
func NewSMTPSender(cfg config.MailConfig, logger *zap.Logger) Sender {
	return &smtpSender{cfg: cfg, logger: logger, send: smtp.SendMail}
}

func (s *smtpSender) SendCode(ctx context.Context, address string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.ContainsAny(address, "\r\n") {
		return "", fmt.Errorf("%w: invalid recipient", ErrSend)
	}
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}

	auth := smtp.PlainAuth("", s.cfg.From, s.cfg.Password, s.cfg.Host)
	if err := s.send(s.cfg.Addr(), auth, s.cfg.From, []string{address}, s.message(address, code)); err != nil {
		s.logger.Warn("smtp send failed", zap.String("to", address), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrSend, err)
	}
	s.logger.Info("verification code sent", zap.String("to", address))
	return code, nil
}

func (s *smtpSender) message(to, code string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", codeSubject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "Hello! Your one-time code: %s\r\n", code)
	return buf.Bytes()
}
