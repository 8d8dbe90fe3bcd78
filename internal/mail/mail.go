// Package mail delivers one-time verification codes.
package mail

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/spec-kit/article-service/internal/config"
)

// DebugCode is the code every debug sender hands out.
const DebugCode = "123456"

const codeDigits = 6

// ErrSend is returned when a code could not be delivered.
var ErrSend = errors.New("mail: send failed")

// Sender delivers a fresh verification code to address and returns it.
type Sender interface {
	SendCode(ctx context.Context, address string) (string, error)
}

// NewSender picks the debug sender when cfg.Debug is set and SMTP otherwise.
func NewSender(cfg config.MailConfig, logger *zap.Logger) Sender {
	if cfg.Debug {
		logger.Info("mail debug mode: verification codes are not delivered")
		return NewDebugSender(logger)
	}
	return NewSMTPSender(cfg, logger)
}

// GenerateCode returns a uniformly random zero-padded six digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

type debugSender struct {
	logger *zap.Logger
}

// NewDebugSender returns a sender that sends nothing and always yields DebugCode.
func NewDebugSender(logger *zap.Logger) Sender {
	return &debugSender{logger: logger}
}

func (d *debugSender) SendCode(_ context.Context, address string) (string, error) {
	d.logger.Debug("verification code not sent", zap.String("to", address))
	return DebugCode, nil
}
