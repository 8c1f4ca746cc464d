package onboarding

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"go.uber.org/zap"
)

// Sender delivers a one-time code to a phone number.
type Sender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// LogSender writes codes to the log instead of sending an SMS. It is meant
// for development setups.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) SendOTP(ctx context.Context, phone, code string) error {
	s.Logger.Info("otp issued", zap.String("phone", FormatPhone(phone)), zap.String("code", code))
	return nil
}

// CodeSource produces the next one-time code.
type CodeSource func() (string, error)

// StaticCode always hands out code.
func StaticCode(code string) CodeSource {
	return func() (string, error) { return code, nil }
}

// RandomCode draws uniformly distributed six-digit codes.
func RandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
