// Package otp issues and verifies one-time codes that authorize transfers.
// Codes are kept in Redis only as bcrypt hashes and can be used once.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	apperrors "bankcore/internal/errors"
	keys "bankcore/internal/utils/cache"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const CodeLength = 6

var (
	ErrOTPNotFound = errors.New("otp not issued or expired")
	ErrOTPMismatch = errors.New("otp does not match")
)

// Sender delivers a freshly issued code to its owner.
type Sender interface {
	Send(ctx context.Context, subject, code string) error
}

// LogSender writes codes to the log. Development only.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger.Named("otp")}
}

func (s *LogSender) Send(_ context.Context, subject, code string) error {
	s.logger.Info("otp issued", zap.String("subject", subject), zap.String("code", code))
	return nil
}

type Service struct {
	client redis.Cmdable
	sender Sender
	ttl    time.Duration
	logger *zap.Logger
}

func NewService(client redis.Cmdable, sender Sender, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client: client,
		sender: sender,
		ttl:    ttl,
		logger: logger.Named("otp"),
	}
}

// Issue creates a new code for subject, replacing any pending one, and hands
// it to the Sender.
func (s *Service) Issue(ctx context.Context, subject string) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}

	key := keys.TransferOTPKey(subject)
	if err := s.client.Set(ctx, key, hash, s.ttl).Err(); err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "otp store unavailable", err)
	}

	if err := s.sender.Send(ctx, subject, code); err != nil {
		if delErr := s.client.Del(ctx, key).Err(); delErr != nil {
			s.logger.Warn("failed to remove undelivered otp", zap.String("subject", subject), zap.Error(delErr))
		}
		return fmt.Errorf("deliver otp: %w", err)
	}
	return nil
}

// Verify consumes the pending code of subject and compares it with code.
// A code is consumed even when it does not match.
func (s *Service) Verify(ctx context.Context, subject, code string) error {
	hash, err := s.client.GetDel(ctx, keys.TransferOTPKey(subject)).Bytes()
	if errors.Is(err, redis.Nil) {
		return apperrors.Wrap(apperrors.KindInvalidRequest, "invalid or expired otp", ErrOTPNotFound)
	}
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "otp store unavailable", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(code)); err != nil {
		return apperrors.Wrap(apperrors.KindInvalidRequest, "invalid or expired otp", ErrOTPMismatch)
	}
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}
