package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agrimandi/agrimandi-backend/pkg/config"
	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/redis"
	"github.com/agrimandi/agrimandi-backend/pkg/security"
)

const invalidCodeMessage = "invalid or expired code"

type kvStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Del(ctx context.Context, keys ...string) error
	EmailOTPKey(email string) string
}

// EmailOTPStore keeps registration codes in Redis, hashed, with a bounded
// number of verification attempts per challenge.
type EmailOTPStore struct {
	kv          kvStore
	passwordCfg config.PasswordConfig
	ttl         time.Duration
	maxAttempts int64
}

// NewEmailOTPStore builds an OTP store with the configured TTL and attempt cap.
func NewEmailOTPStore(kv kvStore, passwordCfg config.PasswordConfig, otpCfg config.OTPConfig) (*EmailOTPStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis store required")
	}
	if otpCfg.EmailTTL <= 0 {
		return nil, fmt.Errorf("email otp ttl must be positive")
	}
	if otpCfg.EmailMaxAttempts <= 0 {
		return nil, fmt.Errorf("email otp max attempts must be positive")
	}
	return &EmailOTPStore{
		kv:          kv,
		passwordCfg: passwordCfg,
		ttl:         otpCfg.EmailTTL,
		maxAttempts: int64(otpCfg.EmailMaxAttempts),
	}, nil
}

// TTL reports how long an issued code stays valid.
func (s *EmailOTPStore) TTL() time.Duration {
	return s.ttl
}

// Issue generates a fresh code for the email and stores only its hash.
// Re-issuing replaces the previous challenge and resets the attempt counter.
func (s *EmailOTPStore) Issue(ctx context.Context, email string) (string, error) {
	code, err := security.GenerateOTP()
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate code")
	}
	hash, err := security.HashPassword(code, s.passwordCfg)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash code")
	}

	key := s.kv.EmailOTPKey(email)
	if err := s.kv.Set(ctx, key, hash, s.ttl); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store code")
	}
	if err := s.kv.Del(ctx, s.attemptsKey(email)); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset attempts")
	}
	return code, nil
}

// Verify checks the supplied code against the stored hash and consumes the
// challenge on success. Exceeding the attempt cap voids the challenge.
func (s *EmailOTPStore) Verify(ctx context.Context, email, code string) error {
	attempts, err := s.kv.IncrWithTTL(ctx, s.attemptsKey(email), s.ttl)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count attempts")
	}
	if attempts > s.maxAttempts {
		if err := s.kv.Del(ctx, s.kv.EmailOTPKey(email), s.attemptsKey(email)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void challenge")
		}
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many verification attempts")
	}

	hash, err := s.kv.Get(ctx, s.kv.EmailOTPKey(email))
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCodeMessage)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load code")
	}

	valid, err := security.VerifyPassword(code, hash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify code")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCodeMessage)
	}

	if err := s.kv.Del(ctx, s.kv.EmailOTPKey(email), s.attemptsKey(email)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume challenge")
	}
	return nil
}

func (s *EmailOTPStore) attemptsKey(email string) string {
	return s.kv.EmailOTPKey(email) + ":attempts"
}
