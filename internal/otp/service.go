// Package otp issues and checks one-time email codes held in redis hashes
// that expire on their own.
package otp

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/orchidcraft/orchid-backend/pkg/config"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
	"github.com/orchidcraft/orchid-backend/pkg/logger"
	"github.com/orchidcraft/orchid-backend/pkg/mailer"
	"github.com/orchidcraft/orchid-backend/pkg/security"
)

const (
	fieldCode     = "code"
	fieldAttempts = "attempts"
	fieldVerified = "verified"
)

// Store is the redis surface used for codes and resend cooldowns.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	HSetWithTTL(ctx context.Context, key string, fields map[string]any, ttl time.Duration) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Del(ctx context.Context, keys ...string) error
	OTPKey(email string) string
	OTPCooldownKey(email string) string
}

type Service interface {
	Send(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) error
	// RequireVerified checks the email holds a verified code, verifying code
	// inline when given. The code stays usable until Consume.
	RequireVerified(ctx context.Context, email, code string) error
	// Consume burns the code once the action it authorised has succeeded.
	Consume(ctx context.Context, email string) error
}

type service struct {
	store  Store
	mailer mailer.Mailer
	cfg    config.OTPConfig
	logg   *logger.Logger
}

func NewService(store Store, m mailer.Mailer, cfg config.OTPConfig, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("otp store required")
	}
	if m == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if cfg.TTL <= 0 || cfg.Length <= 0 || cfg.MaxAttempts <= 0 {
		return nil, fmt.Errorf("otp ttl, length and max attempts must be positive")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{store: store, mailer: m, cfg: cfg, logg: logg}, nil
}

func (s *service) Send(ctx context.Context, email string) error {
	email = normalize(email)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if s.cfg.ResendCooldown > 0 {
		ok, err := s.store.SetNX(ctx, s.store.OTPCooldownKey(email), "1", s.cfg.ResendCooldown)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "otp cooldown")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeRateLimit, "please wait before requesting another code")
		}
	}

	code, err := security.GenerateNumericCode(s.cfg.Length)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}
	key := s.store.OTPKey(email)
	fields := map[string]any{fieldCode: code, fieldAttempts: 0, fieldVerified: 0}
	if err := s.store.HSetWithTTL(ctx, key, fields, s.cfg.TTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store otp")
	}

	msg := mailer.Message{
		ToEmail:   email,
		Subject:   "Your ORCHID verification code",
		PlainText: fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.cfg.TTL.Minutes())),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		_ = s.store.Del(ctx, key, s.store.OTPCooldownKey(email))
		s.logg.Error(s.logg.WithField(ctx, "email", email), "otp.send_failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "could not deliver verification code")
	}
	return nil
}

func (s *service) Verify(ctx context.Context, email, code string) error {
	email = normalize(email)
	key := s.store.OTPKey(email)
	state, err := s.store.HGetAll(ctx, key)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load otp")
	}
	if len(state) == 0 || state[fieldCode] == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "verification code expired or not requested")
	}
	if state[fieldVerified] == "1" {
		return nil
	}
	attempts, _ := strconv.Atoi(state[fieldAttempts])
	if attempts >= s.cfg.MaxAttempts {
		_ = s.store.Del(ctx, key)
		return pkgerrors.New(pkgerrors.CodeValidation, "too many attempts, request a new code")
	}

	if !security.CodesEqual(state[fieldCode], strings.TrimSpace(code)) {
		n, err := s.store.HIncrBy(ctx, key, fieldAttempts, 1)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record otp attempt")
		}
		if int(n) >= s.cfg.MaxAttempts {
			_ = s.store.Del(ctx, key)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid verification code")
	}

	ttl, err := s.store.TTL(ctx, key)
	if err != nil || ttl <= 0 {
		ttl = s.cfg.TTL
	}
	if err := s.store.HSetWithTTL(ctx, key, map[string]any{fieldVerified: 1}, ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark otp verified")
	}
	return nil
}

func (s *service) RequireVerified(ctx context.Context, email, code string) error {
	email = normalize(email)
	if strings.TrimSpace(code) != "" {
		if err := s.Verify(ctx, email, code); err != nil {
			return err
		}
	}
	state, err := s.store.HGetAll(ctx, s.store.OTPKey(email))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load otp")
	}
	if state[fieldVerified] != "1" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email not verified")
	}
	return nil
}

func (s *service) Consume(ctx context.Context, email string) error {
	if err := s.store.Del(ctx, s.store.OTPKey(normalize(email))); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume otp")
	}
	return nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
