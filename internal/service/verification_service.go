package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"realtime-session-server/config"
	"realtime-session-server/internal/model"
	"realtime-session-server/internal/ports"
	"realtime-session-server/internal/util"

	"github.com/google/uuid"
)

// VerificationService выдает и подтверждает одноразовые коды для email
type VerificationService struct {
	otpRepository ports.OtpRepositoryInterface
	ttl           time.Duration
}

func NewVerificationService(otpRepository ports.OtpRepositoryInterface, cfg *config.AuthConfig) (*VerificationService, error) {
	ttl := 10 * time.Minute
	if cfg.OtpTTL != "" {
		parsed, err := time.ParseDuration(cfg.OtpTTL)
		if err != nil {
			return nil, fmt.Errorf("некорректный otp_ttl: %w", err)
		}
		ttl = parsed
	}

	return &VerificationService{
		otpRepository: otpRepository,
		ttl:           ttl,
	}, nil
}

// RequestCode генерирует и сохраняет шестизначный код. Отправка кода
// по почте выполняется снаружи, сервис только возвращает его
func (s *VerificationService) RequestCode(ctx context.Context, email string) (string, error) {
	code, err := generateOtpCode()
	if err != nil {
		return "", util.LogError("ошибка генерации кода", err)
	}

	otp := &model.OtpVerification{
		UUID:     uuid.New().String(),
		Email:    email,
		Code:     code,
		ExpireAt: time.Now().Add(s.ttl),
	}

	if err := s.otpRepository.SaveCode(ctx, otp); err != nil {
		return "", fmt.Errorf("не удалось сохранить код: %w", err)
	}

	return code, nil
}

// ConfirmCode помечает код использованным; неверный, просроченный или
// уже подтвержденный код дают одну и ту же ошибку
func (s *VerificationService) ConfirmCode(ctx context.Context, email string, code string) error {
	confirmed, err := s.otpRepository.Confirm(ctx, email, code)
	if err != nil {
		return fmt.Errorf("не удалось подтвердить код: %w", err)
	}
	if !confirmed {
		return fmt.Errorf("неверный или просроченный код")
	}
	return nil
}

func generateOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
