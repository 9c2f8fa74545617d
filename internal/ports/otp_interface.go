package ports

import (
	"context"

	"realtime-session-server/internal/model"
)

type OtpRepositoryInterface interface {
	SaveCode(ctx context.Context, otp *model.OtpVerification) error
	Confirm(ctx context.Context, email string, code string) (bool, error)
	IsEmailVerified(ctx context.Context, email string) (bool, error)
}

type VerificationService interface {
	RequestCode(ctx context.Context, email string) (string, error)
	ConfirmCode(ctx context.Context, email string, code string) error
}
