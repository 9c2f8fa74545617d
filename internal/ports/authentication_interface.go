package ports

import (
	"context"

	"realtime-session-server/internal/model"
)

type AuthenticationService interface {
	Login(ctx context.Context, email, password, userAgent, ipAddress string) (*model.TokensPair, error)
	Refresh(ctx context.Context, refreshToken, userAgent, ipAddress string) (*model.TokensPair, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userUUID string) error
}
