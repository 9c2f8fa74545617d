package ports

import (
	"context"

	"realtime-session-server/internal/model"
	"realtime-session-server/internal/security"
)

type JWTRepositoryInterface interface {
	SaveRefreshToken(ctx context.Context, token *model.RefreshToken) error
	ClaimRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token string) error
	RevokeAllByUser(ctx context.Context, userUUID string) error
	FindByToken(ctx context.Context, token string) (*model.RefreshToken, error)
}

type JWTServiceInterface interface {
	GenerateAccessRefreshTokens(user *model.User) (*model.TokensPair, *model.RefreshToken, error)
	ValidateJWT(tokenString string, secret []byte) (*security.Claims, error)
}
