package ports

import (
	"context"

	"realtime-session-server/internal/model"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	FindByUUID(ctx context.Context, uuid string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateStatus(ctx context.Context, uuid string, status string) error
	UpdateImageURL(ctx context.Context, uuid string, imageURL string) error
	Exists(ctx context.Context, email string) (bool, error)
}

type UserService interface {
	Register(ctx context.Context, email, username, password, userAgent, ipAddress string) (*model.User, *model.TokensPair, error)
	GetUser(ctx context.Context, uuid string) (*model.User, error)
	AvatarUploadURL(ctx context.Context, userUUID string, filename string) (string, string, error)
	AvatarViewURL(ctx context.Context, userUUID string) (string, error)
}
