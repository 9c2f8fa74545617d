package ports

import (
	"context"

	"realtime-session-server/internal/model"
)

// PresenceTracker : счетчики одновременных подключений пользователя
type PresenceTracker interface {
	Connect(ctx context.Context, userUUID string) error
	Disconnect(ctx context.Context, userUUID string)
	Connections(userUUID string) int
}

// BroadcastRepositoryInterface : топик событий смены статуса
type BroadcastRepositoryInterface interface {
	PublishStatusChanged(ctx context.Context, user *model.User) error
}
