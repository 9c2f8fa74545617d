package repository

import (
	"context"
	"encoding/json"

	"realtime-session-server/config"
	"realtime-session-server/internal/model"
	"realtime-session-server/internal/util"
)

// BroadcastRepository публикует события смены статуса в Redis-канал.
// Остальные части системы (и другие инстансы сервера) подписаны на него
type BroadcastRepository struct {
	client *config.RedisClient
}

func NewBroadcastRepository(rdb *config.RedisClient) *BroadcastRepository {
	return &BroadcastRepository{rdb}
}

func (r *BroadcastRepository) PublishStatusChanged(ctx context.Context, user *model.User) error {
	event := model.StatusChangedEvent{
		UserUUID: user.UUID,
		Username: user.Username,
		ImageURL: user.ImageURL,
		Status:   user.Status,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return util.LogError("ошибка сериализации события", err)
	}

	if err := r.client.Client.Publish(ctx, r.client.Channel, data).Err(); err != nil {
		return util.LogError("ошибка публикации события в Redis", err)
	}

	return nil
}
