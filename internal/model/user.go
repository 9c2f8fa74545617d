package model

import "time"

// Статусы присутствия пользователя
const (
	StatusOnline  = "ONLINE"
	StatusAway    = "AWAY"
	StatusDnd     = "DND"
	StatusOffline = "OFFLINE"
)

type User struct {
	UUID         string    `db:"uuid" json:"uuid"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	ImageURL     string    `db:"image_url" json:"image_url"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// StatusChangedEvent : событие смены статуса, публикуется в топик для подписчиков
type StatusChangedEvent struct {
	UserUUID string `json:"user_uuid"`
	Username string `json:"username"`
	ImageURL string `json:"image_url"`
	Status   string `json:"status"`
}
