package repository

import (
	"context"

	"realtime-session-server/config"
	"realtime-session-server/internal/model"
	"realtime-session-server/internal/util"

	"github.com/jmoiron/sqlx"
)

type UserRepository struct {
	*config.Database
}

func NewUserRepository(database *config.Database) *UserRepository {
	return &UserRepository{database}
}

// CreateUser : сохраняет нового пользователя
func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	query := `
	INSERT INTO users (uuid, email, username, image_url, password_hash, status)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING uuid, email, username, image_url, status, created_at
	`

	createdUser := &model.User{}
	err := r.DB.QueryRowxContext(ctx, query,
		user.UUID, user.Email, user.Username, user.ImageURL, user.PasswordHash, user.Status).
		Scan(&createdUser.UUID, &createdUser.Email, &createdUser.Username,
			&createdUser.ImageURL, &createdUser.Status, &createdUser.CreatedAt)

	if err != nil {
		return nil, util.LogError("[UserRepo] ошибка вставки данных в БД", err)
	}

	return createdUser, nil
}

// FindByUUID : ищет пользователя по UUID
func (r *UserRepository) FindByUUID(ctx context.Context, uuid string) (*model.User, error) {
	query := `SELECT uuid, email, username, image_url, password_hash, status, created_at FROM users WHERE uuid = $1`
	var user model.User
	err := sqlx.GetContext(ctx, r.DB, &user, query, uuid)
	if err != nil {
		return nil, util.LogError("[UserRepo] не удалось найти пользователя в БД", err)
	}
	return &user, nil
}

// FindByEmail : ищет пользователя по email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT uuid, email, username, image_url, password_hash, status, created_at FROM users WHERE email = $1`
	var user model.User
	err := sqlx.GetContext(ctx, r.DB, &user, query, email)
	if err != nil {
		return nil, util.LogError("[UserRepo] не удалось найти пользователя по email", err)
	}
	return &user, nil
}

// UpdateStatus : меняет статус присутствия пользователя
func (r *UserRepository) UpdateStatus(ctx context.Context, uuid string, status string) error {
	query := `UPDATE users SET status = $2 WHERE uuid = $1`
	_, err := r.DB.ExecContext(ctx, query, uuid, status)
	if err != nil {
		return util.LogError("[UserRepo] не удалось обновить статус пользователя", err)
	}
	return nil
}

// UpdateImageURL : меняет ссылку на аватар пользователя
func (r *UserRepository) UpdateImageURL(ctx context.Context, uuid string, imageURL string) error {
	query := `UPDATE users SET image_url = $2 WHERE uuid = $1`
	_, err := r.DB.ExecContext(ctx, query, uuid, imageURL)
	if err != nil {
		return util.LogError("[UserRepo] не удалось обновить аватар", err)
	}
	return nil
}

// Exists : проверяет, существует ли пользователь с таким email
func (r *UserRepository) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	err := sqlx.GetContext(ctx, r.DB, &exists, query, email)
	if err != nil {
		return false, util.LogError("[UserRepo] ошибка проверки существования пользователя", err)
	}
	return exists, nil
}
