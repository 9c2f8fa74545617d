package repository

import (
	"context"
	"database/sql"
	"errors"

	"realtime-session-server/config"
	"realtime-session-server/internal/model"
	"realtime-session-server/internal/util"
)

type JWTRepository struct {
	*config.Database
}

func NewJWTRepository(database *config.Database) *JWTRepository {
	return &JWTRepository{database}
}

// SaveRefreshToken сохраняет refresh-токен в базе данных
// Возвращает ошибку, если операция не удалась
func (r *JWTRepository) SaveRefreshToken(ctx context.Context, refreshToken *model.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (uuid, user_uuid, token, expire_at, revoked, user_agent, ip_address)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.DB.ExecContext(ctx, query,
		refreshToken.UUID,
		refreshToken.UserUUID,
		refreshToken.Token,
		refreshToken.ExpireAt,
		refreshToken.Revoked,
		refreshToken.UserAgent,
		refreshToken.IpAddress,
	)

	if err != nil {
		return util.LogError("ошибка вставки данных в БД", err)
	}

	return nil
}

// ClaimRefreshToken находит пригодный токен и помечает его отозванным
// одним UPDATE. Два конкурентных refresh с одним и тем же токеном оба
// прочитали бы "пригоден" при схеме find-then-update; здесь выигрывает
// ровно один, второй получает model.ErrInvalidRefreshToken
func (r *JWTRepository) ClaimRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	query := `UPDATE refresh_tokens
				SET revoked = TRUE, revoked_at = now()
				WHERE token = $1 AND revoked = FALSE AND expire_at > now()
				RETURNING uuid, user_uuid, token, expire_at, revoked, user_agent, ip_address, created_at, revoked_at`

	refreshToken := &model.RefreshToken{}

	err := r.DB.QueryRowContext(ctx, query, token).Scan(
		&refreshToken.UUID,
		&refreshToken.UserUUID,
		&refreshToken.Token,
		&refreshToken.ExpireAt,
		&refreshToken.Revoked,
		&refreshToken.UserAgent,
		&refreshToken.IpAddress,
		&refreshToken.CreatedAt,
		&refreshToken.RevokedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrInvalidRefreshToken
		}
		return nil, util.LogError("ошибка при выполнении запроса", err)
	}

	return refreshToken, nil
}

// RevokeRefreshToken отзывает токен по его значению. Идемпотентна:
// отсутствие или уже отозванный токен ошибкой не считается
func (r *JWTRepository) RevokeRefreshToken(ctx context.Context, token string) error {
	query := `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = now() WHERE token = $1 AND revoked = FALSE`

	if _, err := r.DB.ExecContext(ctx, query, token); err != nil {
		return util.LogError("не удалось отозвать рефреш токен", err)
	}

	return nil
}

// RevokeAllByUser отзывает все действующие токены пользователя одним запросом.
// Уже выданные access токены остаются валидны до истечения своего срока
func (r *JWTRepository) RevokeAllByUser(ctx context.Context, userUUID string) error {
	query := `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = now() WHERE user_uuid = $1 AND revoked = FALSE`

	if _, err := r.DB.ExecContext(ctx, query, userUUID); err != nil {
		return util.LogError("не удалось отозвать токены пользователя", err)
	}

	return nil
}

// FindByToken ищет refresh-токен в базе данных
// Возвращает модель model.RefreshToken или ошибку, если не удалось найти токен
func (r *JWTRepository) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	query := `SELECT uuid, user_uuid, token, expire_at, revoked, user_agent, ip_address FROM refresh_tokens WHERE token = $1`

	refreshToken := &model.RefreshToken{}

	err := r.DB.QueryRowContext(ctx, query, token).Scan(
		&refreshToken.UUID,
		&refreshToken.UserUUID,
		&refreshToken.Token,
		&refreshToken.ExpireAt,
		&refreshToken.Revoked,
		&refreshToken.UserAgent,
		&refreshToken.IpAddress,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.LogError("токен не был найден", err)
		}
		return nil, util.LogError("ошибка при выполнении запроса", err)
	}

	return refreshToken, nil
}
