package repository

import (
	"context"

	"realtime-session-server/config"
	"realtime-session-server/internal/model"
	"realtime-session-server/internal/util"

	"github.com/jmoiron/sqlx"
)

type OtpRepository struct {
	*config.Database
}

func NewOtpRepository(database *config.Database) *OtpRepository {
	return &OtpRepository{database}
}

// SaveCode : сохраняет выданный код подтверждения
func (r *OtpRepository) SaveCode(ctx context.Context, otp *model.OtpVerification) error {
	query := `INSERT INTO otp_verifications (uuid, email, code, expire_at, verified)
				VALUES ($1, $2, $3, $4, FALSE)`

	_, err := r.DB.ExecContext(ctx, query, otp.UUID, otp.Email, otp.Code, otp.ExpireAt)
	if err != nil {
		return util.LogError("[OtpRepo] ошибка сохранения кода", err)
	}

	return nil
}

// Confirm помечает код использованным. Код одноразовый: условие
// verified = FALSE не даст подтвердить его повторно
func (r *OtpRepository) Confirm(ctx context.Context, email string, code string) (bool, error) {
	query := `UPDATE otp_verifications
				SET verified = TRUE
				WHERE email = $1 AND code = $2 AND verified = FALSE AND expire_at > now()`

	result, err := r.DB.ExecContext(ctx, query, email, code)
	if err != nil {
		return false, util.LogError("[OtpRepo] ошибка подтверждения кода", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, util.LogError("[OtpRepo] не удалось проверить, подтвержден ли код", err)
	}

	return rowsAffected > 0, nil
}

// IsEmailVerified : был ли email хоть раз подтвержден действующим кодом
func (r *OtpRepository) IsEmailVerified(ctx context.Context, email string) (bool, error) {
	var verified bool
	query := `SELECT EXISTS (SELECT 1 FROM otp_verifications WHERE email = $1 AND verified = TRUE)`
	err := sqlx.GetContext(ctx, r.DB, &verified, query, email)
	if err != nil {
		return false, util.LogError("[OtpRepo] ошибка проверки подтверждения email", err)
	}
	return verified, nil
}
