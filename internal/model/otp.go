package model

import "time"

// OtpVerification : код подтверждения email, одноразовый
type OtpVerification struct {
	UUID      string    `db:"uuid"`
	Email     string    `db:"email"`
	Code      string    `db:"code"`
	ExpireAt  time.Time `db:"expire_at"`
	Verified  bool      `db:"verified"`
	CreatedAt time.Time `db:"created_at"`
}
