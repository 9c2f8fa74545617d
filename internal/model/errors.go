package model

import "errors"

// Ошибки аутентификации и допуска. Наружу (HTTP / handshake) отдается
// обезличенный вариант, чтобы не раскрывать, какой именно шаг не прошел.
var (
	ErrInvalidCredentials  = errors.New("неверный логин или пароль")
	ErrInvalidRefreshToken = errors.New("невалидный или просроченный refresh токен")
	ErrNoRefreshToken      = errors.New("refresh токен не передан")
	ErrNoRequestContext    = errors.New("отсутствуют метаданные запроса")
	ErrEmailNotVerified    = errors.New("email не подтвержден")
	ErrRateLimited         = errors.New("слишком много запросов")
)
