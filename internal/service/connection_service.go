package service

import (
	"context"
	"fmt"
	"log"

	"realtime-session-server/internal/model"
	"realtime-session-server/internal/ports"
	"realtime-session-server/internal/security"
)

type HandshakeState int

const (
	StateStart HandshakeState = iota
	StateVerifyAccess
	StateAuthenticated
	StateAccessExpired
	StateExtractRefresh
	StateRefreshAttempted
	StateRejected
)

// Handshake : явное состояние аутентификации одного подключения.
// Blob — сырая строка кук ("Authentication=...; Refresh=...") из
// метаданных транспорта; PendingCookies — новые значения, которые
// вызывающий слой должен донести до клиента своим каналом
type Handshake struct {
	State          HandshakeState
	Blob           string
	UserAgent      string
	IpAddress      string
	Claims         *security.Claims
	PendingCookies map[string]string
	Err            error

	refreshAttempted bool
}

func (hs *Handshake) fail(err error) {
	hs.Err = err
	hs.State = StateRejected
}

func (hs *Handshake) Terminal() bool {
	return hs.State == StateAuthenticated || hs.State == StateRejected
}

// ConnectionService аутентифицирует handshake долгоживущего подключения.
// Просроченный access токен дает право ровно на одну попытку refresh,
// после чего вторая проверка финальна
type ConnectionService struct {
	authService ports.AuthenticationService
	jwtService  ports.JWTServiceInterface
	presence    ports.PresenceTracker
	secretKey   []byte
}

func NewConnectionService(
	authService ports.AuthenticationService,
	jwtService ports.JWTServiceInterface,
	presence ports.PresenceTracker,
	secretKey []byte,
) *ConnectionService {
	return &ConnectionService{
		authService: authService,
		jwtService:  jwtService,
		presence:    presence,
		secretKey:   secretKey,
	}
}

// Step выполняет один переход машины состояний над значением Handshake.
// Транспорт здесь не нужен: машина тестируется сама по себе
func (s *ConnectionService) Step(ctx context.Context, hs *Handshake) {
	switch hs.State {
	case StateStart:
		if hs.Blob == "" {
			hs.fail(model.ErrNoRequestContext)
			return
		}
		hs.State = StateVerifyAccess

	case StateVerifyAccess:
		accessToken, ok := security.ExtractCookieValue(hs.Blob, security.CookieAuthentication)
		if !ok {
			hs.fail(fmt.Errorf("access токен не найден в куках"))
			return
		}

		claims, err := s.jwtService.ValidateJWT(accessToken, s.secretKey)
		if err == nil {
			hs.Claims = claims
			hs.State = StateAuthenticated
			return
		}

		// подделанный или испорченный токен не дает права на refresh,
		// и после единственной попытки refresh проверка финальна
		if hs.refreshAttempted || !security.IsExpiredError(err) {
			hs.fail(err)
			return
		}
		hs.State = StateAccessExpired

	case StateAccessExpired:
		hs.State = StateExtractRefresh

	case StateExtractRefresh:
		if _, ok := security.ExtractCookieValue(hs.Blob, security.CookieRefresh); !ok {
			hs.fail(model.ErrNoRefreshToken)
			return
		}
		hs.State = StateRefreshAttempted

	case StateRefreshAttempted:
		refreshToken, _ := security.ExtractCookieValue(hs.Blob, security.CookieRefresh)
		hs.refreshAttempted = true

		tokens, err := s.authService.Refresh(ctx, refreshToken, hs.UserAgent, hs.IpAddress)
		if err != nil {
			hs.fail(err)
			return
		}

		// access запись в блобе заменяется на месте, остальные записи
		// не трогаем; новую пару вызывающий слой отдаст клиенту сам
		hs.Blob = security.PatchCookieValue(hs.Blob, security.CookieAuthentication, tokens.AccessToken)
		hs.PendingCookies = map[string]string{
			security.CookieAuthentication: tokens.AccessToken,
			security.CookieRefresh:        tokens.RefreshToken,
		}
		hs.State = StateVerifyAccess
	}
}

// Authenticate прогоняет машину до терминального состояния и при успехе
// регистрирует подключение в трекере присутствия
func (s *ConnectionService) Authenticate(ctx context.Context, blob, userAgent, ipAddress string) (*Handshake, error) {
	hs := &Handshake{
		State:     StateStart,
		Blob:      blob,
		UserAgent: userAgent,
		IpAddress: ipAddress,
	}

	for !hs.Terminal() {
		s.Step(ctx, hs)
	}

	if hs.State == StateRejected {
		return hs, hs.Err
	}

	if err := s.presence.Connect(ctx, hs.Claims.UserUUID); err != nil {
		// личность уже установлена, сбой учета присутствия подключение не валит
		log.Printf("не удалось обновить присутствие %s: %v", hs.Claims.UserUUID, err)
	}

	return hs, nil
}

// Disconnect снимает подключение ранее аутентифицированного пользователя.
// Ошибок не возвращает: отключение должно завершаться всегда
func (s *ConnectionService) Disconnect(ctx context.Context, userUUID string) {
	s.presence.Disconnect(ctx, userUUID)
}
