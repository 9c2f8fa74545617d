package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"realtime-session-server/config"
	"realtime-session-server/internal/model"
	"realtime-session-server/internal/model/requestresponse"
	"realtime-session-server/internal/security"
	"realtime-session-server/internal/service"
)

// RealtimeHandler : HTTP-адаптер handshake долгоживущих подключений.
// Сам канал доставки сообщений живет вне этого сервера, здесь только
// допуск подключения и учет присутствия
type RealtimeHandler struct {
	connectionService *service.ConnectionService
	jwtService        *security.JWTService
	secretKey         []byte
	accessTTL         time.Duration
	refreshTTL        time.Duration
	production        bool
}

func NewRealtimeHandler(connectionService *service.ConnectionService, jwtService *security.JWTService, cfg *config.AppConfig) *RealtimeHandler {
	accessTTL, _ := time.ParseDuration(cfg.JWT.AccessTokenTTL)
	refreshTTL, _ := time.ParseDuration(cfg.JWT.RefreshTokenTTL)

	return &RealtimeHandler{
		connectionService: connectionService,
		jwtService:        jwtService,
		secretKey:         []byte(cfg.JWT.SecretKey),
		accessTTL:         accessTTL,
		refreshTTL:        refreshTTL,
		production:        cfg.Auth.Production,
	}
}

// Connect godoc
// @Summary Handshake подключения
// @Description Аутентифицирует подключение по кукам Authentication/Refresh. Если access токен просрочен, выполняется ровно одна попытка refresh, и новая пара уходит клиенту в Set-Cookie
// @Tags Realtime
// @Produce json
// @Success 200 {object} requestresponse.ConnectResponse "Подключение учтено"
// @Failure 401 {object} requestresponse.ErrorResponse "Не авторизован"
// @Router /api/realtime/connect [post]
func (h *RealtimeHandler) Connect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	blob := r.Header.Get("Cookie")

	handshake, err := h.connectionService.Authenticate(ctx, blob, r.UserAgent(), r.RemoteAddr)
	if err != nil {
		// причины отказа различаются только в логах
		log.Printf("handshake отклонен: %v", err)
		sendErrorResponse(w, 401, "не авторизован")
		return
	}

	if handshake.PendingCookies != nil {
		pair := &model.TokensPair{
			AccessToken:  handshake.PendingCookies[security.CookieAuthentication],
			RefreshToken: handshake.PendingCookies[security.CookieRefresh],
		}
		for _, cookie := range security.BuildAuthCookies(pair, h.accessTTL, h.refreshTTL, h.production) {
			http.SetCookie(w, cookie)
		}
	}

	resp := requestresponse.ConnectResponse{}
	resp.Response.UserUUID = handshake.Claims.UserUUID
	resp.Response.Status = model.StatusOnline

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// Disconnect godoc
// @Summary Отключение
// @Description Снимает подключение с учета присутствия. Всегда завершается успешно: ошибки только логируются
// @Tags Realtime
// @Produce json
// @Success 200 "Подключение снято"
// @Router /api/realtime/disconnect [post]
func (h *RealtimeHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cookie, err := r.Cookie(security.CookieAuthentication)
	if err != nil || cookie.Value == "" {
		log.Printf("disconnect без куки %s", security.CookieAuthentication)
		w.WriteHeader(200)
		return
	}

	// просроченный, но правильно подписанный токен годится для
	// идентификации: соединение могло пережить срок access токена,
	// и отключение обязано снять его с учета
	claims, err := h.jwtService.ValidateJWT(cookie.Value, h.secretKey)
	if err != nil && !security.IsExpiredError(err) {
		log.Printf("disconnect с невалидным токеном: %v", err)
		w.WriteHeader(200)
		return
	}

	h.connectionService.Disconnect(ctx, claims.UserUUID)
	w.WriteHeader(200)
}
