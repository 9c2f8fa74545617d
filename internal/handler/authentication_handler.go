package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"realtime-session-server/config"
	"realtime-session-server/internal/model"
	"realtime-session-server/internal/model/requestresponse"
	"realtime-session-server/internal/ports"
	"realtime-session-server/internal/security"
	"realtime-session-server/internal/util"
)

type AuthenticationHandler struct {
	ports.AuthenticationService
	accessTTL  time.Duration
	refreshTTL time.Duration
	production bool
}

func NewAuthenticationHandler(authenticationService ports.AuthenticationService, cfg *config.AppConfig) *AuthenticationHandler {
	accessTTL, _ := time.ParseDuration(cfg.JWT.AccessTokenTTL)
	refreshTTL, _ := time.ParseDuration(cfg.JWT.RefreshTokenTTL)

	return &AuthenticationHandler{
		AuthenticationService: authenticationService,
		accessTTL:             accessTTL,
		refreshTTL:            refreshTTL,
		production:            cfg.Auth.Production,
	}
}

// Login godoc
// @Summary Аутентификация пользователя
// @Description Получение пары токенов по email и паролю. Токены также выставляются в куки Authentication и Refresh
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LoginRequest true "Тело запроса"
// @Success 200 {object} requestresponse.LoginResponse "Успешная аутентификация"
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректный JSON или пустые поля"
// @Failure 401 {object} requestresponse.ErrorResponse "Неверный логин или пароль"
// @Failure 403 {object} requestresponse.ErrorResponse "Email не подтвержден"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req requestresponse.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, 400, "некорректный JSON")
		return
	}

	if req.Email == "" || req.Password == "" {
		sendErrorResponse(w, 400, "email и password обязательны")
		return
	}

	tokens, err := h.AuthenticationService.Login(ctx, req.Email, req.Password, r.UserAgent(), r.RemoteAddr)
	if err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, model.ErrInvalidCredentials):
			util.HandleError(w, "неверный логин или пароль", http.StatusUnauthorized)
		case errors.Is(err, model.ErrEmailNotVerified):
			util.HandleError(w, "email не подтвержден", http.StatusForbidden)
		default:
			util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
		}
		return
	}

	h.setAuthCookies(w, tokens)

	resp := requestresponse.LoginResponse{}
	resp.Response.AccessToken = tokens.AccessToken
	resp.Response.RefreshToken = tokens.RefreshToken

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// RefreshToken godoc
// @Summary Обновление токенов
// @Description Обменивает одноразовый refresh токен (из куки Refresh или тела запроса) на новую пару токенов
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.RefreshTokenRequest false "Тело запроса"
// @Success 200 {object} requestresponse.RefreshTokenResponse "Новые access и refresh токены"
// @Failure 401 {object} requestresponse.ErrorResponse "Не удалось обновить токены"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/refresh [post]
func (h *AuthenticationHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	refreshToken := h.extractRefreshToken(r)
	if refreshToken == "" {
		sendErrorResponse(w, 401, "не удалось обновить токены")
		return
	}

	tokensPair, err := h.AuthenticationService.Refresh(ctx, refreshToken, r.UserAgent(), r.RemoteAddr)
	if err != nil {
		// конкретная причина остается в логах, клиенту уходит общий отказ
		log.Println(err)
		if errors.Is(err, model.ErrInvalidRefreshToken) {
			sendErrorResponse(w, 401, "не удалось обновить токены")
			return
		}
		sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		return
	}

	h.setAuthCookies(w, tokensPair)

	resp := requestresponse.RefreshTokenResponse{}
	resp.Response.AccessToken = tokensPair.AccessToken
	resp.Response.RefreshToken = tokensPair.RefreshToken

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// Logout godoc
// @Summary Завершение сессии
// @Description Отзывает refresh токен текущей сессии и гасит куки. Повторный logout не считается ошибкой
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LogoutRequest false "Тело запроса"
// @Success 200 "Сессия завершена"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/logout [post]
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	refreshToken := h.extractRefreshToken(r)
	if refreshToken != "" {
		if err := h.AuthenticationService.Logout(ctx, refreshToken); err != nil {
			log.Println(err)
			sendErrorResponse(w, 500, "внутренняя ошибка сервера")
			return
		}
	}

	h.clearAuthCookies(w)
	w.WriteHeader(200)
}

// LogoutAll godoc
// @Summary Завершение всех сессий пользователя
// @Description Отзывает все действующие refresh токены пользователя. Уже выданные access токены доживают свой срок
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 "Все сессии завершены"
// @Failure 401 {object} requestresponse.ErrorResponse "Не авторизован"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/logout-all [post]
func (h *AuthenticationHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		sendErrorResponse(w, 401, "не авторизован")
		return
	}

	if err := h.AuthenticationService.LogoutAll(ctx, claims.UserUUID); err != nil {
		log.Println(err)
		sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		return
	}

	h.clearAuthCookies(w)
	w.WriteHeader(200)
}

// GetCurrentUser godoc
// @Summary Текущий пользователь
// @Description Возвращает данные пользователя из access токена
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.CurrentUserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Router /api/auth/me [get]
func (h *AuthenticationHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendErrorResponse(w, 401, "не авторизован")
		return
	}

	resp := requestresponse.CurrentUserResponse{}
	resp.Response.UserUUID = claims.UserUUID
	resp.Response.Email = claims.Email
	resp.Response.Username = claims.Username

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// extractRefreshToken берет refresh токен из куки Refresh,
// иначе из тела запроса
func (h *AuthenticationHandler) extractRefreshToken(r *http.Request) string {
	if cookie, err := r.Cookie(security.CookieRefresh); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var req requestresponse.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

func (h *AuthenticationHandler) setAuthCookies(w http.ResponseWriter, tokens *model.TokensPair) {
	for _, cookie := range security.BuildAuthCookies(tokens, h.accessTTL, h.refreshTTL, h.production) {
		http.SetCookie(w, cookie)
	}
}

func (h *AuthenticationHandler) clearAuthCookies(w http.ResponseWriter) {
	for _, cookie := range security.ClearAuthCookies(h.production) {
		http.SetCookie(w, cookie)
	}
}

func sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(requestresponse.ErrorResponse{Error: message})
}
