package security

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"realtime-session-server/config"
	"realtime-session-server/internal/model"
	"realtime-session-server/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

type Claims struct {
	UserUUID string `json:"user_uuid"`
	Email    string `json:"email"`
	Username string `json:"username"`
	ImageURL string `json:"image_url"`
	jwt.RegisteredClaims
}

type JWTService struct {
	*config.JWTConfig
}

// NewJWTService проверяет конфигурацию подписи при старте:
// без секрета сервис подняться не должен
func NewJWTService(cfg *config.JWTConfig) (*JWTService, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("не задан секретный ключ подписи токенов")
	}
	if _, err := time.ParseDuration(cfg.AccessTokenTTL); err != nil {
		return nil, fmt.Errorf("некорректный access_token_ttl: %w", err)
	}
	if _, err := time.ParseDuration(cfg.RefreshTokenTTL); err != nil {
		return nil, fmt.Errorf("некорректный refresh_token_ttl: %w", err)
	}
	return &JWTService{cfg}, nil
}

func (service *JWTService) GenerateAccessRefreshTokens(user *model.User) (*model.TokensPair, *model.RefreshToken, error) {
	refreshToken, refreshTokenStr, err := GenerateRefreshToken()
	if err != nil {
		return nil, nil, util.LogError("ошибка генерации рефреш токена", err)
	}

	refreshToken.UserUUID = user.UUID
	timeDuration, _ := time.ParseDuration(service.RefreshTokenTTL)
	refreshToken.ExpireAt = time.Now().Add(timeDuration)

	timeDuration, _ = time.ParseDuration(service.AccessTokenTTL)
	claims := Claims{
		UserUUID: user.UUID,
		Email:    user.Email,
		Username: user.Username,
		ImageURL: user.ImageURL,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti делает каждый access токен уникальным даже в пределах секунды
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(timeDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "Realtime-session-server",
		},
	}

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	accessToken, err := jwtToken.SignedString([]byte(service.SecretKey))
	if err != nil {
		return nil, nil, util.LogError("ошибка подписи токена", err)
	}

	return &model.TokensPair{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenStr,
	}, refreshToken, nil
}

func GenerateRefreshToken() (*model.RefreshToken, string, error) {
	tokenBytes := make([]byte, 32)
	_, err := rand.Read(tokenBytes)
	if err != nil {
		return nil, "", util.LogError("ошибка генерации", err)
	}
	refreshUUID := uuid.New().String()
	refreshTokenStr := base64.StdEncoding.EncodeToString(tokenBytes)

	// refreshTokenStr отдается клиенту и сохраняется в БД как есть:
	// атомарный claim при ротации требует выборки по точному значению
	return &model.RefreshToken{
		UUID:    refreshUUID,
		Token:   refreshTokenStr,
		Revoked: false,
	}, refreshTokenStr, nil
}

func (service *JWTService) ValidateJWT(jwtTokenStr string, secretKey []byte) (*Claims, error) {
	var claims = &Claims{}

	jwtToken, err := jwt.ParseWithClaims(jwtTokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Header["alg"] != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("неверный способ подписи токена: %v", token.Header["alg"])
		}
		return secretKey, nil
	})

	if err != nil {
		// просроченный токен отличаем от подделанного: только истечение
		// срока дает право на попытку refresh при handshake. Подпись при
		// этом уже проверена, поэтому claims пригодны для идентификации
		if errors.Is(err, jwt.ErrTokenExpired) {
			return claims, fmt.Errorf("невалидный токен: %w", err)
		}
		return nil, fmt.Errorf("невалидный токен: %w", err)
	}
	if !jwtToken.Valid {
		return nil, fmt.Errorf("невалидный токен")
	}

	return claims, nil
}

// IsExpiredError сообщает, что токен не прошел проверку именно из-за истечения срока
func IsExpiredError(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}

func JWTMiddleware(secretKey []byte, jwtService *JWTService) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(handleAuthentication(secretKey, jwtService, next))
	}
}

// handleAuthentication проверяет access токен из заголовка Authorization
// или из куки Authentication. Access токен stateless: в БД не ходим
func handleAuthentication(secretKey []byte, jwtService *JWTService, next http.Handler) func(writer http.ResponseWriter, request *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		var token string

		authorizationHeader := request.Header.Get("Authorization")
		if strings.HasPrefix(authorizationHeader, "Bearer ") {
			token = strings.TrimPrefix(authorizationHeader, "Bearer ")
		} else if cookie, err := request.Cookie(CookieAuthentication); err == nil {
			token = cookie.Value
		}

		if token == "" {
			http.Error(writer, "unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := jwtService.ValidateJWT(token, secretKey)
		if err != nil {
			http.Error(writer, "unauthorized", http.StatusUnauthorized)
			return
		}

		req := request.WithContext(context.WithValue(request.Context(), UserContextKey, claims))
		next.ServeHTTP(writer, req)
	}
}

func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("пользователь не авторизован")
	}
	return claims, nil
}
