package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"realtime-session-server/config"
	"realtime-session-server/internal/model"
	"realtime-session-server/internal/ports"
	"realtime-session-server/internal/security"
	"realtime-session-server/internal/util"
)

type AuthenticationService struct {
	jwtRepoInterface ports.JWTRepositoryInterface
	*config.AppConfig
	jwtServiceInterface ports.JWTServiceInterface
	userRepository      ports.UserRepository
	otpRepository       ports.OtpRepositoryInterface
}

func NewAuthenticationService(
	repo ports.JWTRepositoryInterface,
	cfg *config.AppConfig,
	service ports.JWTServiceInterface,
	userInterface ports.UserRepository,
	otpInterface ports.OtpRepositoryInterface,
) *AuthenticationService {
	return &AuthenticationService{
		repo,
		cfg,
		service,
		userInterface,
		otpInterface,
	}
}

// Login проверяет пароль и выдает пару токенов, сохраняя refresh-токен
// с метаданными устройства. Наружу и при отсутствии пользователя, и при
// неверном пароле уходит одна и та же ошибка
func (s *AuthenticationService) Login(ctx context.Context, email, password, userAgent, ipAddress string) (*model.TokensPair, error) {
	user, err := s.userRepository.FindByEmail(ctx, email)
	if err != nil {
		log.Printf("пользователь %s не найден: %v", email, err)
		return nil, model.ErrInvalidCredentials
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, model.ErrInvalidCredentials
	}

	if s.AppConfig.Auth.RequireVerifiedEmail {
		verified, err := s.otpRepository.IsEmailVerified(ctx, email)
		if err != nil {
			return nil, util.LogError("ошибка проверки подтверждения email", err)
		}
		if !verified {
			return nil, model.ErrEmailNotVerified
		}
	}

	tokens, refreshToken, err := s.jwtServiceInterface.GenerateAccessRefreshTokens(user)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации токенов: %w", err)
	}

	refreshToken.UserAgent = userAgent
	refreshToken.IpAddress = ipAddress

	if err := s.jwtRepoInterface.SaveRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("ошибка сохранения refresh токена: %w", err)
	}

	return tokens, nil
}

// Refresh выполняет ротацию: refresh-токен одноразовый, и отзыв происходит
// в той же операции хранилища, которая проверяет его пригодность. Из двух
// конкурентных вызовов с одним токеном новую пару получает ровно один,
// второй получает model.ErrInvalidRefreshToken.
//
// Ценность украденного refresh-токена тем самым ограничена одним обменом.
func (s *AuthenticationService) Refresh(ctx context.Context, refreshToken string, userAgent string, ipAddress string) (*model.TokensPair, error) {
	claimedToken, err := s.jwtRepoInterface.ClaimRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, model.ErrInvalidRefreshToken) {
			return nil, err
		}
		return nil, util.LogError("не удалось использовать рефреш токен", err)
	}

	if claimedToken.IpAddress != ipAddress {
		log.Printf("refresh token %s: обновление с нового ip адреса (%s -> %s)",
			claimedToken.UUID, claimedToken.IpAddress, ipAddress)
	}

	user, err := s.userRepository.FindByUUID(ctx, claimedToken.UserUUID)
	if err != nil {
		return nil, util.LogError("не удалось найти владельца токена", err)
	}

	tokensPair, newRefreshToken, err := s.jwtServiceInterface.GenerateAccessRefreshTokens(user)
	if err != nil {
		return nil, util.LogError("ошибка генерации токенов", err)
	}

	newRefreshToken.UserAgent = userAgent
	newRefreshToken.IpAddress = ipAddress
	if err := s.jwtRepoInterface.SaveRefreshToken(ctx, newRefreshToken); err != nil {
		return nil, util.LogError("не удалось сохранить рефреш токен", err)
	}

	return tokensPair, nil
}

// Logout отзывает refresh-токен сессии. Идемпотентна: повторный или
// неизвестный токен ошибкой не считается
func (s *AuthenticationService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.jwtRepoInterface.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("не удалось отозвать токен: %w", err)
	}
	return nil
}

// LogoutAll отзывает все действующие refresh-токены пользователя одной
// операцией. Уже выданные access токены при этом продолжают действовать
// до собственного истечения: они stateless и по хранилищу не проверяются
func (s *AuthenticationService) LogoutAll(ctx context.Context, userUUID string) error {
	if err := s.jwtRepoInterface.RevokeAllByUser(ctx, userUUID); err != nil {
		return fmt.Errorf("не удалось отозвать токены пользователя: %w", err)
	}
	return nil
}
